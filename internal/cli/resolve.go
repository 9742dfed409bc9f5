package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"sethosts/internal/resolve"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <domain>",
	Short: "Show candidate IPs for a domain",
	Long: `Enumerate the candidate IPs for a domain the way 'update' would:
resolver pool answers, fresh cached records, and the web lookup fallback.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		domain := args[0]

		opts, err := loadOptions(ctx, cmd)
		if err != nil {
			return err
		}
		noWeb, _ := cmd.Flags().GetBool("no-web")

		cfg := resolve.Config{
			Servers:     appInstance.Config.DNSServers,
			Timeout:     opts.ProbeTimeout,
			CacheExpiry: opts.CacheExpiry,
			Store:       appInstance.Storage,
		}
		if !noWeb {
			cfg.Web = resolve.NewWebLookup(resolve.DefaultWebLookupConfig())
		}

		addrs, err := resolve.New(cfg).Resolve(ctx, domain)
		if err != nil {
			return err
		}

		fmt.Printf("%s: %d candidate IPs\n\n", domain, len(addrs))
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "IP\tFAMILY")
		fmt.Fprintln(w, "--\t------")
		for _, addr := range addrs {
			family := "IPv4"
			if addr.Is6() && !addr.Is4In6() {
				family = "IPv6"
			}
			fmt.Fprintf(w, "%s\t%s\n", addr, family)
		}
		return w.Flush()
	},
}

func init() {
	resolveCmd.Flags().Int64P("timeout", "t", 1000, "per-query timeout in milliseconds")
	resolveCmd.Flags().Bool("no-web", false, "skip the web record lookup fallback")
	rootCmd.AddCommand(resolveCmd)
}
