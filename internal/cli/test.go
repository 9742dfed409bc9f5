package cli

import (
	"context"
	"fmt"
	"net/netip"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"sethosts/internal/config"
	"sethosts/internal/probe"
	"sethosts/internal/rank"
)

var testCmd = &cobra.Command{
	Use:   "test [domain]",
	Short: "Probe candidates and show the ranking",
	Long: `Probe latency without touching the hosts file.

With a domain argument, its candidate IPs are enumerated and probed over
TCP. With --servers, the configured DNS resolver pool is probed with timed
resolution queries instead.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		opts, err := loadOptions(ctx, cmd)
		if err != nil {
			return err
		}
		servers, _ := cmd.Flags().GetBool("servers")

		if servers {
			return runServerTest(ctx, opts)
		}
		if len(args) == 0 {
			return fmt.Errorf("please specify a domain, or use --servers")
		}
		return runDomainTest(ctx, opts, args[0])
	},
}

func runServerTest(ctx context.Context, opts config.Options) error {
	var candidates []probe.Candidate
	for _, server := range appInstance.Config.DNSServers {
		addr, err := netip.ParseAddr(server)
		if err != nil {
			continue
		}
		candidates = append(candidates, probe.Candidate{IP: addr, Port: 53})
	}
	if len(candidates) == 0 {
		return fmt.Errorf("no resolver pool configured")
	}

	fmt.Printf("Testing %d DNS servers...\n", len(candidates))

	scheduler := probe.NewScheduler(probe.SchedulerConfig{
		Workers:  opts.Workers,
		Timeout:  opts.ProbeTimeout,
		Deadline: opts.GlobalDeadline,
		Strategy: &probe.DNSStrategy{},
	})
	results := scheduler.Run(ctx, candidates, nil)
	printResults(results, opts.BalanceMode, opts.BalanceRatio)
	return nil
}

func runDomainTest(ctx context.Context, opts config.Options, domain string) error {
	upd := newUpdater(opts)
	addrs, err := upd.Resolver.Resolve(ctx, domain)
	if err != nil {
		return err
	}

	fmt.Printf("Testing %d candidate IPs for %s...\n", len(addrs), domain)

	candidates := make([]probe.Candidate, len(addrs))
	for i, addr := range addrs {
		candidates[i] = probe.Candidate{IP: addr, Hostname: domain, Port: opts.ProbePort}
	}
	scheduler := probe.NewScheduler(probe.SchedulerConfig{
		Workers:  opts.Workers,
		Timeout:  opts.ProbeTimeout,
		Deadline: opts.GlobalDeadline,
		Strategy: &probe.TCPStrategy{Samples: opts.ProbeSamples},
	})
	results := scheduler.Run(ctx, candidates, nil)
	printResults(results, opts.BalanceMode, opts.BalanceRatio)
	return nil
}

// printResults shows the ranked successes followed by the failures.
func printResults(results []probe.Result, mode rank.Mode, ratio [2]int) {
	ranked := rank.Rank(results, mode, ratio)

	fmt.Printf("\nResults (ranked):\n")
	fmt.Println(strings.Repeat("─", 60))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tIP\tLATENCY\tSTATUS")
	fmt.Fprintln(w, "-\t--\t-------\t------")
	for i, e := range ranked {
		fmt.Fprintf(w, "%d\t%s\t%.1f ms\tOK\n",
			i+1, e.Candidate.IP, float64(e.Latency.Microseconds())/1000)
	}
	failures := 0
	for _, r := range results {
		if r.OK() {
			continue
		}
		failures++
		fmt.Fprintf(w, "-\t%s\tN/A\t%s\n", r.Candidate.IP, r.Reason)
	}
	w.Flush()

	fmt.Printf("\nSummary: %d tested, %d ranked, %d failed\n",
		len(results), len(ranked), failures)
}

var testHistoryCmd = &cobra.Command{
	Use:   "history <ip>",
	Short: "Show probe history for an IP",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		limit, _ := cmd.Flags().GetInt("limit")

		history, err := appInstance.Storage.GetMeasurementHistory(ctx, args[0], limit)
		if err != nil {
			return err
		}
		if len(history) == 0 {
			fmt.Printf("No probe history for %s\n", args[0])
			return nil
		}

		fmt.Printf("Probe history: %s\n", args[0])
		fmt.Println(strings.Repeat("═", 50))
		fmt.Println()

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "TIME\tSTRATEGY\tLATENCY\tSTATUS")
		fmt.Fprintln(w, "----\t--------\t-------\t------")
		for _, entry := range history {
			latStr := "N/A"
			statusStr := "FAIL"
			if entry.Success && entry.LatencyMS != nil {
				latStr = fmt.Sprintf("%d ms", *entry.LatencyMS)
				statusStr = "OK"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
				entry.ProbedAt.Format("2006-01-02 15:04:05"), entry.Strategy, latStr, statusStr)
		}
		w.Flush()
		return nil
	},
}

func init() {
	addProbeFlags(testCmd)
	addSelectFlags(testCmd)
	testCmd.Flags().Bool("servers", false, "test the DNS resolver pool instead of a domain")

	testHistoryCmd.Flags().IntP("limit", "n", 20, "number of history entries")

	testCmd.AddCommand(testHistoryCmd)
	rootCmd.AddCommand(testCmd)
}
