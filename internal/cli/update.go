package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"sethosts/internal/config"
	"sethosts/internal/hostsfile"
	"sethosts/internal/hostsmap"
	"sethosts/internal/privilege"
	"sethosts/internal/probe"
	"sethosts/internal/resolve"
	"sethosts/internal/tui"
	"sethosts/internal/updater"
	pkgerrors "sethosts/pkg/errors"
)

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Probe candidates and rewrite the hosts file",
	Long: `Resolve candidate IPs for every configured domain group, probe them
concurrently for latency, and write the fastest into the system hosts file.

Writing the hosts file requires administrator privileges; use --dry-run to
preview the selection without touching it.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		opts, err := loadOptions(ctx, cmd)
		if err != nil {
			return err
		}
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		plain, _ := cmd.Flags().GetBool("plain")
		groupName, _ := cmd.Flags().GetString("group")

		groups := appInstance.Config.Groups
		if groupName != "" {
			group, err := appInstance.Config.Group(groupName)
			if err != nil {
				return err
			}
			groups = []config.DomainGroup{*group}
		}

		if !dryRun {
			if err := privilege.Check(); err != nil {
				return fmt.Errorf("%w (rerun with sudo, or use --dry-run)", err)
			}
		}

		upd := newUpdater(opts)
		result, runErr := runWithProgress(ctx, upd, groups, plain)
		if result == nil {
			return runErr
		}

		printRecords(result.Records)
		for _, hostname := range result.Missing {
			fmt.Fprintf(os.Stderr, "warning: no usable IPs for %s\n", hostname)
		}
		printSummary(result)

		if errors.Is(runErr, pkgerrors.ErrNoUsableHosts) {
			return fmt.Errorf("hosts file not updated: %w", runErr)
		}

		if dryRun {
			fmt.Println("\nDry run; hosts file untouched. Managed block would be:")
			for _, line := range hostsfile.Render(result.Records, time.Now()) {
				fmt.Println(line)
			}
			return nil
		}

		path, err := hostsfile.Path()
		if err != nil {
			return err
		}
		if err := hostsfile.Update(path, result.Records, time.Now()); err != nil {
			return err
		}
		fmt.Printf("\nUpdated %s (%d entries, backup at %s.bak)\n",
			path, countEntries(result.Records), path)
		return nil
	},
}

func newUpdater(opts config.Options) *updater.Updater {
	resolver := resolve.New(resolve.Config{
		Servers:     appInstance.Config.DNSServers,
		Timeout:     opts.ProbeTimeout,
		CacheExpiry: opts.CacheExpiry,
		Store:       appInstance.Storage,
		Web:         resolve.NewWebLookup(resolve.DefaultWebLookupConfig()),
	})
	return &updater.Updater{
		Resolver: resolver,
		Store:    appInstance.Storage,
		Options:  opts,
	}
}

type runOutcome struct {
	result *updater.RunResult
	err    error
}

// runWithProgress drives the updater under a Bubble Tea progress display
// when stdout is a terminal, or with plain per-group lines otherwise.
func runWithProgress(ctx context.Context, upd *updater.Updater, groups []config.DomainGroup, plain bool) (*updater.RunResult, error) {
	if plain || !isatty.IsTerminal(os.Stdout.Fd()) {
		upd.OnGroup = func(group string, _, candidates int) {
			fmt.Printf("Probing %s (%d candidates)...\n", group, candidates)
		}
		return upd.Run(ctx, groups)
	}

	program := tea.NewProgram(tui.NewModel())
	upd.OnGroup = func(group string, _, candidates int) {
		program.Send(tui.GroupStartedMsg{Group: group, Candidates: candidates})
	}
	upd.Progress = func(result probe.Result, completed, total int) {
		program.Send(tui.ProbeCompletedMsg{Result: result, Completed: completed, Total: total})
	}

	outcome := make(chan runOutcome, 1)
	go func() {
		result, err := upd.Run(ctx, groups)
		program.Send(tui.RunDoneMsg{Err: err})
		outcome <- runOutcome{result, err}
	}()

	if _, err := program.Run(); err != nil {
		return nil, fmt.Errorf("progress display failed: %w", err)
	}
	out := <-outcome
	return out.result, out.err
}

func printRecords(records []hostsmap.Record) {
	if len(records) == 0 {
		return
	}
	fmt.Printf("\nSelected hosts:\n")
	fmt.Println(strings.Repeat("─", 75))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "HOSTNAME\tIP\tFAMILY\tLATENCY")
	fmt.Fprintln(w, "--------\t--\t------\t-------")
	for _, rec := range records {
		for _, ip := range rec.IPs {
			family := "IPv4"
			if ip.IsIPv6() {
				family = "IPv6"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%.1f ms\n",
				rec.Hostname, ip.Addr, family, float64(ip.Latency.Microseconds())/1000)
		}
	}
	w.Flush()
}

func printSummary(result *updater.RunResult) {
	var candidates, succeeded, failed int
	relaxed := 0
	for _, g := range result.Groups {
		candidates += g.Candidates
		succeeded += g.Succeeded
		failed += g.Failed
		if g.Relaxed {
			relaxed++
		}
	}
	fmt.Printf("\nSummary: %d groups, %d candidates probed, %d ok, %d failed (%.1fs)\n",
		len(result.Groups), candidates, succeeded, failed, result.Duration.Seconds())
	if relaxed > 0 {
		fmt.Printf("Note: latency cutoff was relaxed for %d group(s)\n", relaxed)
	}
}

func countEntries(records []hostsmap.Record) int {
	n := 0
	for _, rec := range records {
		n += len(rec.IPs)
	}
	return n
}

func init() {
	addProbeFlags(updateCmd)
	addSelectFlags(updateCmd)
	updateCmd.Flags().StringP("group", "g", "", "update a single group")
	updateCmd.Flags().Bool("dry-run", false, "show the selection without writing the hosts file")
	updateCmd.Flags().Bool("plain", false, "disable the progress display")

	updateCmd.RegisterFlagCompletionFunc("group", completeGroupNamesForFlag)
	rootCmd.AddCommand(updateCmd)
}
