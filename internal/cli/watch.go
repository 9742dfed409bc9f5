package cli

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"sethosts/internal/hostsfile"
	"sethosts/internal/privilege"
	"sethosts/internal/updater"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Periodically re-optimize the hosts file",
	Long: `Run the update pipeline on a fixed interval until interrupted.
Requires administrator privileges, since every run rewrites the hosts file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		interval, _ := cmd.Flags().GetDuration("interval")

		opts, err := loadOptions(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		if err := privilege.Check(); err != nil {
			return fmt.Errorf("%w (rerun with sudo)", err)
		}
		path, err := hostsfile.Path()
		if err != nil {
			return err
		}

		groups := appInstance.Config.Groups
		run := func(ctx context.Context) error {
			upd := newUpdater(opts)
			result, err := upd.Run(ctx, groups)
			if err != nil {
				return err
			}
			if err := hostsfile.Update(path, result.Records, time.Now()); err != nil {
				return err
			}
			log.Printf("Hosts file updated: %d entries, %d hostnames missing (%.1fs)",
				countEntries(result.Records), len(result.Missing), result.Duration.Seconds())
			return nil
		}

		watcher, err := updater.NewWatcher(interval, run)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := watcher.Start(ctx); err != nil {
			return err
		}
		fmt.Printf("Watching; updating every %s. Ctrl-C to stop.\n", interval)

		<-ctx.Done()
		return watcher.Stop()
	},
}

func init() {
	addProbeFlags(watchCmd)
	addSelectFlags(watchCmd)
	watchCmd.Flags().Duration("interval", 12*time.Hour, "time between updates")
	rootCmd.AddCommand(watchCmd)
}
