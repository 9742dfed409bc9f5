package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"sethosts/internal/config"
	"sethosts/internal/rank"
)

// Settings keys recognized in the database, used as flag defaults.
const (
	settingWorkers        = "workers"
	settingProbeTimeoutMS = "probe_timeout_ms"
	settingDeadlineMS     = "global_deadline_ms"
	settingHostsNum       = "hosts_num"
	settingMaxLatencyMS   = "max_latency_ms"
	settingBalanceMode    = "balance_mode"
)

func addProbeFlags(cmd *cobra.Command) {
	cmd.Flags().Int64P("workers", "w", 10, "number of concurrent probes")
	cmd.Flags().Int64P("timeout", "t", 1000, "per-probe timeout in milliseconds")
	cmd.Flags().Int64("deadline", 30000, "global probe deadline in milliseconds")
	cmd.Flags().Int("samples", 4, "TCP handshakes averaged per probe")
	cmd.Flags().Int("port", 443, "TCP port probed on candidate IPs")
}

func addSelectFlags(cmd *cobra.Command) {
	cmd.Flags().IntP("num", "n", 1, "max IPs kept per hostname")
	cmd.Flags().Int64("max-latency", 300, "latency cutoff in milliseconds")
	cmd.Flags().StringP("balance", "b", "overall", "balance mode (overall, region)")
	cmd.Flags().String("ratio", "1:1", "family interleave ratio for region mode")
	cmd.Flags().Bool("dedupe", false, "never map one IP to several hostnames")

	cmd.RegisterFlagCompletionFunc("balance", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{string(rank.ModeOverall), string(rank.ModeRegion)}, cobra.ShellCompDirectiveNoFileComp
	})
}

// loadOptions builds Options from defaults, database settings, and flags,
// in increasing priority. Settings apply only when the flag wasn't given.
func loadOptions(ctx context.Context, cmd *cobra.Command) (config.Options, error) {
	opts := config.Default()

	applyInt64Setting(ctx, cmd, "workers", settingWorkers, func(v int64) { opts.Workers = v })
	applyInt64Setting(ctx, cmd, "timeout", settingProbeTimeoutMS, func(v int64) { opts.ProbeTimeout = time.Duration(v) * time.Millisecond })
	applyInt64Setting(ctx, cmd, "deadline", settingDeadlineMS, func(v int64) { opts.GlobalDeadline = time.Duration(v) * time.Millisecond })
	applyInt64Setting(ctx, cmd, "num", settingHostsNum, func(v int64) { opts.HostsNum = int(v) })
	applyInt64Setting(ctx, cmd, "max-latency", settingMaxLatencyMS, func(v int64) { opts.MaxLatency = time.Duration(v) * time.Millisecond })

	if f := cmd.Flags().Lookup("balance"); f != nil && !f.Changed {
		if val, err := appInstance.Storage.GetSetting(ctx, settingBalanceMode); err == nil {
			if mode, ok := rank.ParseMode(val); ok {
				opts.BalanceMode = mode
			}
		}
	}

	if cmd.Flags().Changed("workers") {
		opts.Workers, _ = cmd.Flags().GetInt64("workers")
	}
	if cmd.Flags().Changed("timeout") {
		ms, _ := cmd.Flags().GetInt64("timeout")
		opts.ProbeTimeout = time.Duration(ms) * time.Millisecond
	}
	if cmd.Flags().Changed("deadline") {
		ms, _ := cmd.Flags().GetInt64("deadline")
		opts.GlobalDeadline = time.Duration(ms) * time.Millisecond
	}
	if cmd.Flags().Lookup("samples") != nil {
		opts.ProbeSamples, _ = cmd.Flags().GetInt("samples")
	}
	if cmd.Flags().Lookup("port") != nil {
		opts.ProbePort, _ = cmd.Flags().GetInt("port")
	}
	if cmd.Flags().Changed("num") {
		opts.HostsNum, _ = cmd.Flags().GetInt("num")
	}
	if cmd.Flags().Changed("max-latency") {
		ms, _ := cmd.Flags().GetInt64("max-latency")
		opts.MaxLatency = time.Duration(ms) * time.Millisecond
	}
	if cmd.Flags().Changed("balance") {
		val, _ := cmd.Flags().GetString("balance")
		mode, ok := rank.ParseMode(val)
		if !ok {
			return opts, fmt.Errorf("unknown balance mode: %s (available: overall, region)", val)
		}
		opts.BalanceMode = mode
	}
	if cmd.Flags().Lookup("ratio") != nil {
		val, _ := cmd.Flags().GetString("ratio")
		ratio, err := parseRatio(val)
		if err != nil {
			return opts, err
		}
		opts.BalanceRatio = ratio
	}
	if cmd.Flags().Lookup("dedupe") != nil {
		opts.DedupeAcrossHosts, _ = cmd.Flags().GetBool("dedupe")
	}
	return opts, nil
}

func applyInt64Setting(ctx context.Context, cmd *cobra.Command, flag, key string, apply func(int64)) {
	f := cmd.Flags().Lookup(flag)
	if f == nil || f.Changed {
		return
	}
	if val, err := appInstance.Storage.GetSetting(ctx, key); err == nil {
		if parsed, parseErr := strconv.ParseInt(val, 10, 64); parseErr == nil {
			apply(parsed)
		}
	}
}

// parseRatio parses "a:b" interleave ratios.
func parseRatio(s string) ([2]int, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return rank.DefaultRatio, fmt.Errorf("invalid ratio %q (expected a:b)", s)
	}
	a, errA := strconv.Atoi(parts[0])
	b, errB := strconv.Atoi(parts[1])
	if errA != nil || errB != nil || a <= 0 || b <= 0 {
		return rank.DefaultRatio, fmt.Errorf("invalid ratio %q (expected positive a:b)", s)
	}
	return [2]int{a, b}, nil
}
