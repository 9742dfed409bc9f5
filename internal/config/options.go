package config

import (
	"time"

	"sethosts/internal/rank"
)

// Options holds every tunable of a probing round.
type Options struct {
	Workers        int64         // max simultaneous probes
	ProbeTimeout   time.Duration // per-probe budget
	GlobalDeadline time.Duration // whole-batch budget
	ProbeSamples   int           // TCP handshakes averaged per measurement
	ProbePort      int           // port dialed on host-IP candidates

	HostsNum   int           // max IPs kept per hostname
	MaxLatency time.Duration // selector cutoff
	// RelaxFactor multiplies the cutoff once when nothing passes it,
	// re-filtering the already collected results. 0 disables relaxation.
	RelaxFactor int

	BalanceMode       rank.Mode
	BalanceRatio      [2]int
	DedupeAcrossHosts bool

	CacheExpiry time.Duration // DNS record cache lifetime
}

// Default returns the stock options. The numbers mirror long-standing
// defaults: 1s probes, 300ms acceptable latency, one host IP per domain.
func Default() Options {
	return Options{
		Workers:        10,
		ProbeTimeout:   time.Second,
		GlobalDeadline: 30 * time.Second,
		ProbeSamples:   4,
		ProbePort:      443,
		HostsNum:       1,
		MaxLatency:     300 * time.Millisecond,
		RelaxFactor:    2,
		BalanceMode:    rank.ModeOverall,
		BalanceRatio:   rank.DefaultRatio,
		CacheExpiry:    7 * 24 * time.Hour,
	}
}
