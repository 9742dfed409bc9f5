// Package updater runs the per-group pipeline: enumerate candidates, probe
// them, rank, select, and assemble resolution records.
package updater

import (
	"context"
	"errors"
	"net/netip"
	"time"

	"sethosts/internal/config"
	"sethosts/internal/hostsmap"
	"sethosts/internal/probe"
	"sethosts/internal/rank"
	"sethosts/internal/resolve"
	"sethosts/internal/storage"
	"sethosts/internal/storage/models"
	pkgerrors "sethosts/pkg/errors"
)

// Enumerator yields the candidate addresses for a domain.
type Enumerator interface {
	Resolve(ctx context.Context, domain string) ([]netip.Addr, error)
}

// Updater orchestrates one optimization run over a set of domain groups.
type Updater struct {
	Resolver Enumerator
	Store    storage.Storage // optional, measurement history
	Options  config.Options
	Strategy probe.Strategy // defaults to TCP with configured samples

	// OnGroup is called before a group's candidates are probed.
	OnGroup func(group string, domains, candidates int)
	// Progress receives per-probe completions within the current batch.
	Progress probe.ProgressFunc
}

// GroupResult summarizes one group's round.
type GroupResult struct {
	Group      string
	Candidates int
	Succeeded  int
	Failed     int
	Records    []hostsmap.Record
	Missing    []string // hostnames that ended with zero usable IPs
	Relaxed    bool     // cutoff was widened to fill the selection
}

// RunResult is the outcome of a whole run.
type RunResult struct {
	Groups   []GroupResult
	Records  []hostsmap.Record
	Missing  []string
	Duration time.Duration
}

// Run processes every group and returns the assembled records. The whole
// probing phase is bounded by the configured global deadline. A run with
// zero usable records returns the result together with ErrNoUsableHosts;
// the caller decides whether that aborts, keeps stale data, or proceeds
// with a partial mapping.
func (u *Updater) Run(ctx context.Context, groups []config.DomainGroup) (*RunResult, error) {
	start := time.Now()

	runCtx, cancel := context.WithTimeout(ctx, u.Options.GlobalDeadline)
	defer cancel()

	builder := hostsmap.NewBuilder(u.Options.HostsNum, u.Options.DedupeAcrossHosts)
	builder.Cutoff = u.Options.MaxLatency

	result := &RunResult{}
	for i := range groups {
		gr := u.processGroup(runCtx, &groups[i], builder)
		result.Missing = append(result.Missing, gr.Missing...)
		result.Groups = append(result.Groups, gr)
	}

	result.Records = builder.Records()
	result.Duration = time.Since(start)

	if len(result.Records) == 0 {
		return result, pkgerrors.ErrNoUsableHosts
	}
	return result, nil
}

func (u *Updater) processGroup(ctx context.Context, group *config.DomainGroup, builder *hostsmap.Builder) GroupResult {
	gr := GroupResult{Group: group.Name}

	if group.Type == config.GroupSeparate {
		for _, domain := range group.Domains {
			addrs := u.enumerate(ctx, []string{domain}, nil)
			selection, stats := u.probeAndSelect(ctx, group.Name, domain, addrs, &gr)
			gr.Candidates += stats.candidates
			gr.Succeeded += stats.succeeded
			gr.Failed += stats.failed
			u.addRecord(builder, domain, selection, &gr)
		}
		gr.Records = recordsFor(builder, group.Domains)
		return gr
	}

	addrs := u.enumerate(ctx, group.Domains, group.IPs)
	selection, stats := u.probeAndSelect(ctx, group.Name, "", addrs, &gr)
	gr.Candidates = stats.candidates
	gr.Succeeded = stats.succeeded
	gr.Failed = stats.failed
	for _, domain := range group.Domains {
		u.addRecord(builder, domain, selection, &gr)
	}
	gr.Records = recordsFor(builder, group.Domains)
	return gr
}

// enumerate unions resolved and statically configured addresses into a
// deduplicated, stably ordered candidate pool.
func (u *Updater) enumerate(ctx context.Context, domains []string, static []string) []netip.Addr {
	var addrs []netip.Addr
	for _, domain := range domains {
		resolved, err := u.Resolver.Resolve(ctx, domain)
		if err != nil {
			continue // a domain that won't resolve contributes nothing
		}
		addrs = append(addrs, resolved...)
	}
	for _, s := range static {
		if addr, err := netip.ParseAddr(s); err == nil {
			addrs = append(addrs, addr.Unmap())
		}
	}
	return resolve.Dedupe(addrs)
}

type batchStats struct {
	candidates, succeeded, failed int
}

func (u *Updater) probeAndSelect(ctx context.Context, group, hostname string, addrs []netip.Addr, gr *GroupResult) (rank.RankedSet, batchStats) {
	stats := batchStats{candidates: len(addrs)}
	if len(addrs) == 0 {
		return nil, stats
	}

	candidates := make([]probe.Candidate, len(addrs))
	for i, addr := range addrs {
		candidates[i] = probe.Candidate{IP: addr, Hostname: hostname, Port: u.Options.ProbePort}
	}

	if u.OnGroup != nil {
		u.OnGroup(group, 1, len(candidates))
	}

	strategy := u.Strategy
	if strategy == nil {
		strategy = &probe.TCPStrategy{Samples: u.Options.ProbeSamples}
	}
	scheduler := probe.NewScheduler(probe.SchedulerConfig{
		Workers:  u.Options.Workers,
		Timeout:  u.Options.ProbeTimeout,
		Deadline: u.Options.GlobalDeadline,
		Strategy: strategy,
	})

	results := scheduler.Run(ctx, candidates, u.Progress)
	for _, r := range results {
		if r.OK() {
			stats.succeeded++
		} else {
			stats.failed++
		}
		u.recordMeasurement(ctx, r, strategy.Name())
	}

	ranked := rank.Rank(results, u.Options.BalanceMode, u.Options.BalanceRatio)
	selection := rank.Select(ranked, u.Options.MaxLatency, u.Options.HostsNum)

	// Nothing under the cutoff but some successes: widen the cutoff once
	// and re-filter the results we already have. No re-probing.
	if len(selection) == 0 && len(ranked) > 0 && u.Options.RelaxFactor > 1 {
		relaxed := u.Options.MaxLatency * time.Duration(u.Options.RelaxFactor)
		selection = rank.Select(ranked, relaxed, u.Options.HostsNum)
		if len(selection) > 0 {
			gr.Relaxed = true
		}
	}
	return selection, stats
}

func (u *Updater) addRecord(builder *hostsmap.Builder, domain string, selection rank.RankedSet, gr *GroupResult) {
	if err := builder.Add(domain, selection); err != nil {
		var hostErr *pkgerrors.HostError
		if errors.As(err, &hostErr) {
			gr.Missing = append(gr.Missing, domain)
		}
	}
}

func (u *Updater) recordMeasurement(ctx context.Context, r probe.Result, strategy string) {
	if u.Store == nil {
		return
	}
	m := &models.Measurement{
		IP:       r.Candidate.IP.String(),
		Hostname: r.Candidate.Hostname,
		Success:  r.OK(),
		Strategy: strategy,
	}
	if r.OK() {
		ms := r.Latency.Milliseconds()
		m.LatencyMS = &ms
	} else {
		m.ErrorMessage = r.Err.Error()
	}
	// Best-effort; history loss never fails a run.
	u.Store.RecordMeasurement(ctx, m)
}

// recordsFor filters the builder's records down to the given hostnames.
func recordsFor(builder *hostsmap.Builder, hostnames []string) []hostsmap.Record {
	want := make(map[string]bool, len(hostnames))
	for _, h := range hostnames {
		want[h] = true
	}
	var out []hostsmap.Record
	for _, rec := range builder.Records() {
		if want[rec.Hostname] {
			out = append(out, rec)
		}
	}
	return out
}
