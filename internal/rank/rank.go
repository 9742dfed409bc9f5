// Package rank turns raw probe results into a deterministic ranking and
// selects the usable prefix of it.
package rank

import (
	"sort"
	"time"

	"sethosts/internal/probe"
)

// Mode controls how IPv4 and IPv6 results are combined.
type Mode string

const (
	// ModeOverall ranks purely by latency across both address families.
	ModeOverall Mode = "overall"
	// ModeRegion ranks each family separately and interleaves the two
	// lists so both families are represented in the final order.
	ModeRegion Mode = "region"
)

// ParseMode validates a mode string, defaulting empty to ModeOverall.
func ParseMode(s string) (Mode, bool) {
	switch Mode(s) {
	case ModeOverall, "":
		return ModeOverall, true
	case ModeRegion:
		return ModeRegion, true
	default:
		return "", false
	}
}

// Entry is one ranked success.
type Entry struct {
	Candidate probe.Candidate
	Latency   time.Duration
	// Index is the candidate's original enumeration position; it breaks
	// exact latency ties so ranking is reproducible across runs.
	Index int
}

// RankedSet is a failure-free, rank-ordered collection of probe results.
type RankedSet []Entry

// DefaultRatio is strict 1:1 alternation between address families.
var DefaultRatio = [2]int{1, 1}

// Rank discards failures and sorts successes by ascending latency, breaking
// ties by enumeration order. Results must be in candidate enumeration order,
// as returned by the scheduler. In ModeRegion the successes are partitioned
// by address family, ranked per family, and interleaved with Interleave.
func Rank(results []probe.Result, mode Mode, ratio [2]int) RankedSet {
	entries := make(RankedSet, 0, len(results))
	for i, r := range results {
		if !r.OK() {
			continue
		}
		entries = append(entries, Entry{Candidate: r.Candidate, Latency: r.Latency, Index: i})
	}

	if mode != ModeRegion {
		entries.sortByLatency()
		return entries
	}

	var v4, v6 RankedSet
	for _, e := range entries {
		if e.Candidate.IsIPv6() {
			v6 = append(v6, e)
		} else {
			v4 = append(v4, e)
		}
	}
	v4.sortByLatency()
	v6.sortByLatency()
	return Interleave(v4, v6, ratio)
}

func (rs RankedSet) sortByLatency() {
	sort.Slice(rs, func(i, j int) bool {
		if rs[i].Latency != rs[j].Latency {
			return rs[i].Latency < rs[j].Latency
		}
		return rs[i].Index < rs[j].Index
	})
}

// Interleave merges two family-ranked lists, leading with the family whose
// best entry is faster and drawing ratio[0] entries from the leader for
// every ratio[1] from the other. When one list is exhausted the remainder
// of the other follows in rank order.
func Interleave(v4, v6 RankedSet, ratio [2]int) RankedSet {
	if len(v4) == 0 {
		return append(RankedSet(nil), v6...)
	}
	if len(v6) == 0 {
		return append(RankedSet(nil), v4...)
	}
	if ratio[0] <= 0 {
		ratio[0] = DefaultRatio[0]
	}
	if ratio[1] <= 0 {
		ratio[1] = DefaultRatio[1]
	}

	lead, tail := v4, v6
	if v6[0].Latency < v4[0].Latency {
		lead, tail = v6, v4
	}

	out := make(RankedSet, 0, len(v4)+len(v6))
	li, ti := 0, 0
	for li < len(lead) || ti < len(tail) {
		for k := 0; k < ratio[0] && li < len(lead); k++ {
			out = append(out, lead[li])
			li++
		}
		for k := 0; k < ratio[1] && ti < len(tail); k++ {
			out = append(out, tail[ti])
			ti++
		}
	}
	return out
}

// Latencies returns the latencies in rank order, mainly for reporting.
func (rs RankedSet) Latencies() []time.Duration {
	out := make([]time.Duration, len(rs))
	for i, e := range rs {
		out[i] = e.Latency
	}
	return out
}
