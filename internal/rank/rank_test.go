package rank

import (
	"errors"
	"net/netip"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"sethosts/internal/probe"
)

func ok(ip string, ms int) probe.Result {
	return probe.Result{
		Candidate: probe.Candidate{IP: netip.MustParseAddr(ip), Port: 443},
		Latency:   time.Duration(ms) * time.Millisecond,
	}
}

func failed(ip string) probe.Result {
	return probe.Result{
		Candidate: probe.Candidate{IP: netip.MustParseAddr(ip), Port: 443},
		Reason:    probe.ReasonTimeout,
		Err:       errors.New("probe timed out"),
	}
}

func latenciesMS(rs RankedSet) []int {
	out := make([]int, len(rs))
	for i, e := range rs {
		out[i] = int(e.Latency / time.Millisecond)
	}
	return out
}

func TestRankExcludesFailuresAndSortsAscending(t *testing.T) {
	results := []probe.Result{
		ok("10.0.0.1", 50),
		ok("10.0.0.2", 10),
		ok("10.0.0.3", 10),
		failed("10.0.0.4"),
		ok("10.0.0.5", 30),
	}

	ranked := Rank(results, ModeOverall, DefaultRatio)

	if diff := cmp.Diff([]int{10, 10, 30, 50}, latenciesMS(ranked)); diff != "" {
		t.Errorf("ranked latencies mismatch (-want +got):\n%s", diff)
	}
	for _, e := range ranked {
		if e.Candidate.IP == netip.MustParseAddr("10.0.0.4") {
			t.Error("failure entry leaked into ranked set")
		}
	}
	// Equal latencies keep enumeration order.
	if ranked[0].Index != 1 || ranked[1].Index != 2 {
		t.Errorf("tie order = (%d, %d), want (1, 2)", ranked[0].Index, ranked[1].Index)
	}
}

func TestRankTieBreakIsDeterministic(t *testing.T) {
	results := []probe.Result{
		ok("10.0.0.1", 20),
		ok("10.0.0.2", 20),
		ok("10.0.0.3", 20),
		ok("10.0.0.4", 20),
	}

	addrs := cmp.Comparer(func(a, b netip.Addr) bool { return a == b })
	first := Rank(results, ModeOverall, DefaultRatio)
	for run := 0; run < 10; run++ {
		again := Rank(results, ModeOverall, DefaultRatio)
		if diff := cmp.Diff(first, again, addrs); diff != "" {
			t.Fatalf("run %d ranked differently (-first +again):\n%s", run, diff)
		}
	}
	for i, e := range first {
		if e.Index != i {
			t.Errorf("entry %d has index %d, want enumeration order", i, e.Index)
		}
	}
}

func TestRankRegionInterleavesFamilies(t *testing.T) {
	results := []probe.Result{
		ok("10.0.0.1", 20),
		ok("10.0.0.2", 25),
		ok("10.0.0.3", 30),
		ok("2001:db8::1", 15),
		ok("2001:db8::2", 40),
	}

	ranked := Rank(results, ModeRegion, DefaultRatio)

	// IPv6 has the fastest entry, so it leads the alternation.
	want := []int{15, 20, 40, 25, 30}
	if diff := cmp.Diff(want, latenciesMS(ranked)); diff != "" {
		t.Errorf("interleaved latencies mismatch (-want +got):\n%s", diff)
	}

	selected := Select(ranked, 0, 4)
	var v4, v6 int
	for _, e := range selected {
		if e.Candidate.IsIPv6() {
			v6++
		} else {
			v4++
		}
	}
	if v4 == 0 || v6 == 0 {
		t.Errorf("selection drew from one family only: v4=%d v6=%d", v4, v6)
	}
}

func TestRankRegionSingleFamilyFallsThrough(t *testing.T) {
	results := []probe.Result{
		ok("10.0.0.2", 25),
		ok("10.0.0.1", 20),
	}
	ranked := Rank(results, ModeRegion, DefaultRatio)
	if diff := cmp.Diff([]int{20, 25}, latenciesMS(ranked)); diff != "" {
		t.Errorf("single-family region ranking mismatch (-want +got):\n%s", diff)
	}
}

func TestInterleaveRatio(t *testing.T) {
	v4 := RankedSet{
		{Candidate: probe.Candidate{IP: netip.MustParseAddr("10.0.0.1")}, Latency: 10 * time.Millisecond},
		{Candidate: probe.Candidate{IP: netip.MustParseAddr("10.0.0.2")}, Latency: 12 * time.Millisecond},
		{Candidate: probe.Candidate{IP: netip.MustParseAddr("10.0.0.3")}, Latency: 14 * time.Millisecond},
		{Candidate: probe.Candidate{IP: netip.MustParseAddr("10.0.0.4")}, Latency: 16 * time.Millisecond},
	}
	v6 := RankedSet{
		{Candidate: probe.Candidate{IP: netip.MustParseAddr("2001:db8::1")}, Latency: 20 * time.Millisecond},
		{Candidate: probe.Candidate{IP: netip.MustParseAddr("2001:db8::2")}, Latency: 22 * time.Millisecond},
	}

	out := Interleave(v4, v6, [2]int{2, 1})
	want := []int{10, 12, 20, 14, 16, 22}
	if diff := cmp.Diff(want, latenciesMS(out)); diff != "" {
		t.Errorf("2:1 interleave mismatch (-want +got):\n%s", diff)
	}
}

func TestRankAllFailuresYieldsEmptySet(t *testing.T) {
	results := []probe.Result{failed("10.0.0.1"), failed("2001:db8::1")}

	for _, mode := range []Mode{ModeOverall, ModeRegion} {
		ranked := Rank(results, mode, DefaultRatio)
		if len(ranked) != 0 {
			t.Errorf("mode %s: ranked %d entries from all-failure input", mode, len(ranked))
		}
		if sel := Select(ranked, 100*time.Millisecond, 3); len(sel) != 0 {
			t.Errorf("mode %s: selected %d entries from empty set", mode, len(sel))
		}
	}
}

func TestSelectAppliesCutoffAndCap(t *testing.T) {
	results := []probe.Result{
		ok("10.0.0.1", 50),
		ok("10.0.0.2", 10),
		ok("10.0.0.3", 10),
		failed("10.0.0.4"),
		ok("10.0.0.5", 30),
	}
	ranked := Rank(results, ModeOverall, DefaultRatio)

	selected := Select(ranked, 40*time.Millisecond, 3)
	if diff := cmp.Diff([]int{10, 10, 30}, latenciesMS(selected)); diff != "" {
		t.Errorf("selection mismatch (-want +got):\n%s", diff)
	}

	for _, e := range selected {
		if e.Latency > 40*time.Millisecond {
			t.Errorf("entry %s exceeds cutoff: %s", e.Candidate.IP, e.Latency)
		}
	}
}

func TestSelectShortResultIsNotPadded(t *testing.T) {
	ranked := Rank([]probe.Result{ok("10.0.0.1", 10), ok("10.0.0.2", 500)}, ModeOverall, DefaultRatio)

	selected := Select(ranked, 100*time.Millisecond, 5)
	if len(selected) != 1 {
		t.Fatalf("len(selected) = %d, want 1", len(selected))
	}
}

func TestSelectFiltersNonMonotonicRegionOrder(t *testing.T) {
	// In region mode a slow IPv6 entry can precede fast IPv4 entries;
	// the cutoff must skip it without truncating the rest.
	results := []probe.Result{
		ok("10.0.0.1", 20),
		ok("10.0.0.2", 25),
		ok("2001:db8::1", 15),
		ok("2001:db8::2", 40),
	}
	ranked := Rank(results, ModeRegion, DefaultRatio)

	selected := Select(ranked, 35*time.Millisecond, 4)
	if diff := cmp.Diff([]int{15, 20, 25}, latenciesMS(selected)); diff != "" {
		t.Errorf("filtered selection mismatch (-want +got):\n%s", diff)
	}
}

func TestParseMode(t *testing.T) {
	if mode, ok := ParseMode(""); !ok || mode != ModeOverall {
		t.Errorf("ParseMode(\"\") = (%s, %v), want (overall, true)", mode, ok)
	}
	if mode, ok := ParseMode("region"); !ok || mode != ModeRegion {
		t.Errorf("ParseMode(\"region\") = (%s, %v), want (region, true)", mode, ok)
	}
	if _, ok := ParseMode("fastest"); ok {
		t.Error("ParseMode accepted an unknown mode")
	}
}
