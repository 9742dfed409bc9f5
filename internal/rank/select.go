package rank

import "time"

// Select returns the best entries of a ranked set that satisfy both the
// maximum-latency cutoff and the maximum count n. Entries beyond the cutoff
// are excluded even when they sit inside the top n; a cutoff of zero
// disables the latency constraint. Fewer than n matches (including zero)
// is a valid result, never an error — the caller decides whether an empty
// selection is fatal.
func Select(rs RankedSet, cutoff time.Duration, n int) RankedSet {
	if n <= 0 {
		return RankedSet{}
	}
	out := make(RankedSet, 0, min(n, len(rs)))
	for _, e := range rs {
		if len(out) == n {
			break
		}
		if cutoff > 0 && e.Latency > cutoff {
			// Not a prefix break: in region mode the interleaved order
			// is not monotonic in latency.
			continue
		}
		out = append(out, e)
	}
	return out
}
