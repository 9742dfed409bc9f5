package probe

import (
	"context"
	"errors"
	"fmt"
	"net/netip"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	pkgerrors "sethosts/pkg/errors"
)

// fakeStrategy replays scripted latencies keyed by IP. Probes sleep for
// their latency so deadline behavior can be exercised.
type fakeStrategy struct {
	latencies map[string]time.Duration
	failures  map[string]error

	mu       sync.Mutex
	inFlight int64
	maxSeen  int64
}

func (f *fakeStrategy) Name() string { return "fake" }

func (f *fakeStrategy) Probe(ctx context.Context, c Candidate) (time.Duration, error) {
	cur := atomic.AddInt64(&f.inFlight, 1)
	defer atomic.AddInt64(&f.inFlight, -1)
	f.mu.Lock()
	if cur > f.maxSeen {
		f.maxSeen = cur
	}
	f.mu.Unlock()

	latency := f.latencies[c.IP.String()]
	select {
	case <-time.After(latency):
	case <-ctx.Done():
		return 0, ctx.Err()
	}
	if err, ok := f.failures[c.IP.String()]; ok {
		return 0, err
	}
	return latency, nil
}

func v4Candidates(n int) []Candidate {
	out := make([]Candidate, n)
	for i := range out {
		out[i] = Candidate{IP: netip.MustParseAddr(fmt.Sprintf("10.0.0.%d", i+1)), Port: 443}
	}
	return out
}

func TestSchedulerReturnsOneResultPerCandidate(t *testing.T) {
	candidates := v4Candidates(20)
	strategy := &fakeStrategy{
		latencies: map[string]time.Duration{},
		failures: map[string]error{
			"10.0.0.3":  errors.New("boom"),
			"10.0.0.17": errors.New("boom"),
		},
	}
	for i, c := range candidates {
		strategy.latencies[c.IP.String()] = time.Duration(i) * time.Millisecond
	}

	s := NewScheduler(SchedulerConfig{
		Workers:  5,
		Timeout:  time.Second,
		Deadline: 10 * time.Second,
		Strategy: strategy,
	})
	results := s.Run(context.Background(), candidates, nil)

	if len(results) != len(candidates) {
		t.Fatalf("got %d results for %d candidates", len(results), len(candidates))
	}
	for i, r := range results {
		if r.Candidate.IP != candidates[i].IP {
			t.Errorf("slot %d holds %s, want %s", i, r.Candidate.IP, candidates[i].IP)
		}
	}
	var failed int
	for _, r := range results {
		if !r.OK() {
			failed++
		}
	}
	if failed != 2 {
		t.Errorf("failed = %d, want 2", failed)
	}
}

func TestSchedulerBoundsConcurrency(t *testing.T) {
	candidates := v4Candidates(30)
	strategy := &fakeStrategy{latencies: map[string]time.Duration{}}
	for _, c := range candidates {
		strategy.latencies[c.IP.String()] = 20 * time.Millisecond
	}

	s := NewScheduler(SchedulerConfig{
		Workers:  4,
		Timeout:  time.Second,
		Deadline: 10 * time.Second,
		Strategy: strategy,
	})
	s.Run(context.Background(), candidates, nil)

	if strategy.maxSeen > 4 {
		t.Errorf("max in-flight probes = %d, want <= 4", strategy.maxSeen)
	}
}

func TestSchedulerDeadlineSynthesizesTimeouts(t *testing.T) {
	candidates := v4Candidates(8)
	strategy := &fakeStrategy{latencies: map[string]time.Duration{}}
	for _, c := range candidates {
		strategy.latencies[c.IP.String()] = 5 * time.Second
	}

	s := NewScheduler(SchedulerConfig{
		Workers:  2,
		Timeout:  10 * time.Second,
		Deadline: 50 * time.Millisecond,
		Strategy: strategy,
	})

	start := time.Now()
	results := s.Run(context.Background(), candidates, nil)
	elapsed := time.Since(start)

	if elapsed > time.Second {
		t.Errorf("Run took %s, want return near the 50ms deadline", elapsed)
	}
	if len(results) != len(candidates) {
		t.Fatalf("got %d results for %d candidates", len(results), len(candidates))
	}
	for i, r := range results {
		if r.OK() {
			t.Errorf("slot %d succeeded despite deadline", i)
			continue
		}
		if r.Reason != ReasonTimeout {
			t.Errorf("slot %d reason = %s, want %s", i, r.Reason, ReasonTimeout)
		}
	}
}

func TestSchedulerPerProbeTimeout(t *testing.T) {
	candidates := v4Candidates(2)
	strategy := &fakeStrategy{latencies: map[string]time.Duration{
		"10.0.0.1": 5 * time.Millisecond,
		"10.0.0.2": time.Second,
	}}

	s := NewScheduler(SchedulerConfig{
		Workers:  2,
		Timeout:  50 * time.Millisecond,
		Deadline: 5 * time.Second,
		Strategy: strategy,
	})
	results := s.Run(context.Background(), candidates, nil)

	if !results[0].OK() {
		t.Errorf("fast candidate failed: %v", results[0].Err)
	}
	if results[1].OK() {
		t.Error("slow candidate succeeded despite per-probe timeout")
	} else if results[1].Reason != ReasonTimeout {
		t.Errorf("slow candidate reason = %s, want %s", results[1].Reason, ReasonTimeout)
	}
}

func TestSchedulerProgressCallback(t *testing.T) {
	candidates := v4Candidates(5)
	strategy := &fakeStrategy{latencies: map[string]time.Duration{}}

	var calls int
	var lastCompleted int
	s := NewScheduler(SchedulerConfig{
		Workers:  3,
		Timeout:  time.Second,
		Deadline: 5 * time.Second,
		Strategy: strategy,
	})
	s.Run(context.Background(), candidates, func(_ Result, completed, total int) {
		calls++
		lastCompleted = completed
		if total != 5 {
			t.Errorf("total = %d, want 5", total)
		}
	})

	if calls != 5 || lastCompleted != 5 {
		t.Errorf("progress calls = %d (last completed %d), want 5", calls, lastCompleted)
	}
}

func TestSchedulerEmptyCandidateSet(t *testing.T) {
	s := NewScheduler(SchedulerConfig{Strategy: &fakeStrategy{}})
	if results := s.Run(context.Background(), nil, nil); len(results) != 0 {
		t.Errorf("got %d results for empty candidate set", len(results))
	}
}

func TestSchedulerSynthesizedFailureWrapsDeadlineError(t *testing.T) {
	candidates := v4Candidates(1)
	strategy := &fakeStrategy{latencies: map[string]time.Duration{
		"10.0.0.1": time.Second,
	}}

	s := NewScheduler(SchedulerConfig{
		Workers:  1,
		Timeout:  time.Second,
		Deadline: 20 * time.Millisecond,
		Strategy: strategy,
	})
	results := s.Run(context.Background(), candidates, nil)

	if results[0].OK() {
		t.Fatal("candidate succeeded despite deadline")
	}
	if !errors.Is(results[0].Err, pkgerrors.ErrDeadlineExceeded) {
		t.Errorf("synthesized error = %v, want ErrDeadlineExceeded", results[0].Err)
	}
}
