package probe

import (
	"context"
	"time"

	"golang.org/x/sync/semaphore"

	pkgerrors "sethosts/pkg/errors"
)

// ProgressFunc is called each time a probe completes during a batch run.
type ProgressFunc func(result Result, completed, total int)

// SchedulerConfig holds configuration for the Scheduler.
type SchedulerConfig struct {
	Workers  int64         // max probes in flight
	Timeout  time.Duration // per-probe budget, clamped to Deadline
	Deadline time.Duration // global budget for the whole batch
	Strategy Strategy
}

// Scheduler fans probes out across a candidate set with bounded concurrency
// and a global deadline.
type Scheduler struct {
	config SchedulerConfig
}

// NewScheduler creates a new Scheduler, filling in defaults.
func NewScheduler(cfg SchedulerConfig) *Scheduler {
	if cfg.Workers <= 0 {
		cfg.Workers = 10
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = time.Second
	}
	if cfg.Deadline <= 0 {
		cfg.Deadline = 30 * time.Second
	}
	if cfg.Timeout > cfg.Deadline {
		cfg.Timeout = cfg.Deadline
	}
	if cfg.Strategy == nil {
		cfg.Strategy = &TCPStrategy{Samples: DefaultSamples}
	}
	return &Scheduler{config: cfg}
}

type completion struct {
	idx    int
	result Result
}

// Run probes every candidate and returns one Result per candidate, in
// candidate order. At most Workers probes are in flight at once. Run returns
// no later than the global deadline: candidates still outstanding at that
// point are recorded as timeout failures and their eventual results, if any,
// are discarded. Individual probe failures never abort the batch.
func (s *Scheduler) Run(ctx context.Context, candidates []Candidate, progress ProgressFunc) []Result {
	total := len(candidates)
	results := make([]Result, total)
	if total == 0 {
		return results
	}

	runCtx, cancel := context.WithTimeout(ctx, s.config.Deadline)
	defer cancel()

	// Buffered to capacity so abandoned probes never block on send after
	// the deadline path has returned.
	completions := make(chan completion, total)
	sem := semaphore.NewWeighted(s.config.Workers)

	for i, c := range candidates {
		go func(idx int, c Candidate) {
			if err := sem.Acquire(runCtx, 1); err != nil {
				// Deadline elapsed before this probe started; the
				// collector synthesizes its failure.
				return
			}
			defer sem.Release(1)

			probeCtx, cancelProbe := context.WithTimeout(runCtx, s.config.Timeout)
			defer cancelProbe()

			elapsed, err := s.config.Strategy.Probe(probeCtx, c)
			if err != nil {
				completions <- completion{idx, failure(c, Classify(err), err)}
				return
			}
			completions <- completion{idx, success(c, elapsed)}
		}(i, c)
	}

	done := make([]bool, total)
	completed := 0
	for completed < total {
		select {
		case c := <-completions:
			results[c.idx] = c.result
			done[c.idx] = true
			completed++
			if progress != nil {
				progress(c.result, completed, total)
			}
		case <-runCtx.Done():
			for i := range results {
				if !done[i] {
					results[i] = failure(candidates[i], ReasonTimeout, pkgerrors.ErrDeadlineExceeded)
				}
			}
			return results
		}
	}
	return results
}
