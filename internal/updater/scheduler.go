package updater

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// Watcher re-runs the updater on a fixed interval.
type Watcher struct {
	scheduler gocron.Scheduler
	interval  time.Duration
	run       func(ctx context.Context) error
	running   bool
}

// NewWatcher creates a new periodic update watcher.
func NewWatcher(interval time.Duration, run func(ctx context.Context) error) (*Watcher, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}
	return &Watcher{
		scheduler: scheduler,
		interval:  interval,
		run:       run,
	}, nil
}

// Start starts the watcher and performs an immediate first run.
func (w *Watcher) Start(ctx context.Context) error {
	if w.running {
		return fmt.Errorf("watcher is already running")
	}

	_, err := w.scheduler.NewJob(
		gocron.DurationJob(w.interval),
		gocron.NewTask(func() {
			if err := w.run(ctx); err != nil {
				log.Printf("Scheduled update failed: %v", err)
			}
		}),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		return fmt.Errorf("failed to create update job: %w", err)
	}

	w.scheduler.Start()
	w.running = true
	return nil
}

// Stop stops the watcher.
func (w *Watcher) Stop() error {
	if !w.running {
		return fmt.Errorf("watcher is not running")
	}
	if err := w.scheduler.Shutdown(); err != nil {
		return fmt.Errorf("failed to stop watcher: %w", err)
	}
	w.running = false
	return nil
}

// IsRunning returns whether the watcher is running.
func (w *Watcher) IsRunning() bool {
	return w.running
}
