// Package scheduler runs named periodic jobs on explicit interval triggers.
// A failing run is logged and the trigger keeps firing; jobs never crash
// the process.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Trigger is one named periodic job.
type Trigger struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

// Scheduler drives a set of triggers, one goroutine each.
type Scheduler struct {
	triggers []Trigger
	wg       sync.WaitGroup
}

// New creates a scheduler for the given triggers.
func New(triggers ...Trigger) *Scheduler {
	return &Scheduler{triggers: triggers}
}

// Start launches every trigger. Each fires first after its interval, then
// repeatedly until the context is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	for _, t := range s.triggers {
		s.wg.Add(1)
		go s.runTrigger(ctx, t)
	}
}

// Wait blocks until every trigger goroutine has exited.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

func (s *Scheduler) runTrigger(ctx context.Context, t Trigger) {
	defer s.wg.Done()

	slog.Info("Scheduled trigger started", "trigger", t.Name, "interval", t.Interval)
	ticker := time.NewTicker(t.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("Scheduled trigger stopped", "trigger", t.Name)
			return
		case <-ticker.C:
			start := time.Now()
			if err := t.Run(ctx); err != nil {
				if ctx.Err() != nil {
					return
				}
				slog.Error("Scheduled run failed",
					"trigger", t.Name,
					"error", err,
				)
				continue
			}
			slog.Debug("Scheduled run completed",
				"trigger", t.Name,
				"duration", time.Since(start),
			)
		}
	}
}
