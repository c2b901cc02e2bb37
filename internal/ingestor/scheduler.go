package ingestor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler drives periodic ScanAll runs at the configured poll interval,
// skipping a tick entirely if the previous run hasn't finished yet.
type Scheduler struct {
	orchestrator *Orchestrator
	interval     time.Duration
	log          *slog.Logger
	cron         *cron.Cron
}

// NewScheduler builds a scheduler over orchestrator using the given poll
// interval.
func NewScheduler(orchestrator *Orchestrator, interval time.Duration, log *slog.Logger) *Scheduler {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))
	return &Scheduler{orchestrator: orchestrator, interval: interval, log: log, cron: c}
}

// Start schedules the recurring scan job and returns once it's registered.
// The job itself runs in the cron library's own goroutine until Stop is
// called or ctx is done.
func (s *Scheduler) Start(ctx context.Context) error {
	spec := fmt.Sprintf("@every %s", s.interval)

	_, err := s.cron.AddFunc(spec, func() {
		if _, err := s.orchestrator.ScanAll(ctx); err != nil {
			s.log.Error("scheduled ingestor run failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("schedule ingestor run: %w", err)
	}

	s.cron.Start()

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

// Stop halts the scheduler, waiting for any in-flight run to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}
