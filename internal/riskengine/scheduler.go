package riskengine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler drives periodic RunOnce passes at a fixed poll interval,
// skipping a tick if the previous run hasn't finished yet — the same
// shape as the ingestor and classifier schedulers it sits alongside.
type Scheduler struct {
	engine    *Engine
	interval  time.Duration
	batchSize int
	log       *slog.Logger
	cron      *cron.Cron
}

// NewScheduler builds a scheduler over engine using the given poll
// interval and batch size.
func NewScheduler(engine *Engine, interval time.Duration, batchSize int, log *slog.Logger) *Scheduler {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))
	return &Scheduler{engine: engine, interval: interval, batchSize: batchSize, log: log, cron: c}
}

// Start schedules the recurring scoring job and returns once registered.
func (s *Scheduler) Start(ctx context.Context) error {
	spec := fmt.Sprintf("@every %s", s.interval)

	_, err := s.cron.AddFunc(spec, func() {
		scored, failed, err := s.engine.RunOnce(ctx, s.batchSize)
		if err != nil {
			s.log.Error("scheduled risk scoring run failed", "error", err)
			return
		}
		s.log.Info("risk scoring run completed", "scored", scored, "failed", failed)
	})
	if err != nil {
		return fmt.Errorf("schedule risk engine run: %w", err)
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
