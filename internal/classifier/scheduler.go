package classifier

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Runner drives one batch of extraction/categorization work. *Service
// implements it directly (calling the LLM/rule fallback in-process); a
// Temporal-backed runner can implement it by dispatching
// ExtractEventWorkflow/CategorizeArticleWorkflow executions instead, so the
// scheduler itself stays agnostic to how a batch actually gets processed.
type Runner interface {
	RunExtractionOnce(ctx context.Context, batchSize int) (processed int, failed int, err error)
	RunCategorizationOnce(ctx context.Context, batchSize int) (processed int, failed int, err error)
}

// Scheduler drives the extraction and categorization polling loops on their
// configured intervals, skipping a tick if the previous run is still busy.
type Scheduler struct {
	runner Runner
	cfg    schedulerConfig
	log    *slog.Logger
	cron   *cron.Cron
}

type schedulerConfig struct {
	extractionInterval     string
	categorizationInterval string
	batchSize              int
}

// NewScheduler builds a scheduler that drives runner on the given
// extraction/categorization intervals.
func NewScheduler(runner Runner, extractionInterval, categorizationInterval time.Duration, batchSize int, log *slog.Logger) *Scheduler {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))
	return &Scheduler{
		runner: runner,
		cfg: schedulerConfig{
			extractionInterval:     fmt.Sprintf("@every %s", extractionInterval),
			categorizationInterval: fmt.Sprintf("@every %s", categorizationInterval),
			batchSize:              batchSize,
		},
		log:  log,
		cron: c,
	}
}

// Start registers both polling jobs and starts the scheduler.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.cfg.extractionInterval, func() {
		processed, failed, err := s.runner.RunExtractionOnce(ctx, s.cfg.batchSize)
		if err != nil {
			s.log.Error("extraction run failed", "error", err)
			return
		}
		s.log.Info("extraction run completed", "processed", processed, "failed", failed)
	}); err != nil {
		return fmt.Errorf("schedule extraction: %w", err)
	}

	if _, err := s.cron.AddFunc(s.cfg.categorizationInterval, func() {
		processed, failed, err := s.runner.RunCategorizationOnce(ctx, s.cfg.batchSize)
		if err != nil {
			s.log.Error("categorization run failed", "error", err)
			return
		}
		s.log.Info("categorization run completed", "processed", processed, "failed", failed)
	}); err != nil {
		return fmt.Errorf("schedule categorization: %w", err)
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
