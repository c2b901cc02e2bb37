// Package riskengine scores parsed conflict events into explainable,
// multidimensional risk signals and drives the interactive simulation map.
package riskengine

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/nextier/signal-engine/internal/config"
	"github.com/nextier/signal-engine/internal/domain"
)

// Engine is the risk-scoring service: it owns the loaded reference
// datasets, the live economic repository, and the surge detector, and
// exposes Score/ScoreAndStore/RunOnce/Simulate/Overview as the only entry
// points the rest of the pipeline needs.
type Engine struct {
	cfg    config.RiskEngineConfig
	ref    *ReferenceData
	econ   domain.EconomicDataRepository
	events domain.ParsedEventRepository
	signals domain.RiskSignalRepository
	surge  *SurgeDetector
	log    *slog.Logger
}

// NewEngine loads the reference datasets from disk and wires the engine to
// its repositories. Reference-data load failures are logged, not fatal;
// the engine degrades gracefully to "no match" for whichever dimension
// failed to load.
func NewEngine(
	cfg config.RiskEngineConfig,
	econ domain.EconomicDataRepository,
	events domain.ParsedEventRepository,
	signals domain.RiskSignalRepository,
	log *slog.Logger,
) *Engine {
	ref := LoadReferenceData(cfg.ClimateDataPath, cfg.ClimateIndicatorsPath, cfg.MiningDataPath, cfg.BorderDataPath, cfg.StrategicIndicatorsPath, func(format string, args ...any) {
		log.Warn(fmt.Sprintf(format, args...))
	})

	return &Engine{
		cfg:     cfg,
		ref:     ref,
		econ:    econ,
		events:  events,
		signals: signals,
		surge:   NewSurgeDetector(cfg.SurgeThreshold),
		log:     log,
	}
}

// ScoreAndStore scores a single unscored parsed event against the live
// economic dataset, persists the resulting signal, marks the event as
// scored, and reports whether the new score constitutes a location surge.
func (e *Engine) ScoreAndStore(ctx context.Context, event *domain.ParsedEvent) (*domain.RiskSignal, bool, error) {
	econRows, err := e.econ.Load(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("load economic data: %w", err)
	}

	econRow := FindEconomicData(econRows, event.State, event.LGA)
	signal, err := e.Score(event, econRow)
	if err != nil {
		return nil, false, err
	}
	signal.ID = event.ID
	signal.CalculatedAt = event.ExtractedAt

	isSurge, pctIncrease, err := e.surge.Check(ctx, e.signals, event.State, event.LGA, signal.RiskScore)
	if err != nil {
		e.log.Warn("surge check failed, continuing without it", "error", err, "state", event.State, "lga", event.LGA)
	}

	if isSurge {
		signal.SurgeDetected = true
		signal.SurgePercentageIncrease = math.Round(pctIncrease*10) / 10
		signal.TriggerReason = fmt.Sprintf("[SURGE DETECTED +%.1f%%] %s", signal.SurgePercentageIncrease, signal.TriggerReason)
	}

	if err := e.signals.Upsert(ctx, signal); err != nil {
		return nil, false, fmt.Errorf("store risk signal: %w", err)
	}
	if err := e.events.MarkScored(ctx, event.ID); err != nil {
		e.log.Warn("failed to mark event scored", "error", err, "event_id", event.ID)
	}

	if isSurge {
		e.log.Warn("risk surge detected",
			"state", event.State, "lga", event.LGA,
			"score", signal.RiskScore, "pct_increase", pctIncrease,
		)
	}

	return signal, isSurge, nil
}

// RunOnce scores every currently-unscored parsed event. It returns the
// number scored and the number that failed, continuing past individual
// failures so one bad event doesn't stall the batch.
func (e *Engine) RunOnce(ctx context.Context, batchSize int) (scored int, failed int, err error) {
	pending, err := e.events.GetUnscored(ctx, batchSize)
	if err != nil {
		return 0, 0, fmt.Errorf("list unscored events: %w", err)
	}

	for _, event := range pending {
		if _, _, err := e.ScoreAndStore(ctx, event); err != nil {
			e.log.Error("failed to score event", "error", err, "event_id", event.ID)
			failed++
			continue
		}
		scored++
	}

	return scored, failed, nil
}
