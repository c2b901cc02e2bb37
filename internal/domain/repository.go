// Package domain contains core business entities and repository interfaces.
package domain

import (
	"context"
	"time"
)

// ArticleRepository defines the interface for article persistence.
type ArticleRepository interface {
	// Create inserts an article, silently ignoring duplicate URLs.
	Create(ctx context.Context, article *Article) error

	// GetByFingerprint looks up an article by its content fingerprint,
	// used by the dedup pipeline to bump SourceCount/VeracityScore.
	GetByFingerprint(ctx context.Context, fingerprint string) (*Article, error)

	// IncrementSourceCount records that source has reported the article at
	// fingerprint. It bumps the corroboration count and recomputes
	// VeracityScore only the first time a given source is seen for that
	// fingerprint; repeat sightings from an already-counted source (e.g. the
	// same story re-fetched on a later cron cycle) are no-ops, keeping
	// source_count equal to the number of distinct corroborating sources
	// rather than the number of times the story was ever seen. Returns the
	// (possibly unchanged) article.
	IncrementSourceCount(ctx context.Context, fingerprint, source string) (*Article, error)

	// GetUnprocessed retrieves articles not yet handed to the classifier.
	GetUnprocessed(ctx context.Context, limit int) ([]*Article, error)

	// MarkProcessed flags an article as classified.
	MarkProcessed(ctx context.Context, id string) error

	// UpdateCategory attaches a categorization result to an article.
	UpdateCategory(ctx context.Context, id, category string, confidence int) error

	// GetUncategorized retrieves processed articles still carrying
	// CategoryUnknown, the categorization queue's predicate.
	GetUncategorized(ctx context.Context, limit int) ([]*Article, error)

	// Count returns the total number of stored articles.
	Count(ctx context.Context) (int64, error)

	// CategorizationStats aggregates the categorization-audit report: total
	// vs. processed vs. remaining counts, per-category counts/average
	// confidence, and the most recent categorization decisions.
	CategorizationStats(ctx context.Context) (*CategorizationStats, error)
}

// ParsedEventRepository defines the interface for parsed-event persistence.
type ParsedEventRepository interface {
	// Create stores a new parsed event.
	Create(ctx context.Context, event *ParsedEvent) error

	// GetByArticleID retrieves the parsed event derived from an article, if any.
	GetByArticleID(ctx context.Context, articleID string) (*ParsedEvent, error)

	// GetUnscored retrieves parsed events not yet run through the risk engine.
	GetUnscored(ctx context.Context, limit int) ([]*ParsedEvent, error)

	// MarkScored flags a parsed event as having produced a risk signal.
	MarkScored(ctx context.Context, id string) error

	// Count returns the total number of parsed events.
	Count(ctx context.Context) (int64, error)
}

// RiskSignalRepository defines the interface for risk-signal persistence.
type RiskSignalRepository interface {
	// Upsert stores a risk signal, updating the existing row for the same
	// SourceURL if one exists.
	Upsert(ctx context.Context, signal *RiskSignal) error

	// GetByID retrieves a signal by ID.
	GetByID(ctx context.Context, id string) (*RiskSignal, error)

	// List retrieves the most recently calculated signals, newest first.
	List(ctx context.Context, limit int) ([]*RiskSignal, error)

	// GetHighRisk retrieves signals at or above a score threshold.
	GetHighRisk(ctx context.Context, threshold float64, limit int) ([]*RiskSignal, error)

	// GetByStateLGA retrieves the most recent signal for a location, used
	// by surge detection to compare against the previous score.
	GetByStateLGA(ctx context.Context, state, lga string, limit int) ([]*RiskSignal, error)

	// GetSince retrieves signals calculated at or after a point in time,
	// used to build the risk-overview trend.
	GetSince(ctx context.Context, since time.Time) ([]*RiskSignal, error)

	// Count returns the total number of stored signals.
	Count(ctx context.Context) (int64, error)
}

// EconomicDataRepository defines the interface for the economic reference
// dataset (fuel price / inflation by state and LGA).
type EconomicDataRepository interface {
	// Load returns the full economic reference table.
	Load(ctx context.Context) ([]EconomicRow, error)

	// Replace atomically swaps the stored reference table for a new one,
	// used when refreshing economic data from an upstream source.
	Replace(ctx context.Context, rows []EconomicRow) error
}
