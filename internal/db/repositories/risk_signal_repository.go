package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/nextier/signal-engine/internal/domain"
)

// RiskSignalRepository implements domain.RiskSignalRepository using PostgreSQL.
type RiskSignalRepository struct {
	db *sql.DB
}

// NewRiskSignalRepository creates a new risk-signal repository.
func NewRiskSignalRepository(db *sql.DB) *RiskSignalRepository {
	return &RiskSignalRepository{db: db}
}

// Upsert stores a risk signal, updating the existing row for the same
// SourceURL if one exists. The original Python service never enforced a
// uniqueness constraint on source_url; this repository adds one
// deliberately (see DESIGN.md) so that re-scoring the same article is an
// update rather than an ever-growing duplicate chain.
func (r *RiskSignalRepository) Upsert(ctx context.Context, signal *domain.RiskSignal) error {
	doc, err := marshalDoc(signal)
	if err != nil {
		return fmt.Errorf("marshal risk signal: %w", err)
	}

	query := `
		INSERT INTO risk_signals (id, event_type, state, lga, risk_score, risk_level, source_url, document, calculated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (source_url) DO UPDATE
		SET risk_score = EXCLUDED.risk_score,
		    risk_level = EXCLUDED.risk_level,
		    document = EXCLUDED.document,
		    calculated_at = EXCLUDED.calculated_at
	`
	_, err = r.db.ExecContext(ctx, query, signal.ID, signal.EventType, signal.State, signal.LGA,
		signal.RiskScore, signal.RiskLevel, signal.SourceURL, doc, signal.CalculatedAt)
	if err != nil {
		return fmt.Errorf("upsert risk signal: %w", err)
	}
	return nil
}

// GetByID retrieves a signal by ID.
func (r *RiskSignalRepository) GetByID(ctx context.Context, id string) (*domain.RiskSignal, error) {
	var doc []byte
	err := r.db.QueryRowContext(ctx, `SELECT document FROM risk_signals WHERE id = $1`, id).Scan(&doc)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get risk signal by id: %w", err)
	}
	var signal domain.RiskSignal
	if err := unmarshalDoc(doc, &signal); err != nil {
		return nil, err
	}
	return &signal, nil
}

// List retrieves the most recently calculated signals, newest first.
func (r *RiskSignalRepository) List(ctx context.Context, limit int) ([]*domain.RiskSignal, error) {
	return r.query(ctx, `SELECT document FROM risk_signals ORDER BY calculated_at DESC LIMIT $1`, limit)
}

// GetHighRisk retrieves signals at or above a score threshold.
func (r *RiskSignalRepository) GetHighRisk(ctx context.Context, threshold float64, limit int) ([]*domain.RiskSignal, error) {
	return r.query(ctx, `SELECT document FROM risk_signals WHERE risk_score >= $1 ORDER BY risk_score DESC LIMIT $2`, threshold, limit)
}

// GetByStateLGA retrieves the most recent signals for a location, used by
// surge detection to compare against the previous score.
func (r *RiskSignalRepository) GetByStateLGA(ctx context.Context, state, lga string, limit int) ([]*domain.RiskSignal, error) {
	return r.query(ctx, `
		SELECT document FROM risk_signals
		WHERE lower(state) = lower($1) AND lower(lga) = lower($2)
		ORDER BY calculated_at DESC LIMIT $3
	`, state, lga, limit)
}

// GetSince retrieves signals calculated at or after a point in time.
func (r *RiskSignalRepository) GetSince(ctx context.Context, since time.Time) ([]*domain.RiskSignal, error) {
	return r.query(ctx, `SELECT document FROM risk_signals WHERE calculated_at >= $1 ORDER BY calculated_at ASC`, since)
}

// Count returns the total number of stored signals.
func (r *RiskSignalRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM risk_signals`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count risk signals: %w", err)
	}
	return count, nil
}

func (r *RiskSignalRepository) query(ctx context.Context, query string, args ...any) ([]*domain.RiskSignal, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query risk signals: %w", err)
	}
	defer rows.Close()

	var signals []*domain.RiskSignal
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("scan risk signal: %w", err)
		}
		var signal domain.RiskSignal
		if err := unmarshalDoc(doc, &signal); err != nil {
			return nil, err
		}
		signals = append(signals, &signal)
	}
	return signals, rows.Err()
}
