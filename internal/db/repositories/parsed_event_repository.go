package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/nextier/signal-engine/internal/domain"
)

// ParsedEventRepository implements domain.ParsedEventRepository using PostgreSQL.
type ParsedEventRepository struct {
	db *sql.DB
}

// NewParsedEventRepository creates a new parsed-event repository.
func NewParsedEventRepository(db *sql.DB) *ParsedEventRepository {
	return &ParsedEventRepository{db: db}
}

// Create stores a new parsed event.
func (r *ParsedEventRepository) Create(ctx context.Context, event *domain.ParsedEvent) error {
	doc, err := marshalDoc(event)
	if err != nil {
		return fmt.Errorf("marshal parsed event: %w", err)
	}

	query := `
		INSERT INTO parsed_events (id, article_id, event_type, state, lga, severity, method, confidence, scored, document, extracted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, false, $9, $10)
		ON CONFLICT (article_id) DO NOTHING
	`
	_, err = r.db.ExecContext(ctx, query, event.ID, event.ArticleID, event.EventType, event.State, event.LGA,
		event.Severity, event.Method, event.Confidence, doc, event.ExtractedAt)
	if err != nil {
		return fmt.Errorf("create parsed event: %w", err)
	}
	return nil
}

// GetByArticleID retrieves the parsed event derived from an article, if any.
func (r *ParsedEventRepository) GetByArticleID(ctx context.Context, articleID string) (*domain.ParsedEvent, error) {
	var doc []byte
	err := r.db.QueryRowContext(ctx, `SELECT document FROM parsed_events WHERE article_id = $1`, articleID).Scan(&doc)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get parsed event by article id: %w", err)
	}
	var event domain.ParsedEvent
	if err := unmarshalDoc(doc, &event); err != nil {
		return nil, err
	}
	return &event, nil
}

// GetUnscored retrieves parsed events not yet run through the risk engine.
func (r *ParsedEventRepository) GetUnscored(ctx context.Context, limit int) ([]*domain.ParsedEvent, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT document FROM parsed_events WHERE scored = false ORDER BY extracted_at ASC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("get unscored events: %w", err)
	}
	defer rows.Close()

	var events []*domain.ParsedEvent
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("scan parsed event: %w", err)
		}
		var event domain.ParsedEvent
		if err := unmarshalDoc(doc, &event); err != nil {
			return nil, err
		}
		events = append(events, &event)
	}
	return events, rows.Err()
}

// MarkScored flags a parsed event as having produced a risk signal.
func (r *ParsedEventRepository) MarkScored(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE parsed_events SET scored = true WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("mark event scored: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Count returns the total number of parsed events.
func (r *ParsedEventRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM parsed_events`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count parsed events: %w", err)
	}
	return count, nil
}
