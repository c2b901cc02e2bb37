// Package repositories implements domain repositories using PostgreSQL.
package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/nextier/signal-engine/internal/domain"
)

// ArticleRepository implements domain.ArticleRepository using PostgreSQL.
// Each row carries both queryable identity columns and a document JSONB
// column holding the full Article, so downstream readers never need a
// second schema migration when the ingestor grows a new feature field.
type ArticleRepository struct {
	db *sql.DB
}

// NewArticleRepository creates a new article repository.
func NewArticleRepository(db *sql.DB) *ArticleRepository {
	return &ArticleRepository{db: db}
}

// Create inserts an article, silently ignoring duplicate URLs.
func (r *ArticleRepository) Create(ctx context.Context, article *domain.Article) error {
	if article.Category == "" {
		article.Category = domain.CategoryUnknown
	}
	if len(article.Sources) == 0 && article.Source != "" {
		article.Sources = []string{article.Source}
	}

	doc, err := marshalDoc(article)
	if err != nil {
		return fmt.Errorf("marshal article: %w", err)
	}

	query := `
		INSERT INTO articles (id, url, fingerprint, source, source_type, published_at, fetched_at, source_count, veracity_score, processed, category, category_confidence, document, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (url) DO NOTHING
	`
	_, err = r.db.ExecContext(ctx, query, article.ID, article.URL, article.Fingerprint, article.Source, article.SourceType,
		article.PublishedAt, article.FetchedAt, article.SourceCount, article.VeracityScore, article.Processed,
		article.Category, article.CategoryConfidence, doc, article.CreatedAt)
	if err != nil {
		return fmt.Errorf("create article: %w", err)
	}
	return nil
}

// GetByFingerprint looks up an article by its content fingerprint.
func (r *ArticleRepository) GetByFingerprint(ctx context.Context, fingerprint string) (*domain.Article, error) {
	var doc []byte
	query := `SELECT document FROM articles WHERE fingerprint = $1 LIMIT 1`
	err := r.db.QueryRowContext(ctx, query, fingerprint).Scan(&doc)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get article by fingerprint: %w", err)
	}
	var article domain.Article
	if err := unmarshalDoc(doc, &article); err != nil {
		return nil, err
	}
	return &article, nil
}

// IncrementSourceCount records that source has corroborated the article at
// fingerprint. SourceCount/VeracityScore only change the first time a given
// source is seen for that fingerprint - a later sighting from a source
// already in article.Sources (e.g. the ingestor's own cron re-reporting the
// same stable story every cycle) is a no-op, so source_count stays equal to
// the number of distinct corroborating sources rather than growing without
// bound across cycles.
func (r *ArticleRepository) IncrementSourceCount(ctx context.Context, fingerprint, source string) (*domain.Article, error) {
	article, err := r.GetByFingerprint(ctx, fingerprint)
	if err != nil {
		return nil, err
	}

	for _, s := range article.Sources {
		if s == source {
			return article, nil
		}
	}

	article.Sources = append(article.Sources, source)
	article.SourceCount = len(article.Sources)
	article.VeracityScore = veracityScore(article.SourceCount)

	doc, err := marshalDoc(article)
	if err != nil {
		return nil, fmt.Errorf("marshal article: %w", err)
	}

	query := `UPDATE articles SET source_count = $1, veracity_score = $2, document = $3 WHERE fingerprint = $4`
	if _, err := r.db.ExecContext(ctx, query, article.SourceCount, article.VeracityScore, doc, fingerprint); err != nil {
		return nil, fmt.Errorf("increment source count: %w", err)
	}
	return article, nil
}

func veracityScore(sourceCount int) float64 {
	score := 0.5 * float64(sourceCount)
	if score > 1 {
		return 1
	}
	return score
}

// GetUnprocessed retrieves articles not yet handed to the classifier.
func (r *ArticleRepository) GetUnprocessed(ctx context.Context, limit int) ([]*domain.Article, error) {
	query := `SELECT document FROM articles WHERE processed = false ORDER BY fetched_at ASC LIMIT $1`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("get unprocessed articles: %w", err)
	}
	defer rows.Close()

	var articles []*domain.Article
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("scan article: %w", err)
		}
		var article domain.Article
		if err := unmarshalDoc(doc, &article); err != nil {
			return nil, err
		}
		articles = append(articles, &article)
	}
	return articles, rows.Err()
}

// MarkProcessed flags an article as classified.
func (r *ArticleRepository) MarkProcessed(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE articles SET processed = true, document = jsonb_set(document, '{processed}', 'true'::jsonb) WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("mark article processed: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// UpdateCategory attaches a categorization result to an article.
func (r *ArticleRepository) UpdateCategory(ctx context.Context, id, category string, confidence int) error {
	article, err := r.getByID(ctx, id)
	if err != nil {
		return err
	}
	article.Category = category
	article.CategoryConfidence = confidence

	doc, err := marshalDoc(article)
	if err != nil {
		return fmt.Errorf("marshal article: %w", err)
	}

	query := `UPDATE articles SET category = $1, category_confidence = $2, document = $3 WHERE id = $4`
	result, err := r.db.ExecContext(ctx, query, category, confidence, doc, id)
	if err != nil {
		return fmt.Errorf("update article category: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// GetUncategorized retrieves processed articles still carrying CategoryUnknown.
func (r *ArticleRepository) GetUncategorized(ctx context.Context, limit int) ([]*domain.Article, error) {
	query := `SELECT document FROM articles WHERE processed = true AND category = $1 ORDER BY fetched_at ASC LIMIT $2`
	rows, err := r.db.QueryContext(ctx, query, domain.CategoryUnknown, limit)
	if err != nil {
		return nil, fmt.Errorf("get uncategorized articles: %w", err)
	}
	defer rows.Close()

	var articles []*domain.Article
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("scan article: %w", err)
		}
		var article domain.Article
		if err := unmarshalDoc(doc, &article); err != nil {
			return nil, err
		}
		articles = append(articles, &article)
	}
	return articles, rows.Err()
}

func (r *ArticleRepository) getByID(ctx context.Context, id string) (*domain.Article, error) {
	var doc []byte
	err := r.db.QueryRowContext(ctx, `SELECT document FROM articles WHERE id = $1`, id).Scan(&doc)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get article by id: %w", err)
	}
	var article domain.Article
	if err := unmarshalDoc(doc, &article); err != nil {
		return nil, err
	}
	return &article, nil
}

// Count returns the total number of stored articles.
func (r *ArticleRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM articles`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count articles: %w", err)
	}
	return count, nil
}

// CategorizationStats aggregates the categorization-audit report.
func (r *ArticleRepository) CategorizationStats(ctx context.Context) (*domain.CategorizationStats, error) {
	stats := &domain.CategorizationStats{Categories: make(map[string]domain.CategoryStat)}

	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM articles`).Scan(&stats.TotalArticles); err != nil {
		return nil, fmt.Errorf("count total articles: %w", err)
	}
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM articles WHERE processed = true`).Scan(&stats.ProcessedArticles); err != nil {
		return nil, fmt.Errorf("count processed articles: %w", err)
	}
	stats.RemainingArticles = stats.TotalArticles - stats.ProcessedArticles

	catRows, err := r.db.QueryContext(ctx, `
		SELECT category, COUNT(*), AVG(category_confidence)
		FROM articles
		WHERE processed = true
		GROUP BY category
	`)
	if err != nil {
		return nil, fmt.Errorf("aggregate categories: %w", err)
	}
	defer catRows.Close()

	for catRows.Next() {
		var category string
		var stat domain.CategoryStat
		if err := catRows.Scan(&category, &stat.Count, &stat.AvgConfidence); err != nil {
			return nil, fmt.Errorf("scan category stat: %w", err)
		}
		stats.Categories[category] = stat
	}
	if err := catRows.Err(); err != nil {
		return nil, err
	}

	logRows, err := r.db.QueryContext(ctx, `
		SELECT id, category, category_confidence, fetched_at, document
		FROM articles
		WHERE processed = true AND category != $1
		ORDER BY fetched_at DESC
		LIMIT 10
	`, domain.CategoryUnknown)
	if err != nil {
		return nil, fmt.Errorf("load confidence logs: %w", err)
	}
	defer logRows.Close()

	for logRows.Next() {
		var entry domain.ConfidenceLogEntry
		var doc []byte
		if err := logRows.Scan(&entry.ArticleID, &entry.Category, &entry.Confidence, &entry.Timestamp, &doc); err != nil {
			return nil, fmt.Errorf("scan confidence log: %w", err)
		}
		var article domain.Article
		if err := unmarshalDoc(doc, &article); err == nil {
			entry.Title = article.Title
		}
		stats.ConfidenceLogs = append(stats.ConfidenceLogs, entry)
	}
	if err := logRows.Err(); err != nil {
		return nil, err
	}

	return stats, nil
}
