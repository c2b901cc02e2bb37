// Package ingestor scrapes conflict-reporting sources, deduplicates and
// veracity-scores the results, and hands finished articles off to the
// classifier.
package ingestor

import (
	"context"

	"github.com/nextier/signal-engine/internal/domain"
)

// Source names one configured feed or page the ingestor polls.
type Source struct {
	Name string
	URL  string
	Type domain.SourceType
}

// Scraper fetches and parses the articles currently available at a Source.
// RSS and HTML-page sources get distinct implementations; both return raw,
// not-yet-deduplicated articles.
type Scraper interface {
	// Name identifies the scraper for logging and audit entries.
	Name() string

	// Scrape retrieves whatever articles are currently published at src.
	Scrape(ctx context.Context, src Source) ([]*domain.Article, error)
}
