package ingestor

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mmcdole/gofeed"

	"github.com/nextier/signal-engine/internal/domain"
)

// RSSScraper retrieves articles from an RSS/Atom feed.
type RSSScraper struct {
	parser *gofeed.Parser
}

// NewRSSScraper builds an RSS scraper using the shared gofeed parser.
func NewRSSScraper() *RSSScraper {
	return &RSSScraper{parser: gofeed.NewParser()}
}

func (s *RSSScraper) Name() string { return "rss" }

// Scrape parses src.URL as an RSS/Atom feed and returns one Article per
// feed item.
func (s *RSSScraper) Scrape(ctx context.Context, src Source) ([]*domain.Article, error) {
	feed, err := s.parser.ParseURLWithContext(src.URL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", src.URL, err)
	}

	now := time.Now()
	articles := make([]*domain.Article, 0, len(feed.Items))
	for _, item := range feed.Items {
		published := now
		if item.PublishedParsed != nil {
			published = *item.PublishedParsed
		}

		content := item.Content
		if content == "" {
			content = item.Description
		}

		article := &domain.Article{
			ID:          uuid.NewString(),
			Title:       item.Title,
			URL:         item.Link,
			Source:      src.Name,
			SourceType:  domain.SourceTypeRSS,
			Content:     content,
			PublishedAt: published,
			FetchedAt:   now,
			CreatedAt:   now,
			SourceCount: 1,
		}
		article.Fingerprint = Fingerprint(article.Title, article.Content)
		articles = append(articles, article)
	}

	return articles, nil
}
