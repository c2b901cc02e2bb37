package ingestor

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"

	"github.com/nextier/signal-engine/internal/domain"
)

// HTMLScraper extracts a single article's worth of content from a plain
// web page, for sources that don't publish a feed.
type HTMLScraper struct {
	client *http.Client

	// TitleSelector and ContentSelector pick the elements holding the
	// headline and body text. They default to common article markup.
	TitleSelector   string
	ContentSelector string
}

// NewHTMLScraper builds an HTML scraper with the given request timeout.
func NewHTMLScraper(timeout time.Duration) *HTMLScraper {
	return &HTMLScraper{
		client:          &http.Client{Timeout: timeout},
		TitleSelector:   "h1",
		ContentSelector: "article, .article-body, .story-body, main",
	}
}

func (s *HTMLScraper) Name() string { return "html" }

// Scrape fetches src.URL and returns a single Article built from the page's
// title and body text.
func (s *HTMLScraper) Scrape(ctx context.Context, src Source) ([]*domain.Article, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", src.URL, err)
	}
	req.Header.Set("User-Agent", "signal-engine-ingestor/1.0")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", src.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: unexpected status %d", src.URL, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse html from %s: %w", src.URL, err)
	}

	title := strings.TrimSpace(doc.Find(s.TitleSelector).First().Text())
	if title == "" {
		title = strings.TrimSpace(doc.Find("title").First().Text())
	}

	content := strings.TrimSpace(doc.Find(s.ContentSelector).First().Text())
	if content == "" {
		content = strings.TrimSpace(doc.Find("body").Text())
	}

	if title == "" && content == "" {
		return nil, nil
	}

	now := time.Now()
	article := &domain.Article{
		ID:          uuid.NewString(),
		Title:       title,
		URL:         src.URL,
		Source:      src.Name,
		SourceType:  domain.SourceTypeWeb,
		Content:     content,
		PublishedAt: now,
		FetchedAt:   now,
		CreatedAt:   now,
		SourceCount: 1,
	}
	article.Fingerprint = Fingerprint(article.Title, article.Content)

	return []*domain.Article{article}, nil
}
