package ingestor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/nextier/signal-engine/internal/bus"
	"github.com/nextier/signal-engine/internal/config"
	"github.com/nextier/signal-engine/internal/domain"
)

// AuditEntry records the outcome of one source's scrape within a run, kept
// for operator visibility into what the ingestor has been doing.
type AuditEntry struct {
	Timestamp     time.Time `json:"timestamp"`
	Source        string    `json:"source"`
	ArticlesFound int       `json:"articles_found"`
	ArticlesNew   int       `json:"articles_new"`
	Error         string    `json:"error,omitempty"`
}

// AlertEntry flags an article that reached full corroboration (reported by
// enough independent sources to max out its veracity score) during a run.
type AlertEntry struct {
	Timestamp     time.Time `json:"timestamp"`
	ArticleID     string    `json:"article_id"`
	Title         string    `json:"title"`
	SourceCount   int       `json:"source_count"`
	VeracityScore float64   `json:"veracity_score"`
}

// RunSummary reports what one ScanAll pass did.
type RunSummary struct {
	StartedAt    time.Time
	Duration     time.Duration
	SourcesRun   int
	ArticlesSeen int
	ArticlesNew  int
	Failures     int
}

// Orchestrator fans a configured set of sources out across their scrapers
// concurrently, deduplicates and veracity-scores the results against
// storage, and publishes newly-seen articles to the bus for the classifier.
type Orchestrator struct {
	sources  []Source
	scrapers map[domain.SourceType]Scraper
	repo     domain.ArticleRepository
	bus      *bus.Bus
	cfg      config.IngestorConfig
	log      *slog.Logger

	sem     *semaphore.Weighted
	limiter *rate.Limiter

	mu        sync.Mutex
	auditLog  []AuditEntry
	alertLog  []AlertEntry
	isRunning bool
}

// NewOrchestrator builds an orchestrator gated by the configured concurrency
// and request-rate limits. bus may be nil, in which case newly ingested
// articles are persisted but not published.
func NewOrchestrator(cfg config.IngestorConfig, repo domain.ArticleRepository, b *bus.Bus, log *slog.Logger) *Orchestrator {
	return &Orchestrator{
		scrapers: map[domain.SourceType]Scraper{
			domain.SourceTypeRSS: NewRSSScraper(),
			domain.SourceTypeWeb: NewHTMLScraper(cfg.RequestTimeout),
		},
		repo:    repo,
		bus:     b,
		cfg:     cfg,
		log:     log,
		sem:     semaphore.NewWeighted(int64(cfg.MaxConcurrentConnections)),
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
	}
}

// RegisterSource adds a source the orchestrator will poll on future runs.
func (o *Orchestrator) RegisterSource(src Source) {
	o.sources = append(o.sources, src)
}

// ScanAll scrapes every registered source concurrently. A single source's
// failure is logged to its audit entry and does not block the others,
// matching the teacher orchestrator's best-effort fan-out.
func (o *Orchestrator) ScanAll(ctx context.Context) (*RunSummary, error) {
	start := time.Now()
	summary := &RunSummary{StartedAt: start, SourcesRun: len(o.sources)}

	var mu sync.Mutex
	g, groupCtx := errgroup.WithContext(ctx)

	for _, src := range o.sources {
		src := src

		g.Go(func() error {
			if err := o.sem.Acquire(groupCtx, 1); err != nil {
				return nil
			}
			defer o.sem.Release(1)

			if err := o.limiter.Wait(groupCtx); err != nil {
				return nil
			}

			seen, created, err := o.scanOne(groupCtx, src)

			mu.Lock()
			summary.ArticlesSeen += seen
			summary.ArticlesNew += created
			if err != nil {
				summary.Failures++
			}
			mu.Unlock()

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return summary, err
	}

	summary.Duration = time.Since(start)
	o.log.Info("ingestor run completed",
		"sources", summary.SourcesRun,
		"articles_seen", summary.ArticlesSeen,
		"articles_new", summary.ArticlesNew,
		"failures", summary.Failures,
		"duration", summary.Duration,
	)

	return summary, nil
}

func (o *Orchestrator) scanOne(ctx context.Context, src Source) (seen int, created int, err error) {
	entry := AuditEntry{Timestamp: time.Now(), Source: src.Name}
	defer func() { o.recordAudit(entry) }()

	scraper, ok := o.scrapers[src.Type]
	if !ok {
		err = fmt.Errorf("no scraper registered for source type %q", src.Type)
		entry.Error = err.Error()
		o.log.Warn("skipping source with unknown type", "source", src.Name, "type", src.Type)
		return 0, 0, err
	}

	articles, scrapeErr := scraper.Scrape(ctx, src)
	if scrapeErr != nil {
		entry.Error = scrapeErr.Error()
		o.log.Warn("scrape failed", "source", src.Name, "error", scrapeErr)
		return 0, 0, scrapeErr
	}

	entry.ArticlesFound = len(articles)
	seen = len(articles)

	for _, article := range articles {
		isNew, ingestErr := o.ingest(ctx, article)
		if ingestErr != nil {
			o.log.Warn("failed to persist article", "source", src.Name, "url", article.URL, "error", ingestErr)
			continue
		}
		if isNew {
			created++
		}
	}

	entry.ArticlesNew = created
	return seen, created, nil
}

// ingest deduplicates a scraped article by content fingerprint: a first
// sighting is stored as new, a repeat sighting bumps the existing article's
// corroboration count and veracity score instead of creating a duplicate row.
func (o *Orchestrator) ingest(ctx context.Context, article *domain.Article) (isNew bool, err error) {
	if article.Fingerprint == "" {
		return false, fmt.Errorf("article %q has no fingerprint", article.URL)
	}

	existing, err := o.repo.GetByFingerprint(ctx, article.Fingerprint)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return false, fmt.Errorf("lookup fingerprint: %w", err)
	}

	if existing != nil {
		updated, err := o.repo.IncrementSourceCount(ctx, article.Fingerprint, article.Source)
		if err != nil {
			return false, fmt.Errorf("increment source count: %w", err)
		}
		if updated.VeracityScore >= 1.0 {
			o.recordAlert(updated)
		}
		return false, nil
	}

	article.VeracityScore = o.cfg.VeracityPerSource
	if article.VeracityScore > 1.0 {
		article.VeracityScore = 1.0
	}

	if err := o.repo.Create(ctx, article); err != nil {
		return false, fmt.Errorf("create article: %w", err)
	}

	if o.bus != nil {
		if err := o.bus.PublishArticle(ctx, article.ID); err != nil {
			o.log.Warn("failed to publish article", "article_id", article.ID, "error", err)
		}
	}

	return true, nil
}

func (o *Orchestrator) recordAudit(entry AuditEntry) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.auditLog = append(o.auditLog, entry)
	if len(o.auditLog) > o.cfg.AuditLogSize {
		o.auditLog = o.auditLog[len(o.auditLog)-o.cfg.AuditLogSize:]
	}
}

func (o *Orchestrator) recordAlert(article *domain.Article) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.alertLog = append(o.alertLog, AlertEntry{
		Timestamp:     time.Now(),
		ArticleID:     article.ID,
		Title:         article.Title,
		SourceCount:   article.SourceCount,
		VeracityScore: article.VeracityScore,
	})
	if len(o.alertLog) > o.cfg.AlertLogSize {
		o.alertLog = o.alertLog[len(o.alertLog)-o.cfg.AlertLogSize:]
	}
}

// AuditLog returns a snapshot of the most recent per-source run results.
func (o *Orchestrator) AuditLog() []AuditEntry {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]AuditEntry, len(o.auditLog))
	copy(out, o.auditLog)
	return out
}

// AlertLog returns a snapshot of the most recent full-corroboration alerts.
func (o *Orchestrator) AlertLog() []AlertEntry {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]AlertEntry, len(o.alertLog))
	copy(out, o.alertLog)
	return out
}
