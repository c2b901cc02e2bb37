package temporal

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/nextier/signal-engine/internal/bus"
	"github.com/nextier/signal-engine/internal/domain"
)

// Driver implements classifier.Runner by dispatching
// ExtractEventWorkflow/CategorizeArticleWorkflow executions through a
// Temporal Client instead of calling the classifier service in-process. The
// worker started alongside this driver still binds Activities to a live
// *classifier.Service, so the model-then-rule-fallback logic itself is
// unchanged - only the scheduling/retry/visibility layer moves onto
// Temporal.
type Driver struct {
	client   *Client
	articles domain.ArticleRepository
	events   domain.ParsedEventRepository
	bus      *bus.Bus
	log      *slog.Logger
	sem      *semaphore.Weighted
}

// NewDriver builds a Driver that submits workflow executions to client and
// persists their results through articles/events.
func NewDriver(client *Client, articles domain.ArticleRepository, events domain.ParsedEventRepository, b *bus.Bus, log *slog.Logger, maxConcurrent int) *Driver {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &Driver{
		client:   client,
		articles: articles,
		events:   events,
		bus:      b,
		log:      log,
		sem:      semaphore.NewWeighted(int64(maxConcurrent)),
	}
}

// RunExtractionOnce dispatches one ExtractEventWorkflow execution per
// unprocessed article and waits for each result, persisting the parsed
// event (or marking the article processed with no event, when the workflow
// found no conflict signal) exactly as the in-process extractor would.
func (d *Driver) RunExtractionOnce(ctx context.Context, batchSize int) (processed int, failed int, err error) {
	articles, err := d.articles.GetUnprocessed(ctx, batchSize)
	if err != nil {
		return 0, 0, fmt.Errorf("get unprocessed articles: %w", err)
	}

	var p, f int32Counter
	g, groupCtx := errgroup.WithContext(ctx)

	for _, article := range articles {
		article := article
		g.Go(func() error {
			if err := d.sem.Acquire(groupCtx, 1); err != nil {
				return nil
			}
			defer d.sem.Release(1)

			if err := d.extractOne(groupCtx, article); err != nil {
				d.log.Warn("temporal extraction failed", "article_id", article.ID, "error", err)
				f.inc()
				return nil
			}
			p.inc()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return int(p.get()), int(f.get()), err
	}
	return int(p.get()), int(f.get()), nil
}

func (d *Driver) extractOne(ctx context.Context, article *domain.Article) error {
	workflowID := fmt.Sprintf("extract-%s-%d", article.ID, time.Now().UnixNano())
	run, err := d.client.ExecuteWorkflow(ctx, workflowID, ExtractEventWorkflow, ExtractEventInput{
		ArticleID: article.ID,
		Title:     article.Title,
		Content:   article.Content,
	})
	if err != nil {
		return fmt.Errorf("dispatch extraction workflow: %w", err)
	}

	var out ExtractEventOutput
	if err := d.client.GetWorkflowResult(ctx, workflowID, run.GetRunID(), &out); err != nil {
		return fmt.Errorf("await extraction workflow: %w", err)
	}

	if !out.Found {
		return d.articles.MarkProcessed(ctx, article.ID)
	}

	event := &domain.ParsedEvent{
		ID:                   uuid.NewString(),
		ArticleID:            article.ID,
		EventType:            out.EventType,
		Severity:             out.Severity,
		Driver:               out.Driver,
		State:                out.State,
		LGA:                  out.LGA,
		Latitude:             out.Latitude,
		Longitude:            out.Longitude,
		Confidence:           confidenceForMethod(out.Method),
		Method:               out.Method,
		SourceTitle:          article.Title,
		SourceURL:            article.URL,
		SentimentIntensity:   out.SentimentIntensity,
		HateSpeechIndicators: out.HateSpeechIndicators,
		ExtractedAt:          time.Now(),
	}

	if err := d.events.Create(ctx, event); err != nil {
		return fmt.Errorf("store parsed event: %w", err)
	}
	if err := d.articles.MarkProcessed(ctx, article.ID); err != nil {
		return fmt.Errorf("mark article processed: %w", err)
	}
	if d.bus != nil {
		if err := d.bus.PublishEvent(ctx, event.ID); err != nil {
			d.log.Warn("failed to publish parsed event", "event_id", event.ID, "error", err)
		}
	}
	return nil
}

// RunCategorizationOnce dispatches one CategorizeArticleWorkflow execution
// per still-uncategorized article and persists each result.
func (d *Driver) RunCategorizationOnce(ctx context.Context, batchSize int) (processed int, failed int, err error) {
	articles, err := d.articles.GetUncategorized(ctx, batchSize)
	if err != nil {
		return 0, 0, fmt.Errorf("get uncategorized articles: %w", err)
	}

	var p, f int32Counter
	g, groupCtx := errgroup.WithContext(ctx)

	for _, article := range articles {
		article := article
		g.Go(func() error {
			if err := d.sem.Acquire(groupCtx, 1); err != nil {
				return nil
			}
			defer d.sem.Release(1)

			if err := d.categorizeOne(groupCtx, article); err != nil {
				d.log.Warn("temporal categorization failed", "article_id", article.ID, "error", err)
				f.inc()
				return nil
			}
			p.inc()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return int(p.get()), int(f.get()), err
	}
	return int(p.get()), int(f.get()), nil
}

func (d *Driver) categorizeOne(ctx context.Context, article *domain.Article) error {
	workflowID := fmt.Sprintf("categorize-%s-%d", article.ID, time.Now().UnixNano())
	run, err := d.client.ExecuteWorkflow(ctx, workflowID, CategorizeArticleWorkflow, CategorizeArticleInput{
		ArticleID: article.ID,
		Title:     article.Title,
		Content:   article.Content,
	})
	if err != nil {
		return fmt.Errorf("dispatch categorization workflow: %w", err)
	}

	var out CategorizeArticleOutput
	if err := d.client.GetWorkflowResult(ctx, workflowID, run.GetRunID(), &out); err != nil {
		return fmt.Errorf("await categorization workflow: %w", err)
	}

	return d.articles.UpdateCategory(ctx, article.ID, out.Category, out.Confidence)
}

func confidenceForMethod(method domain.ExtractionMethod) float64 {
	if method == domain.ExtractionMethodLLM {
		return 0.85
	}
	return 0.5
}

// int32Counter is a tiny concurrency-safe counter for tallying batch results
// across the errgroup goroutines above.
type int32Counter struct {
	v int32
}

func (c *int32Counter) inc() { atomic.AddInt32(&c.v, 1) }

func (c *int32Counter) get() int32 { return atomic.LoadInt32(&c.v) }
