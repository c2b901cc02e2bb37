package classifier

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/nextier/signal-engine/internal/bus"
	"github.com/nextier/signal-engine/internal/config"
	"github.com/nextier/signal-engine/internal/domain"
)

// Service extracts ParsedEvents from Articles and categorizes Articles,
// preferring the resilience-wrapped LLM client and falling back to the
// rule-based extractor whenever the model call fails outright.
type Service struct {
	cfg      config.ClassifierConfig
	articles domain.ArticleRepository
	events   domain.ParsedEventRepository
	llm      *LLMClient
	rule     *RuleExtractor
	bus      *bus.Bus
	log      *slog.Logger
	sem      *semaphore.Weighted
}

// NewService builds a classifier service. bus may be nil, in which case
// newly parsed events are persisted but not published.
func NewService(cfg config.ClassifierConfig, articles domain.ArticleRepository, events domain.ParsedEventRepository, b *bus.Bus, log *slog.Logger) *Service {
	return &Service{
		cfg:      cfg,
		articles: articles,
		events:   events,
		llm:      NewLLMClient(cfg),
		rule:     NewRuleExtractor(),
		bus:      b,
		log:      log,
		sem:      semaphore.NewWeighted(int64(cfg.MaxConcurrentProcessing)),
	}
}

// RunExtractionOnce processes up to batchSize unprocessed articles,
// extracting one ParsedEvent per article that carries a conflict signal.
func (s *Service) RunExtractionOnce(ctx context.Context, batchSize int) (processed int, failed int, err error) {
	articles, err := s.articles.GetUnprocessed(ctx, batchSize)
	if err != nil {
		return 0, 0, fmt.Errorf("get unprocessed articles: %w", err)
	}

	var p, f int32Counter
	g, groupCtx := errgroup.WithContext(ctx)

	for _, article := range articles {
		article := article
		g.Go(func() error {
			if err := s.sem.Acquire(groupCtx, 1); err != nil {
				return nil
			}
			defer s.sem.Release(1)

			if err := s.extractOne(groupCtx, article); err != nil {
				s.log.Warn("extraction failed", "article_id", article.ID, "error", err)
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

func (s *Service) extractOne(ctx context.Context, article *domain.Article) error {
	result, method, err := s.extract(ctx, article)
	if err != nil {
		return err
	}
	if result == nil {
		// No conflict signal: skip silently, still mark processed so the
		// extraction queue doesn't keep retrying it forever.
		return s.articles.MarkProcessed(ctx, article.ID)
	}

	event := &domain.ParsedEvent{
		ID:                   uuid.NewString(),
		ArticleID:            article.ID,
		EventType:            result.EventType,
		Severity:             result.Severity,
		Driver:               result.Driver,
		State:                result.State,
		LGA:                  result.LGA,
		Latitude:             result.Latitude,
		Longitude:            result.Longitude,
		Confidence:           confidenceForMethod(method),
		Method:               method,
		SourceTitle:          article.Title,
		SourceURL:            article.URL,
		SentimentIntensity:   result.SentimentIntensity,
		HateSpeechIndicators: result.HateSpeechIndicators,
		ExtractedAt:          time.Now(),
	}

	if err := s.events.Create(ctx, event); err != nil {
		return fmt.Errorf("store parsed event: %w", err)
	}
	if err := s.articles.MarkProcessed(ctx, article.ID); err != nil {
		return fmt.Errorf("mark article processed: %w", err)
	}
	if s.bus != nil {
		if err := s.bus.PublishEvent(ctx, event.ID); err != nil {
			s.log.Warn("failed to publish parsed event", "event_id", event.ID, "error", err)
		}
	}

	return nil
}

// extract tries the model call first, falling back to the rule-based
// extractor on any error (transient, circuit-open, or malformed response).
func (s *Service) extract(ctx context.Context, article *domain.Article) (*ExtractionResult, domain.ExtractionMethod, error) {
	if s.llm != nil && s.cfg.OpenAIAPIKey != "" {
		result, err := s.llm.Extract(ctx, article.Title, article.Content)
		if err == nil {
			return result, domain.ExtractionMethodLLM, nil
		}
		s.log.Warn("model extraction failed, falling back to rule-based extractor", "article_id", article.ID, "error", err)
	}

	result := s.rule.Extract(article.Title, article.Content)
	return result, domain.ExtractionMethodRule, nil
}

// RunCategorizationOnce processes up to batchSize still-uncategorized
// articles.
func (s *Service) RunCategorizationOnce(ctx context.Context, batchSize int) (processed int, failed int, err error) {
	articles, err := s.articles.GetUncategorized(ctx, batchSize)
	if err != nil {
		return 0, 0, fmt.Errorf("get uncategorized articles: %w", err)
	}

	var p, f int32Counter
	g, groupCtx := errgroup.WithContext(ctx)

	for _, article := range articles {
		article := article
		g.Go(func() error {
			if err := s.sem.Acquire(groupCtx, 1); err != nil {
				return nil
			}
			defer s.sem.Release(1)

			if err := s.categorizeOne(groupCtx, article); err != nil {
				s.log.Warn("categorization failed", "article_id", article.ID, "error", err)
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

func (s *Service) categorizeOne(ctx context.Context, article *domain.Article) error {
	var result CategorizationResult

	if s.llm != nil && s.cfg.OpenAIAPIKey != "" {
		r, err := s.llm.Categorize(ctx, article.Title, article.Content)
		if err == nil {
			result = r
		} else {
			s.log.Warn("model categorization failed, falling back to rule-based categorizer", "article_id", article.ID, "error", err)
			result = s.rule.Categorize(article.Title, article.Content)
		}
	} else {
		result = s.rule.Categorize(article.Title, article.Content)
	}

	return s.articles.UpdateCategory(ctx, article.ID, result.Category, result.Confidence)
}

// ExtractEvent runs the same model-then-rule-fallback extraction used by
// RunExtractionOnce, exposed for the Temporal activity that wraps it.
func (s *Service) ExtractEvent(ctx context.Context, title, content string) (*ExtractionResult, domain.ExtractionMethod, error) {
	if s.llm != nil && s.cfg.OpenAIAPIKey != "" {
		result, err := s.llm.Extract(ctx, title, content)
		if err == nil {
			return result, domain.ExtractionMethodLLM, nil
		}
		s.log.Warn("model extraction failed, falling back to rule-based extractor", "error", err)
	}
	return s.rule.Extract(title, content), domain.ExtractionMethodRule, nil
}

// CategorizeArticle runs the same model-then-rule-fallback categorization
// used by RunCategorizationOnce, exposed for the Temporal activity that
// wraps it.
func (s *Service) CategorizeArticle(ctx context.Context, title, content string) (CategorizationResult, error) {
	if s.llm != nil && s.cfg.OpenAIAPIKey != "" {
		result, err := s.llm.Categorize(ctx, title, content)
		if err == nil {
			return result, nil
		}
		s.log.Warn("model categorization failed, falling back to rule-based categorizer", "error", err)
	}
	return s.rule.Categorize(title, content), nil
}

func confidenceForMethod(method domain.ExtractionMethod) float64 {
	if method == domain.ExtractionMethodLLM {
		return 0.85
	}
	return 0.5
}
