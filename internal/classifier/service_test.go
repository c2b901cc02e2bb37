package classifier

import (
	"context"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nextier/signal-engine/internal/config"
	"github.com/nextier/signal-engine/internal/domain"
)

type fakeArticleRepo struct {
	mu       sync.Mutex
	articles map[string]*domain.Article
}

func newFakeArticleRepo(articles ...*domain.Article) *fakeArticleRepo {
	r := &fakeArticleRepo{articles: make(map[string]*domain.Article)}
	for _, a := range articles {
		r.articles[a.ID] = a
	}
	return r
}

func (r *fakeArticleRepo) Create(ctx context.Context, article *domain.Article) error { return nil }
func (r *fakeArticleRepo) GetByFingerprint(ctx context.Context, fp string) (*domain.Article, error) {
	return nil, nil
}
func (r *fakeArticleRepo) IncrementSourceCount(ctx context.Context, fp, source string) (*domain.Article, error) {
	return nil, nil
}

func (r *fakeArticleRepo) GetUnprocessed(ctx context.Context, limit int) ([]*domain.Article, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Article
	for _, a := range r.articles {
		if !a.Processed {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *fakeArticleRepo) MarkProcessed(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.articles[id].Processed = true
	return nil
}

func (r *fakeArticleRepo) UpdateCategory(ctx context.Context, id, category string, confidence int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.articles[id].Category = category
	r.articles[id].CategoryConfidence = confidence
	return nil
}

func (r *fakeArticleRepo) GetUncategorized(ctx context.Context, limit int) ([]*domain.Article, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Article
	for _, a := range r.articles {
		if a.Processed && (a.Category == "" || a.Category == domain.CategoryUnknown) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *fakeArticleRepo) Count(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.articles)), nil
}

func (r *fakeArticleRepo) CategorizationStats(ctx context.Context) (*domain.CategorizationStats, error) {
	return &domain.CategorizationStats{Categories: make(map[string]domain.CategoryStat)}, nil
}

type fakeEventRepo struct {
	mu     sync.Mutex
	events []*domain.ParsedEvent
}

func (r *fakeEventRepo) Create(ctx context.Context, event *domain.ParsedEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}
func (r *fakeEventRepo) GetByArticleID(ctx context.Context, articleID string) (*domain.ParsedEvent, error) {
	return nil, nil
}
func (r *fakeEventRepo) GetUnscored(ctx context.Context, limit int) ([]*domain.ParsedEvent, error) {
	return nil, nil
}
func (r *fakeEventRepo) MarkScored(ctx context.Context, id string) error { return nil }
func (r *fakeEventRepo) Count(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.events)), nil
}

func testClassifierConfig() config.ClassifierConfig {
	return config.ClassifierConfig{
		OpenAIAPIKey:            "",
		MaxConcurrentProcessing: 4,
		MaxRetries:              1,
		CircuitFailureRatio:     0.6,
		CircuitBreakerName:      "test-breaker",
	}
}

func TestService_RunExtractionOnce_FallsBackToRuleExtractor(t *testing.T) {
	articles := newFakeArticleRepo(&domain.Article{
		ID:      "a1",
		Title:   "Clash reported in Benue",
		Content: "Herders and farmers clashed near Makurdi, several killed.",
		URL:     "https://x/1",
	})
	events := &fakeEventRepo{}

	svc := NewService(testClassifierConfig(), articles, events, nil, slog.Default())

	processed, failed, err := svc.RunExtractionOnce(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, 1, processed)
	assert.Equal(t, 0, failed)
	require.Len(t, events.events, 1)
	assert.Equal(t, domain.ExtractionMethodRule, events.events[0].Method)
	assert.True(t, articles.articles["a1"].Processed)
}

func TestService_RunExtractionOnce_SkipsNonConflictArticle(t *testing.T) {
	articles := newFakeArticleRepo(&domain.Article{
		ID:      "a2",
		Title:   "Local football team wins tournament",
		Content: "The championship game ended with no incidents of any kind reported.",
		URL:     "https://x/2",
	})
	events := &fakeEventRepo{}

	svc := NewService(testClassifierConfig(), articles, events, nil, slog.Default())

	processed, failed, err := svc.RunExtractionOnce(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, 1, processed)
	assert.Equal(t, 0, failed)
	assert.Empty(t, events.events, "non-conflict article should not produce a parsed event")
	assert.True(t, articles.articles["a2"].Processed, "should still be marked processed so it leaves the queue")
}

func TestService_RunCategorizationOnce_UsesRuleCategorizer(t *testing.T) {
	a := &domain.Article{
		ID:        "a3",
		Title:     "Herder-farmer dispute turns violent",
		Content:   "Cattle rustling led to a violent confrontation over grazing land.",
		URL:       "https://x/3",
		Processed: true,
		Category:  domain.CategoryUnknown,
	}
	articles := newFakeArticleRepo(a)
	events := &fakeEventRepo{}

	svc := NewService(testClassifierConfig(), articles, events, nil, slog.Default())

	processed, failed, err := svc.RunCategorizationOnce(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, 1, processed)
	assert.Equal(t, 0, failed)
	assert.Equal(t, CategoryFarmerHerderClashes, articles.articles["a3"].Category)
}
