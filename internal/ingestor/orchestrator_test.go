package ingestor

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

// fakeScraper returns a fixed set of articles regardless of the source
// requested, so orchestrator tests control input deterministically.
type fakeScraper struct {
	name     string
	articles []*domain.Article
	err      error
}

func (f *fakeScraper) Name() string { return f.name }

func (f *fakeScraper) Scrape(ctx context.Context, src Source) ([]*domain.Article, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.articles, nil
}

// fakeArticleRepo is an in-memory domain.ArticleRepository keyed by fingerprint.
type fakeArticleRepo struct {
	mu       sync.Mutex
	byFP     map[string]*domain.Article
	veracity float64
}

func newFakeArticleRepo() *fakeArticleRepo {
	return &fakeArticleRepo{byFP: make(map[string]*domain.Article), veracity: 0.5}
}

func (r *fakeArticleRepo) Create(ctx context.Context, article *domain.Article) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(article.Sources) == 0 && article.Source != "" {
		article.Sources = []string{article.Source}
	}
	r.byFP[article.Fingerprint] = article
	return nil
}

func (r *fakeArticleRepo) GetByFingerprint(ctx context.Context, fingerprint string) (*domain.Article, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byFP[fingerprint], nil
}

func (r *fakeArticleRepo) IncrementSourceCount(ctx context.Context, fingerprint, source string) (*domain.Article, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a := r.byFP[fingerprint]
	for _, s := range a.Sources {
		if s == source {
			return a, nil
		}
	}
	a.Sources = append(a.Sources, source)
	a.SourceCount = len(a.Sources)
	a.VeracityScore = min1(float64(a.SourceCount) * r.veracity)
	return a, nil
}

func (r *fakeArticleRepo) GetUnprocessed(ctx context.Context, limit int) ([]*domain.Article, error) {
	return nil, nil
}

func (r *fakeArticleRepo) MarkProcessed(ctx context.Context, id string) error { return nil }

func (r *fakeArticleRepo) UpdateCategory(ctx context.Context, id, category string, confidence int) error {
	return nil
}

func (r *fakeArticleRepo) GetUncategorized(ctx context.Context, limit int) ([]*domain.Article, error) {
	return nil, nil
}

func (r *fakeArticleRepo) Count(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.byFP)), nil
}

func (r *fakeArticleRepo) CategorizationStats(ctx context.Context) (*domain.CategorizationStats, error) {
	return &domain.CategorizationStats{Categories: make(map[string]domain.CategoryStat)}, nil
}

func min1(v float64) float64 {
	if v > 1.0 {
		return 1.0
	}
	return v
}

func testConfig() config.IngestorConfig {
	return config.IngestorConfig{
		MaxConcurrentConnections: 4,
		RequestsPerSecond:        1000,
		AuditLogSize:             100,
		AlertLogSize:             20,
		VeracityPerSource:        0.5,
	}
}

func TestOrchestrator_IngestsNewArticleOnce(t *testing.T) {
	repo := newFakeArticleRepo()
	orch := NewOrchestrator(testConfig(), repo, nil, slog.Default())
	orch.scrapers[domain.SourceTypeRSS] = &fakeScraper{
		name: "wire",
		articles: []*domain.Article{
			{ID: "a1", Title: "Clash in Benue", Content: "details", URL: "https://x/1", Fingerprint: Fingerprint("Clash in Benue", "details"), SourceCount: 1},
		},
	}
	orch.RegisterSource(Source{Name: "wire", Type: domain.SourceTypeRSS})

	summary, err := orch.ScanAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.ArticlesSeen)
	assert.Equal(t, 1, summary.ArticlesNew)

	count, _ := repo.Count(context.Background())
	assert.Equal(t, int64(1), count)
}

func TestOrchestrator_DuplicateBumpsCorroborationInsteadOfCreating(t *testing.T) {
	repo := newFakeArticleRepo()
	orch := NewOrchestrator(testConfig(), repo, nil, slog.Default())

	fp := Fingerprint("Clash in Benue", "details")
	orch.scrapers[domain.SourceTypeRSS] = &fakeScraper{
		name: "wire-a",
		articles: []*domain.Article{
			{ID: "a1", Title: "Clash in Benue", Content: "details", URL: "https://x/1", Source: "wire-a", Fingerprint: fp, SourceCount: 1},
		},
	}
	orch.RegisterSource(Source{Name: "wire-a", Type: domain.SourceTypeRSS})

	_, err := orch.ScanAll(context.Background())
	require.NoError(t, err)

	orch.scrapers[domain.SourceTypeRSS] = &fakeScraper{
		name: "wire-b",
		articles: []*domain.Article{
			{ID: "a2", Title: "Clash in Benue", Content: "details", URL: "https://y/1", Source: "wire-b", Fingerprint: fp, SourceCount: 1},
		},
	}

	summary, err := orch.ScanAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, summary.ArticlesNew, "second sighting should bump, not create")

	count, _ := repo.Count(context.Background())
	assert.Equal(t, int64(1), count)

	stored, _ := repo.GetByFingerprint(context.Background(), fp)
	assert.Equal(t, 2, stored.SourceCount)
	assert.Equal(t, 1.0, stored.VeracityScore)

	// A third scan reporting the same fingerprint from a source already
	// counted (wire-b again) must not inflate source_count further - this is
	// the cycle-scoped, distinct-source dedup invariant, not a raw sighting
	// counter.
	summary, err = orch.ScanAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, summary.ArticlesNew)

	stored, _ = repo.GetByFingerprint(context.Background(), fp)
	assert.Equal(t, 2, stored.SourceCount, "repeat sighting from an already-counted source must not bump count")
}

func TestOrchestrator_SourceFailureDoesNotBlockOthers(t *testing.T) {
	repo := newFakeArticleRepo()
	orch := NewOrchestrator(testConfig(), repo, nil, slog.Default())
	orch.scrapers[domain.SourceTypeRSS] = &fakeScraper{name: "broken", err: assert.AnError}
	orch.RegisterSource(Source{Name: "broken", Type: domain.SourceTypeRSS})

	summary, err := orch.ScanAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Failures)

	audit := orch.AuditLog()
	require.Len(t, audit, 1)
	assert.NotEmpty(t, audit[0].Error)
}

func TestOrchestrator_AuditLogIsBounded(t *testing.T) {
	repo := newFakeArticleRepo()
	cfg := testConfig()
	cfg.AuditLogSize = 2
	orch := NewOrchestrator(cfg, repo, nil, slog.Default())
	orch.scrapers[domain.SourceTypeRSS] = &fakeScraper{name: "wire"}

	for i := 0; i < 5; i++ {
		orch.sources = nil
		orch.RegisterSource(Source{Name: "wire", Type: domain.SourceTypeRSS})
		_, err := orch.ScanAll(context.Background())
		require.NoError(t, err)
	}

	assert.LessOrEqual(t, len(orch.AuditLog()), 2)
}
