// Package repositories tests all repository implementations.
package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/nextier/signal-engine/internal/domain"
)

func TestArticleRepository(t *testing.T) {
	db := setupTestDB(t)
	defer cleanupTestDB(t, db)

	repo := NewArticleRepository(db)
	ctx := context.Background()

	t.Run("create and retrieve by fingerprint", func(t *testing.T) {
		article := &domain.Article{
			ID:            "article1",
			Title:         "Clash reported in Ikeja",
			URL:           "https://example.com/article1",
			Source:        "example-news",
			SourceType:    domain.SourceTypeWeb,
			Fingerprint:   "fp-abc123",
			SourceCount:   1,
			VeracityScore: 0.5,
			FetchedAt:     time.Now(),
			CreatedAt:     time.Now(),
		}

		if err := repo.Create(ctx, article); err != nil {
			t.Fatalf("Create failed: %v", err)
		}

		retrieved, err := repo.GetByFingerprint(ctx, article.Fingerprint)
		if err != nil {
			t.Fatalf("GetByFingerprint failed: %v", err)
		}
		if retrieved.Title != article.Title {
			t.Errorf("title mismatch: expected %s, got %s", article.Title, retrieved.Title)
		}
	})

	t.Run("duplicate url is a no-op", func(t *testing.T) {
		article := &domain.Article{
			ID: "article2", Title: "t", URL: "https://example.com/dup",
			Fingerprint: "fp-dup", FetchedAt: time.Now(), CreatedAt: time.Now(),
		}
		if err := repo.Create(ctx, article); err != nil {
			t.Fatalf("first create failed: %v", err)
		}
		article2 := *article
		article2.ID = "article2-again"
		if err := repo.Create(ctx, &article2); err != nil {
			t.Fatalf("second create should be a silent no-op, got: %v", err)
		}
	})

	t.Run("increment source count updates veracity score", func(t *testing.T) {
		article := &domain.Article{
			ID: "article3", Title: "t", URL: "https://example.com/a3", Source: "source-a",
			Fingerprint: "fp-veracity", SourceCount: 1, VeracityScore: 0.5,
			FetchedAt: time.Now(), CreatedAt: time.Now(),
		}
		if err := repo.Create(ctx, article); err != nil {
			t.Fatalf("Create failed: %v", err)
		}

		updated, err := repo.IncrementSourceCount(ctx, article.Fingerprint, "source-b")
		if err != nil {
			t.Fatalf("IncrementSourceCount failed: %v", err)
		}
		if updated.SourceCount != 2 {
			t.Errorf("expected source count 2, got %d", updated.SourceCount)
		}
		if updated.VeracityScore != 1.0 {
			t.Errorf("expected veracity score 1.0, got %f", updated.VeracityScore)
		}

		// A repeat sighting from a source already counted is a no-op.
		again, err := repo.IncrementSourceCount(ctx, article.Fingerprint, "source-b")
		if err != nil {
			t.Fatalf("IncrementSourceCount failed: %v", err)
		}
		if again.SourceCount != 2 {
			t.Errorf("expected source count to stay at 2 for a repeat source, got %d", again.SourceCount)
		}
	})

	t.Run("get unprocessed and mark processed", func(t *testing.T) {
		for i := 0; i < 3; i++ {
			a := &domain.Article{
				ID: fmt.Sprintf("unproc_%d", i), URL: fmt.Sprintf("https://example.com/unproc%d", i),
				Fingerprint: fmt.Sprintf("fp-unproc-%d", i), FetchedAt: time.Now(), CreatedAt: time.Now(),
			}
			if err := repo.Create(ctx, a); err != nil {
				t.Fatalf("Create failed: %v", err)
			}
		}

		unprocessed, err := repo.GetUnprocessed(ctx, 10)
		if err != nil {
			t.Fatalf("GetUnprocessed failed: %v", err)
		}
		if len(unprocessed) < 3 {
			t.Errorf("expected at least 3 unprocessed articles, got %d", len(unprocessed))
		}

		if err := repo.MarkProcessed(ctx, unprocessed[0].ID); err != nil {
			t.Fatalf("MarkProcessed failed: %v", err)
		}
	})
}

func TestParsedEventRepository(t *testing.T) {
	db := setupTestDB(t)
	defer cleanupTestDB(t, db)

	repo := NewParsedEventRepository(db)
	ctx := context.Background()

	t.Run("create and retrieve by article id", func(t *testing.T) {
		event := &domain.ParsedEvent{
			ID: "event1", ArticleID: "article1", EventType: domain.ConflictTypeClash,
			Severity: domain.SeverityHigh, State: "Lagos", LGA: "Ikeja",
			Method: domain.ExtractionMethodLLM, Confidence: 0.9, ExtractedAt: time.Now(),
		}
		if err := repo.Create(ctx, event); err != nil {
			t.Fatalf("Create failed: %v", err)
		}

		retrieved, err := repo.GetByArticleID(ctx, event.ArticleID)
		if err != nil {
			t.Fatalf("GetByArticleID failed: %v", err)
		}
		if retrieved.EventType != event.EventType {
			t.Errorf("event type mismatch")
		}
	})

	t.Run("get unscored and mark scored", func(t *testing.T) {
		event := &domain.ParsedEvent{
			ID: "event_unscored", ArticleID: "article_unscored", EventType: domain.ConflictTypeProtest,
			Severity: domain.SeverityMedium, State: "Kano", LGA: "Kano Municipal",
			Method: domain.ExtractionMethodRule, ExtractedAt: time.Now(),
		}
		if err := repo.Create(ctx, event); err != nil {
			t.Fatalf("Create failed: %v", err)
		}

		unscored, err := repo.GetUnscored(ctx, 10)
		if err != nil {
			t.Fatalf("GetUnscored failed: %v", err)
		}
		if len(unscored) == 0 {
			t.Error("expected at least one unscored event")
		}

		if err := repo.MarkScored(ctx, event.ID); err != nil {
			t.Fatalf("MarkScored failed: %v", err)
		}
	})
}

func TestRiskSignalRepository(t *testing.T) {
	db := setupTestDB(t)
	defer cleanupTestDB(t, db)

	repo := NewRiskSignalRepository(db)
	ctx := context.Background()

	t.Run("upsert creates then updates by source url", func(t *testing.T) {
		signal := &domain.RiskSignal{
			ID: "signal1", EventType: "clash", State: "Lagos", LGA: "Ikeja",
			RiskScore: 55, RiskLevel: domain.RiskLevelMedium,
			SourceURL: "https://example.com/signal1", CalculatedAt: time.Now(),
		}
		if err := repo.Upsert(ctx, signal); err != nil {
			t.Fatalf("Upsert create failed: %v", err)
		}

		signal.RiskScore = 82
		signal.RiskLevel = domain.RiskLevelCritical
		if err := repo.Upsert(ctx, signal); err != nil {
			t.Fatalf("Upsert update failed: %v", err)
		}

		retrieved, err := repo.GetByID(ctx, signal.ID)
		if err != nil {
			t.Fatalf("GetByID failed: %v", err)
		}
		if retrieved.RiskScore != 82 {
			t.Errorf("expected updated risk score 82, got %f", retrieved.RiskScore)
		}
	})

	t.Run("get high risk", func(t *testing.T) {
		signal := &domain.RiskSignal{
			ID: "signal_high", EventType: "conflict", State: "Borno", LGA: "Maiduguri",
			RiskScore: 91, RiskLevel: domain.RiskLevelCritical,
			SourceURL: "https://example.com/signal_high", CalculatedAt: time.Now(),
		}
		if err := repo.Upsert(ctx, signal); err != nil {
			t.Fatalf("Upsert failed: %v", err)
		}

		high, err := repo.GetHighRisk(ctx, 80, 10)
		if err != nil {
			t.Fatalf("GetHighRisk failed: %v", err)
		}
		if len(high) == 0 {
			t.Error("expected at least one high risk signal")
		}
	})

	t.Run("get by state lga for surge detection", func(t *testing.T) {
		for i := 0; i < 2; i++ {
			signal := &domain.RiskSignal{
				ID: fmt.Sprintf("surge_%d", i), EventType: "clash", State: "Benue", LGA: "Makurdi",
				RiskScore: float64(40 + i*10), RiskLevel: domain.RiskLevelMedium,
				SourceURL: fmt.Sprintf("https://example.com/surge_%d", i), CalculatedAt: time.Now(),
			}
			if err := repo.Upsert(ctx, signal); err != nil {
				t.Fatalf("Upsert failed: %v", err)
			}
		}

		signals, err := repo.GetByStateLGA(ctx, "benue", "makurdi", 5)
		if err != nil {
			t.Fatalf("GetByStateLGA failed: %v", err)
		}
		if len(signals) < 2 {
			t.Errorf("expected at least 2 signals, got %d", len(signals))
		}
	})
}

func TestEconomicDataRepository(t *testing.T) {
	db := setupTestDB(t)
	defer cleanupTestDB(t, db)

	repo := NewEconomicDataRepository(db)
	ctx := context.Background()

	t.Run("replace then load", func(t *testing.T) {
		rows := []domain.EconomicRow{
			{State: "Lagos", LGA: "Ikeja", FuelPrice: 700, Inflation: 25},
			{State: "Kano", LGA: "Kano Municipal", FuelPrice: 680, Inflation: 22},
		}
		if err := repo.Replace(ctx, rows); err != nil {
			t.Fatalf("Replace failed: %v", err)
		}

		loaded, err := repo.Load(ctx)
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if len(loaded) != 2 {
			t.Errorf("expected 2 rows, got %d", len(loaded))
		}
	})
}

// setupTestDB creates a test database connection.
func setupTestDB(t *testing.T) *sql.DB {
	db := SetupTestDB(t)

	if err := TruncateTables(t, db); err != nil {
		t.Fatalf("Failed to truncate tables: %v", err)
	}

	return db
}

// cleanupTestDB closes the test database connection.
func cleanupTestDB(t *testing.T, db *sql.DB) {
	CleanupTestDB(t, db)
}
