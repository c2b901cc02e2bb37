// Package repositories provides integration tests for repository workflows.
package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/nextier/signal-engine/internal/domain"
)

// TestIngestToRiskSignalWorkflow exercises the Article -> ParsedEvent ->
// RiskSignal chain across all three repositories, the same end-to-end shape
// the pipeline itself drives one article at a time.
func TestIngestToRiskSignalWorkflow(t *testing.T) {
	db := SetupTestDB(t)
	defer CleanupTestDB(t, db)

	articleRepo := NewArticleRepository(db)
	eventRepo := NewParsedEventRepository(db)
	signalRepo := NewRiskSignalRepository(db)
	ctx := context.Background()

	article := &domain.Article{
		ID:          "wf_article",
		Title:       "Clash reported in Makurdi",
		URL:         "https://example.com/wf_article",
		Source:      "example-news",
		SourceType:  domain.SourceTypeRSS,
		Fingerprint: "wf-fingerprint",
		SourceCount: 1,
		FetchedAt:   time.Now(),
		CreatedAt:   time.Now(),
	}
	if err := articleRepo.Create(ctx, article); err != nil {
		t.Fatalf("create article: %v", err)
	}

	// A second source reporting the same story bumps corroboration.
	if _, err := articleRepo.IncrementSourceCount(ctx, article.Fingerprint, "wire-corroborator"); err != nil {
		t.Fatalf("increment source count: %v", err)
	}

	event := &domain.ParsedEvent{
		ID:          "wf_event",
		ArticleID:   article.ID,
		EventType:   domain.ConflictTypeClash,
		Severity:    domain.SeverityHigh,
		State:       "Benue",
		LGA:         "Makurdi",
		Method:      domain.ExtractionMethodLLM,
		Confidence:  0.88,
		SourceTitle: article.Title,
		SourceURL:   article.URL,
		ExtractedAt: time.Now(),
	}
	if err := eventRepo.Create(ctx, event); err != nil {
		t.Fatalf("create parsed event: %v", err)
	}
	if err := articleRepo.MarkProcessed(ctx, article.ID); err != nil {
		t.Fatalf("mark article processed: %v", err)
	}

	signal := &domain.RiskSignal{
		ID:            "wf_signal",
		EventType:     string(event.EventType),
		State:         event.State,
		LGA:           event.LGA,
		Severity:      string(event.Severity),
		FuelPrice:     700,
		Inflation:     25,
		RiskScore:     81,
		RiskLevel:     domain.RiskLevelCritical,
		SourceTitle:   event.SourceTitle,
		SourceURL:     event.SourceURL,
		TriggerReason: "Critical Risk: High inflation (25%)",
		CalculatedAt:  time.Now(),
	}
	if err := signalRepo.Upsert(ctx, signal); err != nil {
		t.Fatalf("upsert risk signal: %v", err)
	}
	if err := eventRepo.MarkScored(ctx, event.ID); err != nil {
		t.Fatalf("mark event scored: %v", err)
	}

	processedArticle, err := articleRepo.GetByFingerprint(ctx, article.Fingerprint)
	if err != nil {
		t.Fatalf("get article by fingerprint: %v", err)
	}
	if !processedArticle.Processed {
		t.Error("expected article to be marked processed")
	}
	if processedArticle.SourceCount != 2 {
		t.Errorf("expected source count 2, got %d", processedArticle.SourceCount)
	}

	stored, err := signalRepo.GetByID(ctx, signal.ID)
	if err != nil {
		t.Fatalf("get risk signal: %v", err)
	}
	if stored.RiskLevel != domain.RiskLevelCritical {
		t.Errorf("expected Critical risk level, got %s", stored.RiskLevel)
	}
}
