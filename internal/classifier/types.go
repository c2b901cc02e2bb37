// Package classifier turns unprocessed Articles into structured ParsedEvents
// (extraction) and attaches a conflict-category label back onto the Article
// (categorization), preferring an external LLM call and falling back to a
// deterministic keyword extractor when the model is unavailable.
package classifier

import "github.com/nextier/signal-engine/internal/domain"

// ExtractionResult is the structured output of one extraction pass, model-
// backed or rule-based, before it is turned into a domain.ParsedEvent.
type ExtractionResult struct {
	EventType            domain.ConflictType
	State                string
	LGA                  string
	Severity             domain.Severity
	SentimentIntensity   float64
	HateSpeechIndicators []string
	Driver               domain.ConflictDriver
	Latitude             *float64
	Longitude            *float64
}

// CategorizationResult is the structured output of one categorization pass.
type CategorizationResult struct {
	Category   string
	Confidence int
}

// Valid categorization labels (spec.md §4.2).
const (
	CategoryBanditry            = "Banditry"
	CategoryKidnapping          = "Kidnapping"
	CategoryGunmenViolence      = "Gunmen Violence"
	CategoryFarmerHerderClashes = "Farmer-Herder Clashes"
)

var validCategories = map[string]bool{
	CategoryBanditry:            true,
	CategoryKidnapping:          true,
	CategoryGunmenViolence:      true,
	CategoryFarmerHerderClashes: true,
	domain.CategoryUnknown:      true,
}
