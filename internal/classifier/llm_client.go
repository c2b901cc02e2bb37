package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker"

	"github.com/nextier/signal-engine/internal/config"
	"github.com/nextier/signal-engine/internal/domain"
)

var (
	errMalformedJSON = fmt.Errorf("classifier: malformed model response")
	errMissingFields = fmt.Errorf("classifier: model response missing required fields")
)

const extractionSystemPrompt = `You are a Nextier Conflict Analyst specializing in early-warning social signals.

Analyze the text and extract the following information in valid JSON format:

1. Event_Type: Type of event (clash, conflict, violence, protest, political, security, crime, economic, social, unknown)
2. State: Nigerian state where event occurred
3. LGA: Local Government Area where event occurred
4. Severity: Event severity (low, medium, high, critical)
5. Sentiment_Intensity: Emotional intensity on scale 0-100 (0=neutral, 100=extremely charged)
6. Hate_Speech_Indicators: Array of detected hate speech markers (empty array if none)
7. Conflict_Driver: Primary cause category (Economic, Environmental, Social, or Unknown)

Return ONLY valid JSON with these exact field names, e.g.:
{"Event_Type": "clash", "State": "Benue", "LGA": "Makurdi", "Severity": "high", "Sentiment_Intensity": 75, "Hate_Speech_Indicators": ["ethnic targeting"], "Conflict_Driver": "Social"}`

const categorizationSystemPrompt = `You are an expert conflict analyst for the Nigerian Violent Conflicts Database (NNVCD).

Classify the conflict described in the provided text into exactly ONE of these predefined categories:
- Banditry: Criminal activities involving armed robbery, theft, or banditry by organized groups.
- Kidnapping: Abduction of individuals for ransom or other purposes.
- Gunmen Violence: Attacks or shootings by unidentified armed gunmen, often in hit-and-run style.
- Farmer-Herder Clashes: Conflicts between farming communities and nomadic herders over land, water, or resources.

Also provide a confidence score (0-100) indicating how certain you are of this classification.

Return ONLY valid JSON with exactly these fields: {"category": "...", "confidence": 0}
If the text does not clearly fit any category, use "Unknown" as category.`

// LLMClient wraps the OpenAI chat completion API with the retry/circuit-
// breaker/bounded-concurrency resilience stack spec.md §4.2 requires. It
// exposes the same Extract/Categorize shape as RuleExtractor so Service can
// treat both uniformly.
type LLMClient struct {
	client  *openai.Client
	model   string
	cfg     config.ClassifierConfig
	breaker *gobreaker.CircuitBreaker
}

// NewLLMClient builds a resilience-wrapped chat-completion client.
func NewLLMClient(cfg config.ClassifierConfig) *LLMClient {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        cfg.CircuitBreakerName,
		MaxRequests: 1,
		Interval:    0,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.Requests >= 5 && float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.CircuitFailureRatio
		},
	})

	return &LLMClient{
		client:  openai.NewClient(cfg.OpenAIAPIKey),
		model:   cfg.Model,
		cfg:     cfg,
		breaker: breaker,
	}
}

// Extract calls the model with the extraction prompt. When every retry is
// exhausted or the circuit is open it returns a nil result with a non-nil
// error (domain.ErrCircuitOpen for an open circuit); the caller should fall
// back to the rule-based extractor.
func (c *LLMClient) Extract(ctx context.Context, title, content string) (*ExtractionResult, error) {
	raw, err := c.completeWithResilience(ctx, extractionSystemPrompt, title, content)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		EventType            string   `json:"Event_Type"`
		State                string   `json:"State"`
		LGA                  string   `json:"LGA"`
		Severity             string   `json:"Severity"`
		SentimentIntensity   float64  `json:"Sentiment_Intensity"`
		HateSpeechIndicators []string `json:"Hate_Speech_Indicators"`
		ConflictDriver       string   `json:"Conflict_Driver"`
	}
	if err := json.Unmarshal([]byte(extractJSON(raw)), &parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", errMalformedJSON, err)
	}

	if parsed.EventType == "" || parsed.State == "" || parsed.LGA == "" || parsed.Severity == "" {
		return nil, errMissingFields
	}

	return &ExtractionResult{
		EventType:            conflictTypeFromString(parsed.EventType),
		State:                parsed.State,
		LGA:                  parsed.LGA,
		Severity:             severityFromString(parsed.Severity),
		SentimentIntensity:   parsed.SentimentIntensity,
		HateSpeechIndicators: parsed.HateSpeechIndicators,
		Driver:               driverFromString(parsed.ConflictDriver),
	}, nil
}

// Categorize calls the model with the categorization prompt.
func (c *LLMClient) Categorize(ctx context.Context, title, content string) (CategorizationResult, error) {
	raw, err := c.completeWithResilience(ctx, categorizationSystemPrompt, title, content)
	if err != nil {
		return CategorizationResult{}, err
	}

	var parsed struct {
		Category   string `json:"category"`
		Confidence int    `json:"confidence"`
	}
	if err := json.Unmarshal([]byte(extractJSON(raw)), &parsed); err != nil {
		return CategorizationResult{}, fmt.Errorf("%w: %v", errMalformedJSON, err)
	}

	if !validCategories[parsed.Category] {
		parsed.Category = domain.CategoryUnknown
	}
	if parsed.Confidence < 0 || parsed.Confidence > 100 {
		parsed.Confidence = 0
	}

	return CategorizationResult{Category: parsed.Category, Confidence: parsed.Confidence}, nil
}

// completeWithResilience runs one chat completion behind the circuit
// breaker, retrying transient failures with exponential backoff.
func (c *LLMClient) completeWithResilience(ctx context.Context, systemPrompt, title, content string) (string, error) {
	text := fmt.Sprintf("Title: %s\n\nContent: %s", title, content)

	delay := c.cfg.RetryBaseDelay
	var lastErr error

	for attempt := 0; attempt < c.cfg.MaxRetries; attempt++ {
		result, err := c.breaker.Execute(func() (interface{}, error) {
			return c.complete(ctx, systemPrompt, text)
		})
		if err == nil {
			return result.(string), nil
		}

		lastErr = err
		if err == gobreaker.ErrOpenState {
			return "", domain.ErrCircuitOpen
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(delay):
		}

		delay *= 2
		if delay > c.cfg.RetryMaxDelay {
			delay = c.cfg.RetryMaxDelay
		}
	}

	return "", fmt.Errorf("classifier: exhausted retries: %w", lastErr)
}

func (c *LLMClient) complete(ctx context.Context, systemPrompt, text string) (string, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout)
	defer cancel()

	resp, err := c.client.CreateChatCompletion(reqCtx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
		Temperature: 0.1,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("classifier: empty completion response")
	}
	return resp.Choices[0].Message.Content, nil
}

// extractJSON accepts raw JSON, a fenced ```json block, or the first
// {...} substring in the response, per spec.md §4.2's lenient parsing rule.
func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)

	if idx := strings.Index(raw, "```json"); idx != -1 {
		rest := raw[idx+len("```json"):]
		if end := strings.Index(rest, "```"); end != -1 {
			return strings.TrimSpace(rest[:end])
		}
	}

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start != -1 && end != -1 && end > start {
		return raw[start : end+1]
	}

	return raw
}
