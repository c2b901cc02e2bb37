package temporal

import (
	"context"
	"time"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/nextier/signal-engine/internal/classifier"
	"github.com/nextier/signal-engine/internal/domain"
)

// ExtractEventInput carries the fields the extraction activity needs: just
// enough of the article to run the model call, not the whole row.
type ExtractEventInput struct {
	ArticleID string
	Title     string
	Content   string
}

// ExtractEventOutput mirrors classifier.ExtractionResult plus the method
// that produced it, since Temporal payloads must cross the activity
// boundary as plain data.
type ExtractEventOutput struct {
	Found                bool
	EventType            domain.ConflictType
	State                string
	LGA                  string
	Severity             domain.Severity
	SentimentIntensity   float64
	HateSpeechIndicators []string
	Driver               domain.ConflictDriver
	Latitude             *float64
	Longitude            *float64
	Method               domain.ExtractionMethod
}

// CategorizeArticleInput carries the fields the categorization activity
// needs.
type CategorizeArticleInput struct {
	ArticleID string
	Title     string
	Content   string
}

// CategorizeArticleOutput is the categorization activity's result.
type CategorizeArticleOutput struct {
	Category   string
	Confidence int
}

// activityRetryPolicy stands alongside the manual backoff already inside
// classifier.LLMClient: this policy retries the activity itself (e.g.
// after a worker crash mid-call), while the client's own backoff handles
// transient provider errors within a single activity attempt.
var activityRetryPolicy = &temporal.RetryPolicy{
	InitialInterval:    time.Second,
	BackoffCoefficient: 2.0,
	MaximumInterval:    30 * time.Second,
	MaximumAttempts:    3,
}

// ExtractEventWorkflow is a thin wrapper around ExtractEventActivity: one
// activity call per article, with a workflow-level retry policy layered on
// top of the classifier's own resilience stack.
func ExtractEventWorkflow(ctx workflow.Context, input ExtractEventInput) (ExtractEventOutput, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("ExtractEventWorkflow started", "article_id", input.ArticleID)

	ao := workflow.ActivityOptions{
		StartToCloseTimeout: 60 * time.Second,
		RetryPolicy:         activityRetryPolicy,
	}
	ctx = workflow.WithActivityOptions(ctx, ao)

	var out ExtractEventOutput
	if err := workflow.ExecuteActivity(ctx, ExtractEventActivityName, input).Get(ctx, &out); err != nil {
		logger.Error("extraction activity failed", "article_id", input.ArticleID, "error", err)
		return ExtractEventOutput{}, err
	}

	logger.Info("ExtractEventWorkflow completed", "article_id", input.ArticleID, "found", out.Found, "method", out.Method)
	return out, nil
}

// CategorizeArticleWorkflow is a thin wrapper around
// CategorizeArticleActivity.
func CategorizeArticleWorkflow(ctx workflow.Context, input CategorizeArticleInput) (CategorizeArticleOutput, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("CategorizeArticleWorkflow started", "article_id", input.ArticleID)

	ao := workflow.ActivityOptions{
		StartToCloseTimeout: 60 * time.Second,
		RetryPolicy:         activityRetryPolicy,
	}
	ctx = workflow.WithActivityOptions(ctx, ao)

	var out CategorizeArticleOutput
	if err := workflow.ExecuteActivity(ctx, CategorizeArticleActivityName, input).Get(ctx, &out); err != nil {
		logger.Error("categorization activity failed", "article_id", input.ArticleID, "error", err)
		return CategorizeArticleOutput{}, err
	}

	logger.Info("CategorizeArticleWorkflow completed", "article_id", input.ArticleID, "category", out.Category)
	return out, nil
}

// Activity registration names. Registering methods on a struct (rather than
// the teacher's free-function activities) lets each activity close over a
// live *classifier.Service instead of reconstructing one per call; Temporal
// dispatches by these string names at the task-queue boundary regardless of
// whether the handler is a func or a bound method.
const (
	ExtractEventActivityName     = "ExtractEventActivity"
	CategorizeArticleActivityName = "CategorizeArticleActivity"
)

// Activities bundles the classifier service the workflow activities call
// into. It is registered on the worker so Temporal can dispatch
// ExtractEventActivity/CategorizeArticleActivity as methods bound to a live
// *classifier.Service rather than free functions.
type Activities struct {
	classifier *classifier.Service
}

// NewActivities builds an Activities bound to svc.
func NewActivities(svc *classifier.Service) *Activities {
	return &Activities{classifier: svc}
}

// ExtractEventActivity calls the classifier's model-then-rule-fallback
// extraction for a single article.
func (a *Activities) ExtractEventActivity(ctx context.Context, input ExtractEventInput) (ExtractEventOutput, error) {
	logger := activity.GetLogger(ctx)
	logger.Info("extracting event", "article_id", input.ArticleID)

	result, method, err := a.classifier.ExtractEvent(ctx, input.Title, input.Content)
	if err != nil {
		return ExtractEventOutput{}, err
	}
	if result == nil {
		return ExtractEventOutput{Found: false, Method: method}, nil
	}

	return ExtractEventOutput{
		Found:                true,
		EventType:            result.EventType,
		State:                result.State,
		LGA:                  result.LGA,
		Severity:             result.Severity,
		SentimentIntensity:   result.SentimentIntensity,
		HateSpeechIndicators: result.HateSpeechIndicators,
		Driver:               result.Driver,
		Latitude:             result.Latitude,
		Longitude:            result.Longitude,
		Method:               method,
	}, nil
}

// CategorizeArticleActivity calls the classifier's model-then-rule-fallback
// categorization for a single article.
func (a *Activities) CategorizeArticleActivity(ctx context.Context, input CategorizeArticleInput) (CategorizeArticleOutput, error) {
	logger := activity.GetLogger(ctx)
	logger.Info("categorizing article", "article_id", input.ArticleID)

	result, err := a.classifier.CategorizeArticle(ctx, input.Title, input.Content)
	if err != nil {
		return CategorizeArticleOutput{}, err
	}
	return CategorizeArticleOutput{Category: result.Category, Confidence: result.Confidence}, nil
}
