package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nextier/signal-engine/internal/domain"
	"github.com/nextier/signal-engine/internal/riskengine"
)

// StatsHandler serves the pipeline's operational counters: ingestion
// volume, intelligence depth, the categorization audit trail, and the
// supplemental risk-overview report.
type StatsHandler struct {
	articles domain.ArticleRepository
	signals  domain.RiskSignalRepository
	engine   *riskengine.Engine
	log      *slog.Logger
}

// NewStatsHandler builds a StatsHandler.
func NewStatsHandler(articles domain.ArticleRepository, signals domain.RiskSignalRepository, engine *riskengine.Engine, log *slog.Logger) *StatsHandler {
	return &StatsHandler{articles: articles, signals: signals, engine: engine, log: log}
}

// IngestionVolume handles GET /stats/ingestion-volume.
func (h *StatsHandler) IngestionVolume(c *gin.Context) {
	count, err := h.articles.Count(c.Request.Context())
	if err != nil {
		h.log.Error("count articles failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"status":  domain.StatusError,
			"message": "failed to count articles",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":        domain.StatusSuccess,
		"message":       "ok",
		"article_count": count,
	})
}

// IntelligenceDepth handles GET /stats/intelligence-depth.
func (h *StatsHandler) IntelligenceDepth(c *gin.Context) {
	count, err := h.signals.Count(c.Request.Context())
	if err != nil {
		h.log.Error("count risk signals failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"status":  domain.StatusError,
			"message": "failed to count risk signals",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":       domain.StatusSuccess,
		"message":      "ok",
		"signal_count": count,
	})
}

// CategorizationAudit handles GET /stats/categorization-audit.
func (h *StatsHandler) CategorizationAudit(c *gin.Context) {
	stats, err := h.articles.CategorizationStats(c.Request.Context())
	if err != nil {
		h.log.Error("categorization stats failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"status":  domain.StatusError,
			"message": "failed to load categorization audit",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":             domain.StatusSuccess,
		"message":            "ok",
		"total_articles":     stats.TotalArticles,
		"processed_articles": stats.ProcessedArticles,
		"remaining_articles": stats.RemainingArticles,
		"categories":         stats.Categories,
		"confidence_logs":    stats.ConfidenceLogs,
	})
}

// RiskOverview handles the supplemental GET /stats/risk-overview.
func (h *StatsHandler) RiskOverview(c *gin.Context) {
	overview, err := h.engine.Overview(c.Request.Context())
	if err != nil {
		h.log.Error("risk overview failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"status":  domain.StatusError,
			"message": "failed to build risk overview",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   domain.StatusSuccess,
		"message":  "ok",
		"overview": overview,
	})
}
