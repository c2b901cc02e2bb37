// Package handlers implements HTTP handlers for the ingestion/classification/
// risk-scoring pipeline's read surface.
package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nextier/signal-engine/internal/domain"
)

const defaultSignalsLimit = 50

// SignalsHandler serves the latest scored risk signals.
type SignalsHandler struct {
	signals domain.RiskSignalRepository
	log     *slog.Logger
}

// NewSignalsHandler builds a SignalsHandler.
func NewSignalsHandler(signals domain.RiskSignalRepository, log *slog.Logger) *SignalsHandler {
	return &SignalsHandler{signals: signals, log: log}
}

// SignalsResponse is the envelope for GET /signals.
type SignalsResponse struct {
	Status  domain.Status        `json:"status"`
	Message string                `json:"message"`
	Signals []*domain.RiskSignal `json:"signals"`
}

// List handles GET /signals?limit=N, returning the last N RiskSignals by
// calculated_at descending.
func (h *SignalsHandler) List(c *gin.Context) {
	limit := defaultSignalsLimit
	if raw := c.Query("limit"); raw != "" {
		if v, err := parseInt(raw); err == nil && v > 0 {
			limit = v
		}
	}

	signals, err := h.signals.List(c.Request.Context(), limit)
	if err != nil {
		h.log.Error("list risk signals failed", "error", err)
		c.JSON(http.StatusInternalServerError, SignalsResponse{
			Status:  domain.StatusError,
			Message: "failed to load risk signals",
			Signals: []*domain.RiskSignal{},
		})
		return
	}

	c.JSON(http.StatusOK, SignalsResponse{
		Status:  domain.StatusSuccess,
		Message: "ok",
		Signals: signals,
	})
}
