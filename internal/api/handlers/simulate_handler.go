package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nextier/signal-engine/internal/domain"
	"github.com/nextier/signal-engine/internal/riskengine"
)

// SimulateHandler drives the interactive what-if map: it reruns a set of
// candidate events through the risk engine's dynamic simulator under
// slider-driven parameters instead of the live economic dataset.
type SimulateHandler struct {
	engine *riskengine.Engine
	log    *slog.Logger
}

// NewSimulateHandler builds a SimulateHandler.
func NewSimulateHandler(engine *riskengine.Engine, log *slog.Logger) *SimulateHandler {
	return &SimulateHandler{engine: engine, log: log}
}

// SimulateEventInput is one candidate event to rerun under simulated
// parameters. The caller supplies it explicitly (rather than this handler
// pulling the live signal set itself) since a RiskSignal row carries no
// category and no raw coordinates to replay against.
type SimulateEventInput struct {
	EventType string  `json:"event_type"`
	Severity  string  `json:"severity"`
	State     string  `json:"state"`
	LGA       string  `json:"lga"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Category  string  `json:"category,omitempty"`
}

// SimulateRequest is the request body for POST /simulate.
type SimulateRequest struct {
	SimulationParams domain.SimulationParameters `json:"simulation_params"`
	Events           []SimulateEventInput        `json:"events"`
}

// Run handles POST /simulate.
func (h *SimulateHandler) Run(c *gin.Context) {
	var req SimulateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:      "invalid_request",
			Message:    err.Error(),
			StatusCode: http.StatusBadRequest,
			Timestamp:  time.Now(),
		})
		return
	}

	features := make([]domain.GeoJSONFeature, 0, len(req.Events))
	var critical, high, medium, low int
	categorySeen := make(map[string]bool)
	var categories []string

	for _, ev := range req.Events {
		lat, lon := ev.Latitude, ev.Longitude
		event := &domain.ParsedEvent{
			EventType: domain.ConflictType(ev.EventType),
			Severity:  domain.Severity(ev.Severity),
			State:     ev.State,
			LGA:       ev.LGA,
			Latitude:  &lat,
			Longitude: &lon,
		}

		result, err := h.engine.Simulate(event, req.SimulationParams)
		if err != nil {
			h.log.Warn("skipping event with no coordinates", "state", ev.State, "lga", ev.LGA, "error", err)
			continue
		}

		switch result.RiskLevel {
		case domain.RiskLevelCritical:
			critical++
		case domain.RiskLevelHigh:
			high++
		case domain.RiskLevelMedium:
			medium++
		case domain.RiskLevelLow, domain.RiskLevelMinimal:
			low++
		}

		if ev.Category != "" && !categorySeen[ev.Category] {
			categorySeen[ev.Category] = true
			categories = append(categories, ev.Category)
		}

		features = append(features, domain.GeoJSONFeature{
			Type: "Feature",
			Geometry: domain.GeoJSONGeometry{
				Type:        "Point",
				Coordinates: []float64{lon, lat},
			},
			Properties: map[string]any{
				"risk_score":     result.RiskScore,
				"risk_level":     result.RiskLevel,
				"event_type":     ev.EventType,
				"state":          ev.State,
				"lga":            ev.LGA,
				"category":       ev.Category,
				"is_urban":       result.IsUrban,
				"trigger_reason": result.TriggerReason,
			},
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"type":     "FeatureCollection",
		"features": features,
		"metadata": gin.H{
			"total_events":        len(features),
			"critical_count":      critical,
			"high_count":          high,
			"medium_count":        medium,
			"low_count":           low,
			"simulated_categories": categories,
			"timestamp":           time.Now(),
			"simulation_active":   true,
		},
		"simulation_params": req.SimulationParams,
	})
}
