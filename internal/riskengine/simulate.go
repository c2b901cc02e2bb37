package riskengine

import (
	"fmt"
	"math"
	"strings"

	"github.com/nextier/signal-engine/internal/domain"
)

const (
	// Dynamic scoring uses its own, smaller base and event/severity weights
	// than the static scorer: it runs against slider inputs that can each
	// independently reach 100, and on top of the event-type/severity base
	// the static scorer's full-strength additive terms would saturate the
	// 0-100 ceiling before the sliders or the climate/mining/border
	// multipliers got a chance to move the needle.
	dynamicBaseScore         = 10.0
	dynamicEventTypeWeight   = 0.3
	dynamicSeverityWeight    = 0.3
	dynamicInflationWeight   = 0.30 // 0-100 inflation_rate slider -> up to +30
	dynamicFuelWeight        = 0.20 // 0-100 fuel_price_index slider -> up to +20
	economicIgniterFuelMin   = 80.0
	economicIgniterFactor    = 1.5
	minHeatmapRadiusKM       = 5.0
	maxHeatmapRadiusKM       = 50.0
)

// Simulate runs one "what if" pass over a hypothetical event using
// slider-driven parameters instead of the live economic dataset. It is the
// engine behind the interactive map simulator: unlike Score, it never reads
// from the economic repository and never persists anything.
//
// It requires the event to carry coordinates; a location with no lat/lon
// can't be placed on the simulated heatmap, so this mirrors the scorer's
// own refusal to score an event with no resolvable economic row.
func (e *Engine) Simulate(event *domain.ParsedEvent, params domain.SimulationParameters) (*domain.SimulationResult, error) {
	if event.Latitude == nil || event.Longitude == nil {
		return nil, domain.ErrInvalid
	}

	params.FuelPriceIndex = clamp01to100(params.FuelPriceIndex)
	params.InflationRate = clamp01to100(params.InflationRate)
	params.ChatterIntensity = clamp01to100(params.ChatterIntensity)

	eventType := strings.ToLower(string(event.EventType))
	severity := strings.ToLower(string(event.Severity))
	state := strings.TrimSpace(event.State)
	lga := strings.TrimSpace(event.LGA)

	var reasons []string
	score := dynamicBaseScore
	score += lookupOr(eventTypeScores, eventType, defaultEventTypeScore) * dynamicEventTypeWeight
	score += lookupOr(severityModifiers, severity, defaultSeverityModifier) * dynamicSeverityWeight
	score += params.InflationRate * dynamicInflationWeight
	score += params.FuelPriceIndex * dynamicFuelWeight

	if params.InflationRate > 0 {
		reasons = append(reasons, fmt.Sprintf("Simulated inflation pressure (%.0f/100)", params.InflationRate))
	}
	if params.FuelPriceIndex > 0 {
		reasons = append(reasons, fmt.Sprintf("Simulated fuel price pressure (%.0f/100)", params.FuelPriceIndex))
	}

	if climate := e.ref.findClimateData(state, lga, event.Latitude, event.Longitude); climate != nil && climate.FloodInundationIndex > 20 && isClimateSensitive(eventType) {
		score *= 1.5
		reasons = append(reasons, fmt.Sprintf("Flooding-induced displacement (%.1f%% farmland inundated)", climate.FloodInundationIndex))
	}

	if site, distance := e.ref.findNearestMiningSite(event.Latitude, event.Longitude); site != nil && distance < 10 {
		score += 15
		reasons = append(reasons, fmt.Sprintf("High Funding Potential - within %.1fkm of %s", distance, site.SiteName))
	}

	if border := e.ref.findBorderData(state, lga); border != nil {
		switch {
		case border.BorderActivity == "High" && isSokotoKebbi(state):
			score += 20
			reasons = append(reasons, "Lakurawa Presence Detected - Sahelian jihadist expansion from Niger border")
		case border.BorderActivity == "Critical":
			score += 15
			reasons = append(reasons, fmt.Sprintf("Critical border activity - %s", border.GroupAffiliation))
		case border.BorderActivity == "High":
			score += 10
			reasons = append(reasons, fmt.Sprintf("High border activity - %s", border.GroupAffiliation))
		}
	}

	isUrban := isUrbanLGA(lga)
	if isUrban && params.FuelPriceIndex > economicIgniterFuelMin {
		score *= economicIgniterFactor
		reasons = append(reasons, "Economic Crisis in Urban Center - fuel price index compounding urban unrest risk")
	}

	score = math.Max(0, math.Min(100, score))
	level := bandRiskLevel(score)

	var triggerReason string
	if len(reasons) > 0 {
		triggerReason = fmt.Sprintf("%s Risk: %s", level, strings.Join(reasons, "; "))
	} else {
		triggerReason = fmt.Sprintf("%s Risk: Standard simulated risk for %s event", level, eventType)
	}

	chatterFraction := params.ChatterIntensity / 100
	heatmapRadius := minHeatmapRadiusKM + chatterFraction*(maxHeatmapRadiusKM-minHeatmapRadiusKM)
	heatmapWeight := math.Min(1, (score/100)*(1+chatterFraction))

	return &domain.SimulationResult{
		RiskScore:       math.Round(score*10) / 10,
		RiskLevel:       level,
		Status:          strings.ToUpper(string(level)),
		IsUrban:         isUrban,
		TriggerReason:   triggerReason,
		HeatmapWeight:   heatmapWeight,
		HeatmapRadiusKM: heatmapRadius,
		Params:          params,
	}, nil
}

func clamp01to100(v float64) float64 {
	return math.Max(0, math.Min(100, v))
}
