package riskengine

import (
	"fmt"
	"math"
	"strings"

	"github.com/nextier/signal-engine/internal/domain"
)

const (
	baseRiskScore      = 30.0
	inflationThreshold = 20.0
	fuelPriceThreshold = 650.0
)

var eventTypeScores = map[string]float64{
	"clash":     40,
	"conflict":  35,
	"violence":  30,
	"protest":   25,
	"political": 20,
	"security":  25,
	"crime":     20,
	"sports":    5,
	"economic":  15,
	"social":    10,
	"unknown":   15,
}

const defaultEventTypeScore = 15.0

var severityModifiers = map[string]float64{
	"high":     20,
	"severe":   25,
	"critical": 30,
	"medium":   10,
	"moderate": 8,
	"low":      5,
	"minor":    3,
	"unknown":  5,
}

const defaultSeverityModifier = 5.0

// Score computes a fully explained risk signal for a parsed event, given
// the matching economic indicators for its location. It returns
// domain.ErrNoEconomicData when the event's state/LGA has no economic row
// at all, the one case the original scorer refuses to score.
func (e *Engine) Score(event *domain.ParsedEvent, econ *domain.EconomicRow) (*domain.RiskSignal, error) {
	if econ == nil {
		return nil, domain.ErrNoEconomicData
	}

	eventType := strings.ToLower(string(event.EventType))
	severity := strings.ToLower(string(event.Severity))
	state := strings.TrimSpace(event.State)
	lga := strings.TrimSpace(event.LGA)

	fuelPrice := econ.FuelPrice
	inflation := econ.Inflation

	var reasons []string
	score := baseRiskScore

	score += lookupOr(eventTypeScores, eventType, defaultEventTypeScore)
	score += lookupOr(severityModifiers, severity, defaultSeverityModifier)

	if inflation > inflationThreshold {
		bonus := math.Min((inflation-inflationThreshold)*2, 20)
		score += bonus
		reasons = append(reasons, fmt.Sprintf("High inflation (%s%%)", trimFloat(inflation)))
	}

	if fuelPrice > fuelPriceThreshold {
		bonus := math.Min((fuelPrice-fuelPriceThreshold)*0.1, 10)
		score += bonus
		reasons = append(reasons, fmt.Sprintf("Elevated fuel prices (₦%s)", trimFloat(fuelPrice)))
	}

	// Special rule: a clash during high inflation is never scored below
	// the Critical band, regardless of the additive total above.
	if eventType == "clash" && inflation > inflationThreshold {
		score = math.Max(score, 81)
	}

	signal := &domain.RiskSignal{
		EventType:   string(event.EventType),
		State:       state,
		LGA:         lga,
		Severity:    string(event.Severity),
		FuelPrice:   fuelPrice,
		Inflation:   inflation,
		SourceTitle: event.SourceTitle,
		SourceURL:   event.SourceURL,
	}

	// 1. Climate multiplier: flooding-induced displacement raises
	// communal clash/conflict/violence risk.
	if climate := e.ref.findClimateData(state, lga, event.Latitude, event.Longitude); climate != nil {
		flood := climate.FloodInundationIndex
		precip := climate.PrecipitationAnomaly
		veg := climate.VegetationHealthIndex
		signal.FloodInundationIndex = &flood
		signal.PrecipitationAnomaly = &precip
		signal.VegetationHealthIndex = &veg

		if flood > 20 && isClimateSensitive(eventType) {
			score *= 1.5
			reasons = append(reasons, fmt.Sprintf(
				"Flooding-induced displacement (%.1f%% farmland inundated) - increased resource competition",
				flood,
			))
		}
	}

	// 2. Mining multiplier: illicit economic activity near the event.
	if site, distance := e.ref.findNearestMiningSite(event.Latitude, event.Longitude); site != nil {
		signal.MiningProximityKM = &distance
		signal.MiningSiteName = site.SiteName
		taxRate := site.InformalTaxationRate
		signal.InformalTaxationRate = &taxRate

		if distance < 10 {
			signal.HighFundingPotential = true
			score += 15
			reasons = append(reasons, fmt.Sprintf(
				"High Funding Potential - Event within %.1fkm of %s (informal taxation: %.0f%%)",
				distance, site.SiteName, taxRate*100,
			))
		}
	}

	// Strategic indicators: state-level poverty/unemployment/migration/
	// mining-density/climate-vulnerability, matched case-insensitively by
	// state. These feed rules 6, the mining-density clause of 7, and 9.
	var strategic *domain.StrategicIndicator
	if strategic = e.ref.findStrategicData(state); strategic != nil {
		poverty, unemployment, migration, miningDensity, climateVuln :=
			strategic.PovertyRate, strategic.UnemploymentRate, strategic.MigrationPressure,
			strategic.MiningDensity, strategic.ClimateVulnerability
		signal.PovertyRate = &poverty
		signal.UnemploymentRate = &unemployment
		signal.MigrationPressure = &migration
		signal.MiningDensity = &miningDensity
		signal.ClimateVulnerability = &climateVuln

		// 6. Strategic climate vulnerability.
		if climateVuln > 0.7 {
			score += 15 * climateVuln
			reasons = append(reasons, fmt.Sprintf(
				"Strategic climate vulnerability (%.0f%%) compounding displacement risk", climateVuln*100,
			))
		}

		// 7 (density clause). Mining-density escalation, independent of
		// proximity to any single known site.
		if miningDensity > 0.6 {
			score += 20 * miningDensity
			signal.HighEscalationPotential = true
			reasons = append(reasons, fmt.Sprintf(
				"High mining density (%.0f%%) - escalation potential for funding-driven conflict", miningDensity*100,
			))
		}

		// 9. Farmer-herder keyword x migration pressure.
		if migration > 0.5 && containsFarmerHerderKeyword(event.SourceTitle) {
			multiplier := 1 + migration
			score *= multiplier
			reasons = append(reasons, fmt.Sprintf(
				"Farmer-herder tension amplified by migration pressure (%.0f%%)", migration*100,
			))
		}
	}

	// 10. Climate-conflict correlation: the event point lies inside a
	// climate stress polygon.
	if poly := e.ref.findClimatePolygon(event.Latitude, event.Longitude); poly != nil {
		signal.ClimateImpactZone = poly.ImpactZone
		switch strings.ToLower(poly.ImpactZone) {
		case "high":
			score += 25
			signal.ConflictDriver = "Environmental/Climate"
			reasons = append(reasons, fmt.Sprintf("High climate-conflict correlation zone (%s)", poly.Name))
		case "medium", "medium-high":
			score += 15
			signal.ConflictDriver = "Environmental/Climate"
			reasons = append(reasons, fmt.Sprintf("Medium climate-conflict correlation zone (%s)", poly.Name))
		}
	}

	// 3. Sahelian multiplier: transnational jihadist expansion along the
	// Niger border.
	if border := e.ref.findBorderData(state, lga); border != nil {
		signal.BorderActivity = border.BorderActivity
		signal.LakurawaPresence = border.LakurawaPresenceConfirmed
		permeability := border.BorderPermeabilityScore
		signal.BorderPermeabilityScore = &permeability
		signal.GroupAffiliation = border.GroupAffiliation
		signal.SophisticatedIEDUsage = border.SophisticatedIEDUsage

		switch {
		case border.BorderActivity == "High" && isSokotoKebbi(state):
			score += 20
			reasons = append(reasons, fmt.Sprintf(
				"Lakurawa Presence Detected - Sahelian jihadist expansion from Niger border (border permeability: %.0f%%)",
				permeability*100,
			))
		case border.BorderActivity == "Critical":
			score += 15
			reasons = append(reasons, fmt.Sprintf(
				"Critical border activity - %s (permeability: %.0f%%)",
				border.GroupAffiliation, permeability*100,
			))
		case border.BorderActivity == "High":
			score += 10
			reasons = append(reasons, fmt.Sprintf("High border activity - %s", border.GroupAffiliation))
		}
	}

	score = math.Max(0, math.Min(100, score))
	level := bandRiskLevel(score)

	signal.RiskScore = math.Round(score*10) / 10
	signal.RiskLevel = level
	if len(reasons) > 0 {
		signal.TriggerReason = fmt.Sprintf("%s Risk: %s", level, strings.Join(reasons, "; "))
	} else {
		signal.TriggerReason = fmt.Sprintf("%s Risk: Standard risk calculation based on %s event", level, eventType)
	}
	if signal.HighEscalationPotential {
		signal.TriggerReason = "[HIGH ESCALATION POTENTIAL] " + signal.TriggerReason
	}

	return signal, nil
}

func isClimateSensitive(eventType string) bool {
	switch eventType {
	case "clash", "conflict", "violence":
		return true
	default:
		return false
	}
}

// farmerHerderKeywords are the markers rule 9 scans an event's headline for;
// the risk engine only ever sees SourceTitle, not the full article body.
var farmerHerderKeywords = []string{"farmer", "herder", "herdsmen", "pastoralist", "cattle"}

func containsFarmerHerderKeyword(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range farmerHerderKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func isSokotoKebbi(state string) bool {
	s := strings.ToLower(state)
	return s == "sokoto" || s == "kebbi"
}

func bandRiskLevel(score float64) domain.RiskLevel {
	switch {
	case score >= 80:
		return domain.RiskLevelCritical
	case score >= 60:
		return domain.RiskLevelHigh
	case score >= 40:
		return domain.RiskLevelMedium
	case score >= 20:
		return domain.RiskLevelLow
	default:
		return domain.RiskLevelMinimal
	}
}

func lookupOr(m map[string]float64, key string, fallback float64) float64 {
	if v, ok := m[key]; ok {
		return v
	}
	return fallback
}

// trimFloat renders a float the way Python's f-string interpolation would
// for a whole-number percentage/price, dropping a trailing ".0".
func trimFloat(v float64) string {
	if v == math.Trunc(v) {
		return fmt.Sprintf("%.0f", v)
	}
	return fmt.Sprintf("%g", v)
}

// FindEconomicData resolves the economic row for an event's state/LGA,
// falling back to a state-level match when no exact LGA row exists.
func FindEconomicData(rows []domain.EconomicRow, state, lga string) *domain.EconomicRow {
	state = strings.TrimSpace(state)
	lga = strings.TrimSpace(lga)

	for i := range rows {
		if strings.EqualFold(rows[i].State, state) && strings.EqualFold(rows[i].LGA, lga) {
			return &rows[i]
		}
	}
	for i := range rows {
		if strings.EqualFold(rows[i].State, state) {
			return &rows[i]
		}
	}
	return nil
}
