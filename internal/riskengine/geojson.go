package riskengine

import "github.com/nextier/signal-engine/internal/domain"

// BuildFeatureCollection renders a batch of scored signals and simulation
// results as a single GeoJSON FeatureCollection for map rendering. Signals
// without resolvable coordinates are skipped rather than emitted with a
// null geometry, since most GeoJSON consumers choke on that.
func BuildFeatureCollection(
	signals []*domain.RiskSignal,
	coords map[string]domain.LatLon,
	params domain.SimulationParameters,
) domain.GeoJSONFeatureCollection {
	features := make([]domain.GeoJSONFeature, 0, len(signals))

	for _, s := range signals {
		loc, ok := coords[locationKey(s.State, s.LGA)]
		if !ok {
			continue
		}

		features = append(features, domain.GeoJSONFeature{
			Type: "Feature",
			Geometry: domain.GeoJSONGeometry{
				Type:        "Point",
				Coordinates: []float64{loc.Lon, loc.Lat},
			},
			Properties: map[string]any{
				"risk_score":     s.RiskScore,
				"risk_level":     s.RiskLevel,
				"event_type":     s.EventType,
				"state":          s.State,
				"lga":            s.LGA,
				"trigger_reason": s.TriggerReason,
				"source_url":     s.SourceURL,
			},
		})
	}

	return domain.GeoJSONFeatureCollection{
		Type:     "FeatureCollection",
		Features: features,
		Metadata: map[string]any{
			"feature_count": len(features),
		},
		SimParams: params,
	}
}
