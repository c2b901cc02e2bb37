package riskengine

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/nextier/signal-engine/internal/domain"
)

// ReferenceData holds every load-once-at-startup dataset the scorer
// consults. It is built once in NewEngine and never mutated afterward, so
// reads from concurrent scoring goroutines need no locking.
type ReferenceData struct {
	Climate   []domain.ClimateRecord
	Polygons  []domain.ClimatePolygon
	Mining    []domain.MiningSite
	Border    []domain.BorderSignal
	Strategic []domain.StrategicIndicator
}

// LoadReferenceData reads the climate, mining, border, climate-stress-polygon
// and strategic-indicator datasets from disk. A missing or unreadable file
// degrades that dimension to "no match" rather than failing startup,
// mirroring the Python service's own try/except-and-warn loaders.
func LoadReferenceData(climatePath, climateIndicatorsPath, miningPath, borderPath, strategicPath string, logf func(format string, args ...any)) *ReferenceData {
	ref := &ReferenceData{}

	if err := loadJSON(climatePath, &ref.Climate); err != nil {
		logf("could not load climate data from %s: %v", climatePath, err)
	}
	if err := loadJSON(miningPath, &ref.Mining); err != nil {
		logf("could not load mining data from %s: %v", miningPath, err)
	}
	if err := loadJSON(borderPath, &ref.Border); err != nil {
		logf("could not load border data from %s: %v", borderPath, err)
	}

	polygons, err := loadClimatePolygonsGeoJSON(climateIndicatorsPath)
	if err != nil {
		logf("could not load climate indicator polygons from %s: %v", climateIndicatorsPath, err)
		polygons = defaultClimatePolygons()
	}
	ref.Polygons = polygons

	strategic, err := loadStrategicIndicatorsCSV(strategicPath)
	if err != nil {
		logf("could not load strategic indicators from %s: %v", strategicPath, err)
	}
	ref.Strategic = strategic

	return ref
}

// geoJSONFeatureCollection is the minimal shape needed to parse the
// climate-stress polygon dataset: a FeatureCollection of Polygon features
// carrying impact-zone/indicator properties.
type geoJSONFeatureCollection struct {
	Features []struct {
		Properties struct {
			Region              string  `json:"region"`
			Indicator           string  `json:"indicator"`
			RecessionIndex      float64 `json:"recession_index"`
			ImpactZone          string  `json:"impact_zone"`
			ConflictCorrelation float64 `json:"conflict_correlation"`
		} `json:"properties"`
		Geometry struct {
			Type        string         `json:"type"`
			Coordinates [][][2]float64 `json:"coordinates"`
		} `json:"geometry"`
	} `json:"features"`
}

// loadClimatePolygonsGeoJSON reads the climate-stress-zone GeoJSON reference
// file, used as a fallback climate lookup (and the climate-conflict
// correlation scoring rule) when an event's coordinates fall inside a zone
// but no exact state/LGA climate row matches. GeoJSON coordinates are
// [lon, lat]; they are transposed into domain.LatLon on load so the rest of
// the engine never has to think about ordering again.
func loadClimatePolygonsGeoJSON(path string) ([]domain.ClimatePolygon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var fc geoJSONFeatureCollection
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("parse climate indicators geojson: %w", err)
	}

	polygons := make([]domain.ClimatePolygon, 0, len(fc.Features))
	for _, f := range fc.Features {
		if f.Geometry.Type != "Polygon" || len(f.Geometry.Coordinates) == 0 {
			continue
		}
		ring := make([]domain.LatLon, 0, len(f.Geometry.Coordinates[0]))
		for _, coord := range f.Geometry.Coordinates[0] {
			ring = append(ring, domain.LatLon{Lon: coord[0], Lat: coord[1]})
		}
		polygons = append(polygons, domain.ClimatePolygon{
			Name:                f.Properties.Region,
			Ring:                ring,
			Indicator:           f.Properties.Indicator,
			RecessionIndex:      f.Properties.RecessionIndex,
			ImpactZone:          f.Properties.ImpactZone,
			ConflictCorrelation: f.Properties.ConflictCorrelation,
		})
	}
	return polygons, nil
}

// loadStrategicIndicatorsCSV reads the state-level strategic-risk reference
// table (poverty, unemployment, migration pressure, mining density, climate
// vulnerability).
func loadStrategicIndicatorsCSV(path string) ([]domain.StrategicIndicator, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read strategic indicators csv: %w", err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("strategic indicators csv has no rows")
	}

	header := records[0]
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(name)] = i
	}

	rows := make([]domain.StrategicIndicator, 0, len(records)-1)
	for _, rec := range records[1:] {
		poverty, _ := strconv.ParseFloat(rec[col["Poverty_Rate"]], 64)
		unemployment, _ := strconv.ParseFloat(rec[col["Unemployment_Rate"]], 64)
		migration, _ := strconv.ParseFloat(rec[col["Migration_Pressure"]], 64)
		mining, _ := strconv.ParseFloat(rec[col["Mining_Density"]], 64)
		climate, _ := strconv.ParseFloat(rec[col["Climate_Vulnerability"]], 64)
		rows = append(rows, domain.StrategicIndicator{
			State:                rec[col["State"]],
			PovertyRate:          poverty,
			UnemploymentRate:     unemployment,
			MigrationPressure:    migration,
			MiningDensity:        mining,
			ClimateVulnerability: climate,
		})
	}
	return rows, nil
}

func loadJSON(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

// LoadEconomicCSV reads the state/LGA/fuel-price/inflation reference table
// used when no repository-backed copy is available yet (first boot,
// offline development).
func LoadEconomicCSV(path string) ([]domain.EconomicRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open economic data csv: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read economic data csv: %w", err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("economic data csv has no rows")
	}

	header := records[0]
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(name)] = i
	}

	var rows []domain.EconomicRow
	for _, rec := range records[1:] {
		fuel, _ := strconv.ParseFloat(rec[col["Fuel_Price"]], 64)
		inflation, _ := strconv.ParseFloat(rec[col["Inflation"]], 64)
		rows = append(rows, domain.EconomicRow{
			State:     rec[col["State"]],
			LGA:       rec[col["LGA"]],
			FuelPrice: fuel,
			Inflation: inflation,
		})
	}
	return rows, nil
}

// findClimateData finds climate indicators for a given location, falling
// back to a point-in-polygon lookup against the configured climate-stress
// polygons when coordinates are available and no exact state/LGA row matches.
func (r *ReferenceData) findClimateData(state, lga string, lat, lon *float64) *domain.ClimateRecord {
	for i := range r.Climate {
		c := &r.Climate[i]
		if strings.EqualFold(c.State, state) && strings.EqualFold(c.LGA, lga) {
			return c
		}
	}
	if lat != nil && lon != nil {
		for _, poly := range r.Polygons {
			if pointInPolygon(*lat, *lon, poly.Ring) {
				climate := poly.Climate
				return &climate
			}
		}
	}
	return nil
}

// findNearestMiningSite finds the closest known mining site to an event's
// coordinates, or nil if the event carries no coordinates or no sites are
// loaded.
func (r *ReferenceData) findNearestMiningSite(lat, lon *float64) (*domain.MiningSite, float64) {
	if lat == nil || lon == nil || len(r.Mining) == 0 {
		return nil, 0
	}

	var nearest *domain.MiningSite
	minDistance := math.MaxFloat64
	for i := range r.Mining {
		site := &r.Mining[i]
		d := haversineDistanceKM(*lat, *lon, site.Latitude, site.Longitude)
		if d < minDistance {
			minDistance = d
			nearest = site
		}
	}
	return nearest, minDistance
}

// findBorderData finds border signals for a given location.
func (r *ReferenceData) findBorderData(state, lga string) *domain.BorderSignal {
	for i := range r.Border {
		b := &r.Border[i]
		if strings.EqualFold(b.State, state) && strings.EqualFold(b.LGA, lga) {
			return b
		}
	}
	return nil
}

// findStrategicData finds the state-level strategic indicator row for a
// given state, matched case-insensitively (state only - these rows carry no
// LGA granularity).
func (r *ReferenceData) findStrategicData(state string) *domain.StrategicIndicator {
	for i := range r.Strategic {
		s := &r.Strategic[i]
		if strings.EqualFold(s.State, state) {
			return s
		}
	}
	return nil
}

// findClimatePolygon finds the climate-stress polygon an event's coordinates
// fall inside, used by the climate-conflict correlation scoring rule.
func (r *ReferenceData) findClimatePolygon(lat, lon *float64) *domain.ClimatePolygon {
	if lat == nil || lon == nil {
		return nil
	}
	for i := range r.Polygons {
		if pointInPolygon(*lat, *lon, r.Polygons[i].Ring) {
			return &r.Polygons[i]
		}
	}
	return nil
}

// defaultClimatePolygons returns a small set of named flood-stress zones
// used as a geometric fallback. These approximate the Niger Delta and
// Lake Chad basin flood corridors; a production deployment would load
// them from the same reference-data directory as the JSON tables.
func defaultClimatePolygons() []domain.ClimatePolygon {
	return []domain.ClimatePolygon{
		{
			Name: "niger_delta_flood_corridor",
			Ring: []domain.LatLon{
				{Lat: 4.3, Lon: 5.5}, {Lat: 4.3, Lon: 7.2}, {Lat: 5.6, Lon: 7.2}, {Lat: 5.6, Lon: 5.5},
			},
			Climate: domain.ClimateRecord{
				FloodInundationIndex: 28.0, PrecipitationAnomaly: 18.0, VegetationHealthIndex: 0.4,
			},
		},
		{
			Name: "lake_chad_basin",
			Ring: []domain.LatLon{
				{Lat: 12.5, Lon: 13.0}, {Lat: 12.5, Lon: 14.6}, {Lat: 13.8, Lon: 14.6}, {Lat: 13.8, Lon: 13.0},
			},
			Climate: domain.ClimateRecord{
				FloodInundationIndex: 12.0, PrecipitationAnomaly: -22.0, VegetationHealthIndex: 0.22,
			},
		},
	}
}
