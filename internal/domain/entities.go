// Package domain contains core business entities.
package domain

import (
	"errors"
	"time"
)

// Common errors
var (
	ErrNotFound             = errors.New("entity not found")
	ErrDuplicate            = errors.New("duplicate entity")
	ErrInvalid              = errors.New("invalid entity")
	ErrNoEconomicData       = errors.New("no economic data for location")
	ErrClassificationFailed = errors.New("classification failed")
	ErrCircuitOpen          = errors.New("classifier circuit open")
)

// Status is the coarse outcome reported alongside any pipeline operation.
type Status string

const (
	StatusSuccess Status = "success"
	StatusPartial Status = "partial"
	StatusWarning Status = "warning"
	StatusError   Status = "error"
)

// ============================================================
// ARTICLE (Ingestor output)
// ============================================================

// SourceType distinguishes how an article was retrieved.
type SourceType string

const (
	SourceTypeRSS SourceType = "rss"
	SourceTypeWeb SourceType = "web"
)

// GenderBreakdown captures a casualty count split by gender, when reported.
type GenderBreakdown struct {
	Male        int `json:"male,omitempty"`
	Female      int `json:"female,omitempty"`
	Unspecified int `json:"unspecified,omitempty"`
}

// Casualties holds whatever casualty figures a classifier could extract.
type Casualties struct {
	Fatalities    int             `json:"fatalities,omitempty"`
	Injured       int             `json:"injured,omitempty"`
	KidnapVictims int             `json:"kidnap_victims,omitempty"`
	Gender        GenderBreakdown `json:"gender_breakdown,omitempty"`
}

// Geography is the raw location text recovered during feature extraction,
// kept alongside the classifier's resolved State/LGA for provenance.
type Geography struct {
	State     string `json:"state,omitempty"`
	LGA       string `json:"lga,omitempty"`
	Community string `json:"community,omitempty"`
}

// Article is a single piece of ingested content, deduplicated and
// veracity-scored, awaiting (or having completed) classification.
type Article struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	URL           string     `json:"url"`
	Source        string     `json:"source"`
	SourceType    SourceType `json:"source_type"`
	Content       string     `json:"content"`
	PublishedAt   time.Time  `json:"published_at"`
	FetchedAt     time.Time  `json:"fetched_at"`
	Fingerprint   string     `json:"fingerprint"`
	SourceCount   int        `json:"source_count"`
	// Sources is the set of distinct source names that have been counted
	// toward SourceCount for this fingerprint, so repeat sightings from an
	// already-counted source (e.g. the same story re-fetched every cron
	// cycle) don't inflate corroboration.
	Sources       []string   `json:"sources,omitempty"`
	VeracityScore float64    `json:"veracity_score"`
	Processed     bool       `json:"processed"`

	// Category/CategoryConfidence carry the Classifier's categorization
	// pass (spec.md §4.2); Category starts Unknown until a categorization
	// cycle resolves it.
	Category           string `json:"category,omitempty"`
	CategoryConfidence int    `json:"category_confidence"`

	CreatedAt time.Time `json:"created_at"`
}

// CategoryUnknown is the default/fallback categorization, used both before
// any categorization pass has run and when one fails to classify the text.
const CategoryUnknown = "Unknown"

// CategoryStat is one category's aggregate standing in a categorization
// audit report.
type CategoryStat struct {
	Count         int64   `json:"count"`
	AvgConfidence float64 `json:"avg_confidence"`
}

// ConfidenceLogEntry is one recent categorization decision, surfaced for
// spot-checking classifier confidence.
type ConfidenceLogEntry struct {
	ArticleID  string    `json:"article_id"`
	Title      string    `json:"title"`
	Category   string    `json:"category"`
	Confidence int       `json:"confidence"`
	Timestamp  time.Time `json:"timestamp"`
}

// CategorizationStats is the categorization-audit report surfaced at
// GET /stats/categorization-audit.
type CategorizationStats struct {
	TotalArticles     int64                   `json:"total_articles"`
	ProcessedArticles int64                   `json:"processed_articles"`
	RemainingArticles int64                   `json:"remaining_articles"`
	Categories        map[string]CategoryStat `json:"categories"`
	ConfidenceLogs    []ConfidenceLogEntry    `json:"confidence_logs"`
}

// ============================================================
// PARSED EVENT (Classifier output)
// ============================================================

// ConflictType is the event category extracted from an article's text.
type ConflictType string

const (
	ConflictTypeClash     ConflictType = "clash"
	ConflictTypeConflict  ConflictType = "conflict"
	ConflictTypeViolence  ConflictType = "violence"
	ConflictTypeProtest   ConflictType = "protest"
	ConflictTypePolitical ConflictType = "political"
	ConflictTypeSecurity  ConflictType = "security"
	ConflictTypeCrime     ConflictType = "crime"
	ConflictTypeSports    ConflictType = "sports"
	ConflictTypeEconomic  ConflictType = "economic"
	ConflictTypeSocial    ConflictType = "social"
	ConflictTypeUnknown   ConflictType = "unknown"
)

// Severity is the extracted or inferred intensity of a conflict event.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeveritySevere   Severity = "severe"
	SeverityHigh     Severity = "high"
	SeverityModerate Severity = "moderate"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
	SeverityMinor    Severity = "minor"
	SeverityUnknown  Severity = "unknown"
)

// ConflictDriver names the underlying cause a rule-based fallback can infer
// from keyword matches when no model call is available.
type ConflictDriver string

const (
	DriverFarmerHerder ConflictDriver = "farmer_herder"
	DriverBanditry     ConflictDriver = "banditry"
	DriverJihadist     ConflictDriver = "jihadist_insurgency"
	DriverCultism      ConflictDriver = "cultism"
	DriverElectoral    ConflictDriver = "electoral_violence"
	DriverCommunal     ConflictDriver = "communal"
	DriverUnknown      ConflictDriver = "unknown"
)

// ExtractionMethod records whether a parsed event came from a model call or
// the rule-based fallback, so downstream consumers can weigh confidence.
type ExtractionMethod string

const (
	ExtractionMethodLLM  ExtractionMethod = "llm"
	ExtractionMethodRule ExtractionMethod = "rule_based"
)

// ParsedEvent is the structured conflict event recovered from an Article.
type ParsedEvent struct {
	ID          string           `json:"id"`
	ArticleID   string           `json:"article_id"`
	EventType   ConflictType     `json:"event_type"`
	Severity    Severity         `json:"severity"`
	Driver      ConflictDriver   `json:"driver,omitempty"`
	State       string           `json:"state"`
	LGA         string           `json:"lga"`
	Geography   Geography        `json:"geography,omitempty"`
	Latitude    *float64         `json:"latitude,omitempty"`
	Longitude   *float64         `json:"longitude,omitempty"`
	Casualties  Casualties       `json:"casualties,omitempty"`
	Confidence  float64          `json:"confidence"`
	Method      ExtractionMethod `json:"method"`
	SourceTitle string           `json:"source_title"`
	SourceURL   string           `json:"source_url"`

	// SentimentIntensity (0-100) and HateSpeechIndicators are extracted
	// alongside the core fields by the model prompt; the rule-based
	// fallback leaves them at their zero values since keyword matching
	// can't assess rhetorical intensity.
	SentimentIntensity   float64  `json:"sentiment_intensity"`
	HateSpeechIndicators []string `json:"hate_speech_indicators,omitempty"`

	ExtractedAt time.Time `json:"extracted_at"`
}

// ============================================================
// RISK SIGNAL (Risk Engine output)
// ============================================================

// RiskLevel is the banded classification of a RiskSignal's numeric score.
type RiskLevel string

const (
	RiskLevelCritical RiskLevel = "Critical"
	RiskLevelHigh     RiskLevel = "High"
	RiskLevelMedium   RiskLevel = "Medium"
	RiskLevelLow      RiskLevel = "Low"
	RiskLevelMinimal  RiskLevel = "Minimal"
)

// RiskSignal is a fully scored, explainable risk assessment for a single
// parsed event, enriched with whichever reference datasets matched its
// location.
type RiskSignal struct {
	ID            string    `json:"id"`
	EventType     string    `json:"event_type"`
	State         string    `json:"state"`
	LGA           string    `json:"lga"`
	Severity      string    `json:"severity"`
	FuelPrice     float64   `json:"fuel_price"`
	Inflation     float64   `json:"inflation"`
	RiskScore     float64   `json:"risk_score"`
	RiskLevel     RiskLevel `json:"risk_level"`
	SourceTitle   string    `json:"source_title"`
	SourceURL     string    `json:"source_url"`
	TriggerReason string    `json:"trigger_reason"`

	// Climate indicators
	FloodInundationIndex  *float64 `json:"flood_inundation_index,omitempty"`
	PrecipitationAnomaly  *float64 `json:"precipitation_anomaly,omitempty"`
	VegetationHealthIndex *float64 `json:"vegetation_health_index,omitempty"`

	// Mining/economic indicators
	MiningProximityKM    *float64 `json:"mining_proximity_km,omitempty"`
	MiningSiteName       string   `json:"mining_site_name,omitempty"`
	HighFundingPotential bool     `json:"high_funding_potential"`
	InformalTaxationRate *float64 `json:"informal_taxation_rate,omitempty"`

	// Strategic indicators (state-level poverty/unemployment/migration/mining
	// density/climate vulnerability), surfaced for explanation alongside the
	// scoring rules they feed.
	PovertyRate              *float64 `json:"poverty_rate,omitempty"`
	UnemploymentRate         *float64 `json:"unemployment_rate,omitempty"`
	MigrationPressure        *float64 `json:"migration_pressure,omitempty"`
	MiningDensity            *float64 `json:"mining_density,omitempty"`
	ClimateVulnerability     *float64 `json:"climate_vulnerability,omitempty"`
	HighEscalationPotential  bool     `json:"high_escalation_potential"`

	// Border/transnational indicators
	BorderActivity          string   `json:"border_activity,omitempty"`
	LakurawaPresence        bool     `json:"lakurawa_presence"`
	BorderPermeabilityScore *float64 `json:"border_permeability_score,omitempty"`
	GroupAffiliation        string   `json:"group_affiliation,omitempty"`
	SophisticatedIEDUsage   bool     `json:"sophisticated_ied_usage"`

	// Strategic/climate-zone attribution
	ConflictDriver          string  `json:"conflict_driver,omitempty"`
	ClimateImpactZone       string  `json:"climate_impact_zone,omitempty"`
	SurgeDetected           bool    `json:"surge_detected"`
	SurgePercentageIncrease float64 `json:"surge_percentage_increase"`

	CalculatedAt time.Time `json:"calculated_at"`
}

// ============================================================
// REFERENCE DATASETS
// ============================================================

// EconomicRow is one state/LGA economic indicator row loaded from the
// economic reference dataset.
type EconomicRow struct {
	State     string  `json:"state"`
	LGA       string  `json:"lga"`
	FuelPrice float64 `json:"fuel_price"`
	Inflation float64 `json:"inflation"`
}

// ClimateRecord is one state/LGA climate indicator row.
type ClimateRecord struct {
	State                 string  `json:"state"`
	LGA                   string  `json:"lga"`
	FloodInundationIndex   float64 `json:"flood_inundation_index"`
	PrecipitationAnomaly   float64 `json:"precipitation_anomaly"`
	VegetationHealthIndex  float64 `json:"vegetation_health_index"`
}

// LatLon is a bare coordinate pair.
type LatLon struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// ClimatePolygon is a named geographic region used for point-in-polygon
// climate-stress lookups, as a fallback when no exact state/LGA match exists.
// ImpactZone drives the climate-conflict correlation scoring rule; Region/
// Indicator/RecessionIndex/ConflictCorrelation are carried through from the
// GeoJSON properties for explanation purposes.
type ClimatePolygon struct {
	Name                string        `json:"name"`
	Ring                []LatLon      `json:"ring"`
	Climate             ClimateRecord `json:"climate"`
	ImpactZone          string        `json:"impact_zone"`
	Indicator           string        `json:"indicator"`
	RecessionIndex      float64       `json:"recession_index"`
	ConflictCorrelation float64       `json:"conflict_correlation"`
}

// MiningSite is a known illicit/informal mining location.
type MiningSite struct {
	SiteName             string  `json:"site_name"`
	Latitude             float64 `json:"latitude"`
	Longitude            float64 `json:"longitude"`
	InformalTaxationRate float64 `json:"informal_taxation_rate"`
}

// BorderSignal is a state/LGA transnational-activity indicator row.
type BorderSignal struct {
	State                     string  `json:"state"`
	LGA                       string  `json:"lga"`
	BorderActivity            string  `json:"border_activity"`
	LakurawaPresenceConfirmed bool    `json:"lakurawa_presence_confirmed"`
	BorderPermeabilityScore   float64 `json:"border_permeability_score"`
	GroupAffiliation          string  `json:"group_affiliation"`
	SophisticatedIEDUsage     bool    `json:"sophisticated_ied_usage"`
}

// StrategicIndicator is a state-level strategic-risk row: poverty,
// unemployment, migration pressure, mining density, and climate
// vulnerability, matched case-insensitively by state. These feed the
// strategic-climate, mining-density, and farmer-herder-migration scoring
// rules in addition to being surfaced for explanation.
type StrategicIndicator struct {
	State               string  `json:"state"`
	PovertyRate         float64 `json:"poverty_rate"`
	UnemploymentRate    float64 `json:"unemployment_rate"`
	MigrationPressure   float64 `json:"migration_pressure"`
	MiningDensity       float64 `json:"mining_density"`
	ClimateVulnerability float64 `json:"climate_vulnerability"`
}

// ============================================================
// SIMULATION
// ============================================================

// SimulationParameters are the UI-slider inputs to a dynamic risk simulation.
type SimulationParameters struct {
	FuelPriceIndex   float64 `json:"fuel_price_index"`
	InflationRate    float64 `json:"inflation_rate"`
	ChatterIntensity float64 `json:"chatter_intensity"`
}

// SimulationResult is the outcome of one dynamic simulation pass over a
// single hypothetical event.
type SimulationResult struct {
	RiskScore       float64              `json:"risk_score"`
	RiskLevel       RiskLevel            `json:"risk_level"`
	Status          string               `json:"status"`
	IsUrban         bool                 `json:"is_urban"`
	TriggerReason   string               `json:"trigger_reason"`
	HeatmapWeight   float64              `json:"heatmap_weight"`
	HeatmapRadiusKM float64              `json:"heatmap_radius_km"`
	Params          SimulationParameters `json:"simulation_params"`
}

// GeoJSONGeometry is a bare GeoJSON Point geometry.
type GeoJSONGeometry struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}

// GeoJSONFeature wraps one simulated/observed point for map rendering.
type GeoJSONFeature struct {
	Type       string          `json:"type"`
	Geometry   GeoJSONGeometry `json:"geometry"`
	Properties map[string]any  `json:"properties"`
}

// GeoJSONFeatureCollection is the top-level GeoJSON document returned by
// the simulation endpoint.
type GeoJSONFeatureCollection struct {
	Type      string               `json:"type"`
	Features  []GeoJSONFeature     `json:"features"`
	Metadata  map[string]any       `json:"metadata,omitempty"`
	SimParams SimulationParameters `json:"simulation_params"`
}

// ============================================================
// RISK OVERVIEW (supplemental)
// ============================================================

// TrendPoint is one day's aggregate in a risk-overview trend series.
type TrendPoint struct {
	Date         string  `json:"date"`
	AverageScore float64 `json:"average_score"`
	SignalCount  int     `json:"signal_count"`
}

// StateSummary is one state's aggregate standing in a risk-overview report.
type StateSummary struct {
	State        string  `json:"state"`
	AverageScore float64 `json:"average_score"`
	SignalCount  int     `json:"signal_count"`
}

// Overview is the supplemental 7-day trend / distribution / top-states
// report surfaced at GET /stats/risk-overview.
type Overview struct {
	Trend               []TrendPoint      `json:"trend"`
	CurrentDistribution map[RiskLevel]int `json:"current_distribution"`
	TopStates           []StateSummary    `json:"top_states"`
	GeneratedAt         time.Time         `json:"generated_at"`
}
