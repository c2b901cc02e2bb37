package riskengine

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nextier/signal-engine/internal/config"
	"github.com/nextier/signal-engine/internal/domain"
)

func testEngine(t *testing.T) *Engine {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	ref := LoadReferenceData(
		"../../data/climate_data.json",
		"../../data/climate_indicators.geojson",
		"../../data/mining_activity.json",
		"../../data/border_signals.json",
		"../../data/nigeria_econ_indicators.csv",
		func(format string, args ...any) { t.Logf(format, args...) },
	)
	return &Engine{
		cfg:   config.RiskEngineConfig{SurgeThreshold: 20},
		ref:   ref,
		surge: NewSurgeDetector(20),
		log:   logger,
	}
}

func TestScore_NoEconomicData(t *testing.T) {
	e := testEngine(t)
	event := &domain.ParsedEvent{EventType: domain.ConflictTypeClash, State: "Lagos", LGA: "Ikeja"}

	_, err := e.Score(event, nil)

	assert.ErrorIs(t, err, domain.ErrNoEconomicData)
}

func TestScore_StandardCalculation(t *testing.T) {
	e := testEngine(t)
	event := &domain.ParsedEvent{
		EventType: domain.ConflictTypeProtest,
		Severity:  domain.SeverityLow,
		State:     "Lagos",
		LGA:       "Somewhere Quiet",
	}
	econ := &domain.EconomicRow{State: "Lagos", LGA: "Somewhere Quiet", FuelPrice: 500, Inflation: 12}

	signal, err := e.Score(event, econ)

	require.NoError(t, err)
	// base(30) + protest(25) + low severity(5) = 60
	assert.Equal(t, 60.0, signal.RiskScore)
	assert.Equal(t, domain.RiskLevelHigh, signal.RiskLevel)
}

func TestScore_ClashWithHighInflationForcesCriticalFloor(t *testing.T) {
	e := testEngine(t)
	event := &domain.ParsedEvent{
		EventType: domain.ConflictTypeClash,
		Severity:  domain.SeverityHigh,
		State:     "Kwara",
		LGA:       "Somewhere Else",
	}
	econ := &domain.EconomicRow{State: "Kwara", LGA: "Somewhere Else", FuelPrice: 500, Inflation: 25}

	signal, err := e.Score(event, econ)

	require.NoError(t, err)
	assert.GreaterOrEqual(t, signal.RiskScore, 81.0)
	assert.Equal(t, domain.RiskLevelCritical, signal.RiskLevel)
	assert.Contains(t, signal.TriggerReason, "High inflation")
}

func TestScore_ClimateMultiplierAppliesToClashEvents(t *testing.T) {
	e := testEngine(t)
	event := &domain.ParsedEvent{
		EventType: domain.ConflictTypeClash,
		Severity:  domain.SeverityModerate,
		State:     "Benue",
		LGA:       "Makurdi",
	}
	econ := &domain.EconomicRow{State: "Benue", LGA: "Makurdi", FuelPrice: 500, Inflation: 10}

	signal, err := e.Score(event, econ)

	require.NoError(t, err)
	require.NotNil(t, signal.FloodInundationIndex)
	assert.Contains(t, signal.TriggerReason, "Flooding-induced displacement")
}

func TestScore_MiningProximityFlagsHighFundingPotential(t *testing.T) {
	e := testEngine(t)
	lat, lon := 12.17, 6.25 // on top of the Zamfara mining site fixture
	event := &domain.ParsedEvent{
		EventType: domain.ConflictTypeCrime,
		Severity:  domain.SeverityHigh,
		State:     "Zamfara",
		LGA:       "Unknown LGA",
		Latitude:  &lat,
		Longitude: &lon,
	}
	econ := &domain.EconomicRow{State: "Zamfara", LGA: "Unknown LGA", FuelPrice: 500, Inflation: 10}

	signal, err := e.Score(event, econ)

	require.NoError(t, err)
	assert.True(t, signal.HighFundingPotential)
	assert.Contains(t, signal.TriggerReason, "High Funding Potential")
}

func TestScore_SahelianMultiplierForSokotoKebbi(t *testing.T) {
	e := testEngine(t)
	event := &domain.ParsedEvent{
		EventType: domain.ConflictTypeSecurity,
		Severity:  domain.SeverityMedium,
		State:     "Sokoto",
		LGA:       "Sokoto North",
	}
	econ := &domain.EconomicRow{State: "Sokoto", LGA: "Sokoto North", FuelPrice: 500, Inflation: 10}

	signal, err := e.Score(event, econ)

	require.NoError(t, err)
	assert.Contains(t, signal.TriggerReason, "Lakurawa Presence Detected")
}

func TestScore_StrategicClimateVulnerabilityAddsScore(t *testing.T) {
	e := testEngine(t)
	event := &domain.ParsedEvent{
		EventType: domain.ConflictTypeCrime,
		Severity:  domain.SeverityMedium,
		State:     "Benue",
		LGA:       "Gboko", // no exact climate_data.json row, no lat/lon, no polygon fallback
	}
	econ := &domain.EconomicRow{State: "Benue", LGA: "Gboko", FuelPrice: 500, Inflation: 10}

	signal, err := e.Score(event, econ)

	require.NoError(t, err)
	require.NotNil(t, signal.ClimateVulnerability)
	assert.Equal(t, 0.71, *signal.ClimateVulnerability)
	assert.Contains(t, signal.TriggerReason, "Strategic climate vulnerability")
}

func TestScore_MiningDensityFlagsHighEscalationPotential(t *testing.T) {
	e := testEngine(t)
	event := &domain.ParsedEvent{
		EventType: domain.ConflictTypeCrime,
		Severity:  domain.SeverityMedium,
		State:     "Zamfara",
		LGA:       "Gusau", // away from the mining-site fixture, isolating the density clause
	}
	econ := &domain.EconomicRow{State: "Zamfara", LGA: "Gusau", FuelPrice: 500, Inflation: 10}

	signal, err := e.Score(event, econ)

	require.NoError(t, err)
	require.NotNil(t, signal.MiningDensity)
	assert.Equal(t, 0.78, *signal.MiningDensity)
	assert.True(t, signal.HighEscalationPotential)
	assert.Contains(t, signal.TriggerReason, "High mining density")
	assert.Contains(t, signal.TriggerReason, "[HIGH ESCALATION POTENTIAL]")
}

func TestScore_FarmerHerderKeywordAmplifiedByMigrationPressure(t *testing.T) {
	e := testEngine(t)
	event := &domain.ParsedEvent{
		EventType:   domain.ConflictTypeClash,
		Severity:    domain.SeverityMedium,
		State:       "Borno",
		LGA:         "Chibok", // avoids the Maiduguri border/climate fixtures
		SourceTitle: "Herder camp clashes with farmer community over grazing route",
	}
	econ := &domain.EconomicRow{State: "Borno", LGA: "Chibok", FuelPrice: 500, Inflation: 10}

	signal, err := e.Score(event, econ)

	require.NoError(t, err)
	require.NotNil(t, signal.MigrationPressure)
	assert.Equal(t, 0.81, *signal.MigrationPressure)
	assert.Contains(t, signal.TriggerReason, "Farmer-herder tension")
}

func TestScore_NoFarmerHerderKeywordSkipsMigrationMultiplier(t *testing.T) {
	e := testEngine(t)
	event := &domain.ParsedEvent{
		EventType:   domain.ConflictTypeClash,
		Severity:    domain.SeverityMedium,
		State:       "Borno",
		LGA:         "Chibok",
		SourceTitle: "Armed group attacks checkpoint",
	}
	econ := &domain.EconomicRow{State: "Borno", LGA: "Chibok", FuelPrice: 500, Inflation: 10}

	signal, err := e.Score(event, econ)

	require.NoError(t, err)
	assert.NotContains(t, signal.TriggerReason, "Farmer-herder tension")
}

func TestScore_ClimateStressPolygonSetsConflictDriver(t *testing.T) {
	e := testEngine(t)
	lat, lon := 7.5, 8.5 // inside the middle_belt_farmland (Medium) polygon fixture
	event := &domain.ParsedEvent{
		EventType: domain.ConflictTypeCrime,
		Severity:  domain.SeverityMedium,
		State:     "Nasarawa",
		LGA:       "Keana",
		Latitude:  &lat,
		Longitude: &lon,
	}
	econ := &domain.EconomicRow{State: "Nasarawa", LGA: "Keana", FuelPrice: 500, Inflation: 10}

	signal, err := e.Score(event, econ)

	require.NoError(t, err)
	assert.Equal(t, "Medium", signal.ClimateImpactZone)
	assert.Equal(t, "Environmental/Climate", signal.ConflictDriver)
	assert.Contains(t, signal.TriggerReason, "climate-conflict correlation zone")
}

func TestFindEconomicData_FallsBackToStateLevel(t *testing.T) {
	rows := []domain.EconomicRow{
		{State: "Lagos", LGA: "Ikeja", FuelPrice: 700, Inflation: 25},
	}

	row := FindEconomicData(rows, "Lagos", "Epe")

	require.NotNil(t, row)
	assert.Equal(t, "Ikeja", row.LGA)
}

func TestSimulate_RequiresCoordinates(t *testing.T) {
	e := testEngine(t)
	event := &domain.ParsedEvent{EventType: domain.ConflictTypeClash, State: "Lagos", LGA: "Ikeja"}

	_, err := e.Simulate(event, domain.SimulationParameters{})

	assert.ErrorIs(t, err, domain.ErrInvalid)
}

func TestSimulate_ScoreStaysWithinBounds(t *testing.T) {
	e := testEngine(t)
	lat, lon := 6.6018, 3.3515
	event := &domain.ParsedEvent{
		EventType: domain.ConflictTypeClash,
		Severity:  domain.SeverityHigh,
		State:     "Lagos",
		LGA:       "Ikeja",
		Latitude:  &lat,
		Longitude: &lon,
	}

	result, err := e.Simulate(event, domain.SimulationParameters{FuelPriceIndex: 100, InflationRate: 100, ChatterIntensity: 100})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, result.RiskScore, 0.0)
	assert.LessOrEqual(t, result.RiskScore, 100.0)

	resultMin, err := e.Simulate(event, domain.SimulationParameters{})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, resultMin.RiskScore, 0.0)
	assert.LessOrEqual(t, resultMin.RiskScore, 100.0)
}

func TestSimulate_EconomicIgniterUrbanMultiplier(t *testing.T) {
	e := testEngine(t)
	lat, lon := 6.6018, 3.3515
	urbanEvent := &domain.ParsedEvent{
		EventType: domain.ConflictTypeClash,
		Severity:  domain.SeverityHigh,
		State:     "Lagos",
		LGA:       "Ikeja",
		Latitude:  &lat,
		Longitude: &lon,
	}

	highFuel, err := e.Simulate(urbanEvent, domain.SimulationParameters{FuelPriceIndex: 85, InflationRate: 30, ChatterIntensity: 50})
	require.NoError(t, err)
	lowFuel, err := e.Simulate(urbanEvent, domain.SimulationParameters{FuelPriceIndex: 75, InflationRate: 30, ChatterIntensity: 50})
	require.NoError(t, err)

	assert.True(t, highFuel.IsUrban)
	assert.Greater(t, highFuel.RiskScore, lowFuel.RiskScore)
	assert.Contains(t, highFuel.TriggerReason, "Economic Crisis in Urban Center")
}

func TestSimulate_RuralLGANoEconomicIgniter(t *testing.T) {
	e := testEngine(t)
	lat, lon := 11.7, 8.2
	ruralEvent := &domain.ParsedEvent{
		EventType: domain.ConflictTypeClash,
		Severity:  domain.SeverityHigh,
		State:     "Kano",
		LGA:       "Bichi",
		Latitude:  &lat,
		Longitude: &lon,
	}

	result, err := e.Simulate(ruralEvent, domain.SimulationParameters{FuelPriceIndex: 85, InflationRate: 30, ChatterIntensity: 50})

	require.NoError(t, err)
	assert.False(t, result.IsUrban)
	assert.NotContains(t, result.TriggerReason, "Economic Crisis in Urban Center")
}

func TestSimulate_ChatterIntensityDrivesHeatmap(t *testing.T) {
	e := testEngine(t)
	lat, lon := 6.6018, 3.3515
	event := &domain.ParsedEvent{
		EventType: domain.ConflictTypeClash,
		Severity:  domain.SeverityHigh,
		State:     "Lagos",
		LGA:       "Ikeja",
		Latitude:  &lat,
		Longitude: &lon,
	}

	low, err := e.Simulate(event, domain.SimulationParameters{FuelPriceIndex: 50, InflationRate: 25, ChatterIntensity: 10})
	require.NoError(t, err)
	high, err := e.Simulate(event, domain.SimulationParameters{FuelPriceIndex: 50, InflationRate: 25, ChatterIntensity: 90})
	require.NoError(t, err)

	assert.Greater(t, high.HeatmapRadiusKM, low.HeatmapRadiusKM)
	assert.Greater(t, high.HeatmapWeight, low.HeatmapWeight)
	assert.GreaterOrEqual(t, low.HeatmapRadiusKM, 5.0)
	assert.LessOrEqual(t, high.HeatmapRadiusKM, 50.0)
}

func TestIsUrbanLGA_CaseInsensitive(t *testing.T) {
	assert.True(t, isUrbanLGA("IKEJA"))
	assert.True(t, isUrbanLGA("ikeja"))
	assert.True(t, isUrbanLGA("Lagos Island"))
	assert.False(t, isUrbanLGA("Bichi"))
	assert.False(t, isUrbanLGA("Unknown LGA"))
}

func TestHaversineDistanceKM_KnownPoints(t *testing.T) {
	// Lagos to Abuja, roughly 525km as the crow flies.
	d := haversineDistanceKM(6.5244, 3.3792, 9.0765, 7.3986)
	assert.InDelta(t, 525, d, 40)
}

func TestPointInPolygon_InsideAndOutside(t *testing.T) {
	square := []domain.LatLon{
		{Lat: 0, Lon: 0}, {Lat: 0, Lon: 10}, {Lat: 10, Lon: 10}, {Lat: 10, Lon: 0},
	}

	assert.True(t, pointInPolygon(5, 5, square))
	assert.False(t, pointInPolygon(20, 20, square))
}

func TestSurgeDetector_FlagsLargeRelativeJump(t *testing.T) {
	detector := NewSurgeDetector(20)
	detector.lastScore[locationKey("Benue", "Makurdi")] = 40

	// (85-40)/40*100 = 112.5% > 20% threshold.
	isSurge, pct, err := detector.Check(context.Background(), stubSignalRepo{}, "Benue", "Makurdi", 85)

	require.NoError(t, err)
	assert.True(t, isSurge)
	assert.Equal(t, 112.5, pct)
}

func TestSurgeDetector_SmallRelativeJumpIsNotASurge(t *testing.T) {
	detector := NewSurgeDetector(20)
	detector.lastScore[locationKey("Kano", "Kano Municipal")] = 10

	// (11-10)/10*100 = 10%, below the 20% threshold.
	isSurge, pct, err := detector.Check(context.Background(), stubSignalRepo{}, "Kano", "Kano Municipal", 11)

	require.NoError(t, err)
	assert.False(t, isSurge)
	assert.Equal(t, 10.0, pct)
}

func TestSurgeDetector_RelativeFormulaCatchesJumpAbsoluteWouldMiss(t *testing.T) {
	detector := NewSurgeDetector(20)
	detector.lastScore[locationKey("Taraba", "Jalingo")] = 10

	// previous=10, current=25: delta=15 (< a naive 20-point absolute
	// threshold) but a 150% relative increase, which must be flagged.
	isSurge, pct, err := detector.Check(context.Background(), stubSignalRepo{}, "Taraba", "Jalingo", 25)

	require.NoError(t, err)
	assert.True(t, isSurge)
	assert.Equal(t, 150.0, pct)
}

func TestSurgeDetector_NoPriorHistoryIsNotASurge(t *testing.T) {
	detector := NewSurgeDetector(20)

	isSurge, _, err := detector.Check(context.Background(), stubSignalRepo{}, "Plateau", "Jos North", 90)

	require.NoError(t, err)
	assert.False(t, isSurge)
}

// stubSignalRepo implements only the GetByStateLGA method SurgeDetector
// needs, standing in for the full domain.RiskSignalRepository interface.
type stubSignalRepo struct {
	domain.RiskSignalRepository
}

func (s stubSignalRepo) GetByStateLGA(ctx context.Context, state, lga string, limit int) ([]*domain.RiskSignal, error) {
	return nil, nil
}

func TestOverview_BuildsTrendAndDistribution(t *testing.T) {
	now := time.Now()
	signals := []*domain.RiskSignal{
		{State: "Lagos", RiskScore: 85, RiskLevel: domain.RiskLevelCritical, CalculatedAt: now},
		{State: "Lagos", RiskScore: 65, RiskLevel: domain.RiskLevelHigh, CalculatedAt: now},
		{State: "Kano", RiskScore: 45, RiskLevel: domain.RiskLevelMedium, CalculatedAt: now},
	}

	trend := buildTrend(signals, now.Add(-24*time.Hour))
	dist := buildDistribution(signals)
	topStates := buildTopStates(signals)

	require.Len(t, trend, 1)
	assert.Equal(t, 3, trend[0].SignalCount)
	assert.Equal(t, 1, dist[domain.RiskLevelCritical])
	require.NotEmpty(t, topStates)
	assert.Equal(t, "Lagos", topStates[0].State)
}
