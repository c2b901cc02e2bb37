package classifier

import (
	"strings"

	"github.com/nextier/signal-engine/internal/domain"
)

// stateCoordinates maps each Nigerian state (and the FCT) to its capital
// city's coordinates, used by the rule-based fallback when a model call
// isn't available to geocode an event more precisely.
var stateCoordinates = map[string]domain.LatLon{
	"abia":        {Lat: 5.4527, Lon: 7.5248},
	"adamawa":     {Lat: 9.3265, Lon: 12.3984},
	"akwa ibom":   {Lat: 5.0077, Lon: 7.8536},
	"anambra":     {Lat: 6.2209, Lon: 6.9370},
	"bauchi":      {Lat: 10.3158, Lon: 9.8442},
	"bayelsa":     {Lat: 4.7719, Lon: 6.0699},
	"benue":       {Lat: 7.7347, Lon: 8.5378},
	"borno":       {Lat: 11.8333, Lon: 13.1500},
	"cross river": {Lat: 4.9609, Lon: 8.3417},
	"delta":       {Lat: 5.8904, Lon: 5.6804},
	"ebonyi":      {Lat: 6.2649, Lon: 8.0137},
	"edo":         {Lat: 6.3350, Lon: 5.6037},
	"ekiti":       {Lat: 7.7190, Lon: 5.3110},
	"enugu":       {Lat: 6.5244, Lon: 7.5106},
	"gombe":       {Lat: 10.2897, Lon: 11.1689},
	"imo":         {Lat: 5.4840, Lon: 7.0351},
	"jigawa":      {Lat: 12.2230, Lon: 9.5619},
	"kaduna":      {Lat: 10.5105, Lon: 7.4165},
	"kano":        {Lat: 12.0022, Lon: 8.5920},
	"katsina":     {Lat: 12.9908, Lon: 7.6177},
	"kebbi":       {Lat: 12.4539, Lon: 4.1975},
	"kogi":        {Lat: 7.7333, Lon: 6.7333},
	"kwara":       {Lat: 8.4966, Lon: 4.5426},
	"lagos":       {Lat: 6.5244, Lon: 3.3792},
	"nasarawa":    {Lat: 8.5400, Lon: 8.3100},
	"niger":       {Lat: 9.6139, Lon: 6.5569},
	"ogun":        {Lat: 6.9082, Lon: 3.3470},
	"ondo":        {Lat: 7.2571, Lon: 5.2058},
	"osun":        {Lat: 7.5629, Lon: 4.5200},
	"oyo":         {Lat: 7.8451, Lon: 3.9318},
	"plateau":     {Lat: 9.2182, Lon: 9.5179},
	"rivers":      {Lat: 4.8156, Lon: 7.0498},
	"sokoto":      {Lat: 13.0622, Lon: 5.2339},
	"taraba":      {Lat: 7.9897, Lon: 10.7739},
	"yobe":        {Lat: 12.2941, Lon: 11.9661},
	"zamfara":     {Lat: 12.1704, Lon: 6.6594},
	"fct":         {Lat: 9.0765, Lon: 7.3986},
	"abuja":       {Lat: 9.0765, Lon: 7.3986},
}

// eventTypeKeywords maps an event type to the keywords that indicate it.
// Checked in declaration order so "clash" wins over more generic terms
// when text matches several categories.
var eventTypeKeywords = []struct {
	eventType domain.ConflictType
	keywords  []string
}{
	{domain.ConflictTypeClash, []string{"clash", "clashes", "fighting", "battle", "combat"}},
	{domain.ConflictTypeProtest, []string{"protest", "demonstration", "rally", "march"}},
	{domain.ConflictTypeCrime, []string{"bandit", "bandits", "armed gang", "kidnap", "abduct", "hostage"}},
	{domain.ConflictTypeSecurity, []string{"boko haram", "iswap", "terrorist", "insurgent"}},
	{domain.ConflictTypeSocial, []string{"communal", "ethnic", "tribal"}},
	{domain.ConflictTypeViolence, []string{"violence", "violent", "killing", "killed", "death", "attack", "attacked", "assault", "raid", "strike"}},
}

// categoryKeywords maps a categorization label to its detection keywords
// and the confidence the fallback reports when one matches.
var categoryKeywords = []struct {
	category   string
	confidence int
	keywords   []string
}{
	{CategoryFarmerHerderClashes, 60, []string{"herder", "herders", "farmer", "farmers", "pastoralist", "grazing", "cattle rustling"}},
	{CategoryBanditry, 70, []string{"bandit", "bandits", "armed gang", "armed robbery"}},
	{CategoryKidnapping, 75, []string{"kidnap", "abduct", "hostage", "ransom"}},
	{CategoryGunmenViolence, 65, []string{"gunmen", "gunman", "unidentified armed men", "shooting"}},
}

var lgaPatterns = map[string][]string{
	"Lagos":  {"ikeja", "surulere", "lagos island", "eti-osa", "alimosho"},
	"Borno":  {"maiduguri", "bama", "gwoza", "konduga"},
	"Kaduna": {"kaduna north", "kaduna south", "zaria", "kafanchan"},
	"Kano":   {"kano municipal", "nassarawa", "fagge"},
	"Rivers": {"port harcourt", "obio-akpor", "eleme"},
	"Plateau": {"jos north", "jos south", "barkin ladi"},
	"Abuja":  {"abuja municipal", "gwagwalada", "bwari"},
}

var farmerHerderKeywords = []string{"herder", "herders", "farmer", "farmers", "pastoralist", "grazing"}

// RuleExtractor recovers a best-effort ExtractionResult and CategorizationResult
// purely from keyword matching, used when the model call fails or the
// circuit breaker is open.
type RuleExtractor struct{}

// NewRuleExtractor builds a keyword-based fallback extractor.
func NewRuleExtractor() *RuleExtractor { return &RuleExtractor{} }

// Extract returns nil if the combined text shows no conflict-related
// keyword at all, matching spec.md §4.2's "skipped silently" behavior.
func (RuleExtractor) Extract(title, content string) *ExtractionResult {
	text := strings.ToLower(title + " " + content)

	if !hasAnyConflictKeyword(text) {
		return nil
	}

	state := extractState(text)
	eventType := extractEventType(text)
	severity := extractSeverity(text)
	lga := extractLGA(text, state)
	coords := stateCoordinates[strings.ToLower(state)]

	lat, lon := coords.Lat, coords.Lon

	result := &ExtractionResult{
		EventType: eventType,
		State:     state,
		LGA:       lga,
		Severity:  severity,
		Latitude:  &lat,
		Longitude: &lon,
		Driver:    domain.DriverUnknown,
	}

	if containsAny(text, farmerHerderKeywords) {
		result.Driver = domain.DriverFarmerHerder
	}

	return result
}

// Categorize returns the fallback categorization label and confidence for
// the combined article text.
func (RuleExtractor) Categorize(title, content string) CategorizationResult {
	text := strings.ToLower(title + " " + content)
	for _, c := range categoryKeywords {
		if containsAny(text, c.keywords) {
			return CategorizationResult{Category: c.category, Confidence: c.confidence}
		}
	}
	return CategorizationResult{Category: domain.CategoryUnknown, Confidence: 20}
}

func hasAnyConflictKeyword(text string) bool {
	for _, group := range eventTypeKeywords {
		if containsAny(text, group.keywords) {
			return true
		}
	}
	return false
}

func extractState(text string) string {
	for state := range stateCoordinates {
		if state == "fct" || state == "abuja" {
			continue
		}
		if strings.Contains(text, state) {
			return toTitle(state)
		}
	}
	if strings.Contains(text, "abuja") || strings.Contains(text, "fct") {
		return "Abuja"
	}
	return "Nigeria"
}

func extractEventType(text string) domain.ConflictType {
	for _, group := range eventTypeKeywords {
		if containsAny(text, group.keywords) {
			return group.eventType
		}
	}
	return domain.ConflictTypeConflict
}

func extractSeverity(text string) domain.Severity {
	switch {
	case containsAny(text, []string{"killed", "death", "massacre", "slaughter", "bomb"}):
		return domain.SeverityCritical
	case containsAny(text, []string{"injured", "wounded", "attack", "assault", "kidnap"}):
		return domain.SeverityHigh
	case containsAny(text, []string{"protest", "clash", "tension"}):
		return domain.SeverityMedium
	default:
		return domain.SeverityLow
	}
}

func extractLGA(text, state string) string {
	for _, lga := range lgaPatterns[state] {
		if strings.Contains(text, lga) {
			return toTitle(lga)
		}
	}
	return state + " Central"
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

func toTitle(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		if len(w) > 0 {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}
