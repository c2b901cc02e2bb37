package classifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nextier/signal-engine/internal/domain"
)

func TestRuleExtractor_Extract_NoConflictSignalReturnsNil(t *testing.T) {
	e := NewRuleExtractor()
	result := e.Extract("Local football team wins tournament", "The championship game ended 3-1 with no incidents.")
	assert.Nil(t, result)
}

func TestRuleExtractor_Extract_ClashInBenue(t *testing.T) {
	e := NewRuleExtractor()
	result := e.Extract("Clash reported in Benue", "Herders and farmers clashed near Makurdi, several killed.")
	require.NotNil(t, result)

	assert.Equal(t, domain.ConflictTypeClash, result.EventType)
	assert.Equal(t, "Benue", result.State)
	assert.Equal(t, domain.SeverityCritical, result.Severity)
	assert.Equal(t, domain.DriverFarmerHerder, result.Driver)
	require.NotNil(t, result.Latitude)
	require.NotNil(t, result.Longitude)
}

func TestRuleExtractor_Extract_DefaultsToNigeriaWithoutState(t *testing.T) {
	e := NewRuleExtractor()
	result := e.Extract("Violence erupts overnight", "Gunmen killed several people in an overnight attack.")
	require.NotNil(t, result)
	assert.Equal(t, "Nigeria", result.State)
}

func TestRuleExtractor_Categorize_FarmerHerder(t *testing.T) {
	e := NewRuleExtractor()
	result := e.Categorize("Herder-farmer dispute turns violent", "Cattle rustling led to a violent confrontation over grazing land.")
	assert.Equal(t, CategoryFarmerHerderClashes, result.Category)
	assert.Equal(t, 60, result.Confidence)
}

func TestRuleExtractor_Categorize_UnknownFallback(t *testing.T) {
	e := NewRuleExtractor()
	result := e.Categorize("Market prices rise", "Traders report increased cost of goods this week.")
	assert.Equal(t, domain.CategoryUnknown, result.Category)
	assert.Equal(t, 20, result.Confidence)
}
