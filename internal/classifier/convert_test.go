package classifier

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nextier/signal-engine/internal/domain"
)

func TestConflictTypeFromString_UnknownOnInvalid(t *testing.T) {
	assert.Equal(t, domain.ConflictTypeClash, conflictTypeFromString("Clash"))
	assert.Equal(t, domain.ConflictTypeUnknown, conflictTypeFromString("not-a-type"))
}

func TestSeverityFromString_UnknownOnInvalid(t *testing.T) {
	assert.Equal(t, domain.SeverityHigh, severityFromString("High"))
	assert.Equal(t, domain.SeverityUnknown, severityFromString("catastrophic"))
}

func TestDriverFromString_MapsConflictDriverCategories(t *testing.T) {
	assert.Equal(t, domain.ConflictDriver("economic"), driverFromString("Economic"))
	assert.Equal(t, domain.DriverCommunal, driverFromString("Social"))
	assert.Equal(t, domain.DriverUnknown, driverFromString("Mystery"))
}

func TestExtractJSON_HandlesFencedAndBareForms(t *testing.T) {
	assert.Equal(t, `{"a":1}`, extractJSON("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, extractJSON(`some preamble {"a":1} trailing notes`))
	assert.Equal(t, `{"a":1}`, extractJSON(`{"a":1}`))
}
