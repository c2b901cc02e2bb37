package classifier

import (
	"strings"

	"github.com/nextier/signal-engine/internal/domain"
)

func conflictTypeFromString(s string) domain.ConflictType {
	ct := domain.ConflictType(strings.ToLower(strings.TrimSpace(s)))
	switch ct {
	case domain.ConflictTypeClash, domain.ConflictTypeConflict, domain.ConflictTypeViolence,
		domain.ConflictTypeProtest, domain.ConflictTypePolitical, domain.ConflictTypeSecurity,
		domain.ConflictTypeCrime, domain.ConflictTypeSports, domain.ConflictTypeEconomic,
		domain.ConflictTypeSocial:
		return ct
	default:
		return domain.ConflictTypeUnknown
	}
}

func severityFromString(s string) domain.Severity {
	sev := domain.Severity(strings.ToLower(strings.TrimSpace(s)))
	switch sev {
	case domain.SeverityCritical, domain.SeveritySevere, domain.SeverityHigh, domain.SeverityModerate,
		domain.SeverityMedium, domain.SeverityLow, domain.SeverityMinor:
		return sev
	default:
		return domain.SeverityUnknown
	}
}

func driverFromString(s string) domain.ConflictDriver {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "economic":
		return domain.ConflictDriver("economic")
	case "environmental":
		return domain.ConflictDriver("environmental")
	case "social":
		return domain.DriverCommunal
	default:
		return domain.DriverUnknown
	}
}
