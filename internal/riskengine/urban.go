package riskengine

import "strings"

// urbanLGAs names the Local Government Areas dense enough that a fuel-price
// shock plausibly ignites unrest faster than in a rural LGA. There is no
// authoritative published list; this one is seeded from state-capital and
// major-metro LGAs across Nigeria's geopolitical zones.
var urbanLGAs = map[string]bool{
	"ikeja":          true,
	"lagos island":   true,
	"eti-osa":        true,
	"surulere":       true,
	"kano municipal": true,
	"nassarawa":      true,
	"port harcourt":  true,
	"obio/akpor":     true,
	"abuja municipal": true,
	"kaduna north":   true,
	"ibadan north":   true,
	"benin city":     true,
	"oredo":          true,
	"enugu north":    true,
	"warri south":    true,
	"jos north":      true,
	"calabar municipal": true,
	"maiduguri":      true,
	"sokoto north":   true,
	"uyo":            true,
}

// isUrbanLGA reports whether lga is in the urban reference set, matched
// case-insensitively.
func isUrbanLGA(lga string) bool {
	return urbanLGAs[strings.ToLower(strings.TrimSpace(lga))]
}
