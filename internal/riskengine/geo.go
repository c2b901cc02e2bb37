package riskengine

import (
	"math"

	"github.com/nextier/signal-engine/internal/domain"
)

// haversineDistanceKM returns the great-circle distance between two
// lat/lon points in kilometers.
func haversineDistanceKM(lat1, lon1, lat2, lon2 float64) float64 {
	const earthRadiusKM = 6371.0

	lat1Rad := lat1 * math.Pi / 180
	lon1Rad := lon1 * math.Pi / 180
	lat2Rad := lat2 * math.Pi / 180
	lon2Rad := lon2 * math.Pi / 180

	dLat := lat2Rad - lat1Rad
	dLon := lon2Rad - lon1Rad

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Asin(math.Sqrt(a))

	return earthRadiusKM * c
}

// pointInPolygon reports whether (lat, lon) falls inside the polygon
// described by ring, using the standard ray-casting algorithm. Used as a
// fallback climate-zone lookup when no exact state/LGA match exists in the
// reference table.
func pointInPolygon(lat, lon float64, ring []domain.LatLon) bool {
	inside := false
	n := len(ring)
	if n < 3 {
		return false
	}
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		pi, pj := ring[i], ring[j]
		intersects := (pi.Lat > lat) != (pj.Lat > lat) &&
			lon < (pj.Lon-pi.Lon)*(lat-pi.Lat)/(pj.Lat-pi.Lat)+pi.Lon
		if intersects {
			inside = !inside
		}
	}
	return inside
}
