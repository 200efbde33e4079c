package geospatial

import "math"

const earthRadiusMeters = 6371e3

// Haversine calculates the great-circle distance in meters between two points.
// Identical inputs yield exactly 0.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusMeters * c
}

// WithinMeters reports whether two points are at most tolerance meters apart.
func WithinMeters(lat1, lon1, lat2, lon2, tolerance float64) bool {
	return Haversine(lat1, lon1, lat2, lon2) <= tolerance
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
