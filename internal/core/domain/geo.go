package domain

import (
	"math"

	"github.com/samirrijal/gpxcorpus/internal/pkg/geospatial"
)

// LoopToleranceMeters is the maximum distance between the first and last
// point of a route or track for it to count as a loop.
const LoopToleranceMeters = 0.1

// GeoPoint represents a geographic coordinate (WGS 84).
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Validate reports whether the point lies within the WGS 84 coordinate range.
func (p GeoPoint) Validate() error {
	if !ValidLatitude(p.Lat) {
		return invalidf("latitude %v out of range", p.Lat)
	}
	if !ValidLongitude(p.Lon) {
		return invalidf("longitude %v out of range", p.Lon)
	}
	return nil
}

// DistanceTo returns the great-circle distance in meters.
func (p GeoPoint) DistanceTo(o GeoPoint) float64 {
	return geospatial.Haversine(p.Lat, p.Lon, o.Lat, o.Lon)
}

// Within reports whether o is at most meters away.
func (p GeoPoint) Within(o GeoPoint, meters float64) bool {
	return geospatial.WithinMeters(p.Lat, p.Lon, o.Lat, o.Lon, meters)
}

func ValidLatitude(lat float64) bool {
	return !math.IsNaN(lat) && lat >= -90 && lat <= 90
}

func ValidLongitude(lon float64) bool {
	return !math.IsNaN(lon) && lon >= -180 && lon <= 180
}

// PathLength sums the distances between consecutive points.
func PathLength(points []Waypoint) float64 {
	var total float64
	for i := 1; i < len(points); i++ {
		total += points[i-1].Point().DistanceTo(points[i].Point())
	}
	return total
}

// IsLoop reports whether a point sequence ends where it started.
// Fewer than two points is never a loop.
func IsLoop(points []Waypoint) bool {
	if len(points) < 2 {
		return false
	}
	return points[0].Point().Within(points[len(points)-1].Point(), LoopToleranceMeters)
}

// RoundToTen rounds a length in meters to the nearest 10.
func RoundToTen(meters float64) float64 {
	return math.Round(meters/10) * 10
}
