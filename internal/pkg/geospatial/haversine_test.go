package geospatial

import (
	"math"
	"testing"
)

func TestHaversine(t *testing.T) {
	if d := Haversine(43.263, -2.935, 43.263, -2.935); d != 0 {
		t.Errorf("identical points must be 0 apart, got %v", d)
	}

	// one degree of longitude on the equator
	want := earthRadiusMeters * math.Pi / 180
	if d := Haversine(0, 0, 0, 1); math.Abs(d-want) > 1e-6 {
		t.Errorf("expected %.3f, got %.3f", want, d)
	}

	if d1, d2 := Haversine(10, 20, 30, 40), Haversine(30, 40, 10, 20); math.Abs(d1-d2) > 1e-9 {
		t.Errorf("distance not symmetric: %v vs %v", d1, d2)
	}
}

func TestHaversine_Antimeridian(t *testing.T) {
	d := Haversine(0, 179.9999, 0, -179.9999)
	if d > 30 {
		t.Errorf("expected points across the antimeridian to be close, got %.1f m", d)
	}
}

func TestWithinMeters(t *testing.T) {
	if !WithinMeters(0, 0, 0, 0, 0) {
		t.Error("zero tolerance must accept identical points")
	}
	if WithinMeters(0, 0, 0, 0.0001, 1) {
		t.Error("~11 m apart must not be within 1 m")
	}
}
