package pathfind_test

import (
	"errors"
	"math"
	"testing"

	"github.com/samirrijal/gpxcorpus/internal/core/domain"
	"github.com/samirrijal/gpxcorpus/internal/core/pathfind"
)

func route(name string, pts ...domain.GeoPoint) domain.Route {
	r := domain.Route{Name: name}
	for _, p := range pts {
		r.Points = append(r.Points, domain.Waypoint{Lat: p.Lat, Lon: p.Lon})
	}
	return r
}

func track(name string, segs ...[]domain.GeoPoint) domain.Track {
	t := domain.Track{Name: name}
	for _, s := range segs {
		var seg domain.TrackSegment
		for _, p := range s {
			seg.Points = append(seg.Points, domain.Waypoint{Lat: p.Lat, Lon: p.Lon})
		}
		t.Segments = append(t.Segments, seg)
	}
	return t
}

var (
	a = domain.GeoPoint{Lat: 0, Lon: 0}
	b = domain.GeoPoint{Lat: 0, Lon: 1}
	c = domain.GeoPoint{Lat: 5, Lon: 5}
)

func TestFindPaths_Scenario(t *testing.T) {
	docs := []domain.NamedDocument{{
		ID:       "f.gpx",
		Document: &domain.Document{Routes: []domain.Route{route("R", a, b)}},
	}}

	got, err := pathfind.FindPaths(docs, a, b, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 match, got %d", len(got))
	}
	m := got[0]
	if m.SourceDocument != "f.gpx" || m.Name != "R" || m.Component != domain.ComponentRoute {
		t.Errorf("unexpected match: %+v", m)
	}
	if m.NumPoints != 2 || m.Loop {
		t.Errorf("unexpected derived values: %+v", m)
	}
	want := 6371e3 * math.Pi / 180
	if math.Abs(m.Length-want) > 0.01 {
		t.Errorf("expected length %.2f, got %.2f", want, m.Length)
	}

	none, err := pathfind.FindPaths(docs, a, c, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("expected no matches, got %d", len(none))
	}
}

func TestFindPaths_Symmetric(t *testing.T) {
	docs := []domain.NamedDocument{{
		ID: "x.gpx",
		Document: &domain.Document{
			Routes: []domain.Route{route("R", a, c, b)},
			Tracks: []domain.Track{track("T", []domain.GeoPoint{b, c}, []domain.GeoPoint{a})},
		},
	}}

	fwd, err := pathfind.FindPaths(docs, a, b, 10)
	if err != nil {
		t.Fatal(err)
	}
	rev, err := pathfind.FindPaths(docs, b, a, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(fwd) != 2 || len(rev) != 2 {
		t.Fatalf("expected 2 matches both ways, got %d and %d", len(fwd), len(rev))
	}
	for i := range fwd {
		if fwd[i] != rev[i] {
			t.Errorf("match %d differs: %+v vs %+v", i, fwd[i], rev[i])
		}
	}
	if fwd[0].Component != domain.ComponentRoute || fwd[1].Component != domain.ComponentTrack {
		t.Errorf("routes must come before tracks: %+v", fwd)
	}
}

func TestFindPaths_Order(t *testing.T) {
	docs := []domain.NamedDocument{
		{ID: "1.gpx", Document: &domain.Document{
			Tracks: []domain.Track{track("t1", []domain.GeoPoint{a, b})},
			Routes: []domain.Route{route("r1", a, b), route("r2", b, a)},
		}},
		{ID: "2.gpx", Document: &domain.Document{Routes: []domain.Route{route("r3", a, b)}}},
	}

	got, err := pathfind.FindPaths(docs, a, b, 1)
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, m := range got {
		names = append(names, m.SourceDocument+"/"+m.Name)
	}
	want := []string{"1.gpx/r1", "1.gpx/r2", "1.gpx/t1", "2.gpx/r3"}
	if len(names) != len(want) {
		t.Fatalf("expected %v, got %v", want, names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("position %d: expected %s, got %s", i, want[i], names[i])
		}
	}
}

func TestFindPaths_DeltaBoundary(t *testing.T) {
	near := domain.GeoPoint{Lat: 0, Lon: 0.0001} // ~11.1 m from a
	docs := []domain.NamedDocument{{ID: "d", Document: &domain.Document{
		Routes: []domain.Route{route("R", near, b)},
	}}}

	got, _ := pathfind.FindPaths(docs, a, b, 0)
	if len(got) != 0 {
		t.Errorf("delta 0 must require exact endpoints, got %d matches", len(got))
	}
	got, _ = pathfind.FindPaths(docs, a, b, 11)
	if len(got) != 0 {
		t.Errorf("11 m delta must not reach ~11.12 m, got %d matches", len(got))
	}
	got, _ = pathfind.FindPaths(docs, a, b, 12)
	if len(got) != 1 {
		t.Errorf("12 m delta must match, got %d matches", len(got))
	}
}

func TestFindPaths_SkipsShortComponents(t *testing.T) {
	docs := []domain.NamedDocument{{ID: "d", Document: &domain.Document{
		Routes: []domain.Route{route("single", a), route("empty")},
		Tracks: []domain.Track{track("short", []domain.GeoPoint{a})},
	}}}
	got, err := pathfind.FindPaths(docs, a, a, 100)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("components with fewer than 2 points must not match, got %+v", got)
	}
}

func TestFindPaths_InvalidArguments(t *testing.T) {
	cases := []struct {
		name     string
		src, dst domain.GeoPoint
		delta    float64
	}{
		{"negative delta", a, b, -1},
		{"nan delta", a, b, math.NaN()},
		{"bad source", domain.GeoPoint{Lat: 91}, b, 1},
		{"bad destination", a, domain.GeoPoint{Lon: 200}, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := pathfind.FindPaths(nil, tc.src, tc.dst, tc.delta)
			if !errors.Is(err, domain.ErrInvalidArgument) {
				t.Fatalf("expected ErrInvalidArgument, got %v", err)
			}
		})
	}
}

func TestFindPaths_EmptyCorpus(t *testing.T) {
	got, err := pathfind.FindPaths(nil, a, b, 5)
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil result, got %#v", got)
	}
}
