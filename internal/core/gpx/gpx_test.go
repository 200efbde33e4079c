package gpx_test

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/samirrijal/gpxcorpus/internal/core/domain"
	"github.com/samirrijal/gpxcorpus/internal/core/gpx"
)

const sampleGPX = `<?xml version="1.0" encoding="UTF-8"?>
<gpx version="1.1" creator="bike-logger" xmlns="http://www.topografix.com/GPX/1/1">
  <metadata><name>ignored</name><time>2024-01-01T00:00:00Z</time></metadata>
  <wpt lat="43.2630" lon="-2.9350">
    <ele>19.5</ele>
    <name>Abando</name>
    <sym>Flag</sym>
  </wpt>
  <rte>
    <name>Ria</name>
    <desc>along the river</desc>
    <rtept lat="43.2630" lon="-2.9350"><name>start</name></rtept>
    <rtept lat="43.2680" lon="-2.9400"/>
    <extensions><speed>12</speed></extensions>
  </rte>
  <trk>
    <name>Loop</name>
    <trkseg>
      <trkpt lat="43.0" lon="-2.0"/>
      <trkpt lat="43.1" lon="-2.0"/>
    </trkseg>
    <trkseg>
      <trkpt lat="43.0" lon="-2.0"><time>2024-01-01T00:00:00Z</time></trkpt>
    </trkseg>
  </trk>
</gpx>
`

var equateEmpty = cmpopts.EquateEmpty()

func TestParse_Sample(t *testing.T) {
	doc, err := gpx.Parse([]byte(sampleGPX))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ele := 19.5
	want := &domain.Document{
		Version:   1.1,
		Creator:   "bike-logger",
		Namespace: domain.DefaultNamespace,
		Waypoints: []domain.Waypoint{{
			Lat: 43.263, Lon: -2.935, Elevation: &ele, Name: "Abando",
			Extras: []domain.Extra{{Name: "sym", Value: "Flag"}},
		}},
		Routes: []domain.Route{{
			Name:   "Ria",
			Extras: []domain.Extra{{Name: "desc", Value: "along the river"}},
			Points: []domain.Waypoint{
				{Lat: 43.263, Lon: -2.935, Name: "start"},
				{Lat: 43.268, Lon: -2.94},
			},
		}},
		Tracks: []domain.Track{{
			Name: "Loop",
			Segments: []domain.TrackSegment{
				{Points: []domain.Waypoint{{Lat: 43, Lon: -2}, {Lat: 43.1, Lon: -2}}},
				{Points: []domain.Waypoint{{Lat: 43, Lon: -2, Extras: []domain.Extra{{Name: "time", Value: "2024-01-01T00:00:00Z"}}}}},
			},
		}},
	}
	if diff := cmp.Diff(want, doc, equateEmpty); diff != "" {
		t.Errorf("parsed document mismatch (-want +got):\n%s", diff)
	}

	if !doc.Tracks[0].IsLoop() {
		t.Error("expected track to be a loop across segments")
	}
	if doc.Tracks[0].NumPoints() != 3 {
		t.Errorf("expected 3 track points, got %d", doc.Tracks[0].NumPoints())
	}
}

func TestParse_MissingNamespaceGetsDefault(t *testing.T) {
	doc, err := gpx.Parse([]byte(`<gpx version="1.0" creator="x"></gpx>`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Namespace != domain.DefaultNamespace {
		t.Errorf("expected default namespace, got %q", doc.Namespace)
	}
	if !doc.IsEmpty() {
		t.Error("expected empty document")
	}
}

func TestParse_Malformed(t *testing.T) {
	cases := map[string]string{
		"empty":            "",
		"whitespace":       "  \n ",
		"not xml":          "hello world",
		"truncated":        `<gpx version="1.1" creator="x"><wpt lat="1" lon="1">`,
		"mismatched tags":  `<gpx version="1.1" creator="x"><rte></trk></gpx>`,
		"wrong root":       `<kml version="1.1" creator="x"></kml>`,
		"missing version":  `<gpx creator="x"></gpx>`,
		"bad version":      `<gpx version="one" creator="x"></gpx>`,
		"negative version": `<gpx version="-1.1" creator="x"></gpx>`,
		"missing creator":  `<gpx version="1.1"></gpx>`,
		"empty creator":    `<gpx version="1.1" creator=""></gpx>`,
		"missing lat":      `<gpx version="1.1" creator="x"><wpt lon="1"/></gpx>`,
		"lat out of range": `<gpx version="1.1" creator="x"><wpt lat="90.5" lon="1"/></gpx>`,
		"lon not numeric":  `<gpx version="1.1" creator="x"><rte><rtept lat="1" lon="east"/></rte></gpx>`,
		"trkpt lon range":  `<gpx version="1.1" creator="x"><trk><trkseg><trkpt lat="1" lon="181"/></trkseg></trk></gpx>`,
		"bad elevation":    `<gpx version="1.1" creator="x"><wpt lat="1" lon="1"><ele>high</ele></wpt></gpx>`,
		"second root":      `<gpx version="1.1" creator="x"></gpx><gpx version="1.1" creator="y"></gpx>`,
		"trailing text":    `<gpx version="1.1" creator="x"></gpx>junk`,
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := gpx.Parse([]byte(input))
			if !errors.Is(err, domain.ErrMalformedDocument) {
				t.Fatalf("expected ErrMalformedDocument, got %v", err)
			}
		})
	}
}

func TestParseContext_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := gpx.ParseContext(ctx, []byte(sampleGPX))
	if !errors.Is(err, domain.ErrMalformedDocument) {
		t.Fatalf("expected ErrMalformedDocument, got %v", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected wrapped context.Canceled, got %v", err)
	}
}

func TestSerialize_RoundTrip(t *testing.T) {
	doc, err := domain.NewDocument("1.1", `tool "A" & <B>`)
	if err != nil {
		t.Fatal(err)
	}
	ele := -3.25
	doc.Waypoints = append(doc.Waypoints, domain.Waypoint{
		Lat: -33.8688, Lon: 151.2093, Elevation: &ele, Name: "Sydney <harbour>",
		Extras: []domain.Extra{{Name: "cmt", Value: "fish & chips"}},
	})
	if err := doc.AddRoute("R1", []domain.GeoPoint{{Lat: 0, Lon: 0}, {Lat: 0.000001, Lon: -179.999999}}); err != nil {
		t.Fatal(err)
	}
	if err := doc.AddRoute("", []domain.GeoPoint{{Lat: 90, Lon: 180}}); err != nil {
		t.Fatal(err)
	}
	doc.Tracks = append(doc.Tracks, domain.Track{
		Name:   "T",
		Extras: []domain.Extra{{Name: "type", Value: "cycling"}},
		Segments: []domain.TrackSegment{
			{Points: []domain.Waypoint{{Lat: 1, Lon: 2}, {Lat: 3, Lon: 4}}},
			{Points: []domain.Waypoint{{Lat: 5, Lon: 6}}},
		},
	})

	data, err := gpx.Serialize(doc)
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	back, err := gpx.Parse(data)
	if err != nil {
		t.Fatalf("parse serialized output: %v\n%s", err, data)
	}
	if diff := cmp.Diff(doc, back, equateEmpty); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestSerialize_RoundTripKeepsWhitespace(t *testing.T) {
	doc, err := domain.NewDocument("1.1", " Tester ")
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{" R2 ", "R2\n", "\tlead", "line\r\nbreak", " "} {
		if err := doc.AddRoute(name, []domain.GeoPoint{{Lat: 10, Lon: 10}, {Lat: 20, Lon: 20}}); err != nil {
			t.Fatalf("add route %q: %v", name, err)
		}
	}
	doc.Routes[0].Extras = []domain.Extra{{Name: "desc", Value: "  padded  "}}
	doc.Waypoints = append(doc.Waypoints, domain.Waypoint{
		Lat: 1, Lon: 1, Name: "  spaced  ",
		Extras: []domain.Extra{{Name: "cmt", Value: "\n\tindented\n"}},
	})

	data, err := gpx.Serialize(doc)
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	back, err := gpx.Parse(data)
	if err != nil {
		t.Fatalf("parse serialized output: %v\n%s", err, data)
	}
	if diff := cmp.Diff(doc, back, equateEmpty); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestSerialize_RejectsUnrepresentableText(t *testing.T) {
	bad := []string{"\x01bell", "bad\xffutf8", "nul\x00", "\ufffe"}

	for _, s := range bad {
		doc, _ := domain.NewDocument("1.1", "me")
		if err := doc.AddRoute(s, []domain.GeoPoint{{Lat: 0, Lon: 0}}); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("AddRoute(%q): expected ErrInvalidArgument, got %v", s, err)
		}

		docs := map[string]*domain.Document{
			"waypoint name": {Version: 1.1, Creator: "me", Waypoints: []domain.Waypoint{{Name: s}}},
			"route name":    {Version: 1.1, Creator: "me", Routes: []domain.Route{{Name: s}}},
			"track name":    {Version: 1.1, Creator: "me", Tracks: []domain.Track{{Name: s}}},
			"extra value":   {Version: 1.1, Creator: "me", Routes: []domain.Route{{Extras: []domain.Extra{{Name: "desc", Value: s}}}}},
			"creator":       {Version: 1.1, Creator: "me" + s},
		}
		for where, d := range docs {
			if _, err := gpx.Serialize(d); !errors.Is(err, domain.ErrInvalidArgument) {
				t.Errorf("%s %q: expected ErrInvalidArgument, got %v", where, s, err)
			}
		}
	}
}

func TestSerialize_NegativeZeroVersion(t *testing.T) {
	doc := &domain.Document{Version: math.Copysign(0, -1), Creator: "me"}
	data, err := gpx.Serialize(doc)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `version="0.0"`) {
		t.Errorf("expected version 0.0:\n%s", data)
	}
}

func TestSerialize_CreateAddRouteScenario(t *testing.T) {
	doc, _ := domain.NewDocument("1.1", "me")
	if err := doc.AddRoute("R", []domain.GeoPoint{{Lat: 1, Lon: 1}, {Lat: 2, Lon: 2}}); err != nil {
		t.Fatal(err)
	}
	data, err := gpx.Serialize(doc)
	if err != nil {
		t.Fatal(err)
	}
	back, err := gpx.Parse(data)
	if err != nil {
		t.Fatal(err)
	}
	s := back.Summary()
	if s.NumWaypoints != 0 || s.NumRoutes != 1 || s.NumTracks != 0 {
		t.Errorf("unexpected counts: %+v", s)
	}
	r := back.Routes[0]
	if r.Name != "R" || r.NumPoints() != 2 {
		t.Errorf("unexpected route: %+v", r)
	}
	if r.Points[0].Lat != 1 || r.Points[1].Lon != 2 {
		t.Errorf("unexpected points: %+v", r.Points)
	}
}

func TestSerialize_Format(t *testing.T) {
	doc, _ := domain.NewDocument("1", "me")
	doc.Waypoints = append(doc.Waypoints, domain.Waypoint{Lat: 1.5, Lon: -2, Name: "a<b"})

	data, err := gpx.Serialize(doc)
	if err != nil {
		t.Fatal(err)
	}
	out := string(data)
	if !strings.HasPrefix(out, `<?xml version="1.0" encoding="UTF-8"?>`) {
		t.Errorf("missing xml declaration:\n%s", out)
	}
	if !strings.Contains(out, `version="1.0"`) {
		t.Errorf("expected version 1.0 in output:\n%s", out)
	}
	if !strings.Contains(out, `xmlns="`+domain.DefaultNamespace+`"`) {
		t.Errorf("expected default namespace:\n%s", out)
	}
	if !strings.Contains(out, `<wpt lat="1.5" lon="-2">`) {
		t.Errorf("unexpected waypoint encoding:\n%s", out)
	}
	if !strings.Contains(out, "<name>a&lt;b</name>") {
		t.Errorf("expected escaped name:\n%s", out)
	}
}

func TestSerialize_Invalid(t *testing.T) {
	if _, err := gpx.Serialize(nil); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument for nil, got %v", err)
	}

	doc := &domain.Document{Version: 1.1}
	if _, err := gpx.Serialize(doc); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument for missing creator, got %v", err)
	}

	for _, name := range []string{"bad name", "1abc", "ns:tag", "ele", "name"} {
		doc := &domain.Document{Version: 1.1, Creator: "x", Waypoints: []domain.Waypoint{{
			Extras: []domain.Extra{{Name: name, Value: "v"}},
		}}}
		if _, err := gpx.Serialize(doc); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("extra %q: expected ErrInvalidArgument, got %v", name, err)
		}
	}
}
