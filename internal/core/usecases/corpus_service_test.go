package usecases_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/samirrijal/gpxcorpus/internal/core/domain"
	"github.com/samirrijal/gpxcorpus/internal/core/usecases"
)

func TestCorpusService_ListDocumentsSkipsBrokenFiles(t *testing.T) {
	store := newMockStore(map[string]string{
		"a.gpx":      ridgeGPX,
		"b.gpx":      "<gpx version=\"1.1\"",
		"c.gpx":      valleyGPX,
		"d.gpx":      `<gpx version="1.1"></gpx>`,
		"empty.gpx":  emptyGPX,
		"nogpx.gpx":  `<kml/>`,
		"zz-bad.gpx": `<gpx version="x" creator="me"/>`,
	})
	svc := usecases.NewCorpusService(store, usecases.CorpusOptions{Workers: 2})

	docs, err := svc.ListDocuments(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var ids []string
	for _, nd := range docs {
		ids = append(ids, nd.ID)
	}
	if got := strings.Join(ids, ","); got != "a.gpx,c.gpx,empty.gpx" {
		t.Errorf("expected a.gpx,c.gpx,empty.gpx in order, got %s", got)
	}
}

func TestCorpusService_ListDocumentsListError(t *testing.T) {
	store := newMockStore(nil)
	store.listFn = func(ctx context.Context) ([]string, error) {
		return nil, domain.ErrIO
	}
	svc := usecases.NewCorpusService(store, usecases.DefaultCorpusOptions())

	if _, err := svc.ListDocuments(context.Background()); !errors.Is(err, domain.ErrIO) {
		t.Fatalf("expected ErrIO, got %v", err)
	}
}

func TestCorpusService_ListDocumentsCancelled(t *testing.T) {
	store := newMockStore(map[string]string{"a.gpx": ridgeGPX})
	svc := usecases.NewCorpusService(store, usecases.DefaultCorpusOptions())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := svc.ListDocuments(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestCorpusService_ListSummaries(t *testing.T) {
	store := newMockStore(map[string]string{
		"a.gpx":     ridgeGPX,
		"c.gpx":     valleyGPX,
		"empty.gpx": emptyGPX,
	})

	svc := usecases.NewCorpusService(store, usecases.DefaultCorpusOptions())
	entries, err := svc.ListSummaries(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	first := entries[0]
	if first.ID != "a.gpx" || first.NumWaypoints != 1 || first.NumRoutes != 1 || first.NumTracks != 0 {
		t.Errorf("unexpected first entry: %+v", first)
	}
	if entries[1].Version != 1.0 || entries[1].Creator != "other" {
		t.Errorf("unexpected second entry: %+v", entries[1])
	}

	withEmpty := usecases.NewCorpusService(store, usecases.CorpusOptions{IncludeEmpty: true})
	entries, err = withEmpty.ListSummaries(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 3 {
		t.Errorf("expected 3 entries with IncludeEmpty, got %d", len(entries))
	}
}

func TestCorpusService_SearchCorpus(t *testing.T) {
	store := newMockStore(map[string]string{
		"a.gpx": ridgeGPX,
		"c.gpx": valleyGPX,
	})
	svc := usecases.NewCorpusService(store, usecases.DefaultCorpusOptions())

	matches, err := svc.SearchCorpus(context.Background(),
		domain.GeoPoint{Lat: 0, Lon: 0}, domain.GeoPoint{Lat: 0, Lon: 1}, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(matches))
	}
	if matches[0].SourceDocument != "a.gpx" || matches[0].Component != domain.ComponentRoute || matches[0].Name != "ridge" {
		t.Errorf("unexpected first match: %+v", matches[0])
	}
	if matches[1].SourceDocument != "c.gpx" || matches[1].Component != domain.ComponentTrack || matches[1].NumPoints != 3 {
		t.Errorf("unexpected second match: %+v", matches[1])
	}
}

const fileAGPX = `<gpx version="1.1" creator="me">
  <rte><name>R1</name><rtept lat="43.0" lon="-80.0"/><rtept lat="43.5" lon="-80.5"/></rte>
</gpx>`

func twoFileCorpus() *mockStore {
	return newMockStore(map[string]string{
		"fileA.gpx": fileAGPX,
		"fileB.gpx": emptyGPX,
	})
}

func TestCorpusService_ListSummariesSkipsEmptyDocument(t *testing.T) {
	svc := usecases.NewCorpusService(twoFileCorpus(), usecases.DefaultCorpusOptions())

	entries, err := svc.ListSummaries(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []domain.CorpusEntry{{
		ID:      "fileA.gpx",
		Summary: domain.Summary{Version: 1.1, Creator: "me", NumRoutes: 1},
	}}
	if diff := cmp.Diff(want, entries); diff != "" {
		t.Errorf("listing mismatch (-want +got):\n%s", diff)
	}
}

func TestCorpusService_SearchCorpusEndpoints(t *testing.T) {
	svc := usecases.NewCorpusService(twoFileCorpus(), usecases.DefaultCorpusOptions())
	ctx := context.Background()

	matches, err := svc.SearchCorpus(ctx,
		domain.GeoPoint{Lat: 43.0, Lon: -80.0}, domain.GeoPoint{Lat: 43.5, Lon: -80.5}, 0.01)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(matches))
	}
	m := matches[0]
	if m.SourceDocument != "fileA.gpx" || m.Component != domain.ComponentRoute || m.Name != "R1" || m.NumPoints != 2 {
		t.Errorf("unexpected match: %+v", m)
	}

	// Endpoints match in either direction.
	matches, err = svc.SearchCorpus(ctx,
		domain.GeoPoint{Lat: 43.5, Lon: -80.5}, domain.GeoPoint{Lat: 43.0, Lon: -80.0}, 0.01)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(matches) != 1 {
		t.Errorf("expected reversed endpoints to match, got %+v", matches)
	}

	matches, err = svc.SearchCorpus(ctx,
		domain.GeoPoint{Lat: 0, Lon: 0}, domain.GeoPoint{Lat: 1, Lon: 1}, 0.01)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("expected empty result, got %+v", matches)
	}
}

func TestCorpusService_ListingIsRepeatable(t *testing.T) {
	store := newMockStore(map[string]string{
		"a.gpx":     ridgeGPX,
		"c.gpx":     valleyGPX,
		"fileA.gpx": fileAGPX,
		"fileB.gpx": emptyGPX,
		"bad.gpx":   `<gpx version="1.1"`,
	})
	svc := usecases.NewCorpusService(store, usecases.CorpusOptions{Workers: 3})
	ctx := context.Background()

	first, err := svc.ListSummaries(ctx)
	if err != nil {
		t.Fatalf("first listing: %v", err)
	}
	second, err := svc.ListSummaries(ctx)
	if err != nil {
		t.Fatalf("second listing: %v", err)
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("summaries changed between calls (-first +second):\n%s", diff)
	}

	docs1, err := svc.ListDocuments(ctx)
	if err != nil {
		t.Fatalf("first documents: %v", err)
	}
	docs2, err := svc.ListDocuments(ctx)
	if err != nil {
		t.Fatalf("second documents: %v", err)
	}
	if diff := cmp.Diff(docs1, docs2); diff != "" {
		t.Errorf("documents changed between calls (-first +second):\n%s", diff)
	}
	if store.writes != 0 {
		t.Errorf("listing must not write, got %d writes", store.writes)
	}
}

func TestCorpusService_SearchCorpusValidatesFirst(t *testing.T) {
	store := newMockStore(nil)
	listed := false
	store.listFn = func(ctx context.Context) ([]string, error) {
		listed = true
		return nil, nil
	}
	svc := usecases.NewCorpusService(store, usecases.DefaultCorpusOptions())

	_, err := svc.SearchCorpus(context.Background(),
		domain.GeoPoint{Lat: 95, Lon: 0}, domain.GeoPoint{Lat: 0, Lon: 0}, 1)
	if !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
	if listed {
		t.Error("corpus must not be read for invalid arguments")
	}
}

func TestCorpusService_GetDocument(t *testing.T) {
	store := newMockStore(map[string]string{
		"a.gpx":   ridgeGPX,
		"bad.gpx": "not xml",
	})
	svc := usecases.NewCorpusService(store, usecases.DefaultCorpusOptions())

	doc, err := svc.GetDocument(context.Background(), "a.gpx")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.RouteByName("ridge") == nil {
		t.Error("expected route ridge")
	}
	if _, err := svc.GetDocument(context.Background(), "bad.gpx"); !errors.Is(err, domain.ErrMalformedDocument) {
		t.Errorf("expected ErrMalformedDocument, got %v", err)
	}
	if _, err := svc.GetDocument(context.Background(), "missing.gpx"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestCorpusService_SizeLimit(t *testing.T) {
	store := newMockStore(map[string]string{"a.gpx": ridgeGPX})
	svc := usecases.NewCorpusService(store, usecases.CorpusOptions{MaxDocumentBytes: 16})

	if _, err := svc.GetDocument(context.Background(), "a.gpx"); !errors.Is(err, domain.ErrMalformedDocument) {
		t.Fatalf("expected ErrMalformedDocument, got %v", err)
	}
	if _, err := svc.GetRaw(context.Background(), "a.gpx"); !errors.Is(err, domain.ErrTooLarge) {
		t.Errorf("expected ErrTooLarge from GetRaw, got %v", err)
	}
	for _, l := range store.limits {
		if l != 16 {
			t.Errorf("store read with limit %d, want 16", l)
		}
	}
	docs, err := svc.ListDocuments(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(docs) != 0 {
		t.Errorf("oversized document must be skipped, got %d", len(docs))
	}
}

func TestCorpusService_LengthMatches(t *testing.T) {
	store := newMockStore(map[string]string{"a.gpx": ridgeGPX})
	svc := usecases.NewCorpusService(store, usecases.DefaultCorpusOptions())

	routes, tracks, err := svc.LengthMatches(context.Background(), "a.gpx", 111195, 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if routes != 1 || tracks != 0 {
		t.Errorf("expected 1 route and 0 tracks, got %d and %d", routes, tracks)
	}
	if _, _, err := svc.LengthMatches(context.Background(), "a.gpx", -1, 0); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
}
