package usecases_test

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/samirrijal/gpxcorpus/internal/core/domain"
)

// --- Mock CorpusStore ---

type mockStore struct {
	mu      sync.Mutex
	files   map[string][]byte
	listFn  func(ctx context.Context) ([]string, error)
	writeFn func(ctx context.Context, id string, data []byte) error
	writes  int
	limits  []int64
}

func newMockStore(files map[string]string) *mockStore {
	m := &mockStore{files: make(map[string][]byte)}
	for id, body := range files {
		m.files[id] = []byte(body)
	}
	return m
}

func (m *mockStore) ListIdentifiers(ctx context.Context) ([]string, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.files))
	for id := range m.files {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (m *mockStore) ReadBytes(ctx context.Context, id string, maxBytes int64) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.limits = append(m.limits, maxBytes)
	data, ok := m.files[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("%w: %s", domain.ErrTooLarge, id)
	}
	return data, nil
}

func (m *mockStore) WriteBytes(ctx context.Context, id string, data []byte) error {
	if m.writeFn != nil {
		if err := m.writeFn(ctx, id, data); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[id] = append([]byte(nil), data...)
	m.writes++
	return nil
}

func (m *mockStore) Exists(ctx context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.files[id]
	return ok, nil
}

// --- Mock EventPublisher ---

type mockPublisher struct {
	mu        sync.Mutex
	events    []domain.DocumentEvent
	publishFn func(ctx context.Context, e *domain.DocumentEvent) error
}

func (m *mockPublisher) PublishDocumentEvent(ctx context.Context, e *domain.DocumentEvent) error {
	if m.publishFn != nil {
		if err := m.publishFn(ctx, e); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, *e)
	return nil
}

// --- Mock MirrorRepository ---

type mockMirrorRepo struct {
	storeFn      func(ctx context.Context, id string, doc *domain.Document) error
	listRoutesFn func(ctx context.Context, order domain.RouteOrder) ([]domain.MirrorRoute, error)
	byDocFn      func(ctx context.Context, id string, order domain.RouteOrder) ([]domain.MirrorRoute, error)
	stored       []string
	cleared      bool
}

func (m *mockMirrorRepo) StoreDocument(ctx context.Context, id string, doc *domain.Document) error {
	if m.storeFn != nil {
		if err := m.storeFn(ctx, id, doc); err != nil {
			return err
		}
	}
	m.stored = append(m.stored, id)
	return nil
}

func (m *mockMirrorRepo) Clear(ctx context.Context) error {
	m.cleared = true
	m.stored = nil
	return nil
}

func (m *mockMirrorRepo) Status(ctx context.Context) (domain.MirrorStatus, error) {
	return domain.MirrorStatus{Files: len(m.stored)}, nil
}

func (m *mockMirrorRepo) ListRoutes(ctx context.Context, order domain.RouteOrder) ([]domain.MirrorRoute, error) {
	if m.listRoutesFn != nil {
		return m.listRoutesFn(ctx, order)
	}
	return nil, nil
}

func (m *mockMirrorRepo) ListRoutesByDocument(ctx context.Context, id string, order domain.RouteOrder) ([]domain.MirrorRoute, error) {
	if m.byDocFn != nil {
		return m.byDocFn(ctx, id, order)
	}
	return nil, nil
}

func (m *mockMirrorRepo) PointsByRouteName(ctx context.Context, name string) ([]domain.MirrorPoint, error) {
	return nil, nil
}

func (m *mockMirrorRepo) PointsByDocument(ctx context.Context, id string) ([]domain.MirrorPoint, error) {
	return nil, nil
}

// --- Fixtures ---

const emptyGPX = `<gpx version="1.1" creator="me"></gpx>`

const ridgeGPX = `<gpx version="1.1" creator="me" xmlns="http://www.topografix.com/GPX/1/1">
  <wpt lat="0" lon="0"><name>A</name></wpt>
  <rte><name>ridge</name><rtept lat="0" lon="0"/><rtept lat="0" lon="1"/></rte>
</gpx>`

const valleyGPX = `<gpx version="1.0" creator="other">
  <trk><name>valley</name><trkseg><trkpt lat="0" lon="1"/><trkpt lat="0.5" lon="0.5"/><trkpt lat="0" lon="0"/></trkseg></trk>
</gpx>`
