package usecases

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/samirrijal/gpxcorpus/internal/core/domain"
	"github.com/samirrijal/gpxcorpus/internal/core/ports"
	"github.com/samirrijal/gpxcorpus/internal/pkg/metrics"
	"github.com/samirrijal/gpxcorpus/internal/pkg/telemetry"
)

// MirrorService copies parsed corpus documents into relational storage and
// answers queries against the copy.
type MirrorService struct {
	corpus *CorpusService
	repo   ports.MirrorRepository
}

// NewMirrorService creates a new MirrorService.
func NewMirrorService(corpus *CorpusService, repo ports.MirrorRepository) *MirrorService {
	return &MirrorService{corpus: corpus, repo: repo}
}

// StoreAll mirrors every parsable document and returns how many were stored.
func (s *MirrorService) StoreAll(ctx context.Context) (int, error) {
	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanMirrorStoreAll)
	defer span.End()

	docs, err := s.corpus.ListDocuments(ctx)
	if err != nil {
		return 0, err
	}
	stored := 0
	for _, nd := range docs {
		if err := s.repo.StoreDocument(ctx, nd.ID, nd.Document); err != nil {
			metrics.MirrorDocumentsStored.WithLabelValues("error").Inc()
			return stored, fmt.Errorf("store %s: %w", nd.ID, err)
		}
		metrics.MirrorDocumentsStored.WithLabelValues("ok").Inc()
		stored++
	}
	span.SetAttributes(attribute.Int(telemetry.AttrStoredMirror, stored))
	return stored, nil
}

// SyncDocument mirrors a single document. A document that no longer parses
// is reported as ErrMalformedDocument and left as previously mirrored.
func (s *MirrorService) SyncDocument(ctx context.Context, id string) error {
	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanMirrorSync,
		trace.WithAttributes(attribute.String(telemetry.AttrDocumentID, id)))
	defer span.End()

	doc, err := s.corpus.GetDocument(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.StoreDocument(ctx, id, doc); err != nil {
		metrics.MirrorDocumentsStored.WithLabelValues("error").Inc()
		return fmt.Errorf("store %s: %w", id, err)
	}
	metrics.MirrorDocumentsStored.WithLabelValues("ok").Inc()
	return nil
}

// HandleEvent re-mirrors the document named by a document event.
func (s *MirrorService) HandleEvent(ctx context.Context, event *domain.DocumentEvent) error {
	err := s.SyncDocument(ctx, event.DocumentID)
	if errors.Is(err, domain.ErrMalformedDocument) || errors.Is(err, domain.ErrNotFound) {
		// redelivery cannot fix these
		slog.WarnContext(ctx, "mirror sync skipped", "id", event.DocumentID, "type", event.Type, "error", err)
		return nil
	}
	return err
}

func (s *MirrorService) Clear(ctx context.Context) error {
	return s.repo.Clear(ctx)
}

func (s *MirrorService) Status(ctx context.Context) (domain.MirrorStatus, error) {
	return s.repo.Status(ctx)
}

// Routes lists every mirrored route and track. order is "name" or "length".
func (s *MirrorService) Routes(ctx context.Context, order string) ([]domain.MirrorRoute, error) {
	o, err := domain.ParseRouteOrder(order)
	if err != nil {
		return nil, err
	}
	return s.repo.ListRoutes(ctx, o)
}

// RoutesByDocument lists the mirrored routes and tracks of one document.
func (s *MirrorService) RoutesByDocument(ctx context.Context, id, order string) ([]domain.MirrorRoute, error) {
	o, err := domain.ParseRouteOrder(order)
	if err != nil {
		return nil, err
	}
	return s.repo.ListRoutesByDocument(ctx, id, o)
}

// PointsByRoute lists the points of every mirrored route or track called name.
func (s *MirrorService) PointsByRoute(ctx context.Context, name string) ([]domain.MirrorPoint, error) {
	return s.repo.PointsByRouteName(ctx, name)
}

// PointsByDocument lists every mirrored point of one document.
func (s *MirrorService) PointsByDocument(ctx context.Context, id string) ([]domain.MirrorPoint, error) {
	return s.repo.PointsByDocument(ctx, id)
}
