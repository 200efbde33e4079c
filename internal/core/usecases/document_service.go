package usecases

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/samirrijal/gpxcorpus/internal/core/domain"
	"github.com/samirrijal/gpxcorpus/internal/core/gpx"
	"github.com/samirrijal/gpxcorpus/internal/core/ports"
	"github.com/samirrijal/gpxcorpus/internal/pkg/metrics"
	"github.com/samirrijal/gpxcorpus/internal/pkg/telemetry"
)

// DocumentService creates and modifies corpus documents. Writes to the same
// identifier are serialised through the locker.
type DocumentService struct {
	store     ports.CorpusStore
	locker    ports.Locker
	publisher ports.EventPublisher
	maxBytes  int64
}

// NewDocumentService creates a new DocumentService. publisher may be nil.
func NewDocumentService(store ports.CorpusStore, locker ports.Locker, publisher ports.EventPublisher) *DocumentService {
	if locker == nil {
		locker = NewLocalLocker()
	}
	return &DocumentService{
		store:     store,
		locker:    locker,
		publisher: publisher,
		maxBytes:  DefaultCorpusOptions().MaxDocumentBytes,
	}
}

// SetMaxDocumentBytes caps the size of a stored document AddRoute will read.
// Non-positive values keep the default.
func (s *DocumentService) SetMaxDocumentBytes(n int64) {
	if n > 0 {
		s.maxBytes = n
	}
}

// CreateDocument writes a new empty document under id.
func (s *DocumentService) CreateDocument(ctx context.Context, id, version, creator string) (doc *domain.Document, err error) {
	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanCreateDocument,
		trace.WithAttributes(attribute.String(telemetry.AttrDocumentID, id)))
	defer span.End()
	defer func() { recordMutation("create", err) }()

	if err := domain.ValidateDocumentID(id); err != nil {
		return nil, err
	}
	doc, err = domain.NewDocument(version, creator)
	if err != nil {
		return nil, err
	}
	data, err := gpx.Serialize(doc)
	if err != nil {
		return nil, err
	}

	unlock, err := s.lock(ctx, id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if err := s.ensureAbsent(ctx, id); err != nil {
		return nil, err
	}
	if err := s.store.WriteBytes(ctx, id, data); err != nil {
		return nil, fmt.Errorf("write %s: %w", id, err)
	}

	s.publish(ctx, &domain.DocumentEvent{Type: domain.EventDocumentCreated, DocumentID: id})
	return doc, nil
}

// AddRoute appends a route to the stored document id and writes it back.
func (s *DocumentService) AddRoute(ctx context.Context, id, name string, points []domain.GeoPoint) (doc *domain.Document, err error) {
	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanAddRoute,
		trace.WithAttributes(
			attribute.String(telemetry.AttrDocumentID, id),
			attribute.String(telemetry.AttrRouteName, name),
		))
	defer span.End()
	defer func() { recordMutation("add_route", err) }()

	if err := domain.ValidateDocumentID(id); err != nil {
		return nil, err
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("%w: route needs at least one point", domain.ErrInvalidArgument)
	}

	unlock, err := s.lock(ctx, id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	data, err := s.store.ReadBytes(ctx, id, s.maxBytes)
	if errors.Is(err, domain.ErrTooLarge) {
		return nil, fmt.Errorf("%w: %w", domain.ErrMalformedDocument, err)
	}
	if err != nil {
		return nil, err
	}
	doc, err = gpx.ParseContext(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", id, err)
	}
	if err := doc.AddRoute(name, points); err != nil {
		return nil, err
	}
	out, err := gpx.Serialize(doc)
	if err != nil {
		return nil, err
	}
	if err := s.store.WriteBytes(ctx, id, out); err != nil {
		return nil, fmt.Errorf("write %s: %w", id, err)
	}

	s.publish(ctx, &domain.DocumentEvent{Type: domain.EventRouteAdded, DocumentID: id, RouteName: name})
	return doc, nil
}

// Upload stores raw GPX bytes under a new identifier. The bytes must parse.
func (s *DocumentService) Upload(ctx context.Context, id string, data []byte) (doc *domain.Document, err error) {
	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanUpload,
		trace.WithAttributes(attribute.String(telemetry.AttrDocumentID, id)))
	defer span.End()
	defer func() { recordMutation("upload", err) }()

	if err := domain.ValidateDocumentID(id); err != nil {
		return nil, err
	}
	doc, err = gpx.ParseContext(ctx, data)
	if err != nil {
		return nil, err
	}

	unlock, err := s.lock(ctx, id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if err := s.ensureAbsent(ctx, id); err != nil {
		return nil, err
	}
	if err := s.store.WriteBytes(ctx, id, data); err != nil {
		return nil, fmt.Errorf("write %s: %w", id, err)
	}

	s.publish(ctx, &domain.DocumentEvent{Type: domain.EventDocumentUploaded, DocumentID: id})
	return doc, nil
}

func (s *DocumentService) lock(ctx context.Context, id string) (func(), error) {
	start := time.Now()
	unlock, err := s.locker.Lock(ctx, id)
	metrics.LockWaitDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", id, err)
	}
	return unlock, nil
}

func (s *DocumentService) ensureAbsent(ctx context.Context, id string) error {
	exists, err := s.store.Exists(ctx, id)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%w: %s", domain.ErrAlreadyExists, id)
	}
	return nil
}

// publish is best-effort; the write already succeeded.
func (s *DocumentService) publish(ctx context.Context, event *domain.DocumentEvent) {
	if s.publisher == nil {
		return
	}
	event.Time = time.Now().UTC()
	if err := s.publisher.PublishDocumentEvent(ctx, event); err != nil {
		metrics.EventsPublished.WithLabelValues(event.Type, "error").Inc()
		slog.WarnContext(ctx, "publish document event", "type", event.Type, "id", event.DocumentID, "error", err)
		return
	}
	metrics.EventsPublished.WithLabelValues(event.Type, "ok").Inc()
}

func recordMutation(op string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	metrics.DocumentMutations.WithLabelValues(op, outcome).Inc()
}
