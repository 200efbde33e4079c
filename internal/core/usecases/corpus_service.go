package usecases

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/samirrijal/gpxcorpus/internal/core/domain"
	"github.com/samirrijal/gpxcorpus/internal/core/gpx"
	"github.com/samirrijal/gpxcorpus/internal/core/pathfind"
	"github.com/samirrijal/gpxcorpus/internal/core/ports"
	"github.com/samirrijal/gpxcorpus/internal/pkg/metrics"
	"github.com/samirrijal/gpxcorpus/internal/pkg/telemetry"
)

// CorpusOptions tunes corpus scans.
type CorpusOptions struct {
	Workers          int
	ParseTimeout     time.Duration
	MaxDocumentBytes int64
	IncludeEmpty     bool // list documents with no waypoints, routes or tracks
}

// DefaultCorpusOptions returns the options used when none are configured.
func DefaultCorpusOptions() CorpusOptions {
	return CorpusOptions{
		Workers:          4,
		ParseTimeout:     5 * time.Second,
		MaxDocumentBytes: 32 << 20,
	}
}

// CorpusService reads and queries the corpus. Every call re-reads the
// underlying store; nothing is cached between calls.
type CorpusService struct {
	store ports.CorpusReader
	opts  CorpusOptions
}

// NewCorpusService creates a new CorpusService.
func NewCorpusService(store ports.CorpusReader, opts CorpusOptions) *CorpusService {
	def := DefaultCorpusOptions()
	if opts.Workers <= 0 {
		opts.Workers = def.Workers
	}
	if opts.ParseTimeout <= 0 {
		opts.ParseTimeout = def.ParseTimeout
	}
	if opts.MaxDocumentBytes <= 0 {
		opts.MaxDocumentBytes = def.MaxDocumentBytes
	}
	return &CorpusService{store: store, opts: opts}
}

// ListIdentifiers returns every identifier in the corpus, parsable or not.
func (s *CorpusService) ListIdentifiers(ctx context.Context) ([]string, error) {
	ids, err := s.store.ListIdentifiers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list corpus: %w", err)
	}
	return ids, nil
}

// ListDocuments parses every document in the corpus. Documents that cannot be
// read or parsed are logged and left out; only a failure to enumerate the
// corpus is returned as an error. Output order follows the store's order.
func (s *CorpusService) ListDocuments(ctx context.Context) ([]domain.NamedDocument, error) {
	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanListDocuments)
	defer span.End()
	start := time.Now()
	defer func() { metrics.ScanDuration.WithLabelValues("list").Observe(time.Since(start).Seconds()) }()

	ids, err := s.ListIdentifiers(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	parsed := make([]*domain.Document, len(ids))
	var wg sync.WaitGroup
	sem := make(chan struct{}, s.opts.Workers)

	for i, id := range ids {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				return
			}
			defer func() { <-sem }()

			doc, err := s.load(ctx, id)
			if err != nil {
				if ctx.Err() == nil {
					metrics.DocumentsSkipped.WithLabelValues(skipReason(err)).Inc()
					slog.DebugContext(ctx, "skipping corpus document", "id", id, "error", err)
				}
				return
			}
			metrics.DocumentsParsed.Inc()
			parsed[i] = doc
		}(i, id)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	docs := make([]domain.NamedDocument, 0, len(ids))
	for i, doc := range parsed {
		if doc != nil {
			docs = append(docs, domain.NamedDocument{ID: ids[i], Document: doc})
		}
	}
	span.SetAttributes(
		attribute.Int(telemetry.AttrDocuments, len(docs)),
		attribute.Int(telemetry.AttrSkipped, len(ids)-len(docs)),
	)
	return docs, nil
}

// ListSummaries returns the listing of parsable documents. Empty documents are
// left out unless IncludeEmpty is set.
func (s *CorpusService) ListSummaries(ctx context.Context) ([]domain.CorpusEntry, error) {
	docs, err := s.ListDocuments(ctx)
	if err != nil {
		return nil, err
	}
	entries := make([]domain.CorpusEntry, 0, len(docs))
	for _, nd := range docs {
		if nd.Document.IsEmpty() && !s.opts.IncludeEmpty {
			metrics.DocumentsSkipped.WithLabelValues("empty").Inc()
			continue
		}
		entries = append(entries, domain.CorpusEntry{ID: nd.ID, Summary: Summarize(nd.Document)})
	}
	return entries, nil
}

// Summarize returns the listing record for a document.
func Summarize(doc *domain.Document) domain.Summary {
	return doc.Summary()
}

// SearchCorpus finds routes and tracks connecting src and dst within delta
// meters, across the whole corpus. Arguments are checked before any document
// is read.
func (s *CorpusService) SearchCorpus(ctx context.Context, src, dst domain.GeoPoint, delta float64) ([]domain.PathMatch, error) {
	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanSearchCorpus,
		trace.WithAttributes(attribute.Float64(telemetry.AttrDeltaMeters, delta)))
	defer span.End()

	if err := (pathfind.Query{Source: src, Destination: dst, Delta: delta}).Validate(); err != nil {
		return nil, err
	}

	docs, err := s.ListDocuments(ctx)
	if err != nil {
		return nil, err
	}
	matches, err := pathfind.FindPaths(docs, src, dst, delta)
	if err != nil {
		return nil, err
	}
	metrics.PathMatches.Add(float64(len(matches)))
	span.SetAttributes(attribute.Int(telemetry.AttrMatches, len(matches)))
	return matches, nil
}

// GetDocument reads and parses a single document. Unlike corpus scans, read
// and parse failures are returned to the caller.
func (s *CorpusService) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanGetDocument,
		trace.WithAttributes(attribute.String(telemetry.AttrDocumentID, id)))
	defer span.End()

	doc, err := s.load(ctx, id)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return doc, nil
}

// GetRaw returns the stored bytes of a document without parsing them.
func (s *CorpusService) GetRaw(ctx context.Context, id string) ([]byte, error) {
	return s.store.ReadBytes(ctx, id, s.opts.MaxDocumentBytes)
}

// LengthMatches counts the routes and tracks of one document whose length is
// within delta meters of length.
func (s *CorpusService) LengthMatches(ctx context.Context, id string, length, delta float64) (routes, tracks int, err error) {
	if length < 0 || delta < 0 {
		return 0, 0, fmt.Errorf("%w: length and delta must be non-negative", domain.ErrInvalidArgument)
	}
	doc, err := s.GetDocument(ctx, id)
	if err != nil {
		return 0, 0, err
	}
	return doc.RoutesWithLength(length, delta), doc.TracksWithLength(length, delta), nil
}

func (s *CorpusService) load(ctx context.Context, id string) (*domain.Document, error) {
	data, err := s.store.ReadBytes(ctx, id, s.opts.MaxDocumentBytes)
	if errors.Is(err, domain.ErrTooLarge) {
		return nil, fmt.Errorf("%w: %w", domain.ErrMalformedDocument, err)
	}
	if err != nil {
		return nil, err
	}

	pctx, cancel := context.WithTimeout(ctx, s.opts.ParseTimeout)
	defer cancel()
	doc, err := gpx.ParseContext(pctx, data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", id, err)
	}
	return doc, nil
}

func skipReason(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, domain.ErrTooLarge):
		return "too_large"
	case errors.Is(err, domain.ErrMalformedDocument):
		return "malformed"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	default:
		return "io"
	}
}
