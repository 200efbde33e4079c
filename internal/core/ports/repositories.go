package ports

import (
	"context"

	"github.com/samirrijal/gpxcorpus/internal/core/domain"
)

// CorpusReader enumerates and reads raw GPX documents.
type CorpusReader interface {
	// ListIdentifiers returns document identifiers in a stable order.
	ListIdentifiers(ctx context.Context) ([]string, error)
	// ReadBytes returns the raw document. A positive maxBytes caps how much
	// is read; larger documents fail with domain.ErrTooLarge.
	ReadBytes(ctx context.Context, id string, maxBytes int64) ([]byte, error)
}

// CorpusWriter stores raw GPX documents.
type CorpusWriter interface {
	// WriteBytes replaces the document atomically.
	WriteBytes(ctx context.Context, id string, data []byte) error
	Exists(ctx context.Context, id string) (bool, error)
}

// CorpusStore is a readable and writable corpus.
type CorpusStore interface {
	CorpusReader
	CorpusWriter
}

// MirrorRepository persists parsed documents into relational tables.
type MirrorRepository interface {
	// StoreDocument replaces any rows previously stored for id.
	StoreDocument(ctx context.Context, id string, doc *domain.Document) error
	Clear(ctx context.Context) error
	Status(ctx context.Context) (domain.MirrorStatus, error)
	ListRoutes(ctx context.Context, order domain.RouteOrder) ([]domain.MirrorRoute, error)
	ListRoutesByDocument(ctx context.Context, documentID string, order domain.RouteOrder) ([]domain.MirrorRoute, error)
	PointsByRouteName(ctx context.Context, name string) ([]domain.MirrorPoint, error)
	PointsByDocument(ctx context.Context, documentID string) ([]domain.MirrorPoint, error)
}
