package telemetry

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentationName identifies spans produced by this service.
const InstrumentationName = "github.com/samirrijal/gpxcorpus"

// Span names used for instrumentation.
const (
	// Corpus
	SpanListDocuments = "corpus.list_documents"
	SpanSearchCorpus  = "corpus.search"
	SpanGetDocument   = "corpus.get_document"

	// Mutations
	SpanCreateDocument = "documents.create"
	SpanAddRoute       = "documents.add_route"
	SpanUpload         = "documents.upload"

	// Mirror
	SpanMirrorStoreAll = "mirror.store_all"
	SpanMirrorSync     = "mirror.sync_document"
)

// Attribute keys.
const (
	AttrDocumentID   = "gpx.document_id"
	AttrDocuments    = "gpx.documents"
	AttrSkipped      = "gpx.skipped"
	AttrMatches      = "gpx.matches"
	AttrDeltaMeters  = "gpx.delta_meters"
	AttrRouteName    = "gpx.route_name"
	AttrStoredMirror = "gpx.mirror_stored"
)

// Tracer returns the service tracer from the global provider.
func Tracer() trace.Tracer {
	return otel.Tracer(InstrumentationName)
}
