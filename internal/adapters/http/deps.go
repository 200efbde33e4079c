package http

import (
	"context"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/gpxcorpus/internal/core/usecases"
)

// Pinger is a backing service the readiness probe can check.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Corpus    *usecases.CorpusService
	Documents *usecases.DocumentService
	Mirror    *usecases.MirrorService // nil when no database is configured
	NATS      *nats.Conn              // nil disables /ws
	Checks    map[string]Pinger
	Legacy    bool // serve the deprecated unversioned endpoints
	RateLimit int  // requests per minute per IP, 0 means 120

	OpenAPIFile string // served under /docs, empty means DefaultOpenAPIFile
}
