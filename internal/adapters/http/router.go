package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"

	"github.com/samirrijal/gpxcorpus/internal/pkg/metrics"
)

// requestTimeout bounds each /v1 request. Corpus scans re-read every file.
const requestTimeout = 15 * time.Second

// SetupRoutes registers all REST, GraphQL, and WebSocket routes.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	// Prometheus metrics
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	app.Use(requestid.New())
	app.Use(RequestIDLogMiddleware())
	app.Use(AccessLogMiddleware())

	rate := deps.RateLimit
	if rate <= 0 {
		rate = 120
	}
	app.Use(limiter.New(limiter.Config{
		Max:        rate,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return newError(c, 429, "rate_limited", "too many requests, please try again later")
		},
	}))

	// Security headers + API version
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("X-API-Version", "1.0.0")
		return c.Next()
	})

	app.Use(ETagMiddleware())
	app.Use(CachingMiddleware())

	// Health & readiness (no timeout)
	app.Get("/v1/health", HealthHandler(deps))
	app.Get("/v1/ready", ReadyHandler(deps))

	v1 := app.Group("/v1")
	with := func(h fiber.Handler) fiber.Handler { return timeout.NewWithContext(h, requestTimeout) }

	// Corpus
	v1.Get("/documents", with(ListDocumentsHandler(deps)))
	v1.Post("/documents", with(CreateDocumentHandler(deps)))
	v1.Post("/documents/upload", with(UploadDocumentHandler(deps)))
	v1.Get("/documents/:id", with(GetDocumentHandler(deps)))
	v1.Get("/documents/:id/raw", with(RawDocumentHandler(deps)))
	v1.Get("/documents/:id/lengths", with(LengthMatchesHandler(deps)))
	v1.Post("/documents/:id/routes", with(AddRouteHandler(deps)))
	v1.Get("/documents/:id/waypoints/:name", with(DocumentWaypointHandler(deps)))
	v1.Get("/documents/:id/routes/:name", with(DocumentRouteHandler(deps)))
	v1.Get("/documents/:id/tracks/:name", with(DocumentTrackHandler(deps)))
	v1.Get("/paths", with(FindPathsHandler(deps)))

	// Relational mirror
	mirror := v1.Group("/mirror", requireMirror(deps))
	mirror.Post("/sync", with(MirrorSyncHandler(deps)))
	mirror.Delete("/", with(MirrorClearHandler(deps)))
	mirror.Get("/status", with(MirrorStatusHandler(deps)))
	mirror.Get("/routes", with(MirrorRoutesHandler(deps)))
	mirror.Get("/routes/:name/points", with(MirrorRoutePointsHandler(deps)))
	mirror.Get("/files/:id/routes", with(MirrorFileRoutesHandler(deps)))
	mirror.Get("/files/:id/points", with(MirrorFilePointsHandler(deps)))

	if deps.Legacy {
		setupLegacyRoutes(app, deps)
	}

	app.Post("/graphql", GraphQLHandler(deps))

	// API documentation (Swagger UI)
	SetupDocs(app, deps.OpenAPIFile)

	// WebSocket relay needs NATS
	if deps.NATS != nil {
		app.Use("/ws", func(c *fiber.Ctx) error {
			if websocket.IsWebSocketUpgrade(c) {
				return c.Next()
			}
			return fiber.ErrUpgradeRequired
		})
		app.Get("/ws", websocket.New(WebSocketHandler(deps.NATS)))
	}
}

func setupLegacyRoutes(app *fiber.App, deps *Dependencies) {
	legacy := app.Group("", DeprecationMiddleware(LegacyRoutes))
	with := func(h fiber.Handler) fiber.Handler { return timeout.NewWithContext(h, requestTimeout) }

	legacy.Get("/getFileLog", with(LegacyFileLogHandler(deps)))
	legacy.Get("/getGPXView", with(LegacyGPXViewHandler(deps)))
	legacy.Get("/findPath", with(LegacyFindPathHandler(deps)))
	legacy.Get("/create", with(LegacyCreateHandler(deps)))
	legacy.Get("/addRoute", with(LegacyAddRouteHandler(deps)))
	legacy.Post("/upload", with(LegacyUploadHandler(deps)))
	legacy.Get("/uploads/:name", with(LegacyDownloadHandler(deps)))

	m := requireMirror(deps)
	legacy.Get("/storeFiles", m, with(LegacyStoreFilesHandler(deps)))
	legacy.Get("/clearData", m, with(LegacyClearDataHandler(deps)))
	legacy.Get("/dbstatus", m, with(LegacyDBStatusHandler(deps)))
	legacy.Get("/query", m, with(LegacyQueryHandler(deps)))
}
