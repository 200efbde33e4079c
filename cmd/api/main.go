package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/nats-io/nats.go"

	"github.com/samirrijal/gpxcorpus/internal/adapters/filestore"
	"github.com/samirrijal/gpxcorpus/internal/adapters/http"
	"github.com/samirrijal/gpxcorpus/internal/adapters/mirrordb"
	natsadapter "github.com/samirrijal/gpxcorpus/internal/adapters/nats"
	"github.com/samirrijal/gpxcorpus/internal/adapters/valkey"
	"github.com/samirrijal/gpxcorpus/internal/core/ports"
	"github.com/samirrijal/gpxcorpus/internal/core/usecases"
	"github.com/samirrijal/gpxcorpus/internal/pkg/config"
	"github.com/samirrijal/gpxcorpus/internal/pkg/logging"
	"github.com/samirrijal/gpxcorpus/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("gpxcorpus-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logging.Setup(cfg.Telemetry.ServiceName, cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	// Corpus
	store, err := filestore.New(cfg.Corpus.Dir)
	if err != nil {
		log.Fatalf("corpus: %v", err)
	}
	corpus := usecases.NewCorpusService(store, usecases.CorpusOptions{
		Workers:          cfg.Corpus.Workers,
		ParseTimeout:     cfg.Corpus.ParseTimeout,
		MaxDocumentBytes: cfg.Corpus.MaxDocumentBytes,
		IncludeEmpty:     cfg.Corpus.IncludeEmpty,
	})

	checks := map[string]http.Pinger{}

	// Mirror
	var mirrorSvc *usecases.MirrorService
	mirror, err := mirrordb.Open(ctx, cfg.Database)
	if err != nil {
		slog.Warn("mirror unavailable, /v1/mirror disabled", "driver", cfg.Database.Driver, "error", err)
	} else {
		defer mirror.Close()
		mirrorSvc = usecases.NewMirrorService(corpus, mirror.Repo)
		checks["database"] = mirror
		go reportPoolStats(ctx, mirror)
	}

	// Document locks: shared through Valkey when several API instances write
	// to the same corpus directory.
	var locker ports.Locker = usecases.NewLocalLocker()
	if cfg.Valkey.Enabled {
		vl, err := valkey.New(cfg.Valkey.Addr, cfg.Valkey.LockTTL)
		if err != nil {
			slog.Warn("valkey unavailable, using in-process locks", "error", err)
		} else {
			defer vl.Close()
			locker = vl
			checks["valkey"] = vl
		}
	}

	// NATS
	var publisher ports.EventPublisher
	var natsConn *nats.Conn
	if cfg.NATS.Enabled {
		pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
		if err != nil {
			slog.Warn("nats unavailable, document events disabled", "error", err)
		} else {
			defer pub.Close()
			publisher = pub
		}

		// Raw NATS connection for WebSocket relay
		natsConn, err = natsadapter.RawConn(cfg.NATS.URL)
		if err != nil {
			slog.Warn("nats ws conn unavailable", "error", err)
			natsConn = nil
		} else {
			defer natsConn.Close()
		}
	}

	documents := usecases.NewDocumentService(store, locker, publisher)
	documents.SetMaxDocumentBytes(cfg.Corpus.MaxDocumentBytes)

	deps := &http.Dependencies{
		Corpus:    corpus,
		Documents: documents,
		Mirror:    mirrorSvc,
		NATS:      natsConn,
		Checks:    checks,
		Legacy:    cfg.Server.Legacy,
		RateLimit: cfg.Server.RateLimit,

		OpenAPIFile: cfg.Server.OpenAPIFile,
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    cfg.Server.BodyLimit,
		AppName:      "GPX Corpus API",
	})
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "*",
		AllowMethods:     "GET,POST,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, If-None-Match",
		ExposeHeaders:    "ETag, Link, Location, Deprecation, Sunset",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr, "corpus", cfg.Corpus.Dir, "legacy", cfg.Server.Legacy)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections", "signal", sig.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}

// reportPoolStats pings the mirror every 15s, which refreshes the pool gauges.
func reportPoolStats(ctx context.Context, m *mirrordb.Mirror) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pctx, cancel := context.WithTimeout(ctx, 2*time.Second)
			if err := m.Ping(pctx); err != nil {
				slog.Warn("mirror ping failed", "driver", m.Driver, "error", err)
			}
			cancel()
		}
	}
}
