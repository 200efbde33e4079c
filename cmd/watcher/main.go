package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/samirrijal/gpxcorpus/internal/adapters/filestore"
	"github.com/samirrijal/gpxcorpus/internal/adapters/mirrordb"
	natsadapter "github.com/samirrijal/gpxcorpus/internal/adapters/nats"
	"github.com/samirrijal/gpxcorpus/internal/core/domain"
	"github.com/samirrijal/gpxcorpus/internal/core/usecases"
	"github.com/samirrijal/gpxcorpus/internal/pkg/config"
	"github.com/samirrijal/gpxcorpus/internal/pkg/logging"
	"github.com/samirrijal/gpxcorpus/internal/pkg/telemetry"
)

// The watcher keeps the relational mirror in step with the corpus by
// re-mirroring every document named in a JetStream document event.
func main() {
	cfg, err := config.Load("gpxcorpus-watcher")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Telemetry.ServiceName, cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

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

	mirror, err := mirrordb.Open(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("mirror: %v", err)
	}
	defer mirror.Close()
	svc := usecases.NewMirrorService(corpus, mirror.Repo)

	sub, err := natsadapter.NewSubscriber(cfg.NATS.URL, cfg.NATS.Durable)
	if err != nil {
		log.Fatalf("nats: %v", err)
	}
	defer sub.Close()

	err = sub.SubscribeDocumentEvents(ctx, func(ctx context.Context, event *domain.DocumentEvent) error {
		start := time.Now()
		if err := svc.HandleEvent(ctx, event); err != nil {
			return err
		}
		slog.Debug("document mirrored", "id", event.DocumentID, "type", event.Type, "took", time.Since(start))
		return nil
	})
	if err != nil {
		log.Fatalf("subscribe: %v", err)
	}

	slog.Info("watcher started", "subjects", natsadapter.DocumentSubjects, "durable", cfg.NATS.Durable, "driver", mirror.Driver)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutting down watcher", "signal", sig.String())
	cancel()
}
