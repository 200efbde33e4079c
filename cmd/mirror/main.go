package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/samirrijal/gpxcorpus/internal/adapters/filestore"
	"github.com/samirrijal/gpxcorpus/internal/adapters/mirrordb"
	"github.com/samirrijal/gpxcorpus/internal/core/domain"
	"github.com/samirrijal/gpxcorpus/internal/core/usecases"
	"github.com/samirrijal/gpxcorpus/internal/pkg/config"
	"github.com/samirrijal/gpxcorpus/internal/pkg/logging"
)

func main() {
	clearFirst := flag.Bool("clear", false, "empty the mirror before storing")
	parallel := flag.Int("parallel", 4, "documents mirrored concurrently when ids are given")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: mirror [-clear] [-parallel n] [id ...]\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg, err := config.Load("gpxcorpus-mirror")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Telemetry.ServiceName, cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

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

	start := time.Now()
	if *clearFirst {
		if err := svc.Clear(ctx); err != nil {
			log.Fatalf("clear: %v", err)
		}
		slog.Info("mirror cleared", "driver", mirror.Driver)
	}

	var stored int
	if ids := flag.Args(); len(ids) > 0 {
		stored = syncDocuments(ctx, svc, ids, *parallel)
	} else {
		stored, err = svc.StoreAll(ctx)
		if err != nil {
			log.Fatalf("store: %v", err)
		}
	}

	status, err := svc.Status(ctx)
	if err != nil {
		log.Fatalf("status: %v", err)
	}
	slog.Info("mirror complete",
		"stored", stored,
		"files", status.Files,
		"routes", status.Routes,
		"points", status.Points,
		"took", time.Since(start),
	)
}

// syncDocuments mirrors the named documents, at most parallel at a time.
// Failures are logged and do not stop the others.
func syncDocuments(ctx context.Context, svc *usecases.MirrorService, ids []string, parallel int) int {
	if parallel <= 0 {
		parallel = 1
	}

	var (
		wg     sync.WaitGroup
		stored atomic.Int64
	)
	sem := make(chan struct{}, parallel)

	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			err := svc.SyncDocument(ctx, id)
			switch {
			case err == nil:
				stored.Add(1)
			case errors.Is(err, domain.ErrMalformedDocument), errors.Is(err, domain.ErrNotFound):
				slog.Warn("document skipped", "id", id, "error", err)
			default:
				slog.Error("document failed", "id", id, "error", err)
			}
		}(id)
	}

	wg.Wait()
	if n := int(stored.Load()); n < len(ids) {
		slog.Warn("some documents were not mirrored", "requested", len(ids), "stored", n)
	}
	return int(stored.Load())
}
