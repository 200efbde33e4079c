package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	"github.com/samirrijal/gpxcorpus/internal/adapters/filestore"
	"github.com/samirrijal/gpxcorpus/internal/adapters/mirrordb"
	"github.com/samirrijal/gpxcorpus/internal/core/usecases"
	"github.com/samirrijal/gpxcorpus/internal/pkg/config"
	"github.com/samirrijal/gpxcorpus/internal/pkg/logging"
	"github.com/samirrijal/gpxcorpus/internal/workflows"
)

// mirrorworker runs the Temporal worker for the mirror workflow, or with
// "start" submits one run and waits for its result.
func main() {
	cfg, err := config.Load("gpxcorpus-mirrorworker")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := logging.Setup(cfg.Telemetry.ServiceName, cfg.Log.Level, cfg.Log.Format)

	c, err := client.Dial(client.Options{
		HostPort: cfg.Temporal.HostPort,
		Logger:   logger,
	})
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	defer c.Close()

	if len(os.Args) > 1 && os.Args[1] == "start" {
		if err := start(c, cfg.Temporal.TaskQueue, os.Args[2:]); err != nil {
			log.Fatalf("start: %v", err)
		}
		return
	}

	ctx := context.Background()
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

	w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{})

	// Register workflow & activities
	w.RegisterWorkflow(workflows.MirrorCorpusWorkflow)
	w.RegisterActivity(&workflows.MirrorActivities{
		Corpus: corpus,
		Mirror: usecases.NewMirrorService(corpus, mirror.Repo),
	})

	slog.Info("mirror worker started", "task_queue", cfg.Temporal.TaskQueue, "driver", mirror.Driver)
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("worker: %v", err)
	}
}

func start(c client.Client, taskQueue string, args []string) error {
	fs := flag.NewFlagSet("start", flag.ExitOnError)
	clearFirst := fs.Bool("clear", false, "empty the mirror before storing")
	timeout := fs.Duration("timeout", 30*time.Minute, "how long to wait for the run")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	opts := client.StartWorkflowOptions{
		ID:        fmt.Sprintf("mirror-corpus-%d", time.Now().Unix()),
		TaskQueue: taskQueue,
	}
	run, err := c.ExecuteWorkflow(ctx, opts, workflows.MirrorCorpusWorkflowName, workflows.MirrorCorpusInput{
		Clear: *clearFirst,
		IDs:   fs.Args(),
	})
	if err != nil {
		return fmt.Errorf("execute workflow: %w", err)
	}
	slog.Info("mirror workflow started", "workflow_id", run.GetID(), "run_id", run.GetRunID())

	var res workflows.MirrorCorpusResult
	if err := run.Get(ctx, &res); err != nil {
		return fmt.Errorf("workflow %s: %w", run.GetID(), err)
	}
	slog.Info("mirror workflow finished",
		"stored", len(res.Stored),
		"skipped", res.Skipped,
		"files", res.Status.Files,
		"routes", res.Status.Routes,
		"points", res.Status.Points,
	)
	return nil
}
