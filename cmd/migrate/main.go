package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/samirrijal/gpxcorpus/internal/adapters/postgres"
	"github.com/samirrijal/gpxcorpus/internal/pkg/config"
	"github.com/samirrijal/gpxcorpus/internal/pkg/logging"
)

func main() {
	dir := flag.String("dir", "migrations", "directory holding *.up.sql and *.down.sql files")
	flag.Parse()
	if flag.NArg() != 1 {
		log.Fatal("usage: migrate [-dir migrations] <up|down>")
	}

	cfg, err := config.Load("gpxcorpus-migrate")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Telemetry.ServiceName, cfg.Log.Level, cfg.Log.Format)

	if cfg.Database.Driver != "postgres" {
		log.Fatalf("migrate only targets postgres; the sqlite mirror creates its own schema (driver=%s)", cfg.Database.Driver)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	db, err := postgres.New(ctx, cfg.Database.DSN(), 1)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	var up bool
	switch flag.Arg(0) {
	case "up":
		up = true
	case "down":
		up = false
	default:
		log.Fatalf("unknown command: %s", flag.Arg(0))
	}

	applied, err := postgres.Migrate(ctx, db, *dir, up)
	for _, f := range applied {
		fmt.Printf("OK  %s\n", f)
	}
	if err != nil {
		log.Fatalf("migrate %s: %v", flag.Arg(0), err)
	}
	log.Printf("%d migrations applied", len(applied))
}
