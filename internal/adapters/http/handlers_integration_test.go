//go:build integration
// +build integration

package http_test

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	handler "github.com/samirrijal/gpxcorpus/internal/adapters/http"
	"github.com/samirrijal/gpxcorpus/internal/adapters/postgres"
	"github.com/samirrijal/gpxcorpus/internal/core/domain"
	"github.com/samirrijal/gpxcorpus/internal/core/usecases"
	"github.com/samirrijal/gpxcorpus/internal/pkg/config"
)

// setupTestDB connects to the test database, applies the mirror schema and
// empties it.
func setupTestDB(t *testing.T) *postgres.DB {
	t.Helper()
	cfg, err := config.Load("gpxcorpus-test")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	db, err := postgres.New(ctx, cfg.Database.DSN(), 2)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(db.Close)

	if _, err := postgres.Migrate(ctx, db, filepath.Join("..", "..", "..", "migrations"), true); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := postgres.NewMirrorRepo(db).Clear(ctx); err != nil {
		t.Fatalf("clear mirror: %v", err)
	}
	return db
}

func withPostgresMirror(db *postgres.DB) func(*handler.Dependencies) {
	return func(d *handler.Dependencies) {
		d.Mirror = usecases.NewMirrorService(d.Corpus, postgres.NewMirrorRepo(db))
		d.Checks = map[string]handler.Pinger{"database": db}
	}
}

func TestMirrorSync_Integration_WithRealDB(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db := setupTestDB(t)
	app := setupApp(makeDeps(t, defaultCorpus(t), withPostgresMirror(db)))

	code, body, _ := do(t, app, "POST", "/v1/mirror/sync", nil, "")
	if code != 200 {
		t.Fatalf("expected 200, got %d: %s", code, body)
	}

	code, body, _ = get(t, app, "/v1/mirror/status")
	if code != 200 {
		t.Fatalf("expected 200, got %d", code)
	}
	var st domain.MirrorStatus
	if err := json.Unmarshal(body, &st); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if st != (domain.MirrorStatus{Files: 2, Routes: 2, Points: 5}) {
		t.Errorf("unexpected status: %+v", st)
	}

	// syncing twice replaces rows
	if code, body, _ = do(t, app, "POST", "/v1/mirror/sync", nil, ""); code != 200 {
		t.Fatalf("second sync: %d %s", code, body)
	}
	_, body, _ = get(t, app, "/v1/mirror/status")
	_ = json.Unmarshal(body, &st)
	if st.Files != 2 || st.Points != 5 {
		t.Errorf("expected idempotent sync, got %+v", st)
	}
}

func TestMirrorQueries_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db := setupTestDB(t)
	app := setupApp(makeDeps(t, defaultCorpus(t), withPostgresMirror(db)))
	if code, body, _ := do(t, app, "POST", "/v1/mirror/sync", nil, ""); code != 200 {
		t.Fatalf("sync: %d %s", code, body)
	}

	code, body, _ := get(t, app, "/v1/mirror/files/valley.gpx/routes?order=length")
	if code != 200 {
		t.Fatalf("expected 200, got %d", code)
	}
	var routes struct {
		Data []domain.MirrorRoute `json:"data"`
	}
	if err := json.Unmarshal(body, &routes); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(routes.Data) != 1 || routes.Data[0].Component != domain.ComponentTrack || routes.Data[0].NumPoints != 3 {
		t.Errorf("unexpected valley routes: %+v", routes.Data)
	}

	code, body, _ = get(t, app, "/v1/mirror/routes/ridge/points")
	var points struct {
		Data []domain.MirrorPoint `json:"data"`
	}
	if err := json.Unmarshal(body, &points); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if code != 200 || len(points.Data) != 2 || points.Data[1].Lon != 1 {
		t.Errorf("unexpected ridge points: %d %+v", code, points.Data)
	}

	code, _, _ = get(t, app, "/v1/ready")
	if code != 200 {
		t.Errorf("expected ready with live database, got %d", code)
	}
}
