// Package sqlite is an embedded alternative to the Postgres mirror, backed by
// the pure-Go modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

var pragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA busy_timeout=5000",
	"PRAGMA synchronous=NORMAL",
	"PRAGMA temp_store=MEMORY",
	"PRAGMA foreign_keys=ON",
}

const schema = `
CREATE TABLE IF NOT EXISTS gpx_files (
    id            TEXT PRIMARY KEY,
    version       REAL NOT NULL,
    creator       TEXT NOT NULL,
    namespace     TEXT NOT NULL,
    num_waypoints INTEGER NOT NULL DEFAULT 0,
    stored_at     TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS gpx_routes (
    route_id   INTEGER PRIMARY KEY AUTOINCREMENT,
    file_id    TEXT NOT NULL REFERENCES gpx_files(id) ON DELETE CASCADE,
    kind       TEXT NOT NULL CHECK (kind IN ('route', 'track')),
    position   INTEGER NOT NULL,
    name       TEXT NOT NULL DEFAULT '',
    num_points INTEGER NOT NULL,
    length     REAL NOT NULL,
    loop       INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_gpx_routes_file ON gpx_routes(file_id, position);
CREATE INDEX IF NOT EXISTS idx_gpx_routes_name ON gpx_routes(name);

CREATE TABLE IF NOT EXISTS gpx_points (
    point_id    INTEGER PRIMARY KEY AUTOINCREMENT,
    route_id    INTEGER NOT NULL REFERENCES gpx_routes(route_id) ON DELETE CASCADE,
    point_index INTEGER NOT NULL,
    lat         REAL NOT NULL,
    lon         REAL NOT NULL,
    name        TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_gpx_points_route ON gpx_points(route_id, point_index);
`

// DB wraps a single-connection *sql.DB. SQLite pragmas such as foreign_keys
// are per connection, so the pool is pinned to one.
type DB struct {
	SQL *sql.DB
}

// Open opens (or creates) the database at path and applies the schema.
// Use ":memory:" for a throwaway database.
func Open(ctx context.Context, path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("exec %q: %w", p, err)
		}
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &DB{SQL: db}, nil
}

// Ping checks the database handle.
func (db *DB) Ping(ctx context.Context) error {
	return db.SQL.PingContext(ctx)
}

// Close releases the database handle.
func (db *DB) Close() error {
	return db.SQL.Close()
}
