// Package mirrordb opens the relational mirror selected by configuration.
package mirrordb

import (
	"context"
	"fmt"

	"github.com/samirrijal/gpxcorpus/internal/adapters/postgres"
	"github.com/samirrijal/gpxcorpus/internal/adapters/sqlite"
	"github.com/samirrijal/gpxcorpus/internal/core/ports"
	"github.com/samirrijal/gpxcorpus/internal/pkg/config"
)

// Mirror is an open mirror backend.
type Mirror struct {
	Repo   ports.MirrorRepository
	Driver string

	ping  func(ctx context.Context) error
	close func()
}

// Ping checks the underlying connection.
func (m *Mirror) Ping(ctx context.Context) error {
	return m.ping(ctx)
}

// Close releases the underlying connection.
func (m *Mirror) Close() {
	m.close()
}

// Open connects to the backend named by cfg.Driver. The sqlite schema is
// applied on open; postgres expects cmd/migrate to have run.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*Mirror, error) {
	switch cfg.Driver {
	case "postgres":
		db, err := postgres.New(ctx, cfg.DSN(), cfg.MaxConns)
		if err != nil {
			return nil, err
		}
		return &Mirror{
			Repo:   postgres.NewMirrorRepo(db),
			Driver: cfg.Driver,
			ping:   db.Ping,
			close:  db.Close,
		}, nil
	case "sqlite":
		db, err := sqlite.Open(ctx, cfg.Path)
		if err != nil {
			return nil, err
		}
		return &Mirror{
			Repo:   sqlite.NewMirrorRepo(db),
			Driver: cfg.Driver,
			ping:   db.Ping,
			close:  func() { _ = db.Close() },
		}, nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}
