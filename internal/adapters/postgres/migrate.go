package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
)

// Migrate applies every *.up.sql file in dir in name order, or every
// *.down.sql file in reverse name order when up is false. Each file runs as
// one statement batch.
func Migrate(ctx context.Context, db *DB, dir string, up bool) ([]string, error) {
	suffix := "*.down.sql"
	if up {
		suffix = "*.up.sql"
	}
	files, err := filepath.Glob(filepath.Join(dir, suffix))
	if err != nil {
		return nil, fmt.Errorf("glob migrations: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no %s files in %s", suffix, dir)
	}
	sort.Strings(files)
	if !up {
		sort.Sort(sort.Reverse(sort.StringSlice(files)))
	}

	applied := make([]string, 0, len(files))
	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			return applied, fmt.Errorf("read %s: %w", f, err)
		}
		if _, err := db.Pool.Exec(ctx, string(data)); err != nil {
			return applied, fmt.Errorf("exec %s: %w", f, err)
		}
		slog.Info("migration applied", "file", filepath.Base(f))
		applied = append(applied, filepath.Base(f))
	}
	return applied, nil
}
