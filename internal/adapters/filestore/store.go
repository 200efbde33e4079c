// Package filestore keeps the GPX corpus as plain files in one directory.
package filestore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/samirrijal/gpxcorpus/internal/core/domain"
)

// Store is a directory-backed ports.CorpusStore. Identifiers are base file
// names ending in .gpx.
type Store struct {
	dir string
}

// New creates the directory if needed and returns a Store over it.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("%w: create corpus dir: %v", domain.ErrIO, err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the corpus directory.
func (s *Store) Dir() string { return s.dir }

// ListIdentifiers returns the .gpx files of the directory in lexical order.
// Subdirectories and hidden files are ignored.
func (s *Store) ListIdentifiers(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("%w: read corpus dir: %v", domain.ErrIO, err)
	}

	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		if domain.ValidateDocumentID(e.Name()) != nil {
			continue
		}
		ids = append(ids, e.Name())
	}
	return ids, nil
}

func (s *Store) ReadBytes(ctx context.Context, id string, maxBytes int64) ([]byte, error) {
	path, err := s.path(id)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(path) //nolint:gosec // path is confined to the corpus dir
	if err != nil {
		return nil, mapErr(id, err)
	}
	defer f.Close()

	if maxBytes <= 0 {
		data, err := io.ReadAll(f)
		if err != nil {
			return nil, mapErr(id, err)
		}
		return data, nil
	}

	fi, err := f.Stat()
	if err != nil {
		return nil, mapErr(id, err)
	}
	if fi.Size() > maxBytes {
		return nil, tooLarge(id, fi.Size(), maxBytes)
	}
	// The file may grow between Stat and the read.
	data, err := io.ReadAll(io.LimitReader(f, maxBytes+1))
	if err != nil {
		return nil, mapErr(id, err)
	}
	if int64(len(data)) > maxBytes {
		return nil, tooLarge(id, int64(len(data)), maxBytes)
	}
	return data, nil
}

// WriteBytes writes to a temporary file in the same directory and renames it
// over the target, so readers see either the old or the new document.
func (s *Store) WriteBytes(ctx context.Context, id string, data []byte) error {
	path, err := s.path(id)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrIO, id, err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }() // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%w: %s: %v", domain.ErrIO, id, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%w: %s: %v", domain.ErrIO, id, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrIO, id, err)
	}
	if err := os.Chmod(tmpName, 0o640); err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrIO, id, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrIO, id, err)
	}
	return nil
}

func (s *Store) Exists(ctx context.Context, id string) (bool, error) {
	path, err := s.path(id)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(path)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, fmt.Errorf("%w: %s: %v", domain.ErrIO, id, err)
	}
}

func (s *Store) path(id string) (string, error) {
	if err := domain.ValidateDocumentID(id); err != nil {
		return "", err
	}
	p := filepath.Join(s.dir, id)
	if filepath.Dir(p) != filepath.Clean(s.dir) || strings.ContainsRune(id, filepath.Separator) {
		return "", fmt.Errorf("%w: identifier %q escapes corpus dir", domain.ErrInvalidArgument, id)
	}
	return p, nil
}

func mapErr(id string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}
	return fmt.Errorf("%w: %s: %v", domain.ErrIO, id, err)
}

func tooLarge(id string, size, limit int64) error {
	return fmt.Errorf("%w: %s is at least %d bytes, limit %d", domain.ErrTooLarge, id, size, limit)
}
