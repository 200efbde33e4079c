package workflows

import (
	"context"
	"errors"
	"fmt"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"

	"github.com/samirrijal/gpxcorpus/internal/core/domain"
	"github.com/samirrijal/gpxcorpus/internal/core/usecases"
)

// ErrTypeSkipped marks a document that retrying cannot mirror.
const ErrTypeSkipped = "SkippedDocument"

// MirrorActivities holds the activity implementations for the mirror workflow.
type MirrorActivities struct {
	Corpus *usecases.CorpusService
	Mirror *usecases.MirrorService
}

// ListIdentifiers returns every document identifier in the corpus.
func (a *MirrorActivities) ListIdentifiers(ctx context.Context) ([]string, error) {
	ids, err := a.Corpus.ListIdentifiers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list identifiers: %w", err)
	}
	return ids, nil
}

// ClearMirror empties the mirror tables.
func (a *MirrorActivities) ClearMirror(ctx context.Context) error {
	if err := a.Mirror.Clear(ctx); err != nil {
		return fmt.Errorf("clear mirror: %w", err)
	}
	activity.GetLogger(ctx).Info("Mirror cleared")
	return nil
}

// SyncDocument mirrors one document. Malformed or vanished documents come back
// as non-retryable ErrTypeSkipped application errors.
func (a *MirrorActivities) SyncDocument(ctx context.Context, id string) error {
	err := a.Mirror.SyncDocument(ctx, id)
	if errors.Is(err, domain.ErrMalformedDocument) || errors.Is(err, domain.ErrNotFound) {
		return temporal.NewNonRetryableApplicationError(err.Error(), ErrTypeSkipped, err)
	}
	if err != nil {
		return fmt.Errorf("sync %s: %w", id, err)
	}
	return nil
}

// MirrorStatus returns the mirror's row counts.
func (a *MirrorActivities) MirrorStatus(ctx context.Context) (domain.MirrorStatus, error) {
	return a.Mirror.Status(ctx)
}
