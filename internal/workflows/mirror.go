package workflows

import (
	"errors"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/samirrijal/gpxcorpus/internal/core/domain"
)

// MirrorCorpusWorkflowName is the name the workflow is registered and started under.
const MirrorCorpusWorkflowName = "MirrorCorpusWorkflow"

// maxInFlight bounds how many SyncDocument activities run at once.
const maxInFlight = 8

// MirrorCorpusInput is the input for the mirror workflow.
type MirrorCorpusInput struct {
	// Clear empties the mirror before any document is stored.
	Clear bool
	// IDs restricts the run to these documents. Empty means the whole corpus.
	IDs []string
}

// MirrorCorpusResult reports what a run did.
type MirrorCorpusResult struct {
	Stored  []string
	Skipped []string
	Status  domain.MirrorStatus
}

// MirrorCorpusWorkflow copies the corpus into the relational mirror one
// document per activity, so a crash resumes with the documents not yet stored.
// Documents that do not parse are skipped rather than retried.
func MirrorCorpusWorkflow(ctx workflow.Context, input MirrorCorpusInput) (*MirrorCorpusResult, error) {
	logger := workflow.GetLogger(ctx)

	actOpts := workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts:        3,
			NonRetryableErrorTypes: []string{ErrTypeSkipped},
		},
	}
	ctx = workflow.WithActivityOptions(ctx, actOpts)

	ids := input.IDs
	if len(ids) == 0 {
		if err := workflow.ExecuteActivity(ctx, "ListIdentifiers").Get(ctx, &ids); err != nil {
			return nil, err
		}
	}
	logger.Info("Starting mirror workflow", "documents", len(ids), "clear", input.Clear)

	if input.Clear {
		if err := workflow.ExecuteActivity(ctx, "ClearMirror").Get(ctx, nil); err != nil {
			return nil, err
		}
	}

	result := &MirrorCorpusResult{}
	for start := 0; start < len(ids); start += maxInFlight {
		end := min(start+maxInFlight, len(ids))

		futures := make([]workflow.Future, 0, end-start)
		for _, id := range ids[start:end] {
			futures = append(futures, workflow.ExecuteActivity(ctx, "SyncDocument", id))
		}
		for i, f := range futures {
			id := ids[start+i]
			err := f.Get(ctx, nil)
			switch {
			case err == nil:
				result.Stored = append(result.Stored, id)
			case isSkipped(err):
				logger.Warn("document skipped", "id", id, "error", err)
				result.Skipped = append(result.Skipped, id)
			default:
				return nil, err
			}
		}
	}

	if err := workflow.ExecuteActivity(ctx, "MirrorStatus").Get(ctx, &result.Status); err != nil {
		return nil, err
	}

	logger.Info("Mirror workflow complete",
		"stored", len(result.Stored), "skipped", len(result.Skipped), "files", result.Status.Files)
	return result, nil
}

func isSkipped(err error) bool {
	var appErr *temporal.ApplicationError
	return errors.As(err, &appErr) && appErr.Type() == ErrTypeSkipped
}
