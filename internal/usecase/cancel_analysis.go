package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/barkain/scout/internal/domain"
)

// CancelAnalysisInput contains the parameters for cancelling a run.
type CancelAnalysisInput struct{}

// CancelAnalysisOutput contains the result of cancelling a run.
type CancelAnalysisOutput struct {
	Task *domain.Task // The cancelled task
}

// CancelAnalysis is the use case for cancelling the active analysis run.
type CancelAnalysis struct {
	tracker TaskTracker
}

// NewCancelAnalysis creates a new CancelAnalysis use case.
func NewCancelAnalysis(tracker TaskTracker) *CancelAnalysis {
	return &CancelAnalysis{tracker: tracker}
}

// Execute cancels the active run. If nothing is tracked yet (e.g. right
// after a restart) the active run is adopted first so a run started by a
// previous process can still be cancelled.
func (uc *CancelAnalysis) Execute(ctx context.Context, _ CancelAnalysisInput) (*CancelAnalysisOutput, error) {
	err := uc.tracker.Cancel(ctx)
	if errors.Is(err, domain.ErrNotTracking) {
		active, cerr := uc.tracker.CheckActive(ctx)
		if cerr != nil {
			return nil, fmt.Errorf("check active analysis: %w", cerr)
		}
		if active == nil || active.IsTerminal() {
			return nil, domain.ErrNoActiveTask
		}
		err = uc.tracker.Cancel(ctx)
	}
	if err != nil {
		return nil, err
	}

	snap := uc.tracker.Snapshot()
	return &CancelAnalysisOutput{Task: snap.Task}, nil
}
