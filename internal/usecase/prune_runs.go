package usecase

import (
	"context"
	"fmt"

	"github.com/barkain/scout/internal/domain"
)

// PruneRunsInput contains the parameters for pruning run history.
type PruneRunsInput struct {
	Keep int // Number of newest records to keep
}

// PruneRunsOutput contains the result of pruning run history.
type PruneRunsOutput struct {
	Removed int // Number of records removed
	Kept    int // Number of records remaining
}

// PruneRuns is the use case for pruning old run records.
type PruneRuns struct {
	history domain.RunHistory
}

// NewPruneRuns creates a new PruneRuns use case.
func NewPruneRuns(history domain.RunHistory) *PruneRuns {
	return &PruneRuns{history: history}
}

// Execute removes all but the newest Keep records.
func (uc *PruneRuns) Execute(_ context.Context, in PruneRunsInput) (*PruneRunsOutput, error) {
	if in.Keep < 0 {
		return nil, fmt.Errorf("keep must be non-negative, got %d", in.Keep)
	}
	removed, err := uc.history.Prune(in.Keep)
	if err != nil {
		return nil, fmt.Errorf("prune runs: %w", err)
	}
	runs, err := uc.history.List()
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return &PruneRunsOutput{Removed: removed, Kept: len(runs)}, nil
}
