package usecase

import (
	"context"
	"fmt"

	"github.com/barkain/scout/internal/domain"
)

// ListRunsInput contains the parameters for listing run history.
type ListRunsInput struct {
	Limit int // Maximum records to return (0 = all)
}

// ListRunsOutput contains the run history.
type ListRunsOutput struct {
	Runs []domain.RunRecord // Newest first
}

// ListRuns is the use case for listing locally recorded runs.
type ListRuns struct {
	history domain.RunHistory
}

// NewListRuns creates a new ListRuns use case.
func NewListRuns(history domain.RunHistory) *ListRuns {
	return &ListRuns{history: history}
}

// Execute returns recorded runs, newest first.
func (uc *ListRuns) Execute(_ context.Context, in ListRunsInput) (*ListRunsOutput, error) {
	runs, err := uc.history.List()
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	if in.Limit > 0 && len(runs) > in.Limit {
		runs = runs[:in.Limit]
	}
	return &ListRunsOutput{Runs: runs}, nil
}
