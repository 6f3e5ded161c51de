package usecase

import (
	"context"
	"fmt"

	"github.com/barkain/scout/internal/domain"
)

// StartAnalysisInput contains the parameters for starting an analysis run.
// Fields are ordered to minimize memory padding.
type StartAnalysisInput struct {
	MaxInsights   int  // Number of insights to produce (0 = configured default)
	DeepDiveCount int  // Number of deep-dive candidates (0 = configured default)
	Force         bool // Cancel a running analysis instead of refusing
}

// StartAnalysisOutput contains the result of starting an analysis run.
type StartAnalysisOutput struct {
	Task     *domain.Task // The started task
	Replaced string       // ID of a run cancelled by Force, if any
}

// StartAnalysis is the use case for starting a background analysis run.
type StartAnalysis struct {
	tracker TaskTracker
	config  *domain.Config
}

// NewStartAnalysis creates a new StartAnalysis use case.
func NewStartAnalysis(tracker TaskTracker, config *domain.Config) *StartAnalysis {
	return &StartAnalysis{
		tracker: tracker,
		config:  config,
	}
}

// Execute starts a new analysis run. Only one run is tracked at a time:
// if one is already active the call fails with ErrAnalysisRunning unless
// Force is set, in which case the active run is cancelled first.
func (uc *StartAnalysis) Execute(ctx context.Context, in StartAnalysisInput) (*StartAnalysisOutput, error) {
	out := &StartAnalysisOutput{}

	active, err := uc.tracker.CheckActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("check active analysis: %w", err)
	}
	if active != nil && !active.IsTerminal() {
		if !in.Force {
			return nil, fmt.Errorf("task %s is %s: %w", active.ID, active.Status, domain.ErrAnalysisRunning)
		}
		if err := uc.tracker.Cancel(ctx); err != nil {
			return nil, fmt.Errorf("cancel running analysis: %w", err)
		}
		out.Replaced = active.ID
	}

	params := domain.StartParams{
		MaxInsights:   in.MaxInsights,
		DeepDiveCount: in.DeepDiveCount,
	}
	if params.MaxInsights <= 0 {
		params.MaxInsights = uc.config.Analysis.MaxInsights
	}
	if params.DeepDiveCount <= 0 {
		params.DeepDiveCount = uc.config.Analysis.DeepDiveCount
	}

	task, err := uc.tracker.Start(ctx, params)
	if err != nil {
		return nil, err
	}
	out.Task = task
	return out, nil
}
