package usecase

import (
	"context"
	"fmt"

	"github.com/barkain/scout/internal/domain"
)

// Status sources, in lookup order.
const (
	StatusSourceTracker = "tracker" // Run tracked by this process
	StatusSourceActive  = "active"  // Adopted from the slot or the server
	StatusSourceRecent  = "recent"  // Most recently finished server run
)

// ShowStatusInput contains the parameters for showing run status.
type ShowStatusInput struct {
	// Recent falls back to the server's most recent finished run when
	// nothing is active.
	Recent bool
}

// ShowStatusOutput contains the resolved run status.
type ShowStatusOutput struct {
	Task       *domain.Task      // nil when nothing was found
	Activities []domain.Activity // Merged activity log, when available
	Source     string            // Which lookup produced the task
	Elapsed    float64           // Elapsed seconds as of the lookup
}

// ShowStatus is the use case for resolving the current run status.
type ShowStatus struct {
	tracker TaskTracker
	api     domain.AnalysisAPI
	clock   domain.Clock
}

// NewShowStatus creates a new ShowStatus use case.
func NewShowStatus(tracker TaskTracker, api domain.AnalysisAPI, clock domain.Clock) *ShowStatus {
	return &ShowStatus{
		tracker: tracker,
		api:     api,
		clock:   clock,
	}
}

// Execute resolves the status to show: the tracked run when there is
// one, otherwise a run adopted from the slot or the server, otherwise
// (with Recent) the most recently finished run.
func (uc *ShowStatus) Execute(ctx context.Context, in ShowStatusInput) (*ShowStatusOutput, error) {
	snap := uc.tracker.Snapshot()
	if snap.Tracking {
		return &ShowStatusOutput{
			Task:       snap.Task,
			Activities: snap.Activities,
			Source:     StatusSourceTracker,
			Elapsed:    snap.Elapsed.Seconds(),
		}, nil
	}

	task, err := uc.tracker.CheckActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("check active analysis: %w", err)
	}
	if task != nil {
		snap = uc.tracker.Snapshot()
		return &ShowStatusOutput{
			Task:       task,
			Activities: snap.Activities,
			Source:     StatusSourceActive,
			Elapsed:    task.Elapsed(uc.clock.Now()).Seconds(),
		}, nil
	}

	if !in.Recent {
		return &ShowStatusOutput{}, nil
	}

	task, err = uc.api.RecentTask(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch recent run: %w", err)
	}
	if task == nil {
		return &ShowStatusOutput{}, nil
	}
	return &ShowStatusOutput{
		Task:    task,
		Source:  StatusSourceRecent,
		Elapsed: task.Elapsed(uc.clock.Now()).Seconds(),
	}, nil
}
