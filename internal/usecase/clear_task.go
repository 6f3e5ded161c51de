package usecase

import (
	"context"
)

// ClearTaskInput contains the parameters for clearing tracked state.
type ClearTaskInput struct{}

// ClearTaskOutput contains the result of clearing tracked state.
type ClearTaskOutput struct{}

// ClearTask is the use case for dropping the tracked run without
// contacting the server.
type ClearTask struct {
	tracker TaskTracker
}

// NewClearTask creates a new ClearTask use case.
func NewClearTask(tracker TaskTracker) *ClearTask {
	return &ClearTask{tracker: tracker}
}

// Execute clears tracked state and the durable slot.
func (uc *ClearTask) Execute(_ context.Context, _ ClearTaskInput) (*ClearTaskOutput, error) {
	if err := uc.tracker.Clear(); err != nil {
		return nil, err
	}
	return &ClearTaskOutput{}, nil
}
