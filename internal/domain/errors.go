package domain

import "errors"

// Domain errors.
var (
	ErrTaskNotFound    = errors.New("analysis task not found")
	ErrNoActiveTask    = errors.New("no active analysis task")
	ErrNotTracking     = errors.New("not tracking an analysis task")
	ErrAnalysisRunning = errors.New("an analysis is already running")
	ErrSuperseded      = errors.New("superseded by a newer operation")
	ErrConfigExists    = errors.New("config file already exists")
	ErrServerError     = errors.New("server error")
)
