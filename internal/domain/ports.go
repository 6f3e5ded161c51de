package domain

import (
	"context"
	"time"
)

// StartParams are the optional tuning parameters for a new analysis run.
type StartParams struct {
	MaxInsights   int // Number of final insights to produce (0 = server default)
	DeepDiveCount int // Number of opportunities to analyze in detail (0 = server default)
}

// StartAck is the server acknowledgment for a start request.
type StartAck struct {
	TaskID  string
	Status  string
	Message string
}

// CancelAck is the server acknowledgment for a cancel request.
type CancelAck struct {
	TaskID  string
	Status  string
	Message string
}

// AnalysisAPI is the client for the analysis server's background task
// endpoints. Implementations must treat the server's zone-less timestamps
// as UTC so callers never see ambiguous times.
type AnalysisAPI interface {
	// StartAnalysis starts a new background analysis run.
	StartAnalysis(ctx context.Context, params StartParams) (*StartAck, error)

	// TaskStatus fetches the current status of a task along with any
	// activity entries newer than sinceSeq. Returns ErrTaskNotFound if
	// the server does not know the task.
	TaskStatus(ctx context.Context, taskID string, sinceSeq int64) (*Task, []Activity, error)

	// ActiveTask returns the currently running task, or nil if none.
	ActiveTask(ctx context.Context) (*Task, error)

	// RecentTask returns the most recently completed task, or nil if none.
	RecentTask(ctx context.Context) (*Task, error)

	// CancelAnalysis requests cancellation of a running task.
	CancelAnalysis(ctx context.Context, taskID string) (*CancelAck, error)

	// Health probes the server's health endpoint.
	Health(ctx context.Context) error
}

// TaskSlot is the durable single-slot store for the active task id.
// Exactly one task is representable at a time; setting a new id silently
// replaces tracking of any previous one.
type TaskSlot interface {
	// Get returns the saved task id, or "" if the slot is empty.
	Get() (string, error)

	// Set saves the task id, replacing any previous value.
	Set(taskID string) error

	// Clear empties the slot. Clearing an empty slot is not an error.
	Clear() error
}

// RunHistory records finished analysis runs locally.
type RunHistory interface {
	// Append adds a record for a finished run.
	Append(rec RunRecord) error

	// List returns all records, newest first.
	List() ([]RunRecord, error)

	// Prune removes all but the newest keep records and returns the
	// number removed.
	Prune(keep int) (int, error)
}

// Logger writes leveled log entries to the scout log files. An entry may
// be associated with a task id, or "" for global entries.
type Logger interface {
	Debug(taskID, category, msg string)
	Info(taskID, category, msg string)
	Warn(taskID, category, msg string)
	Error(taskID, category, msg string)
}

// ConfigLoader loads configuration from files.
type ConfigLoader interface {
	// Load returns the merged configuration (local + global).
	Load() (*Config, error)

	// LoadGlobal returns only the global configuration.
	LoadGlobal() (*Config, error)
}

// ConfigInfo describes a config file on disk.
type ConfigInfo struct {
	Path    string // Absolute path to the config file
	Content string // Raw file content (empty if the file doesn't exist)
	Exists  bool   // Whether the file exists
}

// ConfigManager inspects and initializes configuration files.
type ConfigManager interface {
	// LocalConfigInfo returns information about the project-local config file.
	LocalConfigInfo() ConfigInfo

	// GlobalConfigInfo returns information about the global config file.
	GlobalConfigInfo() ConfigInfo

	// InitLocalConfig creates a project-local config file with the default
	// template. Returns ErrConfigExists if one already exists.
	InitLocalConfig() error

	// InitGlobalConfig creates a global config file with the default
	// template. Returns ErrConfigExists if one already exists.
	InitGlobalConfig() error
}

// Clock provides time operations for testability.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
}

// RealClock implements Clock using the system clock.
type RealClock struct{}

// Now returns the current time.
func (RealClock) Now() time.Time {
	return time.Now()
}
