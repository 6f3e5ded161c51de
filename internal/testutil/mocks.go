// Package testutil provides shared test utilities and mock implementations.
package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/barkain/scout/internal/domain"
)

// MockClock is a test double for domain.Clock.
type MockClock struct {
	NowTime time.Time
}

// Now returns the configured time.
func (m *MockClock) Now() time.Time {
	return m.NowTime
}

// StatusReply is one scripted response of MockAPI.TaskStatus.
type StatusReply struct {
	Task       *domain.Task
	Activities []domain.Activity
	Err        error
}

// MockAPI is a test double for domain.AnalysisAPI. Responses are
// scripted per method; calls are recorded for assertions. All methods
// are safe for concurrent use.
// Fields are ordered to minimize memory padding.
type MockAPI struct {
	StartAckV   *domain.StartAck
	StartErr    error
	ActiveTaskV *domain.Task
	ActiveErr   error
	RecentTaskV *domain.Task
	RecentErr   error
	CancelAckV  *domain.CancelAck
	CancelErr   error
	HealthErr   error

	// StatusReplies are consumed in order; the last one repeats once
	// the script is exhausted.
	StatusReplies []StatusReply

	// Gate, when non-nil, is received from at the top of every call so
	// tests can control interleaving.
	Gate chan struct{}

	StartCalls  []domain.StartParams
	StatusCalls []StatusCall
	CancelCalls []string
	ActiveCalls int
	RecentCalls int

	mu sync.Mutex
}

// StatusCall records the arguments of one TaskStatus call.
type StatusCall struct {
	TaskID   string
	SinceSeq int64
}

func (m *MockAPI) wait() {
	if m.Gate != nil {
		<-m.Gate
	}
}

// StartAnalysis returns the scripted ack.
func (m *MockAPI) StartAnalysis(_ context.Context, params domain.StartParams) (*domain.StartAck, error) {
	m.wait()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.StartCalls = append(m.StartCalls, params)
	if m.StartErr != nil {
		return nil, m.StartErr
	}
	return m.StartAckV, nil
}

// TaskStatus consumes the next scripted reply.
func (m *MockAPI) TaskStatus(_ context.Context, taskID string, sinceSeq int64) (*domain.Task, []domain.Activity, error) {
	m.wait()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.StatusCalls = append(m.StatusCalls, StatusCall{TaskID: taskID, SinceSeq: sinceSeq})

	if len(m.StatusReplies) == 0 {
		return nil, nil, domain.ErrTaskNotFound
	}
	reply := m.StatusReplies[0]
	if len(m.StatusReplies) > 1 {
		m.StatusReplies = m.StatusReplies[1:]
	}
	if reply.Err != nil {
		return nil, nil, reply.Err
	}
	return cloneTask(reply.Task), reply.Activities, nil
}

// ActiveTask returns the scripted active task.
func (m *MockAPI) ActiveTask(_ context.Context) (*domain.Task, error) {
	m.wait()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ActiveCalls++
	if m.ActiveErr != nil {
		return nil, m.ActiveErr
	}
	return cloneTask(m.ActiveTaskV), nil
}

// RecentTask returns the scripted recent task.
func (m *MockAPI) RecentTask(_ context.Context) (*domain.Task, error) {
	m.wait()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RecentCalls++
	if m.RecentErr != nil {
		return nil, m.RecentErr
	}
	return cloneTask(m.RecentTaskV), nil
}

// CancelAnalysis records the call and returns the scripted ack.
func (m *MockAPI) CancelAnalysis(_ context.Context, taskID string) (*domain.CancelAck, error) {
	m.wait()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CancelCalls = append(m.CancelCalls, taskID)
	if m.CancelErr != nil {
		return nil, m.CancelErr
	}
	if m.CancelAckV != nil {
		return m.CancelAckV, nil
	}
	return &domain.CancelAck{TaskID: taskID, Status: "cancelled"}, nil
}

// Health returns the scripted health error.
func (m *MockAPI) Health(_ context.Context) error {
	m.wait()
	return m.HealthErr
}

// StatusCallCount returns the number of TaskStatus calls so far.
func (m *MockAPI) StatusCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.StatusCalls)
}

func cloneTask(task *domain.Task) *domain.Task {
	if task == nil {
		return nil
	}
	c := *task
	return &c
}

// MockSlot is an in-memory test double for domain.TaskSlot.
type MockSlot struct {
	TaskID   string
	GetErr   error
	SetErr   error
	ClearErr error

	SetCalls   []string
	ClearCalls int

	mu sync.Mutex
}

// Get returns the stored task id.
func (m *MockSlot) Get() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetErr != nil {
		return "", m.GetErr
	}
	return m.TaskID, nil
}

// Set stores the task id.
func (m *MockSlot) Set(taskID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SetCalls = append(m.SetCalls, taskID)
	if m.SetErr != nil {
		return m.SetErr
	}
	m.TaskID = taskID
	return nil
}

// Clear empties the slot.
func (m *MockSlot) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ClearCalls++
	if m.ClearErr != nil {
		return m.ClearErr
	}
	m.TaskID = ""
	return nil
}

// Saved returns the current slot value.
func (m *MockSlot) Saved() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.TaskID
}

// MockHistory is an in-memory test double for domain.RunHistory.
type MockHistory struct {
	Records   []domain.RunRecord
	AppendErr error

	mu sync.Mutex
}

// Append adds a record, replacing an existing one with the same task id.
func (m *MockHistory) Append(rec domain.RunRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.AppendErr != nil {
		return m.AppendErr
	}
	for i, r := range m.Records {
		if r.TaskID == rec.TaskID {
			m.Records[i] = rec
			return nil
		}
	}
	m.Records = append([]domain.RunRecord{rec}, m.Records...)
	return nil
}

// List returns all records, newest first.
func (m *MockHistory) List() ([]domain.RunRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.RunRecord(nil), m.Records...), nil
}

// Prune removes all but the newest keep records.
func (m *MockHistory) Prune(keep int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if keep < 0 {
		keep = 0
	}
	if len(m.Records) <= keep {
		return 0, nil
	}
	removed := len(m.Records) - keep
	m.Records = m.Records[:keep]
	return removed, nil
}

// Count returns the number of stored records.
func (m *MockHistory) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Records)
}

// MockConfigManager is a test double for domain.ConfigManager.
type MockConfigManager struct {
	Local      domain.ConfigInfo
	Global     domain.ConfigInfo
	InitLocal  error
	InitGlobal error
}

// LocalConfigInfo returns the scripted local config info.
func (m *MockConfigManager) LocalConfigInfo() domain.ConfigInfo { return m.Local }

// GlobalConfigInfo returns the scripted global config info.
func (m *MockConfigManager) GlobalConfigInfo() domain.ConfigInfo { return m.Global }

// InitLocalConfig returns the scripted error and marks the file created.
func (m *MockConfigManager) InitLocalConfig() error {
	if m.InitLocal != nil {
		return m.InitLocal
	}
	m.Local.Exists = true
	return nil
}

// InitGlobalConfig returns the scripted error and marks the file created.
func (m *MockConfigManager) InitGlobalConfig() error {
	if m.InitGlobal != nil {
		return m.InitGlobal
	}
	m.Global.Exists = true
	return nil
}

// MockLogger is a test double for domain.Logger that records entries.
type MockLogger struct {
	Entries []LogEntry
	mu      sync.Mutex
}

// LogEntry is one recorded log call.
type LogEntry struct {
	Level    string
	TaskID   string
	Category string
	Msg      string
}

func (m *MockLogger) record(level, taskID, category, msg string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Entries = append(m.Entries, LogEntry{Level: level, TaskID: taskID, Category: category, Msg: msg})
}

// Debug records a debug entry.
func (m *MockLogger) Debug(taskID, category, msg string) { m.record("debug", taskID, category, msg) }

// Info records an info entry.
func (m *MockLogger) Info(taskID, category, msg string) { m.record("info", taskID, category, msg) }

// Warn records a warn entry.
func (m *MockLogger) Warn(taskID, category, msg string) { m.record("warn", taskID, category, msg) }

// Error records an error entry.
func (m *MockLogger) Error(taskID, category, msg string) { m.record("error", taskID, category, msg) }
