// Package domain contains core business entities and interfaces.
package domain

import (
	"cmp"
	"slices"
	"time"
)

// Task is the client-side view of a server analysis task. It is created
// by a start call and mutated only by poll responses; the client never
// writes task state back to the server except through cancel.
// Fields are ordered to minimize memory padding.
type Task struct {
	StartedAt        time.Time `json:"started_at,omitempty"`   // Server start time (UTC)
	CompletedAt      time.Time `json:"completed_at,omitempty"` // Server completion time (UTC)
	ID               string    `json:"id"`                     // Opaque server-assigned identifier
	Status           Status    `json:"status"`                 // Current status
	CurrentPhase     string    `json:"current_phase,omitempty"`
	PhaseDetails     string    `json:"phase_details,omitempty"`
	PhaseName        string    `json:"phase_name,omitempty"`
	ResultAnalysisID string    `json:"result_analysis_id,omitempty"`
	MarketRegime     string    `json:"market_regime,omitempty"`
	DiscoverySummary string    `json:"discovery_summary,omitempty"`
	ErrorMessage     string    `json:"error_message,omitempty"` // Populated only on failed
	TopSectors       []string  `json:"top_sectors,omitempty"`
	PhasesCompleted  []string  `json:"phases_completed,omitempty"`
	ResultInsightIDs []int     `json:"result_insight_ids,omitempty"` // Populated only on completed
	ElapsedSeconds   float64   `json:"elapsed_seconds,omitempty"`
	Progress         int       `json:"progress"` // 0-100, -1 on failed/cancelled
	MaxInsights      int       `json:"max_insights,omitempty"`
	DeepDiveCount    int       `json:"deep_dive_count,omitempty"`
}

// IsTerminal reports whether the task has reached a final status.
func (t *Task) IsTerminal() bool {
	return t.Status.IsTerminal()
}

// HasResult reports whether the task completed with generated insights.
func (t *Task) HasResult() bool {
	return t.Status == StatusCompleted && len(t.ResultInsightIDs) > 0
}

// Elapsed returns the task's running time as of now. For finished tasks
// the server-reported elapsed seconds win; otherwise the duration is
// computed from the server's start time so it stays continuous across
// client restarts.
func (t *Task) Elapsed(now time.Time) time.Duration {
	if t.ElapsedSeconds > 0 {
		return time.Duration(t.ElapsedSeconds * float64(time.Second))
	}
	if t.StartedAt.IsZero() {
		return 0
	}
	if !t.CompletedAt.IsZero() {
		return t.CompletedAt.Sub(t.StartedAt)
	}
	d := now.Sub(t.StartedAt)
	if d < 0 {
		return 0
	}
	return d
}

// Activity is one append-only, sequence-numbered log entry describing
// incremental progress of a task. Entries are never mutated once emitted.
// Fields are ordered to minimize memory padding.
type Activity struct {
	Time    time.Time `json:"time"`
	Phase   string    `json:"phase,omitempty"`
	Message string    `json:"message"`
	Level   string    `json:"level,omitempty"` // info, warning, error
	Seq     int64     `json:"seq"`             // Strictly increasing per task
}

// MergeActivities appends the entries of batch to log, dropping any entry
// whose seq has already been merged. The server guarantees non-decreasing
// seq order within a batch, but the result is sorted defensively so the
// merged log is always ascending.
func MergeActivities(log, batch []Activity) []Activity {
	if len(batch) == 0 {
		return log
	}
	seen := make(map[int64]bool, len(log))
	for _, a := range log {
		seen[a.Seq] = true
	}
	merged := log
	for _, a := range batch {
		if seen[a.Seq] {
			continue
		}
		seen[a.Seq] = true
		merged = append(merged, a)
	}
	slices.SortFunc(merged, func(a, b Activity) int {
		return cmp.Compare(a.Seq, b.Seq)
	})
	return merged
}

// ActivityCursor returns the highest seq across the merged log. The
// cursor is recomputed over the whole set rather than taken from the
// last batch, so out-of-order batches cannot move it backwards.
func ActivityCursor(log []Activity) int64 {
	var max int64
	for _, a := range log {
		if a.Seq > max {
			max = a.Seq
		}
	}
	return max
}

// RunRecord is a local history entry for a finished analysis run.
// Fields are ordered to minimize memory padding.
type RunRecord struct {
	StartedAt        time.Time `json:"started_at,omitempty"`
	CompletedAt      time.Time `json:"completed_at,omitempty"`
	TaskID           string    `json:"task_id"`
	Status           Status    `json:"status"`
	MarketRegime     string    `json:"market_regime,omitempty"`
	DiscoverySummary string    `json:"discovery_summary,omitempty"`
	ErrorMessage     string    `json:"error_message,omitempty"`
	ElapsedSeconds   float64   `json:"elapsed_seconds,omitempty"`
	InsightCount     int       `json:"insight_count,omitempty"`
}

// NewRunRecord builds a history record from a terminal task snapshot.
func NewRunRecord(t *Task) RunRecord {
	return RunRecord{
		TaskID:           t.ID,
		Status:           t.Status,
		StartedAt:        t.StartedAt,
		CompletedAt:      t.CompletedAt,
		MarketRegime:     t.MarketRegime,
		DiscoverySummary: t.DiscoverySummary,
		ErrorMessage:     t.ErrorMessage,
		ElapsedSeconds:   t.ElapsedSeconds,
		InsightCount:     len(t.ResultInsightIDs),
	}
}
