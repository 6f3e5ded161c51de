// Package tracker implements the background task tracker: it starts
// analysis runs, persists the active task id, polls the server for
// status and activity, and survives client restarts by re-adopting
// whatever task the slot or the server still knows about.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/barkain/scout/internal/domain"
)

// Callbacks are invoked at most once per tracked run when it reaches a
// terminal status. They are called without the tracker lock held.
type Callbacks struct {
	// OnComplete fires when the run finishes with completed or cancelled.
	OnComplete func(task *domain.Task)

	// OnError fires when the run finishes with failed.
	OnError func(task *domain.Task)
}

// Options tune tracker behavior.
type Options struct {
	// PollInterval is the fixed delay between status polls.
	// Non-positive values fall back to the config default.
	PollInterval time.Duration
}

// Snapshot is a point-in-time copy of the tracker state. The contained
// task and activity slices must be treated as read-only.
type Snapshot struct {
	Task        *domain.Task      // Last known task state, nil when idle
	Activities  []domain.Activity // Merged activity log, ascending by seq
	Elapsed     time.Duration     // Running time as of the snapshot
	Cursor      int64             // Highest merged activity seq
	FailedPolls int               // Consecutive poll failures since the last success
	Tracking    bool              // Whether a task is being tracked
	Polling     bool              // Whether the poll loop is running
}

// Tracker drives one analysis run at a time. Starting or adopting a new
// run supersedes the previous one; superseded async work is discarded
// via a generation counter rather than cancellation flags.
// Fields are ordered to minimize memory padding.
type Tracker struct {
	api     domain.AnalysisAPI
	slot    domain.TaskSlot
	history domain.RunHistory
	logger  domain.Logger
	clock   domain.Clock

	cancelPoll context.CancelFunc
	task       *domain.Task
	activities []domain.Activity

	cb   Callbacks
	opts Options

	generation  uint64 // Bumped on Start/Cancel/Clear; stale work compares and drops
	pollSerial  uint64 // Assigned per poll request, in issue order
	applied     uint64 // Highest poll serial whose response was applied
	cursor      int64
	failedPolls int

	mu       sync.Mutex
	notified bool
}

// New creates a Tracker. history and logger may be nil.
func New(api domain.AnalysisAPI, slot domain.TaskSlot, history domain.RunHistory, logger domain.Logger, clock domain.Clock, opts Options, cb Callbacks) *Tracker {
	if opts.PollInterval <= 0 {
		opts.PollInterval = domain.DefaultPollInterval
	}
	if clock == nil {
		clock = domain.RealClock{}
	}
	return &Tracker{
		api:     api,
		slot:    slot,
		history: history,
		logger:  logger,
		clock:   clock,
		opts:    opts,
		cb:      cb,
	}
}

// Start begins a new analysis run and tracks it. Any previously tracked
// run is superseded immediately, before the server is contacted, so a
// slow start response can never clobber state from a newer operation.
func (t *Tracker) Start(ctx context.Context, params domain.StartParams) (*domain.Task, error) {
	t.mu.Lock()
	t.supersedeLocked()
	gen := t.generation
	t.mu.Unlock()

	ack, err := t.api.StartAnalysis(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("start analysis: %w", err)
	}

	t.mu.Lock()
	if t.generation != gen {
		t.mu.Unlock()
		return nil, domain.ErrSuperseded
	}

	task := &domain.Task{
		ID:            ack.TaskID,
		Status:        domain.StatusPending,
		StartedAt:     t.clock.Now().UTC(),
		MaxInsights:   params.MaxInsights,
		DeepDiveCount: params.DeepDiveCount,
	}
	if s := domain.Status(ack.Status); s.IsValid() {
		task.Status = s
	}
	t.task = task
	// Persist before polling starts: the first poll may already find the
	// run terminal and clear the slot.
	if err := t.slot.Set(task.ID); err != nil {
		t.logf(task.ID, "slot", "persist task id: "+err.Error())
	}
	t.beginPollingLocked(gen, task.ID)
	t.mu.Unlock()

	t.infof(task.ID, "start", "analysis started")

	return cloneTask(task), nil
}

// CheckActive adopts an in-flight run after a restart. It consults the
// durable slot first, then falls back to asking the server for its
// active task. Returns the adopted task, or nil when nothing is running.
// A terminal task found via the slot is returned once (with the slot
// cleared) so its final state can be shown; polling is not resumed.
func (t *Tracker) CheckActive(ctx context.Context) (*domain.Task, error) {
	t.mu.Lock()
	if t.task != nil && !t.task.IsTerminal() {
		task := cloneTask(t.task)
		t.mu.Unlock()
		return task, nil
	}
	gen := t.generation
	t.mu.Unlock()

	task, activities, err := t.lookupActive(ctx, gen)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, nil
	}

	t.mu.Lock()
	if t.generation != gen {
		t.mu.Unlock()
		return nil, domain.ErrSuperseded
	}

	t.task = cloneTask(task)
	t.activities = domain.MergeActivities(nil, activities)
	t.cursor = domain.ActivityCursor(t.activities)
	t.failedPolls = 0

	if task.IsTerminal() {
		// The run ended while we were away. Show the final state but
		// do not resume polling or fire callbacks for it. The slot is
		// cleared under the lock so a concurrent Start cannot persist
		// its id in between and lose it.
		t.notified = true
		_ = t.slot.Clear()
		t.mu.Unlock()
		t.recordRun(task)
		return cloneTask(task), nil
	}

	t.notified = false
	if err := t.slot.Set(task.ID); err != nil {
		t.logf(task.ID, "slot", "persist task id: "+err.Error())
	}
	t.beginPollingLocked(gen, task.ID)
	t.mu.Unlock()

	t.infof(task.ID, "resume", "resumed tracking of "+string(task.Status)+" task")

	return cloneTask(task), nil
}

// lookupActive finds the task to adopt: the slot-saved task if the
// server still knows it, otherwise the server's active task. gen is
// the generation observed before the lookup began; the slot is only
// cleared while it still holds.
func (t *Tracker) lookupActive(ctx context.Context, gen uint64) (*domain.Task, []domain.Activity, error) {
	savedID, err := t.slot.Get()
	if err != nil {
		return nil, nil, fmt.Errorf("read task slot: %w", err)
	}

	if savedID != "" {
		task, activities, err := t.api.TaskStatus(ctx, savedID, 0)
		switch {
		case err == nil:
			return task, activities, nil
		case errors.Is(err, domain.ErrTaskNotFound):
			// Stale slot entry, e.g. the server restarted. A Start that
			// raced this lookup owns the slot now; leave it alone.
			t.mu.Lock()
			if t.generation == gen {
				_ = t.slot.Clear()
			}
			t.mu.Unlock()
		default:
			return nil, nil, fmt.Errorf("fetch saved task: %w", err)
		}
	}

	task, err := t.api.ActiveTask(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch active task: %w", err)
	}
	return task, nil, nil
}

// Cancel cancels the tracked run. Cancellation is applied locally first
// so the UI settles immediately; the server request is best effort and
// a late poll response from the cancelled run can no longer win.
func (t *Tracker) Cancel(ctx context.Context) error {
	t.mu.Lock()
	if t.task == nil {
		t.mu.Unlock()
		return domain.ErrNotTracking
	}
	if t.task.IsTerminal() {
		t.mu.Unlock()
		return nil
	}

	taskID := t.task.ID
	// Supersede in-flight work but keep the merged activity log so the
	// settled view still shows the run's transcript.
	t.generation++
	t.stopPollingLocked()
	t.failedPolls = 0
	t.task.Status = domain.StatusCancelled
	t.task.Progress = -1
	t.task.CompletedAt = t.clock.Now().UTC()
	final := cloneTask(t.task)
	notify := !t.notified
	t.notified = true
	_ = t.slot.Clear()
	t.mu.Unlock()

	t.recordRun(final)
	t.infof(taskID, "cancel", "analysis cancelled")
	if notify && t.cb.OnComplete != nil {
		t.cb.OnComplete(final)
	}

	if _, err := t.api.CancelAnalysis(ctx, taskID); err != nil {
		// Local state already settled; the server will notice on its own.
		t.logf(taskID, "cancel", "server cancel failed: "+err.Error())
	}
	return nil
}

// Clear stops tracking without contacting the server. The durable slot
// is emptied so the run is not re-adopted on the next start.
func (t *Tracker) Clear() error {
	t.mu.Lock()
	t.supersedeLocked()
	t.task = nil
	err := t.slot.Clear()
	t.mu.Unlock()
	return err
}

// Close stops the poll loop. The tracked state is left intact.
func (t *Tracker) Close() {
	t.mu.Lock()
	t.stopPollingLocked()
	t.mu.Unlock()
}

// Snapshot returns a copy of the current tracker state.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	snap := Snapshot{
		Cursor:      t.cursor,
		FailedPolls: t.failedPolls,
		Tracking:    t.task != nil,
		Polling:     t.cancelPoll != nil,
	}
	if t.task != nil {
		snap.Task = cloneTask(t.task)
		snap.Elapsed = t.task.Elapsed(t.clock.Now())
	}
	if len(t.activities) > 0 {
		snap.Activities = append([]domain.Activity(nil), t.activities...)
	}
	return snap
}

// supersedeLocked invalidates all in-flight async work and resets the
// per-run state. Callers must hold t.mu.
func (t *Tracker) supersedeLocked() {
	t.generation++
	t.stopPollingLocked()
	t.activities = nil
	t.cursor = 0
	t.failedPolls = 0
	t.notified = false
	t.applied = 0
	t.pollSerial = 0
}

func (t *Tracker) stopPollingLocked() {
	if t.cancelPoll != nil {
		t.cancelPoll()
		t.cancelPoll = nil
	}
}

// beginPollingLocked starts the poll loop for the given generation.
// Callers must hold t.mu.
func (t *Tracker) beginPollingLocked(gen uint64, taskID string) {
	t.stopPollingLocked()
	ctx, cancel := context.WithCancel(context.Background())
	t.cancelPoll = cancel
	go t.pollLoop(ctx, gen, taskID)
}

// pollLoop polls immediately, then on a fixed interval until the run
// reaches a terminal status or the loop is superseded.
func (t *Tracker) pollLoop(ctx context.Context, gen uint64, taskID string) {
	if done := t.pollOnce(ctx, gen, taskID); done {
		return
	}

	ticker := time.NewTicker(t.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if done := t.pollOnce(ctx, gen, taskID); done {
				return
			}
		}
	}
}

// pollOnce fetches status once and applies the result if it is still
// current. It returns true when polling should stop.
func (t *Tracker) pollOnce(ctx context.Context, gen uint64, taskID string) bool {
	t.mu.Lock()
	if t.generation != gen {
		t.mu.Unlock()
		return true
	}
	sinceSeq := t.cursor
	t.pollSerial++
	serial := t.pollSerial
	t.mu.Unlock()

	task, activities, err := t.api.TaskStatus(ctx, taskID, sinceSeq)

	t.mu.Lock()
	if t.generation != gen {
		t.mu.Unlock()
		return true
	}
	if serial <= t.applied {
		// An out-of-order response; a newer poll already landed.
		t.mu.Unlock()
		return false
	}
	t.applied = serial

	if err != nil {
		if ctx.Err() != nil {
			t.mu.Unlock()
			return true
		}
		// Transient failures keep the last known state on screen.
		t.failedPolls++
		t.mu.Unlock()
		t.logf(taskID, "poll", "poll failed: "+err.Error())
		return false
	}

	t.failedPolls = 0
	t.task = cloneTask(task)
	t.activities = domain.MergeActivities(t.activities, activities)
	t.cursor = domain.ActivityCursor(t.activities)

	if !task.IsTerminal() {
		t.mu.Unlock()
		return false
	}

	t.stopPollingLocked()
	final := cloneTask(t.task)
	notify := !t.notified
	t.notified = true
	_ = t.slot.Clear()
	t.mu.Unlock()

	t.recordRun(final)
	t.infof(taskID, "poll", "analysis finished: "+string(final.Status))

	if notify {
		t.dispatchTerminal(final)
	}
	return true
}

// dispatchTerminal routes the terminal callback by final status.
func (t *Tracker) dispatchTerminal(task *domain.Task) {
	if task.Status == domain.StatusFailed {
		if t.cb.OnError != nil {
			t.cb.OnError(task)
		}
		return
	}
	if t.cb.OnComplete != nil {
		t.cb.OnComplete(task)
	}
}

func (t *Tracker) recordRun(task *domain.Task) {
	if t.history == nil {
		return
	}
	if err := t.history.Append(domain.NewRunRecord(task)); err != nil {
		t.logf(task.ID, "history", "record run: "+err.Error())
	}
}

func (t *Tracker) infof(taskID, category, msg string) {
	if t.logger != nil {
		t.logger.Info(taskID, category, msg)
	}
}

func (t *Tracker) logf(taskID, category, msg string) {
	if t.logger != nil {
		t.logger.Warn(taskID, category, msg)
	}
}

// cloneTask copies a task so callers never share the tracker's mutable
// pointer. Slice fields are shared and must be treated as read-only.
func cloneTask(task *domain.Task) *domain.Task {
	if task == nil {
		return nil
	}
	c := *task
	return &c
}
