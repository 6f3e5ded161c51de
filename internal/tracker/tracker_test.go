package tracker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/barkain/scout/internal/domain"
	"github.com/barkain/scout/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testTaskID = "4f2a1c3e-9a71-4be3-8a2e-0f1d5a6b7c8d"

func runningTask(phase string) *domain.Task {
	return &domain.Task{
		ID:           testTaskID,
		Status:       domain.StatusMacroScan,
		CurrentPhase: phase,
		Progress:     10,
	}
}

func completedTask() *domain.Task {
	return &domain.Task{
		ID:               testTaskID,
		Status:           domain.StatusCompleted,
		Progress:         100,
		ResultInsightIDs: []int{1, 2, 3},
		ElapsedSeconds:   42.5,
	}
}

type terminalCounter struct {
	completes atomic.Int32
	errors    atomic.Int32
	last      atomic.Value // *domain.Task
}

func (c *terminalCounter) callbacks() Callbacks {
	return Callbacks{
		OnComplete: func(task *domain.Task) {
			c.last.Store(task)
			c.completes.Add(1)
		},
		OnError: func(task *domain.Task) {
			c.last.Store(task)
			c.errors.Add(1)
		},
	}
}

func newTestTracker(api *testutil.MockAPI, cb Callbacks) (*Tracker, *testutil.MockSlot, *testutil.MockHistory) {
	slot := &testutil.MockSlot{}
	history := &testutil.MockHistory{}
	tr := New(api, slot, history, &testutil.MockLogger{}, &testutil.MockClock{NowTime: time.Now()},
		Options{PollInterval: 5 * time.Millisecond}, cb)
	return tr, slot, history
}

func TestTracker_Start_RunsToCompletion(t *testing.T) {
	api := &testutil.MockAPI{
		StartAckV: &domain.StartAck{TaskID: testTaskID, Status: "pending"},
		StatusReplies: []testutil.StatusReply{
			{Task: runningTask("macro_scan"), Activities: []domain.Activity{
				{Seq: 1, Message: "scanning macro indicators"},
				{Seq: 2, Message: "regime detected"},
			}},
			{Task: runningTask("deep_dive"), Activities: []domain.Activity{
				{Seq: 3, Message: "diving into NVDA"},
			}},
			{Task: completedTask()},
		},
	}
	var counter terminalCounter
	tr, slot, history := newTestTracker(api, counter.callbacks())
	defer tr.Close()

	task, err := tr.Start(context.Background(), domain.StartParams{MaxInsights: 5, DeepDiveCount: 7})
	require.NoError(t, err)
	assert.Equal(t, testTaskID, task.ID)
	assert.Equal(t, []domain.StartParams{{MaxInsights: 5, DeepDiveCount: 7}}, api.StartCalls)

	require.Eventually(t, func() bool {
		return counter.completes.Load() == 1
	}, 2*time.Second, 5*time.Millisecond)

	final := counter.last.Load().(*domain.Task)
	assert.Equal(t, domain.StatusCompleted, final.Status)

	snap := tr.Snapshot()
	assert.True(t, snap.Tracking)
	assert.False(t, snap.Polling)
	assert.Equal(t, domain.StatusCompleted, snap.Task.Status)
	assert.Len(t, snap.Activities, 3)
	assert.Equal(t, int64(3), snap.Cursor)

	// Terminal run cleared the slot and landed in history.
	assert.Empty(t, slot.Saved())
	assert.Equal(t, 1, history.Count())

	// Cursor advanced across polls instead of re-fetching everything.
	assert.Equal(t, int64(0), api.StatusCalls[0].SinceSeq)
	assert.Equal(t, int64(2), api.StatusCalls[1].SinceSeq)
	assert.Equal(t, int64(3), api.StatusCalls[2].SinceSeq)
}

func TestTracker_Start_PersistsTaskID(t *testing.T) {
	api := &testutil.MockAPI{
		StartAckV:     &domain.StartAck{TaskID: testTaskID, Status: "pending"},
		StatusReplies: []testutil.StatusReply{{Task: runningTask("macro_scan")}},
	}
	tr, slot, _ := newTestTracker(api, Callbacks{})
	defer tr.Close()

	_, err := tr.Start(context.Background(), domain.StartParams{})
	require.NoError(t, err)
	assert.Equal(t, testTaskID, slot.Saved())
}

func TestTracker_Start_ServerError(t *testing.T) {
	api := &testutil.MockAPI{StartErr: errors.New("boom")}
	tr, slot, _ := newTestTracker(api, Callbacks{})

	_, err := tr.Start(context.Background(), domain.StartParams{})
	assert.Error(t, err)
	assert.Empty(t, slot.SetCalls)
	assert.False(t, tr.Snapshot().Tracking)
}

// holdStartAPI blocks StartAnalysis until released, signalling when the
// call is entered so tests can interleave work while it is in flight.
type holdStartAPI struct {
	*testutil.MockAPI
	held    chan struct{}
	release chan struct{}
}

func (a *holdStartAPI) StartAnalysis(ctx context.Context, params domain.StartParams) (*domain.StartAck, error) {
	a.held <- struct{}{}
	<-a.release
	return a.MockAPI.StartAnalysis(ctx, params)
}

func TestTracker_Start_SupersededBySlowResponse(t *testing.T) {
	api := &holdStartAPI{
		MockAPI: &testutil.MockAPI{
			StartAckV: &domain.StartAck{TaskID: testTaskID, Status: "pending"},
		},
		held:    make(chan struct{}),
		release: make(chan struct{}),
	}
	slot := &testutil.MockSlot{}
	tr := New(api, slot, &testutil.MockHistory{}, &testutil.MockLogger{}, &testutil.MockClock{NowTime: time.Now()},
		Options{PollInterval: 5 * time.Millisecond}, Callbacks{})

	errCh := make(chan error, 1)
	go func() {
		_, err := tr.Start(context.Background(), domain.StartParams{})
		errCh <- err
	}()
	<-api.held

	// Supersede the run while the start request is still in flight.
	require.NoError(t, tr.Clear())
	close(api.release)

	err := <-errCh
	assert.ErrorIs(t, err, domain.ErrSuperseded)
	assert.Empty(t, slot.SetCalls)
	assert.False(t, tr.Snapshot().Tracking)
}

func TestTracker_PollError_KeepsPollingAndState(t *testing.T) {
	api := &testutil.MockAPI{
		StartAckV: &domain.StartAck{TaskID: testTaskID, Status: "pending"},
		StatusReplies: []testutil.StatusReply{
			{Task: runningTask("macro_scan"), Activities: []domain.Activity{{Seq: 1, Message: "started"}}},
			{Err: errors.New("connection refused")},
			{Err: errors.New("connection refused")},
			{Task: completedTask()},
		},
	}
	var counter terminalCounter
	tr, _, _ := newTestTracker(api, counter.callbacks())
	defer tr.Close()

	_, err := tr.Start(context.Background(), domain.StartParams{})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return counter.completes.Load() == 1
	}, 2*time.Second, 5*time.Millisecond)

	snap := tr.Snapshot()
	assert.Equal(t, domain.StatusCompleted, snap.Task.Status)
	// A successful poll resets the failure counter.
	assert.Equal(t, 0, snap.FailedPolls)
	// Earlier activity survived the failed polls.
	require.Len(t, snap.Activities, 1)
	assert.Equal(t, "started", snap.Activities[0].Message)
}

func TestTracker_FailedPolls_Counted(t *testing.T) {
	api := &testutil.MockAPI{
		StartAckV: &domain.StartAck{TaskID: testTaskID, Status: "pending"},
		StatusReplies: []testutil.StatusReply{
			{Err: errors.New("connection refused")},
		},
	}
	tr, _, _ := newTestTracker(api, Callbacks{})
	defer tr.Close()

	_, err := tr.Start(context.Background(), domain.StartParams{})
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		return tr.Snapshot().FailedPolls >= 2
	}, 2*time.Second, 5*time.Millisecond)
	assert.True(t, tr.Snapshot().Polling)
}

func TestTracker_FailedRun_FiresOnError(t *testing.T) {
	failed := &domain.Task{
		ID:           testTaskID,
		Status:       domain.StatusFailed,
		Progress:     -1,
		ErrorMessage: "LLM provider unavailable",
	}
	api := &testutil.MockAPI{
		StartAckV:     &domain.StartAck{TaskID: testTaskID, Status: "pending"},
		StatusReplies: []testutil.StatusReply{{Task: failed}},
	}
	var counter terminalCounter
	tr, _, history := newTestTracker(api, counter.callbacks())
	defer tr.Close()

	_, err := tr.Start(context.Background(), domain.StartParams{})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return counter.errors.Load() == 1
	}, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(0), counter.completes.Load())

	recs, err := history.List()
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, domain.StatusFailed, recs[0].Status)
	assert.Equal(t, "LLM provider unavailable", recs[0].ErrorMessage)
}

func TestTracker_TerminalCallback_ExactlyOnce(t *testing.T) {
	api := &testutil.MockAPI{
		StartAckV:     &domain.StartAck{TaskID: testTaskID, Status: "pending"},
		StatusReplies: []testutil.StatusReply{{Task: completedTask()}},
	}
	var counter terminalCounter
	tr, _, _ := newTestTracker(api, counter.callbacks())
	defer tr.Close()

	_, err := tr.Start(context.Background(), domain.StartParams{})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return counter.completes.Load() == 1
	}, 2*time.Second, 5*time.Millisecond)

	// Polling stopped: no further status calls, no further callbacks.
	calls := api.StatusCallCount()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, calls, api.StatusCallCount())
	assert.Equal(t, int32(1), counter.completes.Load())
}

func TestTracker_Cancel_Optimistic(t *testing.T) {
	api := &testutil.MockAPI{
		StartAckV:     &domain.StartAck{TaskID: testTaskID, Status: "pending"},
		StatusReplies: []testutil.StatusReply{{Task: runningTask("macro_scan")}},
	}
	var counter terminalCounter
	tr, slot, history := newTestTracker(api, counter.callbacks())
	defer tr.Close()

	_, err := tr.Start(context.Background(), domain.StartParams{})
	require.NoError(t, err)

	require.NoError(t, tr.Cancel(context.Background()))

	snap := tr.Snapshot()
	assert.Equal(t, domain.StatusCancelled, snap.Task.Status)
	assert.Equal(t, -1, snap.Task.Progress)
	assert.False(t, snap.Polling)
	assert.Empty(t, slot.Saved())
	assert.Equal(t, []string{testTaskID}, api.CancelCalls)
	assert.Equal(t, int32(1), counter.completes.Load())
	assert.Equal(t, 1, history.Count())

	// Any straggler poll response must not resurrect the run.
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, domain.StatusCancelled, tr.Snapshot().Task.Status)
	assert.Equal(t, int32(1), counter.completes.Load())
}

func TestTracker_Cancel_ServerErrorStillSettlesLocally(t *testing.T) {
	api := &testutil.MockAPI{
		StartAckV:     &domain.StartAck{TaskID: testTaskID, Status: "pending"},
		StatusReplies: []testutil.StatusReply{{Task: runningTask("macro_scan")}},
		CancelErr:     errors.New("boom"),
	}
	tr, slot, _ := newTestTracker(api, Callbacks{})
	defer tr.Close()

	_, err := tr.Start(context.Background(), domain.StartParams{})
	require.NoError(t, err)

	require.NoError(t, tr.Cancel(context.Background()))
	assert.Equal(t, domain.StatusCancelled, tr.Snapshot().Task.Status)
	assert.Empty(t, slot.Saved())
}

func TestTracker_Cancel_NotTracking(t *testing.T) {
	tr, _, _ := newTestTracker(&testutil.MockAPI{}, Callbacks{})
	err := tr.Cancel(context.Background())
	assert.ErrorIs(t, err, domain.ErrNotTracking)
}

func TestTracker_CheckActive_ResumesFromSlot(t *testing.T) {
	started := time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)
	running := runningTask("deep_dive")
	running.StartedAt = started

	api := &testutil.MockAPI{
		StatusReplies: []testutil.StatusReply{
			{Task: running, Activities: []domain.Activity{
				{Seq: 7, Message: "resumed mid-flight"},
			}},
		},
	}
	slot := &testutil.MockSlot{TaskID: testTaskID}
	clock := &testutil.MockClock{NowTime: started.Add(90 * time.Second)}
	tr := New(api, slot, &testutil.MockHistory{}, &testutil.MockLogger{}, clock,
		Options{PollInterval: time.Hour}, Callbacks{})
	defer tr.Close()

	task, err := tr.CheckActive(context.Background())
	require.NoError(t, err)
	require.NotNil(t, task)
	assert.Equal(t, testTaskID, task.ID)

	snap := tr.Snapshot()
	assert.True(t, snap.Tracking)
	assert.True(t, snap.Polling)
	assert.Equal(t, int64(7), snap.Cursor)
	// Elapsed continues from the server's start time, not from resume.
	assert.Equal(t, 90*time.Second, snap.Elapsed)
	// The adoption fetch used a zero cursor to get the full backlog.
	assert.Equal(t, int64(0), api.StatusCalls[0].SinceSeq)
}

func TestTracker_CheckActive_StaleSlotFallsBackToServer(t *testing.T) {
	api := &testutil.MockAPI{
		// No scripted status replies: lookup of the saved id fails.
		ActiveTaskV: nil,
	}
	slot := &testutil.MockSlot{TaskID: "dead-beef"}
	tr := New(api, slot, &testutil.MockHistory{}, &testutil.MockLogger{}, &testutil.MockClock{},
		Options{PollInterval: time.Hour}, Callbacks{})

	task, err := tr.CheckActive(context.Background())
	require.NoError(t, err)
	assert.Nil(t, task)
	assert.Empty(t, slot.Saved())
	assert.Equal(t, 1, api.ActiveCalls)
}

func TestTracker_CheckActive_AdoptsServerActiveTask(t *testing.T) {
	api := &testutil.MockAPI{
		ActiveTaskV:   runningTask("synthesis"),
		StatusReplies: []testutil.StatusReply{{Task: runningTask("synthesis")}},
	}
	slot := &testutil.MockSlot{}
	tr := New(api, slot, &testutil.MockHistory{}, &testutil.MockLogger{}, &testutil.MockClock{},
		Options{PollInterval: time.Hour}, Callbacks{})
	defer tr.Close()

	task, err := tr.CheckActive(context.Background())
	require.NoError(t, err)
	require.NotNil(t, task)
	assert.Equal(t, testTaskID, slot.Saved())
}

func TestTracker_CheckActive_TerminalTaskShownOnce(t *testing.T) {
	api := &testutil.MockAPI{
		StatusReplies: []testutil.StatusReply{{Task: completedTask()}},
	}
	slot := &testutil.MockSlot{TaskID: testTaskID}
	history := &testutil.MockHistory{}
	var counter terminalCounter
	tr := New(api, slot, history, &testutil.MockLogger{}, &testutil.MockClock{},
		Options{PollInterval: time.Millisecond}, counter.callbacks())

	task, err := tr.CheckActive(context.Background())
	require.NoError(t, err)
	require.NotNil(t, task)
	assert.Equal(t, domain.StatusCompleted, task.Status)

	assert.Empty(t, slot.Saved())
	assert.Equal(t, 1, history.Count())
	assert.False(t, tr.Snapshot().Polling)

	// No polling started for a finished run.
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 1, api.StatusCallCount())
	// And no callback: the run ended before this process watched it.
	assert.Equal(t, int32(0), counter.completes.Load())
}

// holdStatusAPI blocks TaskStatus calls for one task id until released,
// then reports the task as unknown. Other calls pass through.
type holdStatusAPI struct {
	*testutil.MockAPI
	holdID  string
	held    chan struct{}
	release chan struct{}
}

func (a *holdStatusAPI) TaskStatus(ctx context.Context, taskID string, sinceSeq int64) (*domain.Task, []domain.Activity, error) {
	if taskID == a.holdID {
		a.held <- struct{}{}
		<-a.release
		return nil, nil, domain.ErrTaskNotFound
	}
	return a.MockAPI.TaskStatus(ctx, taskID, sinceSeq)
}

func TestTracker_CheckActive_ConcurrentStartWins(t *testing.T) {
	const staleID = "9e0d64aa-0c4f-4f6e-bb4b-2d9adceb01a7"
	api := &holdStatusAPI{
		MockAPI: &testutil.MockAPI{
			StartAckV:     &domain.StartAck{TaskID: testTaskID, Status: "pending"},
			StatusReplies: []testutil.StatusReply{{Task: runningTask("macro_scan")}},
		},
		holdID:  staleID,
		held:    make(chan struct{}),
		release: make(chan struct{}),
	}
	slot := &testutil.MockSlot{TaskID: staleID}
	tr := New(api, slot, &testutil.MockHistory{}, &testutil.MockLogger{}, &testutil.MockClock{},
		Options{PollInterval: time.Hour}, Callbacks{})
	defer tr.Close()

	type result struct {
		task *domain.Task
		err  error
	}
	resultCh := make(chan result, 1)
	go func() {
		task, err := tr.CheckActive(context.Background())
		resultCh <- result{task, err}
	}()
	<-api.held

	// A new run starts while the stale lookup is still in flight.
	_, err := tr.Start(context.Background(), domain.StartParams{})
	require.NoError(t, err)
	require.Equal(t, testTaskID, slot.Saved())

	close(api.release)
	res := <-resultCh
	require.NoError(t, res.err)
	assert.Nil(t, res.task)

	// The superseded lookup must not have erased the new run's id.
	snap := tr.Snapshot()
	assert.Equal(t, testTaskID, slot.Saved())
	assert.Equal(t, testTaskID, snap.Task.ID)
	assert.True(t, snap.Polling)
}

// reorderAPI holds its first status response until released so a later
// poll can land before it.
type reorderAPI struct {
	*testutil.MockAPI
	calls   atomic.Int32
	inFirst chan struct{}
	release chan struct{}
	stale   testutil.StatusReply
	fresh   testutil.StatusReply
}

func (a *reorderAPI) TaskStatus(ctx context.Context, taskID string, sinceSeq int64) (*domain.Task, []domain.Activity, error) {
	if a.calls.Add(1) == 1 {
		close(a.inFirst)
		<-a.release
		return a.stale.Task, a.stale.Activities, nil
	}
	return a.fresh.Task, a.fresh.Activities, nil
}

func TestTracker_OutOfOrderPollResponseDropped(t *testing.T) {
	stale := runningTask("macro_scan")
	fresh := runningTask("deep_dive")
	fresh.Progress = 80

	api := &reorderAPI{
		MockAPI: &testutil.MockAPI{},
		inFirst: make(chan struct{}),
		release: make(chan struct{}),
		stale:   testutil.StatusReply{Task: stale, Activities: []domain.Activity{{Seq: 1, Message: "scanning macro indicators"}}},
		fresh: testutil.StatusReply{Task: fresh, Activities: []domain.Activity{
			{Seq: 1, Message: "scanning macro indicators"},
			{Seq: 2, Message: "diving into NVDA"},
		}},
	}
	tr := New(api, &testutil.MockSlot{}, nil, nil, nil, Options{PollInterval: time.Hour}, Callbacks{})

	tr.mu.Lock()
	gen := tr.generation
	tr.mu.Unlock()

	done := make(chan bool, 1)
	go func() { done <- tr.pollOnce(context.Background(), gen, testTaskID) }()
	<-api.inFirst

	// The later poll lands first.
	assert.False(t, tr.pollOnce(context.Background(), gen, testTaskID))
	require.Equal(t, 80, tr.Snapshot().Task.Progress)

	close(api.release)
	assert.False(t, <-done)

	// The stale response arrived last but must not roll anything back.
	snap := tr.Snapshot()
	assert.Equal(t, 80, snap.Task.Progress)
	assert.Equal(t, "deep_dive", snap.Task.CurrentPhase)
	assert.Equal(t, int64(2), snap.Cursor)
	assert.Len(t, snap.Activities, 2)
}

func TestTracker_Cancel_KeepsActivityLog(t *testing.T) {
	api := &testutil.MockAPI{
		StartAckV: &domain.StartAck{TaskID: testTaskID, Status: "pending"},
		StatusReplies: []testutil.StatusReply{
			{Task: runningTask("macro_scan"), Activities: []domain.Activity{
				{Seq: 1, Message: "scanning macro indicators"},
				{Seq: 2, Message: "regime detected"},
			}},
		},
	}
	tr, _, _ := newTestTracker(api, Callbacks{})
	defer tr.Close()

	_, err := tr.Start(context.Background(), domain.StartParams{})
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		return tr.Snapshot().Cursor == 2
	}, 2*time.Second, time.Millisecond)

	require.NoError(t, tr.Cancel(context.Background()))

	// The settled view keeps the run's transcript.
	snap := tr.Snapshot()
	assert.Equal(t, domain.StatusCancelled, snap.Task.Status)
	require.Len(t, snap.Activities, 2)
	assert.Equal(t, "regime detected", snap.Activities[1].Message)
	assert.Equal(t, int64(2), snap.Cursor)
}

func TestTracker_CheckActive_NothingRunning(t *testing.T) {
	api := &testutil.MockAPI{}
	tr := New(api, &testutil.MockSlot{}, nil, nil, nil, Options{}, Callbacks{})

	task, err := tr.CheckActive(context.Background())
	require.NoError(t, err)
	assert.Nil(t, task)
}

func TestTracker_Clear_ResetsState(t *testing.T) {
	api := &testutil.MockAPI{
		StartAckV:     &domain.StartAck{TaskID: testTaskID, Status: "pending"},
		StatusReplies: []testutil.StatusReply{{Task: runningTask("macro_scan")}},
	}
	tr, slot, _ := newTestTracker(api, Callbacks{})

	_, err := tr.Start(context.Background(), domain.StartParams{})
	require.NoError(t, err)

	require.NoError(t, tr.Clear())
	assert.Empty(t, slot.Saved())
	assert.False(t, tr.Snapshot().Polling)
}

func TestTracker_Snapshot_Idle(t *testing.T) {
	tr := New(&testutil.MockAPI{}, &testutil.MockSlot{}, nil, nil, nil, Options{}, Callbacks{})

	snap := tr.Snapshot()
	assert.False(t, snap.Tracking)
	assert.False(t, snap.Polling)
	assert.Nil(t, snap.Task)
	assert.Empty(t, snap.Activities)
}
