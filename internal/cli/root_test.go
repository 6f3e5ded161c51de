package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/barkain/scout/internal/app"
	"github.com/barkain/scout/internal/domain"
	"github.com/barkain/scout/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testTaskID = "4f2a1c3e-9a71-4be3-8a2e-0f1d5a6b7c8d"

func newTestContainer(api *testutil.MockAPI) (*app.Container, *testutil.MockSlot, *testutil.MockHistory) {
	slot := &testutil.MockSlot{}
	history := &testutil.MockHistory{}
	cfg := domain.NewDefaultConfig()
	cfg.Poll.IntervalMS = int(time.Hour / time.Millisecond)
	c := app.NewWithDeps(cfg, api, slot, history, &testutil.MockClock{NowTime: time.Now()})
	return c, slot, history
}

func execute(t *testing.T, c *app.Container, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand(c, "test")
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return buf.String(), err
}

func TestRootCommand_Help(t *testing.T) {
	out, err := execute(t, nil, "--help")
	require.NoError(t, err)
	assert.Contains(t, out, "Analysis Commands:")
	assert.Contains(t, out, "scout")
}

func TestRunCommand_Detach(t *testing.T) {
	api := &testutil.MockAPI{
		StartAckV: &domain.StartAck{TaskID: testTaskID, Status: "pending"},
		StatusReplies: []testutil.StatusReply{
			{Task: &domain.Task{ID: testTaskID, Status: domain.StatusPending}},
		},
	}
	c, slot, _ := newTestContainer(api)
	defer c.Close()

	out, err := execute(t, c, "run", "--detach", "--max-insights", "4")
	require.NoError(t, err)
	assert.Contains(t, out, "Started analysis task "+testTaskID)
	assert.Contains(t, out, "scout watch")
	assert.Equal(t, testTaskID, slot.Saved())
	require.Len(t, api.StartCalls, 1)
	assert.Equal(t, 4, api.StartCalls[0].MaxInsights)
}

func TestRunCommand_RefusesWhenRunning(t *testing.T) {
	running := &domain.Task{ID: "other-task", Status: domain.StatusDeepDive}
	api := &testutil.MockAPI{
		ActiveTaskV:   running,
		StatusReplies: []testutil.StatusReply{{Task: running}},
	}
	c, _, _ := newTestContainer(api)
	defer c.Close()

	_, err := execute(t, c, "run", "--detach")
	assert.ErrorIs(t, err, domain.ErrAnalysisRunning)
}

func TestStatusCommand_JSON(t *testing.T) {
	api := &testutil.MockAPI{
		RecentTaskV: &domain.Task{
			ID:             testTaskID,
			Status:         domain.StatusCompleted,
			ElapsedSeconds: 33,
		},
	}
	c, _, _ := newTestContainer(api)
	defer c.Close()

	out, err := execute(t, c, "status", "-o", "json")
	require.NoError(t, err)

	var report struct {
		Task   *domain.Task `json:"task"`
		Source string       `json:"source"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, testTaskID, report.Task.ID)
	assert.Equal(t, "recent", report.Source)
}

func TestStatusCommand_NothingFound(t *testing.T) {
	c, _, _ := newTestContainer(&testutil.MockAPI{})
	defer c.Close()

	out, err := execute(t, c, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "No analysis run found")
}

func TestStatusCommand_BadFormat(t *testing.T) {
	c, _, _ := newTestContainer(&testutil.MockAPI{})
	defer c.Close()

	_, err := execute(t, c, "status", "-o", "xml")
	assert.Error(t, err)
}

func TestCancelCommand_AdoptsAndCancels(t *testing.T) {
	running := &domain.Task{ID: testTaskID, Status: domain.StatusSynthesis}
	api := &testutil.MockAPI{
		ActiveTaskV:   running,
		StatusReplies: []testutil.StatusReply{{Task: running}},
	}
	c, slot, _ := newTestContainer(api)
	defer c.Close()

	out, err := execute(t, c, "cancel")
	require.NoError(t, err)
	assert.Contains(t, out, "Cancelled task "+testTaskID)
	assert.Equal(t, []string{testTaskID}, api.CancelCalls)
	assert.Empty(t, slot.Saved())
}

func TestCancelCommand_NothingRunning(t *testing.T) {
	c, _, _ := newTestContainer(&testutil.MockAPI{})
	defer c.Close()

	_, err := execute(t, c, "cancel")
	assert.ErrorIs(t, err, domain.ErrNoActiveTask)
}

func TestClearCommand(t *testing.T) {
	c, slot, _ := newTestContainer(&testutil.MockAPI{})
	defer c.Close()
	slot.TaskID = testTaskID

	out, err := execute(t, c, "clear")
	require.NoError(t, err)
	assert.Contains(t, out, "Cleared tracked run")
	assert.Empty(t, slot.Saved())
}

func TestRunsListCommand(t *testing.T) {
	c, _, history := newTestContainer(&testutil.MockAPI{})
	defer c.Close()
	require.NoError(t, history.Append(domain.RunRecord{
		TaskID:         testTaskID,
		Status:         domain.StatusCompleted,
		CompletedAt:    time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		ElapsedSeconds: 125,
		InsightCount:   5,
		MarketRegime:   "risk-on",
	}))

	out, err := execute(t, c, "runs", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "4f2a1c3e")
	assert.Contains(t, out, "completed")
	assert.Contains(t, out, "risk-on")
}

func TestRunsListCommand_Empty(t *testing.T) {
	c, _, _ := newTestContainer(&testutil.MockAPI{})
	defer c.Close()

	out, err := execute(t, c, "runs", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No recorded runs")
}

func TestRunsPruneCommand(t *testing.T) {
	c, _, history := newTestContainer(&testutil.MockAPI{})
	defer c.Close()
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, history.Append(domain.RunRecord{TaskID: id, Status: domain.StatusCompleted}))
	}

	out, err := execute(t, c, "runs", "prune", "--keep", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Removed 2 run(s), kept 1")
}

func TestPingCommand_Healthy(t *testing.T) {
	c, _, _ := newTestContainer(&testutil.MockAPI{})
	defer c.Close()

	out, err := execute(t, c, "ping")
	require.NoError(t, err)
	assert.Contains(t, out, "is healthy")
}

func TestPingCommand_Unreachable(t *testing.T) {
	c, _, _ := newTestContainer(&testutil.MockAPI{HealthErr: assert.AnError})
	defer c.Close()

	_, err := execute(t, c, "ping")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server unreachable")
}
