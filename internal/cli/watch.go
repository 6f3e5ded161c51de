package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/barkain/scout/internal/app"
	"github.com/barkain/scout/internal/domain"
	"github.com/barkain/scout/internal/tracker"
	"github.com/barkain/scout/internal/tui"
	"github.com/spf13/cobra"
)

// launchWatchTUIFunc is a function variable for launching the watch TUI,
// allowing it to be mocked in tests.
var launchWatchTUIFunc = tui.RunWatch

// newWatchCommand creates the watch command for following an active run.
func newWatchCommand(c *app.Container) *cobra.Command {
	var noTUI bool

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow the active analysis run",
		Long: `Follow the active analysis run until it finishes.

The run to follow is found via the locally saved task id, falling back
to asking the server for its active run. This works across restarts:
a run started by a previous scout process (or by 'scout run --detach')
is picked up mid-flight.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			task, err := c.Tracker().CheckActive(cmd.Context())
			if err != nil {
				return err
			}
			if task == nil {
				return domain.ErrNoActiveTask
			}
			if task.IsTerminal() {
				fmt.Fprintf(cmd.OutOrStdout(), "Task %s already finished: %s\n", task.ID, task.Status)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Watching task %s\n", task.ID)
			return followRun(cmd, c, noTUI)
		},
	}

	cmd.Flags().BoolVar(&noTUI, "no-tui", false, "Follow with plain line output instead of the TUI")

	return cmd
}

// followRun follows the tracked run until it reaches a terminal status.
func followRun(cmd *cobra.Command, c *app.Container, noTUI bool) error {
	if noTUI {
		return followPlain(cmd.Context(), c, cmd.OutOrStdout())
	}
	return launchWatchTUIFunc(c.Tracker())
}

// followPlain prints activity lines as they arrive and returns when the
// run finishes. Interrupting leaves the run going on the server.
func followPlain(ctx context.Context, c *app.Container, w io.Writer) error {
	tr := c.Tracker()
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	var printed int64
	var lastStatus domain.Status

	for {
		snap := tr.Snapshot()
		if snap.Task != nil && snap.Task.Status != lastStatus {
			lastStatus = snap.Task.Status
			fmt.Fprintf(w, "== %s\n", lastStatus.PhaseName())
		}
		for _, a := range snap.Activities {
			if a.Seq > printed {
				printed = a.Seq
				fmt.Fprintf(w, "%s\n", formatActivity(a))
			}
		}
		if snap.Task != nil && snap.Task.IsTerminal() {
			return printOutcome(w, snap)
		}

		select {
		case <-ctx.Done():
			fmt.Fprintln(w, "Detached. The run continues on the server; resume with: scout watch")
			return nil
		case <-ticker.C:
		}
	}
}

func printOutcome(w io.Writer, snap tracker.Snapshot) error {
	task := snap.Task
	switch task.Status {
	case domain.StatusCompleted:
		fmt.Fprintf(w, "Analysis complete in %s", formatElapsed(snap.Elapsed.Seconds()))
		if n := len(task.ResultInsightIDs); n > 0 {
			fmt.Fprintf(w, ", %d insights", n)
		}
		fmt.Fprintln(w)
	case domain.StatusFailed:
		fmt.Fprintf(w, "Analysis failed: %s\n", task.ErrorMessage)
	case domain.StatusCancelled:
		fmt.Fprintln(w, "Analysis cancelled")
	}
	return nil
}
