package cli

import (
	"fmt"

	"github.com/barkain/scout/internal/app"
	"github.com/barkain/scout/internal/usecase"
	"github.com/spf13/cobra"
)

// newCancelCommand creates the cancel command.
func newCancelCommand(c *app.Container) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cancel",
		Short: "Cancel the active analysis run",
		Long: `Cancel the active analysis run.

The run is marked cancelled locally right away; the server is asked to
stop it best effort. A run started by a previous scout process is
adopted first so it can be cancelled too.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			uc := c.CancelAnalysisUseCase()
			out, err := uc.Execute(cmd.Context(), usecase.CancelAnalysisInput{})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cancelled task %s\n", out.Task.ID)
			return nil
		},
	}
	return cmd
}

// newClearCommand creates the clear command.
func newClearCommand(c *app.Container) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Drop the tracked run without contacting the server",
		Long: `Drop the tracked run and the saved task id.

The server run itself is left alone. Useful when the saved state is
stale, e.g. after pointing scout at a different server.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			uc := c.ClearTaskUseCase()
			if _, err := uc.Execute(cmd.Context(), usecase.ClearTaskInput{}); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Cleared tracked run")
			return nil
		},
	}
	return cmd
}
