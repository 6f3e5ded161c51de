package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/barkain/scout/internal/app"
	"github.com/barkain/scout/internal/usecase"
	"github.com/spf13/cobra"
)

// newRunsCommand creates the runs command group.
func newRunsCommand(c *app.Container) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Manage locally recorded runs",
		Long:  `List and prune the local history of finished analysis runs.`,
	}

	cmd.AddCommand(newRunsListCommand(c))
	cmd.AddCommand(newRunsPruneCommand(c))

	return cmd
}

// newRunsListCommand creates the runs list subcommand.
func newRunsListCommand(c *app.Container) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			uc := c.ListRunsUseCase()
			out, err := uc.Execute(cmd.Context(), usecase.ListRunsInput{Limit: limit})
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if len(out.Runs) == 0 {
				fmt.Fprintln(w, "No recorded runs.")
				return nil
			}

			tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "TASK\tSTATUS\tFINISHED\tELAPSED\tINSIGHTS\tREGIME")
			for _, r := range out.Runs {
				finished := "-"
				if !r.CompletedAt.IsZero() {
					finished = r.CompletedAt.Local().Format("2006-01-02 15:04")
				}
				regime := r.MarketRegime
				if regime == "" {
					regime = "-"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\n",
					shortID(r.TaskID), r.Status, finished, formatElapsed(r.ElapsedSeconds), r.InsightCount, regime)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Show at most this many runs (0 = all)")

	return cmd
}

// newRunsPruneCommand creates the runs prune subcommand.
func newRunsPruneCommand(c *app.Container) *cobra.Command {
	var keep int

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Remove old run records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			uc := c.PruneRunsUseCase()
			out, err := uc.Execute(cmd.Context(), usecase.PruneRunsInput{Keep: keep})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d run(s), kept %d\n", out.Removed, out.Kept)
			return nil
		},
	}

	cmd.Flags().IntVar(&keep, "keep", 20, "Number of newest runs to keep")

	return cmd
}

// shortID returns the first UUID segment of a task id.
func shortID(id string) string {
	for i := 0; i < len(id); i++ {
		if id[i] == '-' {
			return id[:i]
		}
	}
	return id
}
