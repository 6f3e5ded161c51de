package cli

import (
	"fmt"

	"github.com/barkain/scout/internal/app"
	"github.com/barkain/scout/internal/usecase"
	"github.com/spf13/cobra"
)

// newRunCommand creates the run command for starting an analysis.
func newRunCommand(c *app.Container) *cobra.Command {
	var opts struct {
		MaxInsights   int
		DeepDiveCount int
		Force         bool
		Detach        bool
		NoTUI         bool
	}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start an autonomous analysis run",
		Long: `Start an autonomous analysis run on the server and follow it live.

Only one run is tracked at a time. If a run is already active the
command refuses to start another; use --force to cancel it first.

Examples:
  # Start with configured defaults and watch live
  scout run

  # Start a larger run
  scout run --max-insights 10 --deep-dive 12

  # Start and return immediately; follow later with 'scout watch'
  scout run --detach

  # Replace a stuck run
  scout run --force`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			uc := c.StartAnalysisUseCase()
			out, err := uc.Execute(cmd.Context(), usecase.StartAnalysisInput{
				MaxInsights:   opts.MaxInsights,
				DeepDiveCount: opts.DeepDiveCount,
				Force:         opts.Force,
			})
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if out.Replaced != "" {
				fmt.Fprintf(w, "Cancelled running task %s\n", out.Replaced)
			}
			fmt.Fprintf(w, "Started analysis task %s\n", out.Task.ID)

			if opts.Detach {
				fmt.Fprintln(w, "Follow it with: scout watch")
				return nil
			}
			return followRun(cmd, c, opts.NoTUI)
		},
	}

	cmd.Flags().IntVar(&opts.MaxInsights, "max-insights", 0, "Number of insights to produce (default from config)")
	cmd.Flags().IntVar(&opts.DeepDiveCount, "deep-dive", 0, "Number of deep-dive candidates (default from config)")
	cmd.Flags().BoolVar(&opts.Force, "force", false, "Cancel an already running analysis first")
	cmd.Flags().BoolVar(&opts.Detach, "detach", false, "Start the run and return immediately")
	cmd.Flags().BoolVar(&opts.NoTUI, "no-tui", false, "Follow with plain line output instead of the TUI")

	return cmd
}
