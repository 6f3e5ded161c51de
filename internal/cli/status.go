package cli

import (
	"github.com/barkain/scout/internal/app"
	"github.com/barkain/scout/internal/usecase"
	"github.com/spf13/cobra"
)

// newStatusCommand creates the status command.
func newStatusCommand(c *app.Container) *cobra.Command {
	var output string
	var noRecent bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the status of the current or most recent run",
		Long: `Show the status of the current analysis run.

Lookup order: the run tracked by this process, then a run adopted from
the saved task id or the server's active run, then the server's most
recently finished run. Use --no-recent to skip the last fallback.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := validateFormat(output); err != nil {
				return err
			}
			uc := c.ShowStatusUseCase()
			out, err := uc.Execute(cmd.Context(), usecase.ShowStatusInput{Recent: !noRecent})
			if err != nil {
				return err
			}
			return renderStatus(cmd.OutOrStdout(), out, output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", formatText, "Output format: text, json, or yaml")
	cmd.Flags().BoolVar(&noRecent, "no-recent", false, "Do not fall back to the most recent finished run")

	return cmd
}
