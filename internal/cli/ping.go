package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/barkain/scout/internal/app"
	"github.com/barkain/scout/internal/usecase"
	"github.com/spf13/cobra"
)

// newPingCommand creates the ping command.
func newPingCommand(c *app.Container) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ping",
		Short: "Check that the analysis server is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			uc := c.PingUseCase()
			out, err := uc.Execute(cmd.Context(), usecase.PingInput{})
			if err != nil {
				return err
			}
			if !out.Healthy {
				return errors.New("server unreachable: " + out.Error)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Server %s is healthy (%s)\n",
				c.Config.Server.URL, out.Latency.Round(time.Millisecond))
			return nil
		},
	}
	return cmd
}
