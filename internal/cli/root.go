// Package cli provides the command-line interface for scout.
package cli

import (
	"github.com/barkain/scout/internal/app"
	"github.com/spf13/cobra"
)

// Command group IDs.
const (
	groupAnalysis = "analysis"
	groupData     = "data"
	groupSetup    = "setup"
)

// NewRootCommand creates the root command for scout.
// It receives the container for dependency injection and version for display.
func NewRootCommand(c *app.Container, version string) *cobra.Command {
	root := &cobra.Command{
		Use:   "scout",
		Short: "Autonomous market analysis runner",
		Long: `scout drives autonomous deep-insight analysis runs on a market
analysis server. It starts a run, follows its progress live, keeps
tracking across client restarts, and records finished runs locally.

A run walks the server's analysis pipeline (macro scan, sector
rotation, opportunity hunt, heatmap analysis, deep dives, synthesis)
and ends completed, failed, or cancelled.`,
		Version: version,
		// SilenceUsage prevents usage from being printed on errors
		SilenceUsage: true,
		// SilenceErrors prevents Cobra from printing errors (we handle it in main)
		SilenceErrors: true,
	}

	// Define command groups
	root.AddGroup(
		&cobra.Group{ID: groupAnalysis, Title: "Analysis Commands:"},
		&cobra.Group{ID: groupData, Title: "Local Data:"},
		&cobra.Group{ID: groupSetup, Title: "Setup Commands:"},
	)

	runCmd := newRunCommand(c)
	runCmd.GroupID = groupAnalysis

	watchCmd := newWatchCommand(c)
	watchCmd.GroupID = groupAnalysis

	statusCmd := newStatusCommand(c)
	statusCmd.GroupID = groupAnalysis

	cancelCmd := newCancelCommand(c)
	cancelCmd.GroupID = groupAnalysis

	clearCmd := newClearCommand(c)
	clearCmd.GroupID = groupAnalysis

	runsCmd := newRunsCommand(c)
	runsCmd.GroupID = groupData

	configCmd := newConfigCommand(c)
	configCmd.GroupID = groupSetup

	pingCmd := newPingCommand(c)
	pingCmd.GroupID = groupSetup

	root.AddCommand(
		runCmd,
		watchCmd,
		statusCmd,
		cancelCmd,
		clearCmd,
		runsCmd,
		configCmd,
		pingCmd,
	)

	return root
}
