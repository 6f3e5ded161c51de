package cli

import (
	"fmt"

	"github.com/barkain/scout/internal/app"
	"github.com/barkain/scout/internal/usecase"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
)

// newConfigCommand creates the config command.
func newConfigCommand(c *app.Container) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
		Long:  `Manage scout configuration files and settings.`,
		// No RunE: shows subcommand list when called without arguments
	}

	cmd.AddCommand(newConfigShowCommand(c))
	cmd.AddCommand(newConfigInitCommand(c))

	return cmd
}

// newConfigShowCommand creates the config show subcommand.
func newConfigShowCommand(c *app.Container) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Display effective configuration",
		Long: `Display effective configuration after merging all sources.

Shows which config files were loaded and the final merged settings.
The local file (scout.toml in the working directory) overrides the
global one.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			uc := c.ShowConfigUseCase()
			out, err := uc.Execute(cmd.Context(), usecase.ShowConfigInput{})
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintln(w, "[Loaded from]")
			for _, info := range []struct {
				path   string
				exists bool
			}{
				{out.Global.Path, out.Global.Exists},
				{out.Local.Path, out.Local.Exists},
			} {
				if info.path == "" {
					continue
				}
				if info.exists {
					fmt.Fprintf(w, "- %s\n", info.path)
				} else {
					fmt.Fprintf(w, "- %s (not found)\n", info.path)
				}
			}

			fmt.Fprintln(w)
			fmt.Fprintln(w, "[Effective settings]")
			rendered, err := toml.Marshal(map[string]any{
				"server": map[string]any{
					"url":     out.Config.Server.URL,
					"timeout": out.Config.Server.TimeoutSeconds,
				},
				"poll": map[string]any{
					"interval_ms": out.Config.Poll.IntervalMS,
				},
				"analysis": map[string]any{
					"max_insights":    out.Config.Analysis.MaxInsights,
					"deep_dive_count": out.Config.Analysis.DeepDiveCount,
				},
				"log": map[string]any{
					"level": out.Config.Log.Level,
				},
			})
			if err != nil {
				return err
			}
			_, err = w.Write(rendered)
			return err
		},
	}
	return cmd
}

// newConfigInitCommand creates the config init subcommand.
func newConfigInitCommand(c *app.Container) *cobra.Command {
	var global bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a config file from the default template",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			uc := c.InitConfigUseCase()
			out, err := uc.Execute(cmd.Context(), usecase.InitConfigInput{Global: global})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", out.Path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&global, "global", false, "Create the global config instead of a local scout.toml")

	return cmd
}
