package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/barkain/scout/internal/domain"
	"github.com/barkain/scout/internal/usecase"
	"gopkg.in/yaml.v3"
)

// Output formats accepted by -o/--output.
const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

func validateFormat(format string) error {
	switch format {
	case formatText, formatJSON, formatYAML:
		return nil
	default:
		return fmt.Errorf("unknown output format %q (want text, json, or yaml)", format)
	}
}

// statusReport is the machine-readable shape of a status lookup.
type statusReport struct {
	Task       *domain.Task      `json:"task" yaml:"task"`
	Activities []domain.Activity `json:"activities,omitempty" yaml:"activities,omitempty"`
	Source     string            `json:"source" yaml:"source"`
	ElapsedSec float64           `json:"elapsed_seconds" yaml:"elapsed_seconds"`
}

// renderStatus writes a status lookup in the requested format.
func renderStatus(w io.Writer, out *usecase.ShowStatusOutput, format string) error {
	if out.Task == nil {
		if format == formatText {
			_, err := fmt.Fprintln(w, "No analysis run found.")
			return err
		}
	}

	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(statusReport{
			Task:       out.Task,
			Activities: out.Activities,
			Source:     out.Source,
			ElapsedSec: out.Elapsed,
		})
	case formatYAML:
		return yaml.NewEncoder(w).Encode(statusReport{
			Task:       out.Task,
			Activities: out.Activities,
			Source:     out.Source,
			ElapsedSec: out.Elapsed,
		})
	default:
		return renderStatusText(w, out)
	}
}

func renderStatusText(w io.Writer, out *usecase.ShowStatusOutput) error {
	task := out.Task
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintf(tw, "Task:\t%s\n", task.ID)
	fmt.Fprintf(tw, "Status:\t%s (%s)\n", task.Status.Display(), task.Status)
	fmt.Fprintf(tw, "Phase:\t%s\n", phaseLine(task))
	fmt.Fprintf(tw, "Progress:\t%s\n", progressLine(task))
	fmt.Fprintf(tw, "Elapsed:\t%s\n", formatElapsed(out.Elapsed))
	if task.MarketRegime != "" {
		fmt.Fprintf(tw, "Regime:\t%s\n", task.MarketRegime)
	}
	if len(task.TopSectors) > 0 {
		fmt.Fprintf(tw, "Top sectors:\t%s\n", strings.Join(task.TopSectors, ", "))
	}
	if task.HasResult() {
		fmt.Fprintf(tw, "Insights:\t%d\n", len(task.ResultInsightIDs))
	}
	if task.ErrorMessage != "" {
		fmt.Fprintf(tw, "Error:\t%s\n", task.ErrorMessage)
	}
	fmt.Fprintf(tw, "Source:\t%s\n", out.Source)
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(out.Activities) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Recent activity:")
		tail := out.Activities
		if len(tail) > 10 {
			tail = tail[len(tail)-10:]
		}
		for _, a := range tail {
			fmt.Fprintf(w, "  %s\n", formatActivity(a))
		}
	}
	return nil
}

// phaseLine prefers the server's phase name over the derived one.
func phaseLine(task *domain.Task) string {
	if task.PhaseName != "" {
		return task.PhaseName
	}
	return task.Status.PhaseName()
}

func progressLine(task *domain.Task) string {
	p := task.Progress
	if p < 0 {
		return "-"
	}
	if p == 0 {
		p = task.Status.NominalProgress()
		if p < 0 {
			return "-"
		}
	}
	return fmt.Sprintf("%d%%", p)
}

// formatElapsed renders elapsed seconds as 1h2m3s-style text.
func formatElapsed(seconds float64) string {
	if seconds <= 0 {
		return "0s"
	}
	d := time.Duration(seconds * float64(time.Second)).Round(time.Second)
	return d.String()
}

func formatActivity(a domain.Activity) string {
	var b strings.Builder
	if !a.Time.IsZero() {
		b.WriteString(a.Time.Format("15:04:05"))
		b.WriteString(" ")
	}
	if a.Phase != "" {
		b.WriteString("[")
		b.WriteString(a.Phase)
		b.WriteString("] ")
	}
	b.WriteString(a.Message)
	return b.String()
}
