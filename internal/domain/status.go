package domain

// Status represents the lifecycle state of an analysis task as reported
// by the server. The phase statuses between pending and the terminal
// states describe which stage of the autonomous pipeline is running.
type Status string

const (
	StatusPending            Status = "pending"             // Created, not yet picked up
	StatusMacroScan          Status = "macro_scan"          // Scanning macro environment
	StatusSectorRotation     Status = "sector_rotation"     // Analyzing sector rotation
	StatusOpportunityHunt    Status = "opportunity_hunt"    // Screening for opportunities
	StatusHeatmapFetch       Status = "heatmap_fetch"       // Fetching market heatmap
	StatusHeatmapAnalysis    Status = "heatmap_analysis"    // Analyzing heatmap patterns
	StatusDeepDive           Status = "deep_dive"           // Detailed multi-analyst analysis
	StatusCoverageEvaluation Status = "coverage_evaluation" // Evaluating coverage
	StatusSynthesis          Status = "synthesis"           // Synthesizing final insights
	StatusCompleted          Status = "completed"           // Finished successfully
	StatusFailed             Status = "failed"              // Finished with an error
	StatusCancelled          Status = "cancelled"           // Cancelled by the user
)

// AllStatuses returns all valid status values.
func AllStatuses() []Status {
	return []Status{
		StatusPending,
		StatusMacroScan,
		StatusSectorRotation,
		StatusOpportunityHunt,
		StatusHeatmapFetch,
		StatusHeatmapAnalysis,
		StatusDeepDive,
		StatusCoverageEvaluation,
		StatusSynthesis,
		StatusCompleted,
		StatusFailed,
		StatusCancelled,
	}
}

// IsTerminal returns true if no further transition can occur from this status.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// IsActive returns true for any valid non-terminal status.
func (s Status) IsActive() bool {
	return s.IsValid() && !s.IsTerminal()
}

// IsValid returns true if the status is a known value.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusMacroScan, StatusSectorRotation, StatusOpportunityHunt,
		StatusHeatmapFetch, StatusHeatmapAnalysis, StatusDeepDive,
		StatusCoverageEvaluation, StatusSynthesis,
		StatusCompleted, StatusFailed, StatusCancelled:
		return true
	default:
		return false
	}
}

// phaseNames maps each status to its human-readable phase name.
var phaseNames = map[Status]string{
	StatusPending:            "Initializing...",
	StatusMacroScan:          "Scanning macro environment",
	StatusSectorRotation:     "Analyzing sector rotation",
	StatusOpportunityHunt:    "Discovering opportunities",
	StatusHeatmapFetch:       "Fetching market heatmap",
	StatusHeatmapAnalysis:    "Analyzing heatmap patterns",
	StatusDeepDive:           "Running deep analysis",
	StatusCoverageEvaluation: "Evaluating coverage",
	StatusSynthesis:          "Synthesizing insights",
	StatusCompleted:          "Analysis complete",
	StatusFailed:             "Analysis failed",
	StatusCancelled:          "Analysis cancelled",
}

// PhaseName returns the human-readable name of the phase this status
// represents, or the raw status string for unknown values.
func (s Status) PhaseName() string {
	if name, ok := phaseNames[s]; ok {
		return name
	}
	return string(s)
}

// nominalProgress maps each status to the progress percent the server
// reports on entering that phase. Failed and cancelled report -1.
var nominalProgress = map[Status]int{
	StatusPending:            0,
	StatusMacroScan:          10,
	StatusSectorRotation:     25,
	StatusOpportunityHunt:    45,
	StatusHeatmapFetch:       20,
	StatusHeatmapAnalysis:    35,
	StatusDeepDive:           55,
	StatusCoverageEvaluation: 75,
	StatusSynthesis:          90,
	StatusCompleted:          100,
	StatusFailed:             -1,
	StatusCancelled:          -1,
}

// NominalProgress returns the progress percent associated with entering
// this status. Used as a fallback when the server omits progress.
func (s Status) NominalProgress() int {
	if p, ok := nominalProgress[s]; ok {
		return p
	}
	return 0
}

// Display returns a short human-readable representation of the status.
func (s Status) Display() string {
	switch s {
	case StatusPending:
		return "Pending"
	case StatusCompleted:
		return "Completed"
	case StatusFailed:
		return "Failed"
	case StatusCancelled:
		return "Cancelled"
	default:
		if s.IsValid() {
			return "Running"
		}
		return string(s)
	}
}
