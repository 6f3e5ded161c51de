package domain

import (
	"fmt"
	"strings"
	"time"
)

// Config file section defaults.
const (
	DefaultServerURL     = "http://localhost:8000"
	DefaultServerTimeout = 30 * time.Second
	DefaultPollInterval  = 2 * time.Second
	DefaultMaxInsights   = 5
	DefaultDeepDiveCount = 7
)

// Config represents the application configuration.
type Config struct {
	Server   ServerConfig   // [server] settings
	Poll     PollConfig     // [poll] settings
	Analysis AnalysisConfig // [analysis] settings
	Log      LogConfig      // [log] settings
}

// ServerConfig holds analysis server settings from the [server] section.
type ServerConfig struct {
	URL            string // Base URL of the analysis API server
	TimeoutSeconds int    // Per-request timeout
}

// PollConfig holds polling settings from the [poll] section.
type PollConfig struct {
	IntervalMS int // Status poll interval in milliseconds
}

// AnalysisConfig holds default run parameters from the [analysis] section.
type AnalysisConfig struct {
	MaxInsights   int // Default number of insights to produce
	DeepDiveCount int // Default number of deep-dive candidates
}

// LogConfig holds logging settings from the [log] section.
type LogConfig struct {
	Level string // Log level: debug, info, warn, error
}

// NewDefaultConfig returns the configuration used when no config file exists.
func NewDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			URL:            DefaultServerURL,
			TimeoutSeconds: int(DefaultServerTimeout / time.Second),
		},
		Poll: PollConfig{
			IntervalMS: int(DefaultPollInterval / time.Millisecond),
		},
		Analysis: AnalysisConfig{
			MaxInsights:   DefaultMaxInsights,
			DeepDiveCount: DefaultDeepDiveCount,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// RenderConfigTemplate renders a commented config file template seeded with
// the values from cfg. All settings are commented out so the file documents
// the defaults without pinning them.
func RenderConfigTemplate(cfg *Config) string {
	var b strings.Builder
	b.WriteString("# scout configuration\n")
	b.WriteString("# Uncomment settings to override the defaults.\n\n")
	b.WriteString("[server]\n")
	fmt.Fprintf(&b, "# url = %q\n", cfg.Server.URL)
	fmt.Fprintf(&b, "# timeout = %d\n\n", cfg.Server.TimeoutSeconds)
	b.WriteString("[poll]\n")
	fmt.Fprintf(&b, "# interval_ms = %d\n\n", cfg.Poll.IntervalMS)
	b.WriteString("[analysis]\n")
	fmt.Fprintf(&b, "# max_insights = %d\n", cfg.Analysis.MaxInsights)
	fmt.Fprintf(&b, "# deep_dive_count = %d\n\n", cfg.Analysis.DeepDiveCount)
	b.WriteString("[log]\n")
	fmt.Fprintf(&b, "# level = %q\n", cfg.Log.Level)
	return b.String()
}

// PollInterval returns the poll interval as a duration, falling back to
// the default for non-positive values.
func (c *Config) PollInterval() time.Duration {
	if c.Poll.IntervalMS <= 0 {
		return DefaultPollInterval
	}
	return time.Duration(c.Poll.IntervalMS) * time.Millisecond
}

// ServerTimeout returns the per-request timeout as a duration.
func (c *Config) ServerTimeout() time.Duration {
	if c.Server.TimeoutSeconds <= 0 {
		return DefaultServerTimeout
	}
	return time.Duration(c.Server.TimeoutSeconds) * time.Second
}
