// Package config provides configuration loading functionality.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/barkain/scout/internal/domain"
	"github.com/pelletier/go-toml/v2"
)

// Ensure Loader implements domain.ConfigLoader.
var _ domain.ConfigLoader = (*Loader)(nil)

// Loader loads configuration from TOML files.
type Loader struct {
	localDir      string // Directory searched for a project-local config file
	globalConfDir string // Global config directory (e.g. ~/.config/scout)
}

// NewLoader creates a new Loader that looks for a local config in localDir.
func NewLoader(localDir string) *Loader {
	return &Loader{
		localDir:      localDir,
		globalConfDir: defaultGlobalConfigDir(),
	}
}

// NewLoaderWithGlobalDir creates a new Loader with a custom global config
// directory. This is useful for testing.
func NewLoaderWithGlobalDir(localDir, globalConfDir string) *Loader {
	return &Loader{
		localDir:      localDir,
		globalConfDir: globalConfDir,
	}
}

// defaultGlobalConfigDir returns the default global config directory.
func defaultGlobalConfigDir() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return domain.GlobalConfigDir(configHome)
}

// Load returns the merged configuration (defaults <- global <- local,
// later takes precedence).
func (l *Loader) Load() (*domain.Config, error) {
	global, err := l.LoadGlobal()
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	var local *domain.Config
	if l.localDir != "" {
		local, err = l.loadFile(filepath.Join(l.localDir, "scout.toml"))
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}

	base := domain.NewDefaultConfig()
	if global != nil {
		base = mergeConfigs(base, global)
	}
	if local != nil {
		base = mergeConfigs(base, local)
	}

	return base, nil
}

// LoadGlobal returns only the global configuration.
func (l *Loader) LoadGlobal() (*domain.Config, error) {
	if l.globalConfDir == "" {
		return nil, os.ErrNotExist
	}
	return l.loadFile(filepath.Join(l.globalConfDir, domain.ConfigFileName))
}

// fileConfig is the TOML representation. Pointer fields distinguish
// "unset" from a zero value so merging works.
type fileConfig struct {
	Server struct {
		URL     *string `toml:"url"`
		Timeout *int    `toml:"timeout"`
	} `toml:"server"`
	Poll struct {
		IntervalMS *int `toml:"interval_ms"`
	} `toml:"poll"`
	Analysis struct {
		MaxInsights   *int `toml:"max_insights"`
		DeepDiveCount *int `toml:"deep_dive_count"`
	} `toml:"analysis"`
	Log struct {
		Level *string `toml:"level"`
	} `toml:"log"`
}

func (l *Loader) loadFile(path string) (*domain.Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var fc fileConfig
	if err := toml.Unmarshal(content, &fc); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg := &domain.Config{}
	if fc.Server.URL != nil {
		cfg.Server.URL = *fc.Server.URL
	}
	if fc.Server.Timeout != nil {
		cfg.Server.TimeoutSeconds = *fc.Server.Timeout
	}
	if fc.Poll.IntervalMS != nil {
		cfg.Poll.IntervalMS = *fc.Poll.IntervalMS
	}
	if fc.Analysis.MaxInsights != nil {
		cfg.Analysis.MaxInsights = *fc.Analysis.MaxInsights
	}
	if fc.Analysis.DeepDiveCount != nil {
		cfg.Analysis.DeepDiveCount = *fc.Analysis.DeepDiveCount
	}
	if fc.Log.Level != nil {
		cfg.Log.Level = *fc.Log.Level
	}
	return cfg, nil
}

// mergeConfigs overlays non-zero fields of overlay onto base.
func mergeConfigs(base, overlay *domain.Config) *domain.Config {
	merged := *base
	if overlay.Server.URL != "" {
		merged.Server.URL = overlay.Server.URL
	}
	if overlay.Server.TimeoutSeconds > 0 {
		merged.Server.TimeoutSeconds = overlay.Server.TimeoutSeconds
	}
	if overlay.Poll.IntervalMS > 0 {
		merged.Poll.IntervalMS = overlay.Poll.IntervalMS
	}
	if overlay.Analysis.MaxInsights > 0 {
		merged.Analysis.MaxInsights = overlay.Analysis.MaxInsights
	}
	if overlay.Analysis.DeepDiveCount > 0 {
		merged.Analysis.DeepDiveCount = overlay.Analysis.DeepDiveCount
	}
	if overlay.Log.Level != "" {
		merged.Log.Level = overlay.Log.Level
	}
	return &merged
}
