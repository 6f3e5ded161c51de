package config

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/barkain/scout/internal/domain"
)

// Ensure Manager implements domain.ConfigManager.
var _ domain.ConfigManager = (*Manager)(nil)

// Manager manages configuration files.
type Manager struct {
	localDir      string // Directory holding the project-local config file
	globalConfDir string // Global config directory (e.g. ~/.config/scout)
}

// NewManager creates a new Manager.
func NewManager(localDir string) *Manager {
	return &Manager{
		localDir:      localDir,
		globalConfDir: defaultGlobalConfigDir(),
	}
}

// NewManagerWithGlobalDir creates a new Manager with a custom global config
// directory. This is useful for testing.
func NewManagerWithGlobalDir(localDir, globalConfDir string) *Manager {
	return &Manager{
		localDir:      localDir,
		globalConfDir: globalConfDir,
	}
}

// LocalConfigInfo returns information about the project-local config file.
func (m *Manager) LocalConfigInfo() domain.ConfigInfo {
	if m.localDir == "" {
		return domain.ConfigInfo{}
	}
	return getConfigInfo(filepath.Join(m.localDir, "scout.toml"))
}

// GlobalConfigInfo returns information about the global config file.
func (m *Manager) GlobalConfigInfo() domain.ConfigInfo {
	if m.globalConfDir == "" {
		return domain.ConfigInfo{}
	}
	return getConfigInfo(filepath.Join(m.globalConfDir, domain.ConfigFileName))
}

// getConfigInfo reads a config file and returns its info.
func getConfigInfo(path string) domain.ConfigInfo {
	content, err := os.ReadFile(path)
	if err != nil {
		return domain.ConfigInfo{
			Path:   path,
			Exists: false,
		}
	}
	return domain.ConfigInfo{
		Path:    path,
		Content: string(content),
		Exists:  true,
	}
}

// InitLocalConfig creates a project-local config file with the default template.
func (m *Manager) InitLocalConfig() error {
	if m.localDir == "" {
		return errors.New("local config directory not available")
	}
	return initConfig(filepath.Join(m.localDir, "scout.toml"))
}

// InitGlobalConfig creates a global config file with the default template.
func (m *Manager) InitGlobalConfig() error {
	if m.globalConfDir == "" {
		return errors.New("global config directory not available")
	}

	if err := os.MkdirAll(m.globalConfDir, 0700); err != nil {
		return err
	}

	return initConfig(filepath.Join(m.globalConfDir, domain.ConfigFileName))
}

// initConfig creates a config file with the default template.
func initConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return domain.ErrConfigExists
	}

	content := domain.RenderConfigTemplate(domain.NewDefaultConfig())

	return os.WriteFile(path, []byte(content), 0600)
}
