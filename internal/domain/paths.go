package domain

import (
	"os"
	"path/filepath"
	"strings"
)

// ConfigFileName is the name of the scout configuration file.
const ConfigFileName = "config.toml"

// GlobalConfigDir returns the global config directory under configHome
// (typically $XDG_CONFIG_HOME or ~/.config).
func GlobalConfigDir(configHome string) string {
	return filepath.Join(configHome, "scout")
}

// DataDir returns the scout data directory, honoring $XDG_DATA_HOME.
// Returns "" if no home directory can be determined.
func DataDir() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "scout")
}

// SlotPath returns the path of the active-task slot file.
func SlotPath(dataDir string) string {
	return filepath.Join(dataDir, "active_task.json")
}

// HistoryPath returns the path of the run history file.
func HistoryPath(dataDir string) string {
	return filepath.Join(dataDir, "runs.json")
}

// GlobalLogPath returns the path of the global log file.
func GlobalLogPath(dataDir string) string {
	return filepath.Join(dataDir, "logs", "scout.log")
}

// TaskLogPath returns the path of a task-specific log file. Task ids are
// UUIDs; the first segment is enough to keep file names readable.
func TaskLogPath(dataDir, taskID string) string {
	short := taskID
	if i := strings.IndexByte(short, '-'); i > 0 {
		short = short[:i]
	}
	return filepath.Join(dataDir, "logs", "task-"+short+".log")
}
