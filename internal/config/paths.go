package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// LogDirectory returns the directory for mediadesk log files.
//
// Locations:
//   - Windows: %LOCALAPPDATA%\mediadesk\logs
//   - Unix: ~/.config/mediadesk/logs
func LogDirectory() string {
	if runtime.GOOS == "windows" {
		localAppData := os.Getenv("LOCALAPPDATA")
		if localAppData == "" {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return filepath.Join(os.TempDir(), "mediadesk-logs")
			}
			localAppData = filepath.Join(homeDir, "AppData", "Local")
		}
		return filepath.Join(localAppData, "mediadesk", "logs")
	}

	configDir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "mediadesk-logs")
	}
	return filepath.Join(configDir, "mediadesk", "logs")
}

// EnsureLogDirectory creates the log directory with owner-only permissions.
func EnsureLogDirectory() error {
	return os.MkdirAll(LogDirectory(), 0700)
}

// ExportPath resolves where a report export is written. An empty dir means
// the current working directory; the file name is never altered.
func ExportPath(dir, fileName string) (string, error) {
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", err
		}
		dir = wd
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	return filepath.Join(dir, fileName), nil
}
