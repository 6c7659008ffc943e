// Package profile manages the per-operator data directory and the saved
// authentication session.
package profile

import (
	"os"
	"path/filepath"
)

// BaseDir returns ~/.opchat.
func BaseDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".opchat")
}

// Dir returns the operator-specific profile directory.
func Dir(operatorCode string) string {
	return filepath.Join(BaseDir(), "profiles", operatorCode)
}

// DBPath returns the profile-owned opchat.db path.
func DBPath(operatorCode string) string {
	return filepath.Join(Dir(operatorCode), "opchat.db")
}

// LockPath returns the lock file path for a profile.
func LockPath(operatorCode string) string {
	return filepath.Join(Dir(operatorCode), "LOCK")
}

// SessionPath returns the saved auth session file path.
func SessionPath(operatorCode string) string {
	return filepath.Join(Dir(operatorCode), "session.toml")
}

// LogDir returns the log directory for a profile.
func LogDir(operatorCode string) string {
	return filepath.Join(Dir(operatorCode), "logs")
}

// ConfigPath returns the global config file path.
func ConfigPath() string {
	return filepath.Join(BaseDir(), "config.toml")
}

// EnsureDir creates the profile directory tree with proper permissions.
func EnsureDir(operatorCode string) error {
	dirs := []string{
		Dir(operatorCode),
		LogDir(operatorCode),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0700); err != nil {
			return err
		}
	}
	return nil
}
