package profile

import (
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Session is the authenticated operator session saved under the profile dir.
type Session struct {
	Token       string    `toml:"token"`
	OperatorID  string    `toml:"operator_id"`
	DisplayName string    `toml:"display_name"`
	ExpiresAt   time.Time `toml:"expires_at"`
}

// Valid reports whether the session can still be used at the given time.
func (s *Session) Valid(now time.Time) bool {
	return s != nil && s.Token != "" && now.Before(s.ExpiresAt)
}

// LoadSession reads a saved session. Returns an error if the file is missing.
func LoadSession(path string) (*Session, error) {
	var s Session
	if _, err := toml.DecodeFile(path, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// SaveSession writes the session to disk, creating parent dirs as needed.
func SaveSession(path string, s *Session) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	encErr := toml.NewEncoder(f).Encode(s)
	if closeErr := f.Close(); closeErr != nil && encErr == nil {
		return closeErr
	}
	return encErr
}
