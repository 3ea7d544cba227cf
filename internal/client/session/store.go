// Package session persists the opaque user session the client holds after
// login. Consumers treat the stored blob as opaque: it is written on login,
// read at startup and destroyed on logout or when the server reports the
// session expired.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// The session file name doubles as the storage key, matching the key the
// mobile client used for its secure store.
const sessionFileName = "userSession"

// ErrNoSession is returned by Get when no session is stored.
var ErrNoSession = errors.New("no stored session")

// Session is the authenticated-identity record held on-device after login.
type Session struct {
	UserID   string `json:"userId"`
	UserName string `json:"userName"`
	Token    string `json:"token"`
}

// Store persists a single session.
type Store interface {
	Get() (*Session, error)
	Set(s *Session) error
	Delete() error
}

// fileStore keeps the session as a JSON file in a private directory.
type fileStore struct {
	path string
}

// NewFileStore creates a session store rooted at dir, creating dir if
// absent. The directory and file are private to the current user.
func NewFileStore(dir string) (Store, error) {
	if dir == "" {
		return nil, errors.New("session store directory is required")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create session directory %q: %w", dir, err)
	}
	return &fileStore{path: filepath.Join(dir, sessionFileName)}, nil
}

// Get reads the stored session, or ErrNoSession when none exists.
func (f *fileStore) Get() (*Session, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoSession
		}
		return nil, err
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		// A corrupt session file is as good as no session
		return nil, ErrNoSession
	}
	return &s, nil
}

// Set writes the session, replacing any previous one.
func (f *fileStore) Set(s *Session) error {
	if s == nil {
		return errors.New("session cannot be nil")
	}
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return os.WriteFile(f.path, data, 0o600)
}

// Delete removes the stored session. Deleting an absent session is not an
// error.
func (f *fileStore) Delete() error {
	err := os.Remove(f.path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
