// Package session owns the persisted bearer credential and the pure
// identity decode derived from it. The store has a single writer (the
// login/refresh flow) and many readers (every outbound API call), and a
// missing credential is the normal logged-out state, never an error.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// Store persists the token pair as a JSON file with owner-only
// permissions. All methods are safe for concurrent use.
type Store struct {
	mu   sync.RWMutex
	path string
}

type tokenFile struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// NewStore returns a store backed by the given file path. The file need
// not exist yet.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// AccessToken returns the stored access token, or "" when logged out.
func (s *Store) AccessToken() (string, error) {
	tf, err := s.read()
	if err != nil {
		return "", err
	}
	return tf.AccessToken, nil
}

// RefreshToken returns the stored refresh token, or "" when logged out.
func (s *Store) RefreshToken() (string, error) {
	tf, err := s.read()
	if err != nil {
		return "", err
	}
	return tf.RefreshToken, nil
}

// Save replaces both tokens, creating the parent directory on first
// login.
func (s *Store) Save(access, refresh string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(tokenFile{AccessToken: access, RefreshToken: refresh})
}

// SetAccessToken replaces only the access token, keeping the refresh
// token so renewal keeps working.
func (s *Store) SetAccessToken(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tf, err := s.readLocked()
	if err != nil {
		return err
	}
	tf.AccessToken = token
	return s.write(tf)
}

// Clear removes the credential file. Clearing an absent credential is a
// no-op.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := os.Remove(s.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("clear credentials: %w", err)
	}
	return nil
}

func (s *Store) read() (tokenFile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.readLocked()
}

func (s *Store) readLocked() (tokenFile, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return tokenFile{}, nil
		}
		return tokenFile{}, fmt.Errorf("read credentials: %w", err)
	}
	var tf tokenFile
	if err := json.Unmarshal(data, &tf); err != nil {
		// A corrupt credential file degrades to logged-out rather
		// than wedging every call behind a parse error.
		return tokenFile{}, nil
	}
	return tf, nil
}

func (s *Store) write(tf tokenFile) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create credentials dir: %w", err)
	}
	data, err := json.MarshalIndent(tf, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("write credentials: %w", err)
	}
	return nil
}
