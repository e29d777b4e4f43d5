package client

import (
	"encoding/json"
	"os"
	"sync"

	"github.com/spf13/afero"
)

// DefaultSessionFile is where the shell keeps its login between runs.
const DefaultSessionFile = ".herbcatalog-session.json"

// Session is the persisted login state.
type Session struct {
	BaseURL  string `json:"base_url"`
	Username string `json:"username"`
	Token    string `json:"token"`
}

// SessionStore loads and saves the Session as a JSON file.
type SessionStore struct {
	fs   afero.Fs
	path string
	mu   sync.Mutex
}

// NewSessionStore returns a store for the session file at path.
func NewSessionStore(fs afero.Fs, path string) *SessionStore {
	return &SessionStore{fs: fs, path: path}
}

// Load reads the session. A missing file yields an empty session.
func (s *SessionStore) Load() (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Session{}, nil
		}
		return nil, err
	}
	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

// Save writes the session readable by the owner only.
func (s *SessionStore) Save(sess *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return err
	}
	return afero.WriteFile(s.fs, s.path, data, 0o600)
}

// Clear removes the session file.
func (s *SessionStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.fs.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
