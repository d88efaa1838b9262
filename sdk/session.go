package sdk

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Persisted session keys.
const (
	SessionTokenKey = "token"
	SessionUserKey  = "user"
)

// SessionStore persists the bearer token and the cached user object.
// An absent token is reported as ("", nil), an absent user as (nil, nil).
// Clear must be idempotent: concurrent 401s may clear an already empty store.
type SessionStore interface {
	Token(ctx context.Context) (string, error)
	SetToken(ctx context.Context, token string) error
	User(ctx context.Context) (json.RawMessage, error)
	SetUser(ctx context.Context, user json.RawMessage) error
	Clear(ctx context.Context) error
}

// sessionUser decodes the cached user, returning nil when there is none.
func sessionUser(ctx context.Context, store SessionStore) (*User, error) {
	raw, err := store.User(ctx)
	if err != nil || len(raw) == 0 {
		return nil, err
	}
	var user User
	if err := json.Unmarshal(raw, &user); err != nil {
		return nil, fmt.Errorf("%w: cached user: %v", ErrInvalidResponse, err)
	}
	return &user, nil
}

// MemorySessionStore keeps the session in process memory.
type MemorySessionStore struct {
	mu    sync.RWMutex
	token string
	user  json.RawMessage
}

// NewMemorySessionStore creates an empty in-memory store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{}
}

func (s *MemorySessionStore) Token(context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, nil
}

func (s *MemorySessionStore) SetToken(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	return nil
}

func (s *MemorySessionStore) User(context.Context) (json.RawMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil, nil
	}
	out := make(json.RawMessage, len(s.user))
	copy(out, s.user)
	return out, nil
}

func (s *MemorySessionStore) SetUser(_ context.Context, user json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = append(json.RawMessage(nil), user...)
	return nil
}

func (s *MemorySessionStore) Clear(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.user = nil
	return nil
}

// FileSessionStore persists the session as a small JSON document, keyed the
// same way browser storage is.
//
//	{"token": "...", "user": {...}}
//
// Writes go to a temp file that is renamed into place.
type FileSessionStore struct {
	mu   sync.Mutex
	path string
}

// NewFileSessionStore creates a store backed by the file at path.
// The file is created on first write.
func NewFileSessionStore(path string) *FileSessionStore {
	return &FileSessionStore{path: path}
}

type fileSession struct {
	Token string          `json:"token,omitempty"`
	User  json.RawMessage `json:"user,omitempty"`
}

func (s *FileSessionStore) read() (fileSession, error) {
	var sess fileSession
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return sess, nil
		}
		return sess, fmt.Errorf("reading session file: %w", err)
	}
	if len(data) == 0 {
		return sess, nil
	}
	if err := json.Unmarshal(data, &sess); err != nil {
		return sess, fmt.Errorf("decoding session file: %w", err)
	}
	return sess, nil
}

func (s *FileSessionStore) write(sess fileSession) error {
	if sess.Token == "" && len(sess.User) == 0 {
		if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("removing session file: %w", err)
		}
		return nil
	}

	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".session-*")
	if err != nil {
		return fmt.Errorf("creating session file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("writing session file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("writing session file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replacing session file: %w", err)
	}
	return nil
}

func (s *FileSessionStore) Token(context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err := s.read()
	return sess.Token, err
}

func (s *FileSessionStore) SetToken(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err := s.read()
	if err != nil {
		return err
	}
	sess.Token = token
	return s.write(sess)
}

func (s *FileSessionStore) User(context.Context) (json.RawMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err := s.read()
	if err != nil || len(sess.User) == 0 {
		return nil, err
	}
	return sess.User, nil
}

func (s *FileSessionStore) SetUser(_ context.Context, user json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err := s.read()
	if err != nil {
		return err
	}
	sess.User = user
	return s.write(sess)
}

func (s *FileSessionStore) Clear(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(fileSession{})
}
