package onboard

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	goerrors "github.com/goliatone/go-errors"
)

// SessionStore persists the serialized session between process runs so a
// signed-in client can restore its session without logging in again.
type SessionStore interface {
	Save(record *SessionRecord) error
	Load() (*SessionRecord, error)
	Clear() error
}

// SessionRecord is the durable snapshot of an authenticated session: the raw
// token plus the identity captured at sign-in time.
type SessionRecord struct {
	Token    string            `json:"token"`
	Identity *IdentitySnapshot `json:"identity,omitempty"`
}

// MemorySessionStore keeps the record in process memory. Useful for tests and
// for callers that manage persistence themselves.
type MemorySessionStore struct {
	mu     sync.RWMutex
	record *SessionRecord
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{}
}

func (s *MemorySessionStore) Save(record *SessionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record = record
	return nil
}

func (s *MemorySessionStore) Load() (*SessionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.record == nil {
		return nil, ErrUnableToFindSession
	}
	return s.record, nil
}

func (s *MemorySessionStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record = nil
	return nil
}

// FileSessionStore persists the record as JSON on disk. Writes go through a
// temp file followed by a rename so a crash mid-write never leaves a
// truncated session behind.
type FileSessionStore struct {
	mu   sync.Mutex
	path string
}

func NewFileSessionStore(path string) *FileSessionStore {
	return &FileSessionStore{path: path}
}

func (s *FileSessionStore) Save(record *SessionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(record)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to serialize session record")
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create session directory").
			WithMetadata(map[string]any{"dir": dir})
	}

	tmp, err := os.CreateTemp(dir, ".session-*")
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create session temp file")
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to write session record")
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to close session temp file")
	}

	if err := os.Chmod(tmpName, 0o600); err != nil {
		os.Remove(tmpName)
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to set session file mode")
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to replace session file").
			WithMetadata(map[string]any{"path": s.path})
	}

	return nil
}

func (s *FileSessionStore) Load() (*SessionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrUnableToFindSession
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to read session file").
			WithMetadata(map[string]any{"path": s.path})
	}

	record := &SessionRecord{}
	if err := json.Unmarshal(data, record); err != nil {
		return nil, ErrUnableToDecodeSession
	}

	if record.Token == "" {
		return nil, ErrUnableToFindSession
	}

	return record, nil
}

func (s *FileSessionStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to remove session file").
			WithMetadata(map[string]any{"path": s.path})
	}
	return nil
}
