package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ValGrace/shelly/internal/errors"
	"github.com/ValGrace/shelly/internal/logging"
	"github.com/ValGrace/shelly/pkg/history"
)

// JSONStore keeps the whole log as one JSON array. Every append rewrites the
// file through a temporary file in the same directory so readers never see
// a partial document.
type JSONStore struct {
	path string
	mu   sync.Mutex
	now  func() time.Time
}

// NewJSONStore creates a store backed by the file at path
func NewJSONStore(path string) *JSONStore {
	return &JSONStore{path: path, now: time.Now}
}

// Path returns the backing file
func (s *JSONStore) Path() string {
	return s.path
}

// Append adds an entry stamped with the current UTC time
func (s *JSONStore) Append(command string, exitCode *int) error {
	entry := history.Entry{
		Command:   command,
		ExitCode:  exitCode,
		Timestamp: s.now().UTC(),
	}
	if err := entry.Validate(); err != nil {
		return errors.NewValidationError("invalid history entry", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entries := append(s.read(), entry)
	return s.write(entries)
}

// ReadAll returns every entry, oldest first. A missing or malformed file
// reads as empty.
func (s *JSONStore) ReadAll() []history.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read()
}

// Search returns entries whose command contains pattern
func (s *JSONStore) Search(pattern string) ([]history.Entry, error) {
	return Apply(s.ReadAll(), Filter{Pattern: pattern}), nil
}

// Prune rewrites the log keeping only entries inside the policy
func (s *JSONStore) Prune(policy RetentionPolicy) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.read()
	kept := policy.Keep(entries, s.now())
	removed := len(entries) - len(kept)
	if removed == 0 {
		return 0, nil
	}
	return removed, s.write(kept)
}

// Close is a no-op; the file is not held open between calls
func (s *JSONStore) Close() error {
	return nil
}

func (s *JSONStore) read() []history.Entry {
	entries := []history.Entry{}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			logging.Debug("failed to read history log %s: %v", s.path, err)
		}
		return entries
	}

	if err := json.Unmarshal(data, &entries); err != nil {
		logging.Debug("history log %s is malformed: %v", s.path, err)
		return []history.Entry{}
	}
	return entries
}

func (s *JSONStore) write(entries []history.Entry) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.NewStorageError("failed to create history directory", err).WithContext("path", dir)
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return errors.NewStorageError("failed to encode history log", err)
	}

	tmp, err := os.CreateTemp(dir, ".history-*.json")
	if err != nil {
		return errors.NewStorageError("failed to create temporary history file", err).WithContext("path", dir)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.NewStorageError("failed to write history log", err).WithContext("path", tmpName)
	}
	if err := tmp.Close(); err != nil {
		return errors.NewStorageError("failed to write history log", err).WithContext("path", tmpName)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		return errors.NewStorageError("failed to replace history log", err).WithContext("path", s.path)
	}
	return nil
}
