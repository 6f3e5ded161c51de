// Package slotstore provides the file-backed single-slot store for the
// active analysis task id.
package slotstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"github.com/barkain/scout/internal/domain"
)

// slotData is the JSON file structure.
type slotData struct {
	TaskID  string `json:"task_id"`
	SavedAt string `json:"saved_at"`
	Schema  int    `json:"schema"`
}

const slotSchema = 1

// Store implements domain.TaskSlot using a JSON file. Access is guarded
// by a file lock so concurrent scout processes cannot interleave writes.
type Store struct {
	path     string
	lockPath string
	clock    domain.Clock
}

// New creates a new Store for the given file path. The file does not
// need to exist; an absent file is an empty slot.
func New(path string, clock domain.Clock) *Store {
	return &Store{
		path:     path,
		lockPath: path + ".lock",
		clock:    clock,
	}
}

// Get returns the saved task id, or "" if the slot is empty.
func (s *Store) Get() (string, error) {
	lock, err := s.acquireLock(syscall.LOCK_SH)
	if err != nil {
		return "", err
	}
	defer s.releaseLock(lock)

	content, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("read slot file: %w", err)
	}

	var data slotData
	if err := json.Unmarshal(content, &data); err != nil {
		// A corrupt slot is treated as empty rather than wedging every
		// command; the next Set rewrites it.
		return "", nil
	}

	return data.TaskID, nil
}

// Set saves the task id, replacing any previous value.
func (s *Store) Set(taskID string) error {
	lock, err := s.acquireLock(syscall.LOCK_EX)
	if err != nil {
		return err
	}
	defer s.releaseLock(lock)

	data := slotData{
		Schema:  slotSchema,
		TaskID:  taskID,
		SavedAt: s.clock.Now().UTC().Format(time.RFC3339),
	}
	content, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal slot data: %w", err)
	}

	return writeAtomic(s.path, content)
}

// Clear empties the slot. Clearing an already-empty slot is not an error.
func (s *Store) Clear() error {
	lock, err := s.acquireLock(syscall.LOCK_EX)
	if err != nil {
		return err
	}
	defer s.releaseLock(lock)

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove slot file: %w", err)
	}
	return nil
}

func (s *Store) acquireLock(lockType int) (*os.File, error) {
	dir := filepath.Dir(s.lockPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create slot directory: %w", err)
	}

	lock, err := os.OpenFile(s.lockPath, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open lock file: %w", err)
	}

	if err := syscall.Flock(int(lock.Fd()), lockType); err != nil {
		_ = lock.Close()
		return nil, fmt.Errorf("acquire lock: %w", err)
	}

	return lock, nil
}

func (s *Store) releaseLock(lock *os.File) {
	_ = syscall.Flock(int(lock.Fd()), syscall.LOCK_UN)
	_ = lock.Close()
}

func writeAtomic(path string, content []byte) error {
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, content, 0o600); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

// Ensure Store implements TaskSlot.
var _ domain.TaskSlot = (*Store)(nil)
