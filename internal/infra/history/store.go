// Package history provides a JSON file-based store of finished analysis
// runs, so results remain inspectable after the server rotates them out.
package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"syscall"

	"github.com/barkain/scout/internal/domain"
)

// storeData is the JSON file structure.
type storeData struct {
	Runs   []domain.RunRecord `json:"runs"`
	Schema int                `json:"schema"`
}

const historySchema = 1

// Store implements domain.RunHistory using a JSON file.
type Store struct {
	path     string
	lockPath string
}

// New creates a new Store for the given file path.
func New(path string) *Store {
	return &Store{
		path:     path,
		lockPath: path + ".lock",
	}
}

// Append adds a record for a finished run. Records are kept newest first.
func (s *Store) Append(rec domain.RunRecord) error {
	return s.withLockWrite(func(data *storeData) error {
		// Re-appending the same task id replaces the old record so a
		// resumed terminal observation cannot duplicate an entry.
		for i, existing := range data.Runs {
			if existing.TaskID == rec.TaskID {
				data.Runs[i] = rec
				return nil
			}
		}
		data.Runs = append([]domain.RunRecord{rec}, data.Runs...)
		return nil
	})
}

// List returns all records, newest first.
func (s *Store) List() ([]domain.RunRecord, error) {
	var runs []domain.RunRecord
	err := s.withLock(func(data *storeData) error {
		runs = data.Runs
		return nil
	})
	return runs, err
}

// Prune removes all but the newest keep records and returns the number
// removed. A non-positive keep removes everything.
func (s *Store) Prune(keep int) (int, error) {
	removed := 0
	err := s.withLockWrite(func(data *storeData) error {
		if keep < 0 {
			keep = 0
		}
		if len(data.Runs) <= keep {
			return nil
		}
		removed = len(data.Runs) - keep
		data.Runs = data.Runs[:keep]
		return nil
	})
	return removed, err
}

// withLock executes fn with a shared (read) lock.
func (s *Store) withLock(fn func(*storeData) error) error {
	lock, err := s.acquireLock(syscall.LOCK_SH)
	if err != nil {
		return err
	}
	defer s.releaseLock(lock)

	data, err := s.read()
	if err != nil {
		return err
	}
	return fn(data)
}

// withLockWrite executes fn with an exclusive (write) lock and writes
// the result.
func (s *Store) withLockWrite(fn func(*storeData) error) error {
	lock, err := s.acquireLock(syscall.LOCK_EX)
	if err != nil {
		return err
	}
	defer s.releaseLock(lock)

	data, err := s.read()
	if err != nil {
		return err
	}
	if err := fn(data); err != nil {
		return err
	}
	return s.write(data)
}

func (s *Store) acquireLock(lockType int) (*os.File, error) {
	dir := filepath.Dir(s.lockPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create history directory: %w", err)
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

func (s *Store) read() (*storeData, error) {
	content, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return &storeData{Schema: historySchema}, nil
		}
		return nil, fmt.Errorf("read history file: %w", err)
	}

	var data storeData
	if err := json.Unmarshal(content, &data); err != nil {
		return nil, fmt.Errorf("parse history file: %w", err)
	}
	return &data, nil
}

func (s *Store) write(data *storeData) error {
	data.Schema = historySchema
	content, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal history data: %w", err)
	}

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, content, 0o600); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

// Ensure Store implements RunHistory.
var _ domain.RunHistory = (*Store)(nil)
