package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/guideops/activity-comb/app/activity"
)

// ErrSourceUnreadable marks a store that exists but cannot be parsed as a
// valid record array. Fatal to a pass: nothing is written afterwards.
var ErrSourceUnreadable = errors.New("source unreadable")

// ErrWriteFailure marks a failed commit. The original store file is left
// intact in this case.
var ErrWriteFailure = errors.New("write failure")

// JSONStore is the canonical activity store: a UTF-8 array-of-objects JSON
// document. Commits replace the file atomically so a crash mid-write never
// corrupts the store.
type JSONStore struct {
	path string
}

func NewJSONStore(path string) *JSONStore {
	return &JSONStore{path: path}
}

func (s *JSONStore) Path() string {
	return s.path
}

// Load reads the full record set. A missing file is an empty store, not an
// error; any other read or parse failure is fatal.
func (s *JSONStore) Load() ([]activity.Record, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			slog.Debug("Store file not found, starting empty", "path", s.path)
			return []activity.Record{}, nil
		}
		return nil, fmt.Errorf("%w: failed to read %s: %v", ErrSourceUnreadable, s.path, err)
	}

	var records []activity.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: failed to parse %s: %v", ErrSourceUnreadable, s.path, err)
	}

	return records, nil
}

// Commit writes the canonical record set as a single atomic replace:
// write to a temp file in the same directory, sync, then rename over the
// target. Pretty-printed, stable field order.
func (s *JSONStore) Commit(records []activity.Record) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: failed to encode records: %v", ErrWriteFailure, err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: failed to create store directory: %v", ErrWriteFailure, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("%w: failed to create temp file: %v", ErrWriteFailure, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: failed to write temp file: %v", ErrWriteFailure, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: failed to sync temp file: %v", ErrWriteFailure, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: failed to close temp file: %v", ErrWriteFailure, err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: failed to replace store file: %v", ErrWriteFailure, err)
	}

	slog.Debug("Store committed", "path", s.path, "records", len(records))
	return nil
}
