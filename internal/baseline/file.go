package baseline

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

const DefaultCapacity = 7

// FileStore keeps one human-readable JSON file per metric under Dir.
// Single pipeline instance at a time is assumed; no locking.
type FileStore struct {
	Dir      string
	Capacity int

	staged map[string]float64
	now    func() time.Time
}

func NewFileStore(dir string, capacity int) *FileStore {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &FileStore{
		Dir:      dir,
		Capacity: capacity,
		staged:   map[string]float64{},
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *FileStore) path(name string) string {
	return filepath.Join(s.Dir, name+".json")
}

func (s *FileStore) Snapshot(name string) (Record, bool, error) {
	data, err := os.ReadFile(s.path(name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Record{}, false, nil
		}
		return Record{}, false, err
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, false, fmt.Errorf("corrupt baseline file %s: %w", s.path(name), err)
	}
	return rec, true, nil
}

func (s *FileStore) Record(name string, value float64) {
	s.staged[name] = value
}

func (s *FileStore) Update(name string) error {
	value, ok := s.staged[name]
	if !ok {
		return fmt.Errorf("no staged observation for metric %q", name)
	}
	rec, _, err := s.Snapshot(name)
	if err != nil {
		return err
	}
	if rec.Metric == "" {
		rec.Metric = name
	}
	rec.append(Observation{Timestamp: s.now(), Value: value}, s.Capacity)
	if err := s.write(name, rec); err != nil {
		return err
	}
	delete(s.staged, name)
	return nil
}

func (s *FileStore) UpdateAll() error {
	names := make([]string, 0, len(s.staged))
	for name := range s.staged {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := s.Update(name); err != nil {
			return err
		}
	}
	return nil
}

func (s *FileStore) write(name string, rec Record) error {
	if err := os.MkdirAll(filepath.Dir(s.path(name)), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path(name), data, 0o644)
}
