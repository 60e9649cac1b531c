package baseline

import (
	"sort"
	"time"
)

// MemStore is the in-memory Store used by tests.
type MemStore struct {
	Capacity int

	records map[string]Record
	staged  map[string]float64
	now     func() time.Time
}

func NewMemStore(capacity int) *MemStore {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &MemStore{
		Capacity: capacity,
		records:  map[string]Record{},
		staged:   map[string]float64{},
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Seed replaces the window for a metric with the given values.
func (s *MemStore) Seed(name string, values []float64) {
	rec := Record{Metric: name}
	ts := s.now()
	for _, v := range values {
		rec.append(Observation{Timestamp: ts, Value: v}, s.Capacity)
	}
	s.records[name] = rec
}

func (s *MemStore) Snapshot(name string) (Record, bool, error) {
	rec, ok := s.records[name]
	return rec, ok, nil
}

func (s *MemStore) Record(name string, value float64) {
	s.staged[name] = value
}

func (s *MemStore) Update(name string) error {
	value, ok := s.staged[name]
	if !ok {
		return nil
	}
	rec := s.records[name]
	if rec.Metric == "" {
		rec.Metric = name
	}
	rec.append(Observation{Timestamp: s.now(), Value: value}, s.Capacity)
	s.records[name] = rec
	delete(s.staged, name)
	return nil
}

func (s *MemStore) UpdateAll() error {
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

// Staged reports whether an observation is pending commit for the metric.
func (s *MemStore) Staged(name string) bool {
	_, ok := s.staged[name]
	return ok
}
