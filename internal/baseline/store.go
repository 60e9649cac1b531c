package baseline

import (
	"time"

	"dataplatform/quality-gate/internal/stats"
)

// Observation is a single recorded measurement of a metric.
type Observation struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// Record holds the rolling window for one metric plus derived statistics.
// The window is FIFO-bounded; Mean and StdDev are recomputed on every change.
type Record struct {
	Metric    string        `json:"metric"`
	Window    []Observation `json:"window"`
	Mean      float64       `json:"mean"`
	StdDev    float64       `json:"stddev"`
	UpdatedAt time.Time     `json:"updated_at"`
}

func (r *Record) Values() []float64 {
	values := make([]float64, 0, len(r.Window))
	for _, obs := range r.Window {
		values = append(values, obs.Value)
	}
	return values
}

func (r *Record) recompute() {
	values := r.Values()
	r.Mean = stats.Mean(values)
	r.StdDev = stats.StdDev(values, true)
}

func (r *Record) append(obs Observation, capacity int) {
	r.Window = append(r.Window, obs)
	if capacity > 0 {
		for len(r.Window) > capacity {
			r.Window = r.Window[1:]
		}
	}
	r.UpdatedAt = obs.Timestamp
	r.recompute()
}

// Store is the rolling-history abstraction the detectors read from.
// Record stages an observation for the current run; Update commits it to the
// window and persists. Staging and committing are separate so a run can
// decide at the end whether its observations enter history.
type Store interface {
	Snapshot(name string) (Record, bool, error)
	Record(name string, value float64)
	Update(name string) error
	UpdateAll() error
}
