// Package history provides bounded append-only time series used to track
// per-key and per-ngram observations.
package history

import (
	"sort"
	"time"
)

// PrunePolicy selects how a full series discards entries.
type PrunePolicy string

const (
	// PruneOldest drops the excess earliest entries in a single batch.
	PruneOldest PrunePolicy = "oldest"
	// PruneDecay is reserved for half-life weighted retention. It currently
	// behaves like PruneOldest.
	PruneDecay PrunePolicy = "decay"
)

// Entry is a single timestamped observation.
type Entry struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// Series is a bounded time series. Entries are kept in append order and the
// length never exceeds the configured maximum.
type Series struct {
	maxSize int
	policy  PrunePolicy
	entries []Entry
}

// NewSeries creates a series capped at maxSize entries with the oldest-drop
// prune policy.
func NewSeries(maxSize int) *Series {
	return NewSeriesWithPolicy(maxSize, PruneOldest)
}

// NewSeriesWithPolicy creates a series with an explicit prune policy.
func NewSeriesWithPolicy(maxSize int, policy PrunePolicy) *Series {
	if maxSize < 1 {
		maxSize = 1
	}
	return &Series{maxSize: maxSize, policy: policy}
}

// FromEntries rebuilds a series from persisted entries, applying the same
// capacity bound as live appends.
func FromEntries(maxSize int, entries []Entry) *Series {
	s := NewSeries(maxSize)
	for _, e := range entries {
		s.Add(e.Value, e.Timestamp)
	}
	return s
}

// Add appends an observation and prunes any excess in one batch.
func (s *Series) Add(value float64, ts time.Time) {
	s.entries = append(s.entries, Entry{Timestamp: ts, Value: value})
	if excess := len(s.entries) - s.maxSize; excess > 0 {
		// Both policies currently drop from the front; order is preserved.
		s.entries = append(s.entries[:0], s.entries[excess:]...)
	}
}

// Len returns the number of retained entries.
func (s *Series) Len() int {
	return len(s.entries)
}

// MaxSize returns the configured capacity.
func (s *Series) MaxSize() int {
	return s.maxSize
}

// Window returns all entries with Timestamp >= now - window, in order.
func (s *Series) Window(window time.Duration, now time.Time) []Entry {
	cutoff := now.Add(-window)
	for i, e := range s.entries {
		if !e.Timestamp.Before(cutoff) {
			out := make([]Entry, len(s.entries)-i)
			copy(out, s.entries[i:])
			return out
		}
	}
	return nil
}

// Last returns the most recent n entries, oldest first.
func (s *Series) Last(n int) []Entry {
	if n <= 0 {
		return nil
	}
	if n > len(s.entries) {
		n = len(s.entries)
	}
	out := make([]Entry, n)
	copy(out, s.entries[len(s.entries)-n:])
	return out
}

// Values returns a copy of all retained values, oldest first.
func (s *Series) Values() []float64 {
	out := make([]float64, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.Value
	}
	return out
}

// EWMA folds the series left to right as
// result = alpha*value + (1-alpha)*result, seeded by the first value.
// ok is false when the series is empty.
func (s *Series) EWMA(alpha float64) (result float64, ok bool) {
	if len(s.entries) == 0 {
		return 0, false
	}
	result = s.entries[0].Value
	for _, e := range s.entries[1:] {
		result = alpha*e.Value + (1-alpha)*result
	}
	return result, true
}

// Aggregate applies fn to the values inside the window. ok is false when the
// window is empty.
func (s *Series) Aggregate(window time.Duration, now time.Time, fn func([]float64) float64) (float64, bool) {
	entries := s.Window(window, now)
	if len(entries) == 0 {
		return 0, false
	}
	values := make([]float64, len(entries))
	for i, e := range entries {
		values[i] = e.Value
	}
	return fn(values), true
}

// Percentile returns the p-th percentile (0-100) of all retained values
// using nearest-rank on a sorted copy. ok is false when empty.
func (s *Series) Percentile(p float64) (float64, bool) {
	if len(s.entries) == 0 {
		return 0, false
	}
	values := s.Values()
	sort.Float64s(values)
	if p <= 0 {
		return values[0], true
	}
	if p >= 100 {
		return values[len(values)-1], true
	}
	idx := int(p / 100 * float64(len(values)))
	if idx >= len(values) {
		idx = len(values) - 1
	}
	return values[idx], true
}

// Mean is a convenience aggregate over all retained values.
func (s *Series) Mean() (float64, bool) {
	if len(s.entries) == 0 {
		return 0, false
	}
	sum := 0.0
	for _, e := range s.entries {
		sum += e.Value
	}
	return sum / float64(len(s.entries)), true
}
