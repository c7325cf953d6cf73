package engine

import (
	"fmt"
	"sync"
	"time"
)

// Value is one metric value produced by a tick.
type Value struct {
	ID    int64
	Value int64
}

// Point is a recorded value with the timestamp of the tick that produced it.
type Point struct {
	Time  time.Time `json:"time"`
	Value int64     `json:"value"`
}

type entry struct {
	tick  int
	value int64
}

// Store keeps one append-only series per metric and the shared tick timestamps.
// A metric that gets no value in a tick simply has no entry for it; every entry
// remembers its tick so the series stays aligned with the timestamps.
type Store struct {
	mu     sync.RWMutex
	times  []time.Time
	series map[int64][]entry
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		series: make(map[int64][]entry),
	}
}

// Register creates an empty series for id. Registering an existing id is a no-op.
func (s *Store) Register(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.series[id]; !ok {
		s.series[id] = nil
	}
}

// Append records one tick. Values for unregistered ids are dropped. The tick becomes
// visible to readers all at once.
func (s *Store) Append(ts time.Time, values []Value) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tick := len(s.times)
	for _, v := range values {
		series, ok := s.series[v.ID]
		if !ok {
			continue
		}
		s.series[v.ID] = append(series, entry{tick: tick, value: v.Value})
	}
	s.times = append(s.times, ts)
}

// AllValues returns the full history of id.
func (s *Store) AllValues(id int64) ([]Point, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	series, ok := s.series[id]
	if !ok {
		return nil, fmt.Errorf("%w: id %d", ErrUnknownMetric, id)
	}

	out := make([]Point, len(series))
	for i, e := range series {
		out[i] = Point{Time: s.times[e.tick], Value: e.value}
	}
	return out, nil
}

// Len returns the number of values recorded for id.
func (s *Store) Len(id int64) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.series[id])
}

// Ticks returns the number of recorded ticks.
func (s *Store) Ticks() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.times)
}

// Timestamps returns a copy of the tick timestamps.
func (s *Store) Timestamps() []time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]time.Time, len(s.times))
	copy(out, s.times)
	return out
}
