package store

import (
	"context"
	"errors"
	"sync"

	"github.com/i474232898/weather-monitor/internal/weather"
)

var (
	// ErrNotFound is returned when no data is available for a given location.
	ErrNotFound = errors.New("no weather data for location")
)

// locationHistory holds the observations and daily summaries of one location.
type locationHistory struct {
	Observations []weather.Observation
	// Summaries is keyed by DailySummary.Date.
	Summaries map[string]weather.DailySummary
}

// MemoryStore is a concurrency-safe in-memory implementation of weather.Store.
type MemoryStore struct {
	mu sync.RWMutex

	// key: location, value: history
	data map[string]*locationHistory

	// max number of observations kept per location
	maxHistory int
}

// NewMemoryStore creates a new MemoryStore.
// If maxHistory is <= 0, observations are kept without limit.
func NewMemoryStore(maxHistory int) *MemoryStore {
	return &MemoryStore{
		data:       make(map[string]*locationHistory),
		maxHistory: maxHistory,
	}
}

func (s *MemoryStore) history(location string) *locationHistory {
	h, ok := s.data[location]
	if !ok {
		h = &locationHistory{Summaries: make(map[string]weather.DailySummary)}
		s.data[location] = h
	}
	return h
}

// InsertObservation appends an observation and enforces retention.
func (s *MemoryStore) InsertObservation(_ context.Context, obs weather.Observation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	h := s.history(obs.Location)
	h.Observations = append(h.Observations, obs)

	if s.maxHistory > 0 && len(h.Observations) > s.maxHistory {
		over := len(h.Observations) - s.maxHistory
		h.Observations = append([]weather.Observation(nil), h.Observations[over:]...)
	}
	return nil
}

// ListObservations returns a copy of every observation for location in insertion order.
func (s *MemoryStore) ListObservations(_ context.Context, location string) ([]weather.Observation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	h, ok := s.data[location]
	if !ok {
		return nil, nil
	}
	return append([]weather.Observation(nil), h.Observations...), nil
}

// LatestObservation returns the most recently inserted observation for location.
func (s *MemoryStore) LatestObservation(_ context.Context, location string) (weather.Observation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	h, ok := s.data[location]
	if !ok || len(h.Observations) == 0 {
		return weather.Observation{}, ErrNotFound
	}
	return h.Observations[len(h.Observations)-1], nil
}

// UpsertDailySummary stores summary, replacing any summary for the same date.
func (s *MemoryStore) UpsertDailySummary(_ context.Context, summary weather.DailySummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.history(summary.Location).Summaries[summary.Date] = summary
	return nil
}

// LatestDailySummary returns the summary with the most recent date.
func (s *MemoryStore) LatestDailySummary(_ context.Context, location string) (weather.DailySummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	h, ok := s.data[location]
	if !ok || len(h.Summaries) == 0 {
		return weather.DailySummary{}, ErrNotFound
	}

	var (
		latest weather.DailySummary
		found  bool
	)
	for date, sum := range h.Summaries {
		if !found || date > latest.Date {
			latest = sum
			found = true
		}
	}
	return latest, nil
}
