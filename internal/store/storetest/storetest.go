// Package storetest holds behaviour checks shared by every weather.Store implementation.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/i474232898/weather-monitor/internal/store"
	"github.com/i474232898/weather-monitor/internal/weather"
)

// Run exercises a fresh store returned by newStore for each subtest.
func Run(t *testing.T, newStore func(t *testing.T) weather.Store) {
	t.Run("empty location", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		list, err := s.ListObservations(ctx, "Nowhere")
		if err != nil || len(list) != 0 {
			t.Fatalf("expected empty list, got %v, %v", list, err)
		}
		if _, err := s.LatestObservation(ctx, "Nowhere"); !errors.Is(err, store.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
		if _, err := s.LatestDailySummary(ctx, "Nowhere"); !errors.Is(err, store.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("observations keep insertion order", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		base := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

		// Out of time order on purpose: ordering is by insertion.
		temps := []float64{30.5, 28.25, 33}
		for i, temp := range temps {
			obs := Observation("Delhi", temp, base.Add(-time.Duration(i)*time.Minute))
			obs.ID = "delhi-" + string(rune('a'+i))
			if err := s.InsertObservation(ctx, obs); err != nil {
				t.Fatalf("insert: %v", err)
			}
		}
		if err := s.InsertObservation(ctx, Observation("Mumbai", 25, base)); err != nil {
			t.Fatalf("insert: %v", err)
		}

		list, err := s.ListObservations(ctx, "Delhi")
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(list) != len(temps) {
			t.Fatalf("expected %d observations, got %d", len(temps), len(list))
		}
		for i, obs := range list {
			if obs.Temperature != temps[i] {
				t.Fatalf("position %d: expected %v, got %v", i, temps[i], obs.Temperature)
			}
		}

		first := list[0]
		if first.ID != "delhi-a" || first.Condition != weather.ConditionClear || first.RawCondition != "Clear" {
			t.Fatalf("fields not round-tripped: %+v", first)
		}
		if !first.CapturedAt.Equal(base) || first.Humidity != 40 || first.WindSpeed != 7.2 {
			t.Fatalf("fields not round-tripped: %+v", first)
		}

		latest, err := s.LatestObservation(ctx, "Delhi")
		if err != nil || latest.Temperature != 33 {
			t.Fatalf("unexpected latest %+v, %v", latest, err)
		}
	})

	t.Run("daily summary upsert", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

		first := weather.DailySummary{
			Location: "Delhi", Date: "2024-05-01",
			AvgTemp: 30, MaxTemp: 35, MinTemp: 25,
			DominantCondition: weather.ConditionClear, Samples: 2, ComputedAt: at,
		}
		if err := s.UpsertDailySummary(ctx, first); err != nil {
			t.Fatalf("upsert: %v", err)
		}

		replaced := first
		replaced.AvgTemp, replaced.Samples, replaced.DominantCondition = 31.5, 3, weather.ConditionRain
		if err := s.UpsertDailySummary(ctx, replaced); err != nil {
			t.Fatalf("upsert: %v", err)
		}

		got, err := s.LatestDailySummary(ctx, "Delhi")
		if err != nil {
			t.Fatalf("latest: %v", err)
		}
		if got.AvgTemp != 31.5 || got.Samples != 3 || got.DominantCondition != weather.ConditionRain {
			t.Fatalf("summary not replaced: %+v", got)
		}
		if !got.ComputedAt.Equal(at) {
			t.Fatalf("computed_at not round-tripped: %v", got.ComputedAt)
		}

		older := first
		older.Date = "2024-04-30"
		if err := s.UpsertDailySummary(ctx, older); err != nil {
			t.Fatalf("upsert: %v", err)
		}
		got, err = s.LatestDailySummary(ctx, "Delhi")
		if err != nil || got.Date != "2024-05-01" {
			t.Fatalf("expected the most recent date, got %+v, %v", got, err)
		}
	})
}

// Observation builds a fully populated observation for location.
func Observation(location string, temp float64, at time.Time) weather.Observation {
	return weather.Observation{
		ID:           location + "-" + at.Format(time.RFC3339Nano),
		Location:     location,
		Temperature:  temp,
		TempMax:      temp + 1,
		TempMin:      temp - 1,
		Humidity:     40,
		WindSpeed:    7.2,
		Condition:    weather.ConditionClear,
		RawCondition: "Clear",
		CapturedAt:   at,
	}
}
