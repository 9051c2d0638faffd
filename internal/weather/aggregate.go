package weather

import (
	"context"
	"fmt"
	"math"
	"time"
)

// Window selects which stored observations feed a daily summary.
type Window string

const (
	// WindowAll folds every stored observation for the location into today's summary.
	WindowAll Window = "all"
	// WindowDay folds only observations captured on the aggregation date (UTC).
	WindowDay Window = "day"
)

// ParseWindow validates a window name; empty selects WindowAll.
func ParseWindow(s string) (Window, error) {
	switch Window(s) {
	case "", WindowAll:
		return WindowAll, nil
	case WindowDay:
		return WindowDay, nil
	default:
		return "", fmt.Errorf("unknown aggregate window %q (allowed: all, day)", s)
	}
}

// Summarize folds observations into a DailySummary for date. It reports false when
// observations is empty. The mean is rounded to 2 decimals; the dominant condition is
// the most frequent one, ties going to the condition seen first.
func Summarize(loc, date string, observations []Observation, computedAt time.Time) (DailySummary, bool) {
	if len(observations) == 0 {
		return DailySummary{}, false
	}

	var (
		sum    float64
		maxT   = math.Inf(-1)
		minT   = math.Inf(1)
		order  []Condition
		counts = make(map[Condition]int)
	)

	for _, o := range observations {
		sum += o.Temperature
		if o.Temperature > maxT {
			maxT = o.Temperature
		}
		if o.Temperature < minT {
			minT = o.Temperature
		}
		if _, seen := counts[o.Condition]; !seen {
			order = append(order, o.Condition)
		}
		counts[o.Condition]++
	}

	// Pick majority condition; strict > keeps the first seen on ties.
	best := order[0]
	for _, c := range order[1:] {
		if counts[c] > counts[best] {
			best = c
		}
	}

	return DailySummary{
		Location:          loc,
		Date:              date,
		AvgTemp:           round2(sum / float64(len(observations))),
		MaxTemp:           maxT,
		MinTemp:           minT,
		DominantCondition: best,
		Samples:           len(observations),
		ComputedAt:        computedAt,
	}, true
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// ObservationLister is the read side of the Store used by the Aggregator.
type ObservationLister interface {
	ListObservations(ctx context.Context, location string) ([]Observation, error)
}

// Aggregator recomputes a location's summary for the current day from the store.
type Aggregator struct {
	store  ObservationLister
	window Window
	clock  Clock
}

// NewAggregator creates an Aggregator. A nil clock uses SystemClock.
func NewAggregator(store ObservationLister, window Window, clock Clock) *Aggregator {
	if clock == nil {
		clock = SystemClock{}
	}
	if window == "" {
		window = WindowAll
	}
	return &Aggregator{store: store, window: window, clock: clock}
}

// Aggregate returns today's summary for location, or ok=false when there is nothing to fold.
func (a *Aggregator) Aggregate(ctx context.Context, location string) (DailySummary, bool, error) {
	observations, err := a.store.ListObservations(ctx, location)
	if err != nil {
		return DailySummary{}, false, fmt.Errorf("list observations for %s: %w", location, err)
	}

	now := a.clock.Now().UTC()
	date := DateOf(now)

	if a.window == WindowDay {
		observations = filterByDate(observations, date)
	}

	summary, ok := Summarize(location, date, observations, now)
	return summary, ok, nil
}

func filterByDate(observations []Observation, date string) []Observation {
	out := observations[:0:0]
	for _, o := range observations {
		if DateOf(o.CapturedAt) == date {
			out = append(out, o)
		}
	}
	return out
}
