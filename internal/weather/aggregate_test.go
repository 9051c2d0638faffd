package weather

import (
	"context"
	"errors"
	"testing"
	"time"
)

func obsAt(temp float64, cond Condition, at time.Time) Observation {
	return Observation{Location: "Delhi", Temperature: temp, Condition: cond, CapturedAt: at}
}

func TestSummarize(t *testing.T) {
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	obs := []Observation{
		obsAt(10, ConditionClear, now),
		obsAt(20, ConditionClear, now),
		obsAt(30, ConditionRain, now),
	}

	sum, ok := Summarize("Delhi", "2024-05-01", obs, now)
	if !ok {
		t.Fatalf("expected a summary")
	}
	if sum.AvgTemp != 20 || sum.MaxTemp != 30 || sum.MinTemp != 10 {
		t.Fatalf("unexpected stats: %+v", sum)
	}
	if sum.DominantCondition != ConditionClear {
		t.Fatalf("expected Clear, got %s", sum.DominantCondition)
	}
	if sum.Samples != 3 || sum.Date != "2024-05-01" || sum.Location != "Delhi" {
		t.Fatalf("unexpected summary identity: %+v", sum)
	}
}

func TestSummarizeTieKeepsFirstSeen(t *testing.T) {
	now := time.Now().UTC()
	obs := []Observation{
		obsAt(10, ConditionRain, now),
		obsAt(11, ConditionClouds, now),
		obsAt(12, ConditionClouds, now),
		obsAt(13, ConditionRain, now),
	}

	sum, _ := Summarize("Delhi", DateOf(now), obs, now)
	if sum.DominantCondition != ConditionRain {
		t.Fatalf("expected first seen Rain on tie, got %s", sum.DominantCondition)
	}
}

func TestSummarizeRoundsMean(t *testing.T) {
	now := time.Now().UTC()
	obs := []Observation{obsAt(10, ConditionClear, now), obsAt(10, ConditionClear, now), obsAt(11, ConditionClear, now)}

	sum, _ := Summarize("Delhi", DateOf(now), obs, now)
	if sum.AvgTemp != 10.33 {
		t.Fatalf("expected 10.33, got %v", sum.AvgTemp)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	if _, ok := Summarize("Delhi", "2024-05-01", nil, time.Now()); ok {
		t.Fatalf("expected no summary for empty input")
	}
}

type listerFunc func(ctx context.Context, location string) ([]Observation, error)

func (f listerFunc) ListObservations(ctx context.Context, location string) ([]Observation, error) {
	return f(ctx, location)
}

func TestAggregatorWindows(t *testing.T) {
	now := time.Date(2024, 5, 2, 8, 0, 0, 0, time.UTC)
	yesterday := now.Add(-24 * time.Hour)
	lister := listerFunc(func(context.Context, string) ([]Observation, error) {
		return []Observation{
			obsAt(40, ConditionClear, yesterday),
			obsAt(20, ConditionRain, now),
		}, nil
	})

	all := NewAggregator(lister, WindowAll, fixedClock{t: now})
	sum, ok, err := all.Aggregate(context.Background(), "Delhi")
	if err != nil || !ok {
		t.Fatalf("unexpected result ok=%v err=%v", ok, err)
	}
	if sum.Samples != 2 || sum.AvgTemp != 30 || sum.Date != "2024-05-02" {
		t.Fatalf("window all: unexpected summary %+v", sum)
	}

	day := NewAggregator(lister, WindowDay, fixedClock{t: now})
	sum, ok, err = day.Aggregate(context.Background(), "Delhi")
	if err != nil || !ok {
		t.Fatalf("unexpected result ok=%v err=%v", ok, err)
	}
	if sum.Samples != 1 || sum.AvgTemp != 20 || sum.DominantCondition != ConditionRain {
		t.Fatalf("window day: unexpected summary %+v", sum)
	}
}

func TestAggregatorNothingToday(t *testing.T) {
	now := time.Date(2024, 5, 2, 8, 0, 0, 0, time.UTC)
	lister := listerFunc(func(context.Context, string) ([]Observation, error) {
		return []Observation{obsAt(40, ConditionClear, now.Add(-48*time.Hour))}, nil
	})

	_, ok, err := NewAggregator(lister, WindowDay, fixedClock{t: now}).Aggregate(context.Background(), "Delhi")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatalf("expected nothing to aggregate")
	}
}

func TestAggregatorStoreError(t *testing.T) {
	boom := errors.New("boom")
	lister := listerFunc(func(context.Context, string) ([]Observation, error) { return nil, boom })

	_, _, err := NewAggregator(lister, WindowAll, nil).Aggregate(context.Background(), "Delhi")
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
}

func TestParseWindow(t *testing.T) {
	cases := map[string]Window{"": WindowAll, "all": WindowAll, "day": WindowDay}
	for in, want := range cases {
		got, err := ParseWindow(in)
		if err != nil || got != want {
			t.Fatalf("ParseWindow(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseWindow("week"); err == nil {
		t.Fatalf("expected error for unknown window")
	}
}
