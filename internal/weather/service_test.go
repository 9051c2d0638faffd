package weather_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/i474232898/weather-monitor/internal/store"
	"github.com/i474232898/weather-monitor/internal/weather"
)

type fakeSource struct {
	mu    sync.Mutex
	temps map[string][]float64
	errs  map[string]error
}

func (f *fakeSource) Name() string { return "fake" }

func (f *fakeSource) Fetch(_ context.Context, location string) (weather.Observation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.errs[location]; err != nil {
		return weather.Observation{}, err
	}
	queue := f.temps[location]
	if len(queue) == 0 {
		return weather.Observation{}, fmt.Errorf("%w: no more readings", weather.ErrTransient)
	}
	f.temps[location] = queue[1:]
	return weather.Observation{Temperature: queue[0], Condition: weather.ConditionClear}, nil
}

type failingStore struct {
	*store.MemoryStore
}

func (failingStore) InsertObservation(context.Context, weather.Observation) error {
	return errors.New("disk full")
}

type clockAt time.Time

func (c clockAt) Now() time.Time { return time.Time(c) }

func TestServicePollPipeline(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemoryStore(0)
	src := &fakeSource{temps: map[string][]float64{"Delhi": {36, 37, 38}}}
	history := weather.NewAlertHistory(0)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	svc := weather.NewService(mem, src, nil,
		weather.WithAlertSink(history),
		weather.WithClock(clockAt(now)),
	)
	cfg := svc.Thresholds().Snapshot()

	var last weather.PollReport
	for i := 0; i < 3; i++ {
		report, err := svc.Poll(ctx, "Delhi", cfg)
		if err != nil {
			t.Fatalf("poll %d: unexpected error: %v", i, err)
		}
		last = report
	}

	if last.Evaluation.Count != 2 || !last.Evaluation.Alert {
		t.Fatalf("unexpected evaluation: %+v", last.Evaluation)
	}
	if got := history.Recent(0); len(got) != 1 || got[0].Location != "Delhi" {
		t.Fatalf("expected exactly one alert, got %+v", got)
	}
	if last.Summary == nil || last.Summary.Samples != 3 || last.Summary.AvgTemp != 37 {
		t.Fatalf("unexpected summary: %+v", last.Summary)
	}
	if last.Observation.ID == "" || !last.Observation.CapturedAt.Equal(now) {
		t.Fatalf("observation not stamped: %+v", last.Observation)
	}

	sum, err := svc.LatestSummary(ctx, "Delhi")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sum.Date != "2024-05-01" || sum.MaxTemp != 38 || sum.MinTemp != 36 {
		t.Fatalf("unexpected stored summary: %+v", sum)
	}

	obs, err := svc.LatestObservation(ctx, "Delhi")
	if err != nil || obs.Temperature != 38 {
		t.Fatalf("unexpected latest observation %+v, %v", obs, err)
	}
}

func TestServicePollFetchFailureLeavesNoTrace(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemoryStore(0)
	src := &fakeSource{errs: map[string]error{"Atlantis": fmt.Errorf("%w: Atlantis", weather.ErrLocationNotFound)}}
	svc := weather.NewService(mem, src, nil)

	_, err := svc.Poll(ctx, "Atlantis", weather.DefaultThresholds())
	if !errors.Is(err, weather.ErrLocationNotFound) {
		t.Fatalf("expected ErrLocationNotFound, got %v", err)
	}
	if _, err := mem.LatestObservation(ctx, "Atlantis"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected nothing stored, got %v", err)
	}
	if svc.Detector().Count("Atlantis") != 0 {
		t.Fatalf("detector state changed on a failed fetch")
	}
}

func TestServicePollStoreFailureKeepsDetectorState(t *testing.T) {
	ctx := context.Background()
	src := &fakeSource{temps: map[string][]float64{"Delhi": {36, 37}}}
	svc := weather.NewService(failingStore{store.NewMemoryStore(0)}, src, nil)
	cfg := weather.DefaultThresholds()

	for i := 0; i < 2; i++ {
		_, err := svc.Poll(ctx, "Delhi", cfg)
		if !errors.Is(err, weather.ErrStoreWrite) {
			t.Fatalf("expected ErrStoreWrite, got %v", err)
		}
	}
	if got := svc.Detector().Count("Delhi"); got != 1 {
		t.Fatalf("expected detector count 1 after store failures, got %d", got)
	}
}

func TestServicePollWithoutSource(t *testing.T) {
	svc := weather.NewService(store.NewMemoryStore(0), nil, nil)
	if _, err := svc.Poll(context.Background(), "Delhi", weather.DefaultThresholds()); !errors.Is(err, weather.ErrNoProvider) {
		t.Fatalf("expected ErrNoProvider, got %v", err)
	}
}
