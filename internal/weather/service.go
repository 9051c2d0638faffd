package weather

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

// PollResult labels the outcome of one location pipeline.
type PollResult string

const (
	PollOK         PollResult = "ok"
	PollNotFound   PollResult = "not_found"
	PollTransient  PollResult = "transient"
	PollStoreError PollResult = "store_error"
)

// Recorder receives pipeline measurements (metrics). All methods must be safe for concurrent use.
type Recorder interface {
	ObservePoll(location string, result PollResult)
	ObserveTemperature(location string, celsius float64)
}

type nopRecorder struct{}

func (nopRecorder) ObservePoll(string, PollResult) {}
func (nopRecorder) ObserveTemperature(string, float64) {}

// PollReport describes what one location pipeline produced.
type PollReport struct {
	Observation Observation
	Evaluation  Evaluation
	// Summary is nil when aggregation had nothing to fold.
	Summary *DailySummary
}

// Service runs the per-location pipeline: fetch, detect, persist, aggregate, persist summary.
type Service struct {
	store      Store
	source     Source
	thresholds *ThresholdConfig
	detector   *Detector
	aggregator *Aggregator

	sink     AlertSink
	window   Window
	clock    Clock
	logger   *slog.Logger
	recorder Recorder
}

// Option customizes the Service.
type Option func(*Service)

// WithAlertSink assigns where breach alerts are delivered.
func WithAlertSink(sink AlertSink) Option {
	return func(s *Service) {
		s.sink = sink
	}
}

// WithWindow selects the aggregation window.
func WithWindow(w Window) Option {
	return func(s *Service) {
		if w != "" {
			s.window = w
		}
	}
}

// WithClock assigns a clock.
func WithClock(clock Clock) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithLogger assigns a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithRecorder assigns a metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(s *Service) {
		if r != nil {
			s.recorder = r
		}
	}
}

// NewService creates a new Service. A nil thresholds uses DefaultThresholds.
func NewService(store Store, source Source, thresholds *ThresholdConfig, opts ...Option) *Service {
	if thresholds == nil {
		thresholds = NewThresholdConfig(DefaultThresholds())
	}
	s := &Service{
		store:      store,
		source:     source,
		thresholds: thresholds,
		window:     WindowAll,
		clock:      SystemClock{},
		logger:     slog.Default(),
		recorder:   nopRecorder{},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.sink == nil {
		s.sink = NewLogSink(s.logger)
	}
	s.detector = NewDetector(s.sink).WithClock(s.clock)
	s.aggregator = NewAggregator(store, s.window, s.clock)
	return s
}

// Thresholds returns the live threshold configuration.
func (s *Service) Thresholds() *ThresholdConfig {
	return s.thresholds
}

// Detector exposes the breach detector state.
func (s *Service) Detector() *Detector {
	return s.detector
}

// Poll runs the pipeline for one location against the thresholds snapshot cfg.
// Steps run strictly in order; a store failure does not roll back detector state.
func (s *Service) Poll(ctx context.Context, location string, cfg Thresholds) (PollReport, error) {
	var report PollReport

	if s.source == nil {
		return report, ErrNoProvider
	}

	obs, err := s.source.Fetch(ctx, location)
	if err != nil {
		s.recorder.ObservePoll(location, classifyFetchError(err))
		return report, fmt.Errorf("fetch %s from %s: %w", location, s.source.Name(), err)
	}
	obs.Location = location
	if obs.ID == "" {
		obs.ID = uuid.NewString()
	}
	if obs.CapturedAt.IsZero() {
		obs.CapturedAt = s.clock.Now()
	}
	obs.CapturedAt = obs.CapturedAt.UTC()
	report.Observation = obs
	s.recorder.ObserveTemperature(location, obs.Temperature)

	report.Evaluation = s.detector.Evaluate(ctx, location, obs.Temperature, cfg)
	if report.Evaluation.Breached {
		s.logger.DebugContext(ctx, "weather: threshold breach continuing",
			"location", location,
			"temperature", obs.Temperature,
			"count", report.Evaluation.Count,
		)
	}

	if err := s.store.InsertObservation(ctx, obs); err != nil {
		s.recorder.ObservePoll(location, PollStoreError)
		return report, fmt.Errorf("%w: insert observation for %s: %w", ErrStoreWrite, location, err)
	}

	summary, ok, err := s.aggregator.Aggregate(ctx, location)
	if err != nil {
		s.recorder.ObservePoll(location, PollStoreError)
		return report, fmt.Errorf("aggregate %s: %w", location, err)
	}
	if !ok {
		s.logger.InfoContext(ctx, "weather: no observations to aggregate", "location", location)
		s.recorder.ObservePoll(location, PollOK)
		return report, nil
	}

	if err := s.store.UpsertDailySummary(ctx, summary); err != nil {
		s.recorder.ObservePoll(location, PollStoreError)
		return report, fmt.Errorf("%w: upsert daily summary for %s: %w", ErrStoreWrite, location, err)
	}
	report.Summary = &summary

	s.logger.DebugContext(ctx, "weather: stored daily summary",
		"location", location,
		"date", summary.Date,
		"avg", summary.AvgTemp,
		"samples", summary.Samples,
	)
	s.recorder.ObservePoll(location, PollOK)
	return report, nil
}

func classifyFetchError(err error) PollResult {
	if errors.Is(err, ErrLocationNotFound) {
		return PollNotFound
	}
	return PollTransient
}

// LatestSummary returns the most recent daily summary for location.
func (s *Service) LatestSummary(ctx context.Context, location string) (DailySummary, error) {
	return s.store.LatestDailySummary(ctx, location)
}

// LatestObservation returns the most recent stored observation for location.
func (s *Service) LatestObservation(ctx context.Context, location string) (Observation, error) {
	return s.store.LatestObservation(ctx, location)
}
