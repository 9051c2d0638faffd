package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/i474232898/weather-monitor/internal/weather"
)

// Poller runs the per-location pipeline.
type Poller interface {
	Poll(ctx context.Context, location string, cfg weather.Thresholds) (weather.PollReport, error)
}

// ThresholdSource yields the thresholds snapshot used for a whole tick.
type ThresholdSource interface {
	Snapshot() weather.Thresholds
}

// TickObserver is notified of the wall time of each settled tick.
type TickObserver interface {
	ObserveTick(d time.Duration)
}

// Scheduler periodically polls every configured location.
type Scheduler struct {
	scheduler  *gocron.Scheduler
	poller     Poller
	thresholds ThresholdSource
	locations  []string
	interval   time.Duration
	timeout    time.Duration
	logger     *slog.Logger
	observer   TickObserver
}

// Option customizes the Scheduler.
type Option func(*Scheduler)

// WithTimeout bounds each location pipeline (default 30s).
func WithTimeout(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithLogger assigns a logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithTickObserver assigns a tick duration observer.
func WithTickObserver(o TickObserver) Option {
	return func(s *Scheduler) {
		s.observer = o
	}
}

// New creates a new Scheduler. The location list is copied and never changes afterwards.
func New(locations []string, interval time.Duration, poller Poller, thresholds ThresholdSource, opts ...Option) *Scheduler {
	s := &Scheduler{
		scheduler:  gocron.NewScheduler(time.UTC),
		poller:     poller,
		thresholds: thresholds,
		locations:  append([]string(nil), locations...),
		interval:   interval,
		timeout:    30 * time.Second,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start schedules the periodic job and starts the underlying scheduler.
// The first tick fires immediately; ticks never wait for previous ones to settle.
func (s *Scheduler) Start() error {
	if len(s.locations) == 0 {
		s.logger.Warn("scheduler: no locations configured; nothing to schedule")
		return nil
	}

	interval := s.interval
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	_, err := s.scheduler.Every(interval).Do(func() {
		s.RunTick(context.Background())
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	s.logger.Info("scheduler: started", "interval", interval, "locations", len(s.locations))
	return nil
}

// RunTick polls every location concurrently against one thresholds snapshot and
// returns once all of them have settled. A failing location never affects the others.
func (s *Scheduler) RunTick(ctx context.Context) {
	started := time.Now()
	cfg := s.thresholds.Snapshot()
	s.logger.Debug("scheduler: running weather poll",
		"threshold", cfg.TempThreshold,
		"consecutive", cfg.AlertConsecutive,
	)

	var wg sync.WaitGroup
	for _, loc := range s.locations {
		wg.Add(1)
		go func(loc string) {
			defer wg.Done()

			ctx, cancel := context.WithTimeout(ctx, s.timeout)
			defer cancel()

			if _, err := s.poller.Poll(ctx, loc, cfg); err != nil {
				s.logFailure(ctx, loc, err)
			}
		}(loc)
	}
	wg.Wait()

	if s.observer != nil {
		s.observer.ObserveTick(time.Since(started))
	}
	s.logger.Debug("scheduler: completed weather poll", "elapsed", time.Since(started))
}

func (s *Scheduler) logFailure(ctx context.Context, loc string, err error) {
	switch {
	case errors.Is(err, weather.ErrLocationNotFound):
		s.logger.WarnContext(ctx, "scheduler: location not found", "location", loc, "error", err)
	case errors.Is(err, weather.ErrStoreWrite):
		s.logger.ErrorContext(ctx, "scheduler: store write failed", "location", loc, "error", err)
	default:
		s.logger.ErrorContext(ctx, "scheduler: poll failed", "location", loc, "error", err)
	}
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
