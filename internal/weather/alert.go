package weather

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Alert is emitted when a location stays above the threshold for the required number of polls.
type Alert struct {
	Location    string    `json:"city"`
	Threshold   float64   `json:"tempThreshold"`
	Count       int       `json:"consecutiveCount"`
	Required    int       `json:"alertConsecutive"`
	Temperature float64   `json:"temperature"`
	TriggeredAt time.Time `json:"triggeredAt"`
}

// Message renders the alert the way it is shown on the dashboard banner.
func (a Alert) Message() string {
	return fmt.Sprintf("ALERT: Temperature in %s has exceeded %g°C for %d consecutive updates.",
		a.Location, a.Threshold, a.Count)
}

// AlertSink delivers alerts. Delivery is best effort; implementations log their own failures.
type AlertSink interface {
	Notify(ctx context.Context, alert Alert)
}

// LogSink writes alerts to a structured logger at WARN.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink creates a LogSink. A nil logger falls back to slog.Default().
func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger}
}

func (s *LogSink) Notify(ctx context.Context, a Alert) {
	s.logger.WarnContext(ctx, a.Message(),
		"location", a.Location,
		"threshold", a.Threshold,
		"count", a.Count,
		"temperature", a.Temperature,
	)
}

// AlertHistory keeps the most recent alerts in memory for the dashboard.
type AlertHistory struct {
	mu    sync.RWMutex
	items []Alert
	max   int
}

// NewAlertHistory creates a history bounded to max entries (<= 0 means 50).
func NewAlertHistory(max int) *AlertHistory {
	if max <= 0 {
		max = 50
	}
	return &AlertHistory{max: max}
}

func (h *AlertHistory) Notify(_ context.Context, a Alert) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.items = append(h.items, a)
	if over := len(h.items) - h.max; over > 0 {
		h.items = h.items[over:]
	}
}

// Recent returns up to limit alerts, newest first. limit <= 0 returns all.
func (h *AlertHistory) Recent(limit int) []Alert {
	h.mu.RLock()
	defer h.mu.RUnlock()

	n := len(h.items)
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]Alert, 0, limit)
	for i := n - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, h.items[i])
	}
	return out
}

// MultiSink fans an alert out to every sink in order.
type MultiSink []AlertSink

func (m MultiSink) Notify(ctx context.Context, a Alert) {
	for _, s := range m {
		if s != nil {
			s.Notify(ctx, a)
		}
	}
}
