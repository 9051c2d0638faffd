package weather

import (
	"context"
	"sync"
)

// Evaluation is the outcome of one detector step for a location.
type Evaluation struct {
	// Breached reports a continuing breach: previous and current readings both above the threshold.
	Breached bool `json:"breached"`
	// Count is the consecutive-breach counter after this step.
	Count int `json:"consecutiveCount"`
	// Alert is set when Count reached the required consecutive breaches.
	Alert bool `json:"alert"`
}

type breachState struct {
	prev    float64
	hasPrev bool
	count   int
}

// Detector tracks consecutive threshold breaches per location.
// State lives in memory only and is safe for concurrent use across locations.
type Detector struct {
	mu     sync.Mutex
	states map[string]*breachState
	sink   AlertSink
	clock  Clock
}

// NewDetector creates a Detector that emits alerts to sink (nil disables emission).
func NewDetector(sink AlertSink) *Detector {
	return &Detector{
		states: make(map[string]*breachState),
		sink:   sink,
		clock:  SystemClock{},
	}
}

// WithClock replaces the clock used to stamp alerts.
func (d *Detector) WithClock(c Clock) *Detector {
	if c != nil {
		d.clock = c
	}
	return d
}

// Evaluate folds current into the location's state using cfg and emits an alert
// once the counter reaches cfg.AlertConsecutive. It must be called before the
// reading is considered the previous one, i.e. exactly once per reading.
func (d *Detector) Evaluate(ctx context.Context, location string, current float64, cfg Thresholds) Evaluation {
	d.mu.Lock()
	st, ok := d.states[location]
	if !ok {
		st = &breachState{}
		d.states[location] = st
	}

	var ev Evaluation
	if st.hasPrev && st.prev > cfg.TempThreshold && current > cfg.TempThreshold {
		st.count++
		ev.Breached = true
		ev.Alert = st.count >= cfg.AlertConsecutive
	} else {
		st.count = 0
	}
	ev.Count = st.count

	st.prev = current
	st.hasPrev = true
	d.mu.Unlock()

	if ev.Alert && d.sink != nil {
		d.sink.Notify(ctx, Alert{
			Location:    location,
			Threshold:   cfg.TempThreshold,
			Count:       ev.Count,
			Required:    cfg.AlertConsecutive,
			Temperature: current,
			TriggeredAt: d.clock.Now(),
		})
	}
	return ev
}

// Count returns the current consecutive-breach counter for location.
func (d *Detector) Count(location string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	if st, ok := d.states[location]; ok {
		return st.count
	}
	return 0
}
