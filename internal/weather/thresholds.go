package weather

import "sync"

// Default alerting thresholds.
const (
	DefaultTempThreshold    = 35.0
	DefaultAlertConsecutive = 2
)

// Thresholds is an immutable snapshot of the alerting configuration.
type Thresholds struct {
	TempThreshold    float64 `json:"tempThreshold"`
	AlertConsecutive int     `json:"alertConsecutive"`
}

// ThresholdUpdate carries a partial configuration change; nil fields are left untouched.
type ThresholdUpdate struct {
	TempThreshold    *float64 `json:"tempThreshold"`
	AlertConsecutive *int     `json:"alertConsecutive" validate:"omitempty,gte=1"`
}

// ThresholdConfig is the process-wide mutable alerting configuration.
// Readers always see both fields from the same update.
type ThresholdConfig struct {
	mu      sync.RWMutex
	current Thresholds
}

// NewThresholdConfig creates a ThresholdConfig holding initial.
func NewThresholdConfig(initial Thresholds) *ThresholdConfig {
	return &ThresholdConfig{current: initial}
}

// DefaultThresholds returns the startup defaults (35°C, 2 consecutive).
func DefaultThresholds() Thresholds {
	return Thresholds{
		TempThreshold:    DefaultTempThreshold,
		AlertConsecutive: DefaultAlertConsecutive,
	}
}

// Snapshot returns the current thresholds.
func (c *ThresholdConfig) Snapshot() Thresholds {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

// Apply sets the fields present in u and returns the resulting snapshot.
func (c *ThresholdConfig) Apply(u ThresholdUpdate) Thresholds {
	c.mu.Lock()
	defer c.mu.Unlock()

	next := c.current
	if u.TempThreshold != nil {
		next.TempThreshold = *u.TempThreshold
	}
	if u.AlertConsecutive != nil {
		next.AlertConsecutive = *u.AlertConsecutive
	}
	c.current = next
	return next
}
