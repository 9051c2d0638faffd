package weather

import (
	"time"
)

// Condition represents a normalized high-level weather condition.
type Condition string

const (
	ConditionClear   Condition = "Clear"
	ConditionClouds  Condition = "Clouds"
	ConditionRain    Condition = "Rain"
	ConditionDrizzle Condition = "Drizzle"
	ConditionMist    Condition = "Mist"
	ConditionOther   Condition = "Other"
)

// Observation is one polled reading for a location. Temperatures are always Celsius.
type Observation struct {
	ID           string    `json:"id"`
	Location     string    `json:"city"`
	Temperature  float64   `json:"temperature"`
	TempMax      float64   `json:"tempMax"`
	TempMin      float64   `json:"tempMin"`
	Humidity     float64   `json:"humidity"`
	WindSpeed    float64   `json:"windSpeed"`
	Condition    Condition `json:"weatherCondition"`
	RawCondition string    `json:"rawCondition,omitempty"`
	CapturedAt   time.Time `json:"timestamp"` // always UTC
}

// DailySummary is the per (location, date) fold of stored observations.
type DailySummary struct {
	Location          string    `json:"city"`
	Date              string    `json:"date"` // YYYY-MM-DD, UTC
	AvgTemp           float64   `json:"avgTemp"`
	MaxTemp           float64   `json:"maxTemp"`
	MinTemp           float64   `json:"minTemp"`
	DominantCondition Condition `json:"dominantCondition"`
	Samples           int       `json:"samples"`
	ComputedAt        time.Time `json:"computedAt"`
}

// DateLayout is the calendar-day format used for DailySummary.Date.
const DateLayout = "2006-01-02"

// DateOf returns the UTC calendar day of t in DateLayout.
func DateOf(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// KelvinToCelsius converts a provider temperature to the canonical scale.
func KelvinToCelsius(k float64) float64 {
	return k - 273.15
}

// MetersPerSecondToKmh converts provider wind speed to km/h.
func MetersPerSecondToKmh(ms float64) float64 {
	return ms * 3.6
}
