package weather

import (
	"strings"

	"github.com/i474232898/weather-monitor/internal/common"
)

// ParseCondition maps a provider's primary condition label onto the Condition set.
// Labels outside the set fold into ConditionOther, except haze-like labels which count as Mist.
func ParseCondition(label string) Condition {
	switch strings.TrimSpace(label) {
	case "Clear":
		return ConditionClear
	case "Clouds":
		return ConditionClouds
	case "Rain":
		return ConditionRain
	case "Drizzle":
		return ConditionDrizzle
	case "Mist":
		return ConditionMist
	}
	if common.HasAny(strings.ToLower(label), "mist", "fog", "haze", "smoke") {
		return ConditionMist
	}
	return ConditionOther
}
