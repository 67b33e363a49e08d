package dashboard

import (
	"math"
	"strconv"
)

// ThresholdDirection selects whether high or low values are alarming.
type ThresholdDirection string

const (
	ThresholdAbove ThresholdDirection = "above"
	ThresholdBelow ThresholdDirection = "below"
)

// ThresholdLevel is ordered: normal < warning < critical.
type ThresholdLevel int

const (
	LevelNormal ThresholdLevel = iota
	LevelWarning
	LevelCritical
)

func (l ThresholdLevel) String() string {
	switch l {
	case LevelWarning:
		return "warning"
	case LevelCritical:
		return "critical"
	default:
		return "normal"
	}
}

// MarshalText renders the level name in JSON payloads.
func (l ThresholdLevel) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// ClassifyThreshold grades value against optional thresholds. A nil threshold
// makes its tier unreachable. Unknown directions behave as above.
func ClassifyThreshold(value float64, warning, critical *float64, direction ThresholdDirection) ThresholdLevel {
	breaches := func(limit float64) bool {
		if direction == ThresholdBelow {
			return value <= limit
		}
		return value >= limit
	}
	if critical != nil && breaches(*critical) {
		return LevelCritical
	}
	if warning != nil && breaches(*warning) {
		return LevelWarning
	}
	return LevelNormal
}

// Trend is the direction of change between two readings.
type Trend string

const (
	TrendUp      Trend = "up"
	TrendDown    Trend = "down"
	TrendNeutral Trend = "neutral"
)

// TrendResult carries the trend and, when computable, the change.
type TrendResult struct {
	Trend         Trend   `json:"trend"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"changePercent"`
	HasPercent    bool    `json:"hasPercent"`
}

// ComputeTrend compares value with previous. A nil or zero previous yields a
// neutral trend without a percentage.
func ComputeTrend(value float64, previous *float64) TrendResult {
	if previous == nil || *previous == 0 {
		return TrendResult{Trend: TrendNeutral}
	}
	change := value - *previous
	result := TrendResult{
		Trend:         TrendNeutral,
		Change:        change,
		ChangePercent: change / *previous * 100,
		HasPercent:    true,
	}
	switch {
	case change > 0:
		result.Trend = TrendUp
	case change < 0:
		result.Trend = TrendDown
	}
	return result
}

// FormatPercent renders the magnitude of the change percent with one decimal.
// The sign is carried by Trend.
func (t TrendResult) FormatPercent() string {
	if !t.HasPercent {
		return ""
	}
	return strconv.FormatFloat(math.Abs(t.ChangePercent), 'f', 1, 64)
}

// FormatValue renders value with a fixed number of decimals. Negative
// decimals fall back to the KPI default.
func FormatValue(value float64, decimals int) string {
	if decimals < 0 {
		decimals = defaultKPIDecimals
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return "-"
	}
	return strconv.FormatFloat(value, 'f', decimals, 64)
}
