package scoring

import (
	"fmt"
	"math"
)

// InvalidRangeError is returned by Normalize when min >= max.
type InvalidRangeError struct {
	Min float64
	Max float64
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("invalid range: min %g must be less than max %g", e.Min, e.Max)
}

// Normalize linearly rescales value from [min, max] to [0, 100]. Values
// outside the range clamp to the nearest bound and non-finite values map to 0.
func Normalize(value, min, max float64) (float64, error) {
	if !isFinite(min) || !isFinite(max) || min >= max {
		return 0, &InvalidRangeError{Min: min, Max: max}
	}
	if !isFinite(value) {
		return 0, nil
	}
	return clamp((value-min)/(max-min)*100, 0, 100), nil
}

// RoundTenth rounds half away from zero at one decimal. The value is first
// snapped to an integer count of nano-units and the tenth is taken with integer
// arithmetic, so binary noise such as 77.74999999999999 rounds the way its
// decimal form 77.75 would.
func RoundTenth(v float64) float64 {
	if !isFinite(v) || math.Abs(v) > 1e9 {
		return math.Round(v*10) / 10
	}
	n := int64(math.Round(v * 1e9))
	neg := n < 0
	if neg {
		n = -n
	}
	q := (n + 50_000_000) / 100_000_000
	if neg {
		q = -q
	}
	return float64(q) / 10
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// clampScore bounds a component score to [0, 100], mapping non-finite values to 0.
func clampScore(v float64) float64 {
	if !isFinite(v) {
		return 0
	}
	return clamp(v, 0, 100)
}
