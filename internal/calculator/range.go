package calculator

import "math"

// RangePosition returns where current sits between low and high, clamped to [0,1].
// A collapsed range (high == low) is treated as the midpoint.
func RangePosition(current, high, low float64) float64 {
	if math.IsNaN(current) || math.IsNaN(high) || math.IsNaN(low) {
		return math.NaN()
	}
	if high <= low {
		return 0.5
	}
	pos := (current - low) / (high - low)
	if pos < 0 {
		pos = 0
	}
	if pos > 1 {
		pos = 1
	}
	return pos
}

// RollingPosition computes RangePosition of each element against the high and
// low of its trailing window (the element itself included). Early indices use
// whatever history is available.
func RollingPosition(series []float64, window int) []float64 {
	out := nanSlice(len(series))
	if window <= 0 {
		return out
	}
	for i := range series {
		start := i - window + 1
		if start < 0 {
			start = 0
		}
		high := math.Inf(-1)
		low := math.Inf(1)
		for j := start; j <= i; j++ {
			v := series[j]
			if math.IsNaN(v) {
				continue
			}
			if v > high {
				high = v
			}
			if v < low {
				low = v
			}
		}
		if math.IsInf(high, 0) {
			continue
		}
		out[i] = RangePosition(series[i], high, low)
	}
	return out
}
