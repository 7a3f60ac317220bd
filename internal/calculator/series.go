package calculator

import "math"

// Finite returns the finite elements of series in order.
func Finite(series []float64) []float64 {
	out := make([]float64, 0, len(series))
	for _, v := range series {
		if isFinite(v) {
			out = append(out, v)
		}
	}
	return out
}

// Last returns the last finite element and its index, or NaN and -1.
func Last(series []float64) (float64, int) {
	for i := len(series) - 1; i >= 0; i-- {
		if isFinite(series[i]) {
			return series[i], i
		}
	}
	return math.NaN(), -1
}

// PctChange returns the percentage change of each element versus the one lag
// positions earlier. Indices below lag, or with a zero/NaN base, hold NaN.
func PctChange(series []float64, lag int) []float64 {
	out := nanSlice(len(series))
	if lag <= 0 {
		return out
	}
	for i := lag; i < len(series); i++ {
		base := series[i-lag]
		if base == 0 || !isFinite(base) || !isFinite(series[i]) {
			continue
		}
		out[i] = (series[i] - base) / math.Abs(base) * 100
	}
	return out
}

// Diff returns series[i] - series[i-lag], NaN below lag.
func Diff(series []float64, lag int) []float64 {
	out := nanSlice(len(series))
	if lag <= 0 {
		return out
	}
	for i := lag; i < len(series); i++ {
		out[i] = series[i] - series[i-lag]
	}
	return out
}

// RollingSum sums each trailing window. Indices below window-1 hold NaN.
func RollingSum(series []float64, window int) []float64 {
	out := nanSlice(len(series))
	if window <= 0 || len(series) < window {
		return out
	}
	sum := 0.0
	for i, v := range series {
		sum += v
		if i >= window {
			sum -= series[i-window]
		}
		if i >= window-1 {
			out[i] = sum
		}
	}
	return out
}
