package calculator

import (
	"math"

	"github.com/markcheno/go-talib"
)

// SMA returns the simple moving average of series over period.
// Output index i matches input index i; indices below period-1 hold NaN.
func SMA(series []float64, period int) []float64 {
	out := nanSlice(len(series))
	if period <= 0 || len(series) < period {
		return out
	}
	sma := talib.Sma(series, period)
	copy(out[period-1:], sma[period-1:])
	return out
}

// EMA returns the exponential moving average of series with multiplier
// 2/(period+1), seeded by the first element.
func EMA(series []float64, period int) []float64 {
	out := nanSlice(len(series))
	if period <= 0 || len(series) == 0 {
		return out
	}
	k := 2.0 / float64(period+1)
	out[0] = series[0]
	for i := 1; i < len(series); i++ {
		out[i] = series[i]*k + out[i-1]*(1-k)
	}
	return out
}

// Ratio divides a by b element-wise. Mismatched lengths are aligned on the
// shorter slice; zero or NaN denominators yield NaN.
func Ratio(a, b []float64) []float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	out := nanSlice(n)
	for i := 0; i < n; i++ {
		if b[i] == 0 || math.IsNaN(b[i]) || math.IsNaN(a[i]) {
			continue
		}
		out[i] = a[i] / b[i]
	}
	return out
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}
