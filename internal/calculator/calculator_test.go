package calculator

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSMA_AlignedWithNaNPadding(t *testing.T) {
	out := SMA([]float64{1, 2, 3, 4, 5}, 3)
	require.Len(t, out, 5)
	assert.True(t, math.IsNaN(out[0]))
	assert.True(t, math.IsNaN(out[1]))
	assert.InDelta(t, 2.0, out[2], 1e-9)
	assert.InDelta(t, 3.0, out[3], 1e-9)
	assert.InDelta(t, 4.0, out[4], 1e-9)
}

func TestSMA_ShortSeries(t *testing.T) {
	out := SMA([]float64{1, 2}, 5)
	require.Len(t, out, 2)
	for _, v := range out {
		assert.True(t, math.IsNaN(v))
	}
}

func TestEMA_SeededByFirstElement(t *testing.T) {
	out := EMA([]float64{10, 20, 30}, 3) // k = 0.5
	require.Len(t, out, 3)
	assert.InDelta(t, 10.0, out[0], 1e-9)
	assert.InDelta(t, 15.0, out[1], 1e-9)
	assert.InDelta(t, 22.5, out[2], 1e-9)
}

func TestRSI(t *testing.T) {
	rising := make([]float64, 20)
	for i := range rising {
		rising[i] = float64(100 + i)
	}
	out := RSI(rising, 14)
	require.Len(t, out, 20)
	for i := 0; i < 14; i++ {
		assert.True(t, math.IsNaN(out[i]), "index %d should be NaN", i)
	}
	assert.Equal(t, 100.0, out[14], "no losses means RSI 100")

	falling := make([]float64, 20)
	for i := range falling {
		falling[i] = float64(200 - i)
	}
	last := RSI(falling, 14)[19]
	assert.InDelta(t, 0.0, last, 1e-9)

	flat := []float64{5, 5, 5, 5, 5}
	assert.Equal(t, 100.0, RSI(flat, 3)[4])
}

func TestRSI_Alternating(t *testing.T) {
	series := []float64{10, 11, 10, 11, 10, 11, 10, 11, 10, 11, 10, 11, 10, 11, 10}
	rsi := RSI(series, 14)[14]
	assert.InDelta(t, 50.0, rsi, 1e-9)
}

func TestPercentileRank(t *testing.T) {
	series := []float64{1, 2, 3, 4}
	assert.InDelta(t, 0.0, PercentileRank(series, 0), 1e-9)
	assert.InDelta(t, 0.125, PercentileRank(series, 1), 1e-9)
	assert.InDelta(t, 0.5, PercentileRank(series, 2.5), 1e-9)
	assert.InDelta(t, 1.0, PercentileRank(series, 10), 1e-9)

	flat := make([]float64, 200)
	for i := range flat {
		flat[i] = 1
	}
	assert.InDelta(t, 0.5, PercentileRank(flat, 1), 1e-9)

	assert.True(t, math.IsNaN(PercentileRank([]float64{math.NaN(), math.NaN()}, 1)))
	assert.True(t, math.IsNaN(PercentileRank(series, math.NaN())))
	assert.InDelta(t, 0.5, PercentileRank([]float64{math.NaN(), 1, 3}, 2), 1e-9)
}

func TestPercentileRank_Monotonic(t *testing.T) {
	series := []float64{3, 1, 4, 1, 5, 9, 2, 6, 5, 3, 5, 8, 9, 7, 9}
	prev := -1.0
	for v := -1.0; v <= 11; v += 0.25 {
		p := PercentileRank(series, v)
		assert.GreaterOrEqual(t, p, prev, "value %.2f", v)
		prev = p
	}
}

func TestRiskFromPercentile(t *testing.T) {
	assert.Equal(t, 50, RiskFromPercentile(0.5, RiskOpts{K: 3}))
	assert.Equal(t, 50, RiskFromPercentile(0.5, RiskOpts{K: 3, Invert: true}))
	assert.Equal(t, 95, RiskFromPercentile(1, RiskOpts{K: 3}))
	assert.Equal(t, 5, RiskFromPercentile(0, RiskOpts{K: 3}))
	assert.Equal(t, 5, RiskFromPercentile(1, RiskOpts{K: 3, Invert: true}))
	assert.Equal(t, 50, RiskFromPercentile(math.NaN(), RiskOpts{}))
	assert.Equal(t, RiskFromPercentile(0.8, RiskOpts{K: DefaultLogisticK}), RiskFromPercentile(0.8, RiskOpts{}))

	prev := -1
	for p := 0.0; p <= 1.0; p += 0.05 {
		s := RiskFromPercentile(p, RiskOpts{})
		assert.GreaterOrEqual(t, s, prev)
		assert.GreaterOrEqual(t, s, 0)
		assert.LessOrEqual(t, s, 100)
		prev = s
	}
}

func TestZScore(t *testing.T) {
	series := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	z := ZScore(series, 5)
	assert.InDelta(t, 0.0, z, 1e-9)
	assert.Greater(t, ZScore(series, 20), 4.0)
	assert.True(t, math.IsNaN(ZScore([]float64{1, 1, 1}, 1)))
	assert.True(t, math.IsNaN(ZScore([]float64{1}, 1)))
}

func TestRangePosition(t *testing.T) {
	tests := []struct {
		cur, high, low, want float64
	}{
		{50, 100, 0, 0.5},
		{150, 100, 0, 1},
		{-5, 100, 0, 0},
		{7, 7, 7, 0.5},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, RangePosition(tt.cur, tt.high, tt.low), 1e-9)
	}
}

func TestRollingPosition(t *testing.T) {
	out := RollingPosition([]float64{1, 2, 3, 2}, 3)
	require.Len(t, out, 4)
	assert.InDelta(t, 0.5, out[0], 1e-9)
	assert.InDelta(t, 1.0, out[1], 1e-9)
	assert.InDelta(t, 1.0, out[2], 1e-9)
	assert.InDelta(t, 0.0, out[3], 1e-9)
}

func TestSeriesHelpers(t *testing.T) {
	pct := PctChange([]float64{100, 110, 99}, 1)
	assert.True(t, math.IsNaN(pct[0]))
	assert.InDelta(t, 10.0, pct[1], 1e-9)
	assert.InDelta(t, -10.0, pct[2], 1e-9)

	sum := RollingSum([]float64{1, 2, 3, 4}, 2)
	assert.True(t, math.IsNaN(sum[0]))
	assert.Equal(t, []float64{3, 5, 7}, sum[1:])

	v, idx := Last([]float64{1, 2, math.NaN()})
	assert.Equal(t, 2.0, v)
	assert.Equal(t, 1, idx)

	r := Ratio([]float64{2, 4, 1}, []float64{1, 0, 2})
	assert.Equal(t, 2.0, r[0])
	assert.True(t, math.IsNaN(r[1]))
	assert.Equal(t, 0.5, r[2])

	d := Diff([]float64{1, 4, 9}, 1)
	assert.Equal(t, []float64{3, 5}, d[1:])
}
