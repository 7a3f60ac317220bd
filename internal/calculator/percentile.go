package calculator

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// DefaultLogisticK is the steepness used when RiskOpts.K is unset.
const DefaultLogisticK = 3.0

// PercentileRank returns the fraction in [0,1] of finite elements of series
// that are below value, with ties counting one half.
// Returns NaN when value is not finite or series has no finite elements.
func PercentileRank(series []float64, value float64) float64 {
	if !isFinite(value) {
		return math.NaN()
	}
	var below, ties, n float64
	for _, v := range series {
		if !isFinite(v) {
			continue
		}
		n++
		switch {
		case v < value:
			below++
		case v == value:
			ties++
		}
	}
	if n == 0 {
		return math.NaN()
	}
	return (below + 0.5*ties) / n
}

// ZScore returns how many sample standard deviations value lies from the
// mean of the finite elements of series. NaN when undefined.
func ZScore(series []float64, value float64) float64 {
	xs := Finite(series)
	if len(xs) < 2 || !isFinite(value) {
		return math.NaN()
	}
	mean, std := stat.MeanStdDev(xs, nil)
	if std == 0 || math.IsNaN(std) {
		return math.NaN()
	}
	return (value - mean) / std
}

// RiskOpts shapes the percentile-to-score mapping.
type RiskOpts struct {
	Invert bool
	K      float64
}

// RiskFromPercentile maps a percentile p in [0,1] to a 0-100 risk score
// through a logistic curve centred on the median: z = K(2p-1),
// score = round(100/(1+e^-z)). Invert flips the result (100-score).
// The curve compresses the tails so a single extreme day cannot pin the
// score to 0 or 100. A NaN percentile maps to the neutral 50.
func RiskFromPercentile(p float64, opts RiskOpts) int {
	k := opts.K
	if k <= 0 {
		k = DefaultLogisticK
	}
	if math.IsNaN(p) {
		return 50
	}
	p = math.Max(0, math.Min(1, p))
	z := k * (2*p - 1)
	score := int(math.Round(100 / (1 + math.Exp(-z))))
	if opts.Invert {
		score = 100 - score
	}
	return score
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
