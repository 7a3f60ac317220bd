package strategy

import (
	"math"
	"time"

	"RiskSentinel/internal/model"
)

// Blend combines fresh factor scores into a composite.
//
// Weights are renormalized over the fresh factors only, so a weight is a
// share relative to the other factors that reported this run rather than an
// absolute share of 100. When nothing is fresh the fallback score is used so
// consumers always receive a renderable number.
func Blend(date time.Time, results []model.FactorResult, bands []model.Band, fallback float64) model.CompositeResult {
	var totalWeight, weightedSum float64
	fresh := make([]model.FactorResult, 0, len(results))
	for _, r := range results {
		if !r.IsFresh() || r.Weight <= 0 {
			continue
		}
		fresh = append(fresh, r)
		totalWeight += r.Weight
		weightedSum += r.Weight * *r.Score
	}

	comp := model.CompositeResult{
		Date:            model.DayUTC(date),
		WeightedFactors: fresh,
		TotalWeight:     totalWeight,
	}
	if totalWeight > 0 {
		comp.Score = math.Round(weightedSum / totalWeight)
	} else {
		comp.Score = fallback
		comp.Fallback = true
	}
	comp.Band = BandFor(bands, comp.Score)
	return comp
}

// EffectiveWeights returns each fresh factor's renormalized share in percent.
func EffectiveWeights(comp model.CompositeResult) map[string]float64 {
	out := make(map[string]float64, len(comp.WeightedFactors))
	if comp.TotalWeight <= 0 {
		return out
	}
	for _, f := range comp.WeightedFactors {
		out[f.Key] = f.Weight / comp.TotalWeight * 100
	}
	return out
}
