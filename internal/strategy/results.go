package strategy

import (
	"math"

	"RiskSentinel/internal/model"
)

// BuildResults pairs each factor spec with its outcome and assigns a status.
// A score survives only on a fresh result; anything else is reported with a
// nil score and a reason. Specs without an outcome are excluded as "not_run".
func BuildResults(specs []model.FactorSpec, outcomes map[string]model.FactorOutcome) []model.FactorResult {
	out := make([]model.FactorResult, 0, len(specs))
	for _, spec := range specs {
		o, ok := outcomes[spec.Key]
		r := model.FactorResult{
			Key:     spec.Key,
			Label:   spec.Label,
			Pillar:  spec.Pillar,
			Weight:  spec.Weight,
			Details: o.Details,
			AsOf:    o.AsOf,
			Signals: o.Signals,
		}
		if r.Details == nil {
			r.Details = []model.Detail{}
		}
		switch {
		case !ok:
			r.Status = model.StatusExcluded
			r.Reason = "not_run"
		case o.Score != nil && o.Reason == "" && !math.IsNaN(*o.Score):
			s := math.Max(0, math.Min(100, *o.Score))
			r.Score = &s
			r.Status = model.StatusFresh
		case o.Reason == model.ReasonStale:
			r.Status = model.StatusStale
			r.Reason = o.Reason
		default:
			r.Status = model.StatusExcluded
			r.Reason = o.Reason
			if r.Reason == "" {
				r.Reason = "error: no score"
			}
		}
		out = append(out, r)
	}
	return out
}
