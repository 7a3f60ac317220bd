package factors

import (
	"context"
	"fmt"

	"RiskSentinel/internal/calculator"
	"RiskSentinel/internal/model"
)

const (
	socialMinDays = 30
	socialSmooth  = 7
)

// SocialInterest scores crowd sentiment from the Fear & Greed index.
// Greed raises risk.
type SocialInterest struct {
	Source IndexSource
}

func (SocialInterest) Key() string { return "social_interest" }

func (f SocialInterest) Compute(ctx context.Context, fc *Context) (model.FactorOutcome, error) {
	index, err := f.Source.FetchIndex(ctx, 0)
	if err != nil {
		return model.FactorOutcome{}, Upstream(err)
	}
	if len(index) < socialMinDays {
		return model.FactorOutcome{}, Insufficient("%d days of index, need %d", len(index), socialMinDays)
	}
	values := model.Values(index)
	smoothed := calculator.SMA(values, socialSmooth)
	sub := rank("fear_greed_7d", 1, smoothed, false)
	if !sub.OK {
		return model.FactorOutcome{}, Insufficient("no smoothed index")
	}

	latest := index[len(index)-1]
	return model.FactorOutcome{
		Score: scored(float64(sub.Score)),
		Details: []model.Detail{
			{Label: "Fear & Greed", Value: fmt.Sprintf("%.0f (%s)", latest.Value, sentimentLabel(latest.Value))},
			{Label: "7-day average", Value: fmt.Sprintf("%.1f", sub.Current)},
		},
		AsOf: asOf(latest.Date),
	}, nil
}

func sentimentLabel(v float64) string {
	switch {
	case v < 25:
		return "Extreme Fear"
	case v < 45:
		return "Fear"
	case v <= 55:
		return "Neutral"
	case v <= 75:
		return "Greed"
	default:
		return "Extreme Greed"
	}
}
