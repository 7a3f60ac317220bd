package factors

import (
	"context"
	"fmt"

	"RiskSentinel/internal/calculator"
	"RiskSentinel/internal/collector"
	"RiskSentinel/internal/model"
)

const (
	leverageMinDays = 30
	leverageSmooth  = 7
	fundingSymbol   = "XBTUSD"
)

// TermLeverage scores perpetual funding. Crowded longs paying high funding
// raise risk.
type TermLeverage struct {
	Source FundingSource
}

func (TermLeverage) Key() string { return "term_leverage" }

func (f TermLeverage) Compute(ctx context.Context, fc *Context) (model.FactorOutcome, error) {
	prints, err := f.Source.FetchFunding(ctx, fundingSymbol, collector.BitmexMaxCount)
	if err != nil {
		return model.FactorOutcome{}, Upstream(err)
	}
	daily := dailyMean(prints)
	if len(daily) < leverageMinDays {
		return model.FactorOutcome{}, Insufficient("%d days of funding, need %d", len(daily), leverageMinDays)
	}
	smoothed := calculator.SMA(model.Values(daily), leverageSmooth)
	sub := rank("funding_7d", 1, smoothed, false)
	if !sub.OK {
		return model.FactorOutcome{}, Insufficient("no smoothed funding")
	}

	return model.FactorOutcome{
		Score: scored(float64(sub.Score)),
		Details: []model.Detail{
			{Label: "Funding (7d avg)", Value: fmt.Sprintf("%.4f%%", sub.Current*100),
				Tooltip: "Average 8-hour funding rate on " + fundingSymbol},
			{Label: "Annualized", Value: fmt.Sprintf("%.1f%%", sub.Current*3*365*100)},
		},
		AsOf: asOf(daily[len(daily)-1].Date),
	}, nil
}
