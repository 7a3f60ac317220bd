package factors

import (
	"context"
	"fmt"

	"RiskSentinel/internal/calculator"
	"RiskSentinel/internal/model"
)

const (
	stableMinPoints = 90
	stableGrowthLag = 30
	stableDays      = 730
)

// Stablecoins measures growth of USDT plus USDC supply. Fresh dry powder
// entering crypto lowers risk.
type Stablecoins struct {
	Source ChartSource
}

func (Stablecoins) Key() string { return "stablecoins" }

func (f Stablecoins) Compute(ctx context.Context, fc *Context) (model.FactorOutcome, error) {
	usdt, err := f.Source.FetchMarketChart(ctx, "tether", stableDays)
	if err != nil {
		return model.FactorOutcome{}, Upstream(err)
	}
	usdc, err := f.Source.FetchMarketChart(ctx, "usd-coin", stableDays)
	if err != nil {
		return model.FactorOutcome{}, Upstream(err)
	}

	dates, a, b := innerJoin(usdt.MarketCaps, usdc.MarketCaps)
	supply := make([]float64, len(a))
	for i := range a {
		supply[i] = a[i] + b[i]
	}
	if len(supply) < stableMinPoints {
		return model.FactorOutcome{}, Insufficient("%d days of supply, need %d", len(supply), stableMinPoints)
	}
	growth := calculator.PctChange(supply, stableGrowthLag)
	sub := rank("stablecoin_30d_growth", 1, growth, true)
	if !sub.OK {
		return model.FactorOutcome{}, Insufficient("no 30-day growth")
	}

	return model.FactorOutcome{
		Score: scored(float64(sub.Score)),
		Details: []model.Detail{
			{Label: "Stablecoin supply", Value: fmt.Sprintf("$%.1fB", supply[len(supply)-1]/1e9),
				Tooltip: "USDT + USDC market capitalisation"},
			{Label: "30-day growth", Value: fmt.Sprintf("%+.2f%%", sub.Current)},
		},
		Signals: pairSignal("stablecoin_30d_growth", f.Key(), growth),
		AsOf:    asOf(dates[len(dates)-1]),
	}, nil
}
