package factors

import (
	"context"
	"fmt"

	"RiskSentinel/internal/calculator"
	"RiskSentinel/internal/model"
)

const (
	onchainMinPoints = 90
	onchainDays      = 730
	nvtVolumeWindow  = 28
)

// Onchain uses an NVT-style ratio of market cap to smoothed volume. A
// network valued richly against its activity carries more risk.
type Onchain struct {
	Source ChartSource
}

func (Onchain) Key() string { return "onchain" }

func (f Onchain) Compute(ctx context.Context, fc *Context) (model.FactorOutcome, error) {
	chart, err := f.Source.FetchMarketChart(ctx, "bitcoin", onchainDays)
	if err != nil {
		return model.FactorOutcome{}, Upstream(err)
	}
	dates, caps, vols := innerJoin(chart.MarketCaps, chart.Volumes)
	nvt := calculator.Ratio(caps, calculator.SMA(vols, nvtVolumeWindow))
	if n := len(calculator.Finite(nvt)); n < onchainMinPoints {
		return model.FactorOutcome{}, Insufficient("%d NVT points, need %d", n, onchainMinPoints)
	}
	sub := rank("nvt_proxy", 1, nvt, false)
	if !sub.OK {
		return model.FactorOutcome{}, Insufficient("no NVT value")
	}

	return model.FactorOutcome{
		Score: scored(float64(sub.Score)),
		Details: []model.Detail{
			{Label: "NVT proxy", Value: fmt.Sprintf("%.1f", sub.Current),
				Tooltip: "Market cap divided by the 28-day average traded volume"},
			{Label: "Market cap", Value: fmt.Sprintf("$%.0fB", caps[len(caps)-1]/1e9)},
		},
		AsOf: asOf(dates[len(dates)-1]),
	}, nil
}
