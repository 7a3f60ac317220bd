package factors

import (
	"context"
	"fmt"

	"RiskSentinel/internal/calculator"
	"RiskSentinel/internal/collector"
	"RiskSentinel/internal/model"
)

const (
	netLiqMinPoints  = 52
	netLiqChangeLag  = 4
	netLiqLookbackYr = 6
)

// NetLiquidity tracks the Fed balance sheet net of the Treasury General
// Account and reverse repo. Expanding liquidity lowers risk.
type NetLiquidity struct {
	Source SeriesSource
}

func (NetLiquidity) Key() string { return "net_liquidity" }

func (f NetLiquidity) Compute(ctx context.Context, fc *Context) (model.FactorOutcome, error) {
	if f.Source == nil || !f.Source.HasKey() {
		return model.FactorOutcome{}, MissingConfig("fred_api_key")
	}
	start := fc.Now.AddDate(-netLiqLookbackYr, 0, 0)
	walcl, err := f.Source.FetchSeries(ctx, collector.SeriesFedAssets, start)
	if err != nil {
		return model.FactorOutcome{}, Upstream(err)
	}
	tga, err := f.Source.FetchSeries(ctx, collector.SeriesTGA, start)
	if err != nil {
		return model.FactorOutcome{}, Upstream(err)
	}
	rrp, err := f.Source.FetchSeries(ctx, collector.SeriesReverseRepo, start)
	if err != nil {
		return model.FactorOutcome{}, Upstream(err)
	}

	net := NetLiquiditySeries(walcl, tga, rrp)
	if len(net) < netLiqMinPoints {
		return model.FactorOutcome{}, Insufficient("%d weekly points, need %d", len(net), netLiqMinPoints)
	}
	change := calculator.PctChange(model.Values(net), netLiqChangeLag)
	sub := rank("net_liquidity_4w_change", 1, change, true)
	if !sub.OK {
		return model.FactorOutcome{}, Insufficient("no 4-week change")
	}

	latest := net[len(net)-1]
	return model.FactorOutcome{
		Score: scored(float64(sub.Score)),
		Details: []model.Detail{
			{Label: "Net liquidity", Value: fmt.Sprintf("$%.2fT", latest.Value/1000),
				Tooltip: "Fed assets minus TGA minus reverse repo"},
			{Label: "4-week change", Value: fmt.Sprintf("%+.2f%%", sub.Current)},
		},
		Signals: pairSignal("net_liquidity_4w_change", f.Key(), change),
		AsOf:    asOf(latest.Date),
	}, nil
}

// NetLiquiditySeries returns WALCL/1000 - WTREGEN - RRPONTSYD in billions,
// dated on WALCL weeks. TGA and reverse repo are taken as of each week.
func NetLiquiditySeries(walcl, tga, rrp []model.Observation) []model.Observation {
	tv, tok := asOfJoin(walcl, tga)
	rv, rok := asOfJoin(walcl, rrp)
	out := make([]model.Observation, 0, len(walcl))
	for i, w := range walcl {
		if !tok[i] || !rok[i] {
			continue
		}
		out = append(out, model.Observation{Date: w.Date, Value: w.Value/1000 - tv[i] - rv[i]})
	}
	return out
}
