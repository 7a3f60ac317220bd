package factors

import (
	"context"
	"time"

	"RiskSentinel/internal/collector"
	"RiskSentinel/internal/model"
)

// SeriesSource reads FRED-style economic series.
type SeriesSource interface {
	HasKey() bool
	FetchSeries(ctx context.Context, id string, start time.Time) ([]model.Observation, error)
}

// ChartSource reads daily market charts by coin id.
type ChartSource interface {
	FetchMarketChart(ctx context.Context, coin string, days int) (collector.MarketChart, error)
}

// FundingSource reads perpetual funding prints.
type FundingSource interface {
	FetchFunding(ctx context.Context, symbol string, count int) ([]model.Observation, error)
}

// PageSource returns a raw HTML page.
type PageSource interface {
	FetchFlowsHTML(ctx context.Context) (string, error)
}

// IndexSource reads a daily sentiment index.
type IndexSource interface {
	FetchIndex(ctx context.Context, limit int) ([]model.Observation, error)
}

// asOfJoin aligns other onto the dates of base, taking for each base date
// the newest other value dated on or before it. Base dates with no prior
// other value are reported as missing.
func asOfJoin(base, other []model.Observation) ([]float64, []bool) {
	vals := make([]float64, len(base))
	ok := make([]bool, len(base))
	j := -1
	for i, b := range base {
		for j+1 < len(other) && !other[j+1].Date.After(b.Date) {
			j++
		}
		if j >= 0 {
			vals[i] = other[j].Value
			ok[i] = true
		}
	}
	return vals, ok
}

// innerJoin pairs observations of a and b that share a date.
func innerJoin(a, b []model.Observation) (dates []time.Time, av, bv []float64) {
	idx := make(map[time.Time]float64, len(b))
	for _, o := range b {
		idx[model.DayUTC(o.Date)] = o.Value
	}
	for _, o := range a {
		d := model.DayUTC(o.Date)
		if v, ok := idx[d]; ok {
			dates = append(dates, d)
			av = append(av, o.Value)
			bv = append(bv, v)
		}
	}
	return dates, av, bv
}

// dailyMean averages observations per UTC day, ascending.
func dailyMean(obs []model.Observation) []model.Observation {
	var out []model.Observation
	var sum float64
	var n int
	for i, o := range obs {
		sum += o.Value
		n++
		last := i == len(obs)-1 || !model.DayUTC(obs[i+1].Date).Equal(model.DayUTC(o.Date))
		if last {
			out = append(out, model.Observation{Date: model.DayUTC(o.Date), Value: sum / float64(n)})
			sum, n = 0, 0
		}
	}
	return out
}
