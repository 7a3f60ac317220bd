package factors

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"RiskSentinel/internal/collector"
	"RiskSentinel/internal/model"
)

var now = time.Date(2024, 6, 30, 12, 0, 0, 0, time.UTC)

func newContext(prices []model.PricePoint) *Context {
	return &Context{Now: now, Prices: prices, Cache: NewCache(""), Log: zerolog.Nop()}
}

// dailyObs returns n daily observations ending on the day of now.
func dailyObs(n int, value func(i int) float64) []model.Observation {
	out := make([]model.Observation, n)
	start := model.DayUTC(now).AddDate(0, 0, -(n - 1))
	for i := range out {
		out[i] = model.Observation{Date: start.AddDate(0, 0, i), Value: value(i)}
	}
	return out
}

func weeklyObs(n int, value func(i int) float64) []model.Observation {
	out := make([]model.Observation, n)
	start := model.DayUTC(now).AddDate(0, 0, -7*(n-1))
	for i := range out {
		out[i] = model.Observation{Date: start.AddDate(0, 0, 7*i), Value: value(i)}
	}
	return out
}

func flatPrices(n int, close float64) []model.PricePoint {
	obs := dailyObs(n, func(int) float64 { return close })
	out := make([]model.PricePoint, n)
	for i, o := range obs {
		out[i] = model.PricePoint{Date: o.Date, Close: o.Value, Source: model.SourcePrimary}
	}
	return out
}

type fakeSeries struct {
	key    bool
	series map[string][]model.Observation
	errs   map[string]error
	calls  int
}

func (f *fakeSeries) HasKey() bool { return f.key }

func (f *fakeSeries) FetchSeries(_ context.Context, id string, _ time.Time) ([]model.Observation, error) {
	f.calls++
	if err := f.errs[id]; err != nil {
		return nil, err
	}
	obs, ok := f.series[id]
	if !ok {
		return nil, collector.ErrEmptyPayload
	}
	return obs, nil
}

type fakeCharts struct {
	charts map[string]collector.MarketChart
	err    error
}

func (f *fakeCharts) FetchMarketChart(_ context.Context, coin string, _ int) (collector.MarketChart, error) {
	if f.err != nil {
		return collector.MarketChart{}, f.err
	}
	c, ok := f.charts[coin]
	if !ok {
		return collector.MarketChart{}, errors.New("unknown coin " + coin)
	}
	return c, nil
}

type fakeFunding struct {
	prints []model.Observation
	err    error
}

func (f *fakeFunding) FetchFunding(context.Context, string, int) ([]model.Observation, error) {
	return f.prints, f.err
}

type fakePage struct {
	html string
	err  error
}

func (f *fakePage) FetchFlowsHTML(context.Context) (string, error) { return f.html, f.err }

type fakeIndex struct {
	obs []model.Observation
	err error
}

func (f *fakeIndex) FetchIndex(context.Context, int) ([]model.Observation, error) { return f.obs, f.err }

// stubFactor returns a fixed outcome or error, or panics.
type stubFactor struct {
	key   string
	out   model.FactorOutcome
	err   error
	panic bool
}

func (s stubFactor) Key() string { return s.key }

func (s stubFactor) Compute(context.Context, *Context) (model.FactorOutcome, error) {
	if s.panic {
		panic("boom")
	}
	return s.out, s.err
}
