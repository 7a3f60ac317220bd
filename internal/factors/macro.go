package factors

import (
	"context"
	"errors"
	"fmt"
	"time"

	"RiskSentinel/internal/calculator"
	"RiskSentinel/internal/collector"
	"RiskSentinel/internal/model"
)

const (
	macroChangeLag  = 20
	macroLookbackYr = 5
)

type macroSeries struct {
	id     string
	label  string
	weight float64
	unit   string
}

var macroInputs = []macroSeries{
	{collector.SeriesDollarIndex, "Broad dollar (20-obs chg)", 0.4, ""},
	{collector.SeriesRealYield10Y, "10y real yield (20-obs chg)", 0.3, "pp"},
	{collector.SeriesHYSpread, "HY spread (20-obs chg)", 0.3, "pp"},
}

// MacroOverlay scores tightening financial conditions: a rising dollar,
// rising real yields and widening credit spreads all raise risk. Each input
// may fail on its own; the rest are renormalized.
type MacroOverlay struct {
	Source SeriesSource
}

func (MacroOverlay) Key() string { return "macro_overlay" }

func (f MacroOverlay) Compute(ctx context.Context, fc *Context) (model.FactorOutcome, error) {
	if f.Source == nil || !f.Source.HasKey() {
		return model.FactorOutcome{}, MissingConfig("fred_api_key")
	}
	start := fc.Now.AddDate(-macroLookbackYr, 0, 0)

	var subs []subScore
	var details []model.Detail
	var errs []error
	var newest time.Time
	for _, in := range macroInputs {
		obs, err := f.Source.FetchSeries(ctx, in.id, start)
		if err != nil {
			errs = append(errs, err)
			details = append(details, model.Detail{Label: in.label, Value: "unavailable"})
			continue
		}
		change := calculator.Diff(model.Values(obs), macroChangeLag)
		sub := rank(in.id, in.weight, change, false)
		subs = append(subs, sub)
		if !sub.OK {
			details = append(details, model.Detail{Label: in.label, Value: "insufficient data"})
			continue
		}
		details = append(details, model.Detail{Label: in.label, Value: fmt.Sprintf("%+.2f%s", sub.Current, in.unit)})
		if d := obs[len(obs)-1].Date; d.After(newest) {
			newest = d
		}
	}

	score, ok := blend(subs)
	if !ok {
		if len(errs) > 0 {
			return model.FactorOutcome{Details: details}, Upstream(errors.Join(errs...))
		}
		return model.FactorOutcome{Details: details}, Insufficient("no macro input could be ranked")
	}
	return model.FactorOutcome{Score: scored(score), Details: details, AsOf: asOf(newest)}, nil
}
