package factors

import (
	"context"
	"fmt"
	"math"

	"RiskSentinel/internal/calculator"
	"RiskSentinel/internal/model"
)

const (
	trendMinCloses = 200
	trendRangeDays = 365
	mayerPeriod    = 200
)

// Trend scores where price sits versus its own history: position inside the
// trailing one-year range, the Mayer multiple and RSI.
type Trend struct{}

func (Trend) Key() string { return "trend_valuation" }

func (t Trend) Compute(_ context.Context, fc *Context) (model.FactorOutcome, error) {
	closes := model.Closes(fc.Prices)
	if len(closes) < trendMinCloses {
		return model.FactorOutcome{}, Insufficient("%d closes, need %d", len(closes), trendMinCloses)
	}
	last := fc.Prices[len(fc.Prices)-1]
	fp := Fingerprint(last.Date, last.Close, len(closes))
	if e, ok := fc.Cache.Get(t.Key(), fp); ok {
		return model.FactorOutcome{Score: scored(e.Score), Details: e.Details, AsOf: asOf(e.AsOf)}, nil
	}

	position := calculator.RollingPosition(closes, trendRangeDays)
	mayer := calculator.Ratio(closes, calculator.SMA(closes, mayerPeriod))
	rsi := calculator.RSI(closes, calculator.DefaultRSIPeriod)

	subs := []subScore{
		rank("range_position", 0.6, position, false),
		rank("mayer_multiple", 0.3, mayer, false),
		rank("rsi", 0.1, rsi, false),
	}
	score, ok := blend(subs)
	if !ok {
		return model.FactorOutcome{}, Insufficient("no trend sub-indicator could be ranked")
	}

	details := []model.Detail{
		{Label: "BTC close", Value: fmt.Sprintf("$%.0f", last.Close)},
	}
	if subs[0].OK {
		details = append(details, model.Detail{
			Label: "1y range position", Value: fmt.Sprintf("%.0f%%", subs[0].Current*100),
			Tooltip: "Where the close sits between the trailing 365-day low and high",
		})
	}
	if subs[1].OK {
		details = append(details, model.Detail{
			Label: "Mayer multiple", Value: fmt.Sprintf("%.2f", subs[1].Current),
			Tooltip: "Close divided by the 200-day simple moving average",
		})
	}
	if subs[2].OK && !math.IsNaN(subs[2].Current) {
		details = append(details, model.Detail{Label: "RSI (14)", Value: fmt.Sprintf("%.0f", subs[2].Current)})
	}

	fc.Cache.Put(t.Key(), CacheEntry{
		Fingerprint: fp, Score: score, Details: details, AsOf: last.Date, StoredAt: fc.Now,
	})
	return model.FactorOutcome{Score: scored(score), Details: details, AsOf: asOf(last.Date)}, nil
}
