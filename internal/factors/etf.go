package factors

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"RiskSentinel/internal/calculator"
	"RiskSentinel/internal/model"
)

const (
	etfMinRows       = 5
	etfWindow        = 21
	etfExtremeZ      = 4.0
	etfHeaderMetaKey = "etf_header_hash"
)

// ETFFlows scores the rolling net flow into spot bitcoin ETFs. Strong
// inflows lower risk.
type ETFFlows struct {
	Source PageSource
	Parser FlowParser
}

func (ETFFlows) Key() string { return "etf_flows" }

func (f ETFFlows) Compute(ctx context.Context, fc *Context) (model.FactorOutcome, error) {
	html, err := f.Source.FetchFlowsHTML(ctx)
	if err != nil {
		return model.FactorOutcome{}, Upstream(err)
	}
	parser := f.Parser
	if len(parser.Dates) == 0 || len(parser.Numbers) == 0 {
		parser = DefaultFlowParser()
	}

	var rows []FlowRow
	var warnings []string
	var hash string
	switch r := parser.Parse(html).(type) {
	case Success:
		rows, hash = r.Rows, r.HeaderHash
	case PartialSuccess:
		rows, hash, warnings = r.Rows, r.HeaderHash, r.Warnings
	case Failure:
		if r.TableFound {
			fc.Log.Warn().Str("factor", f.Key()).Str("errors", joinMax(r.Errors, 3)).Msg("etf flow table has no usable rows")
			return model.FactorOutcome{}, Insufficient("flow table has no usable rows")
		}
		return model.FactorOutcome{}, Upstream(errors.New(joinMax(r.Errors, 3)))
	}

	log := fc.Log.With().Str("factor", f.Key()).Logger()
	if prev := fc.Cache.Meta(etfHeaderMetaKey); prev != "" && prev != hash {
		log.Warn().Str("previous", shortHash(prev)).Str("current", shortHash(hash)).Msg("etf flow table header changed")
		warnings = append(warnings, "table header changed")
	}
	fc.Cache.SetMeta(etfHeaderMetaKey, hash)
	for _, w := range warnings {
		log.Warn().Str("warning", w).Msg("etf flow parse")
	}

	if len(rows) < etfMinRows {
		return model.FactorOutcome{}, Insufficient("%d flow rows, need %d", len(rows), etfMinRows)
	}

	flows := make([]float64, len(rows))
	for i, r := range rows {
		flows[i] = r.Total
	}
	window := etfWindow
	if len(flows) < window {
		window = len(flows)
	}
	rolling := calculator.RollingSum(flows, window)
	sub := rank("etf_rolling_flow", 1, rolling, true)
	if !sub.OK {
		return model.FactorOutcome{}, Insufficient("no rolling flow")
	}

	latest := rows[len(rows)-1]
	details := []model.Detail{
		{Label: "Latest daily flow", Value: fmt.Sprintf("%+.1f $M", latest.Total)},
		{Label: fmt.Sprintf("%d-day net flow", window), Value: fmt.Sprintf("%+.1f $M", sub.Current)},
	}
	if z := calculator.ZScore(flows[:len(flows)-1], latest.Total); !math.IsNaN(z) && math.Abs(z) > etfExtremeZ {
		log.Warn().Float64("z", z).Float64("flow", latest.Total).Msg("extreme etf flow")
		details = append(details, model.Detail{
			Label: "Extreme change", Value: fmt.Sprintf("z = %.1f", z),
			Tooltip: "Latest daily flow is far outside its usual range",
		})
	}
	if len(warnings) > 0 {
		details = append(details, model.Detail{Label: "Parse warnings", Value: fmt.Sprintf("%d", len(warnings)),
			Tooltip: joinMax(warnings, 3)})
	}

	return model.FactorOutcome{
		Score:   scored(float64(sub.Score)),
		Details: details,
		Signals: pairSignal("etf_daily_flow", f.Key(), flows),
		AsOf:    asOf(latest.Date),
	}, nil
}

func joinMax(msgs []string, n int) string {
	if len(msgs) > n {
		msgs = append(msgs[:n:n], fmt.Sprintf("and %d more", len(msgs)-n))
	}
	return strings.Join(msgs, "; ")
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
