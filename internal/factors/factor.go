package factors

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"RiskSentinel/internal/calculator"
	"RiskSentinel/internal/model"
)

// Kind classifies why a factor could not produce a score.
type Kind int

const (
	KindUpstream Kind = iota
	KindMissingConfig
	KindInsufficientData
	KindStale
)

// Error is the only error shape factors return. Its Reason is what ends up
// in latest.json.
type Error struct {
	Kind   Kind
	Detail string
}

func (e *Error) Error() string { return e.Reason() }

// Reason renders the error as a status reason string.
func (e *Error) Reason() string {
	switch e.Kind {
	case KindMissingConfig:
		return "missing_" + e.Detail
	case KindInsufficientData:
		return "insufficient_data"
	case KindStale:
		return model.ReasonStale
	default:
		return "error: " + e.Detail
	}
}

// MissingConfig reports an absent dependency such as an API key.
func MissingConfig(dep string) error { return &Error{Kind: KindMissingConfig, Detail: dep} }

// Upstream wraps a fetch or parse failure.
func Upstream(err error) error { return &Error{Kind: KindUpstream, Detail: err.Error()} }

// Insufficient reports too little history to rank the current value.
func Insufficient(format string, args ...any) error {
	return &Error{Kind: KindInsufficientData, Detail: fmt.Sprintf(format, args...)}
}

// ReasonFor converts any error into a status reason.
func ReasonFor(err error) string {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Reason()
	}
	return "error: " + err.Error()
}

// Context carries the inputs shared by every factor in one run.
type Context struct {
	Now    time.Time
	Prices []model.PricePoint
	Cache  *Cache
	Log    zerolog.Logger
}

// Factor computes one risk sub-score.
type Factor interface {
	Key() string
	Compute(ctx context.Context, fc *Context) (model.FactorOutcome, error)
}

// Registered pairs a factor with its configuration.
type Registered struct {
	Spec   model.FactorSpec
	Factor Factor
}

// Run computes every factor concurrently and waits for all of them. A
// failure in one factor, panics included, only affects that factor's
// outcome. Outcomes whose newest datapoint is older than the factor's
// StaleDays are downgraded to stale.
func Run(ctx context.Context, fc *Context, factors []Registered) map[string]model.FactorOutcome {
	var mu sync.Mutex
	outcomes := make(map[string]model.FactorOutcome, len(factors))

	g, gctx := errgroup.WithContext(ctx)
	for _, r := range factors {
		g.Go(func() error {
			start := time.Now()
			out := runOne(gctx, fc, r)
			log := fc.Log.With().Str("factor", r.Spec.Key).Dur("took", time.Since(start)).Logger()
			if out.Reason != "" {
				log.Warn().Str("reason", out.Reason).Msg("factor not fresh")
			} else {
				log.Info().Float64("score", *out.Score).Msg("factor scored")
			}
			mu.Lock()
			outcomes[r.Spec.Key] = out
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return outcomes
}

func runOne(ctx context.Context, fc *Context, r Registered) (out model.FactorOutcome) {
	defer func() {
		if p := recover(); p != nil {
			out = model.FactorOutcome{Reason: fmt.Sprintf("error: panic: %v", p)}
		}
	}()

	out, err := r.Factor.Compute(ctx, fc)
	if err != nil {
		return model.FactorOutcome{Reason: ReasonFor(err), Details: out.Details, AsOf: out.AsOf}
	}
	if out.Score == nil || math.IsNaN(*out.Score) {
		return model.FactorOutcome{Reason: "error: no score", Details: out.Details, AsOf: out.AsOf}
	}
	if out.AsOf != nil && r.Spec.StaleDays > 0 && daysBetween(*out.AsOf, fc.Now) > r.Spec.StaleDays {
		out.Details = append(out.Details, model.Detail{
			Label:   "Last data",
			Value:   out.AsOf.Format("2006-01-02"),
			Tooltip: fmt.Sprintf("Older than %d days", r.Spec.StaleDays),
		})
		return model.FactorOutcome{Reason: model.ReasonStale, Details: out.Details, AsOf: out.AsOf}
	}
	return out
}

func daysBetween(from, to time.Time) int {
	return int(model.DayUTC(to).Sub(model.DayUTC(from)).Hours() / 24)
}

// subScore is one ranked sub-indicator inside a factor.
type subScore struct {
	Name    string
	Weight  float64
	Score   int
	Current float64
	OK      bool
}

// rank scores the newest finite value of series against all its finite values.
func rank(name string, weight float64, series []float64, invert bool) subScore {
	current, idx := calculator.Last(series)
	if idx < 0 {
		return subScore{Name: name, Weight: weight}
	}
	p := calculator.PercentileRank(series, current)
	if math.IsNaN(p) {
		return subScore{Name: name, Weight: weight}
	}
	return subScore{
		Name:    name,
		Weight:  weight,
		Score:   calculator.RiskFromPercentile(p, calculator.RiskOpts{Invert: invert}),
		Current: current,
		OK:      true,
	}
}

// blend renormalizes the weights of the sub-scores that succeeded.
func blend(subs []subScore) (float64, bool) {
	var total, sum float64
	for _, s := range subs {
		if !s.OK || s.Weight <= 0 {
			continue
		}
		total += s.Weight
		sum += s.Weight * float64(s.Score)
	}
	if total == 0 {
		return 0, false
	}
	return math.Round(sum / total), true
}

func scored(v float64) *float64 { return &v }

func asOf(t time.Time) *time.Time {
	t = model.DayUTC(t)
	return &t
}

// pairSignal returns the two newest finite values of series as a signal.
func pairSignal(name, factor string, series []float64) []model.Signal {
	cur, i := calculator.Last(series)
	if i < 1 {
		return nil
	}
	prev, j := calculator.Last(series[:i])
	if j < 0 {
		return nil
	}
	return []model.Signal{{Name: name, Factor: factor, Previous: prev, Current: cur}}
}
