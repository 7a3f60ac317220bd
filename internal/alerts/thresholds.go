package alerts

import (
	"fmt"

	"RiskSentinel/internal/model"
)

// Thresholds are the minimum magnitudes for each severity of one category.
type Thresholds struct {
	Critical float64 `yaml:"critical" json:"critical"`
	High     float64 `yaml:"high" json:"high"`
	Medium   float64 `yaml:"medium" json:"medium"`
	Low      float64 `yaml:"low" json:"low"`
}

// Classify returns the highest severity whose threshold magnitude reaches.
func (t Thresholds) Classify(magnitude float64) (model.Severity, bool) {
	switch {
	case magnitude >= t.Critical:
		return model.SeverityCritical, true
	case magnitude >= t.High:
		return model.SeverityHigh, true
	case magnitude >= t.Medium:
		return model.SeverityMedium, true
	case magnitude >= t.Low:
		return model.SeverityLow, true
	default:
		return "", false
	}
}

// Validate requires non-negative thresholds in descending order.
func (t Thresholds) Validate() error {
	if t.Low < 0 {
		return fmt.Errorf("low threshold %g is negative", t.Low)
	}
	if !(t.Critical >= t.High && t.High >= t.Medium && t.Medium >= t.Low) {
		return fmt.Errorf("thresholds must descend critical>=high>=medium>=low, got %g/%g/%g/%g",
			t.Critical, t.High, t.Medium, t.Low)
	}
	return nil
}

// Policy holds thresholds for every alert category.
type Policy map[model.AlertType]Thresholds

// DefaultPolicy returns the stock thresholds.
// Band change counts bands moved, factor change counts score points,
// zero cross uses the absolute new value and staleness the factor weight.
func DefaultPolicy() Policy {
	return Policy{
		model.AlertBandChange:   {Critical: 3, High: 2, Medium: 1, Low: 1},
		model.AlertFactorChange: {Critical: 30, High: 20, Medium: 10, Low: 5},
		model.AlertZeroCross:    {Critical: 500, High: 250, Medium: 100, Low: 0},
		model.AlertStaleness:    {Critical: 20, High: 15, Medium: 10, Low: 0},
	}
}

// Validate checks that every category is present and known.
func (p Policy) Validate() error {
	for _, typ := range model.AlertTypes {
		t, ok := p[typ]
		if !ok {
			return fmt.Errorf("alert thresholds: missing category %q", typ)
		}
		if err := t.Validate(); err != nil {
			return fmt.Errorf("alert thresholds %q: %w", typ, err)
		}
	}
	for typ := range p {
		if !knownType(typ) {
			return fmt.Errorf("alert thresholds: unknown category %q", typ)
		}
	}
	return nil
}

// Retention bounds how long and how many alerts are kept.
type Retention struct {
	Days           map[model.AlertType]int `yaml:"days"`
	MaxPerCategory int                     `yaml:"max_per_category"`
	MaxCombined    int                     `yaml:"max_combined"`
}

// DefaultRetention keeps band and zero-cross alerts for 30 days, factor
// changes for 14 and staleness for 7.
func DefaultRetention() Retention {
	return Retention{
		Days: map[model.AlertType]int{
			model.AlertBandChange:   30,
			model.AlertFactorChange: 14,
			model.AlertZeroCross:    30,
			model.AlertStaleness:    7,
		},
		MaxPerCategory: 200,
		MaxCombined:    500,
	}
}

// Validate requires a positive window for every category.
func (r Retention) Validate() error {
	for _, typ := range model.AlertTypes {
		if _, ok := r.Days[typ]; !ok {
			return fmt.Errorf("alert retention: missing category %q", typ)
		}
	}
	for typ, days := range r.Days {
		if !knownType(typ) {
			return fmt.Errorf("alert retention: unknown category %q", typ)
		}
		if days <= 0 {
			return fmt.Errorf("alert retention %q: days must be positive", typ)
		}
	}
	if r.MaxPerCategory <= 0 || r.MaxCombined <= 0 {
		return fmt.Errorf("alert retention: caps must be positive")
	}
	return nil
}

func knownType(typ model.AlertType) bool {
	for _, t := range model.AlertTypes {
		if t == typ {
			return true
		}
	}
	return false
}
