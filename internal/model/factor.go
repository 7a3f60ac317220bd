package model

import "time"

// Pillar groups factors by the market dimension they measure.
type Pillar string

const (
	PillarLiquidity Pillar = "liquidity"
	PillarMomentum  Pillar = "momentum"
	PillarLeverage  Pillar = "leverage"
	PillarSocial    Pillar = "social"
	PillarMacro     Pillar = "macro"
)

// FactorStatus tells the UI whether a factor's score can be trusted this run.
type FactorStatus string

const (
	StatusFresh    FactorStatus = "fresh"
	StatusStale    FactorStatus = "stale"
	StatusExcluded FactorStatus = "excluded"
)

// Detail is one human-readable line rendered on a factor card.
type Detail struct {
	Label   string `json:"label"`
	Value   string `json:"value"`
	Tooltip string `json:"tooltip,omitempty"`
}

// Signal carries the two newest values of a flow-like series so that
// sign changes can be detected downstream.
type Signal struct {
	Name     string  `json:"name"`
	Factor   string  `json:"factor"`
	Previous float64 `json:"previous"`
	Current  float64 `json:"current"`
}

// FactorResult is a factor's contribution to one run.
// Score is non-nil iff Status == StatusFresh.
type FactorResult struct {
	Key     string       `json:"key"`
	Label   string       `json:"label"`
	Pillar  Pillar       `json:"pillar"`
	Weight  float64      `json:"weight"`
	Score   *float64     `json:"score"`
	Status  FactorStatus `json:"status"`
	Reason  string       `json:"reason"`
	Details []Detail     `json:"details"`
	AsOf    *time.Time   `json:"as_of_utc,omitempty"`

	Signals []Signal `json:"-"`
}

// IsFresh reports whether the result carries a usable score.
func (f FactorResult) IsFresh() bool {
	return f.Status == StatusFresh && f.Score != nil
}

// ReasonStale marks a factor whose newest datapoint is older than its threshold.
const ReasonStale = "stale_data"

// FactorSpec is the static description of a configured factor.
type FactorSpec struct {
	Key       string
	Label     string
	Pillar    Pillar
	Weight    float64
	StaleDays int
}

// FactorOutcome is what a single factor computation produced.
// A nil Score always comes with a Reason.
type FactorOutcome struct {
	Score   *float64
	Reason  string
	Details []Detail
	Signals []Signal
	AsOf    *time.Time
}
