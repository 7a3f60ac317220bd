package model

import "time"

// Band maps a composite score range to a label.
type Band struct {
	Key   string  `json:"key" yaml:"key"`
	Label string  `json:"label" yaml:"label"`
	Lo    float64 `json:"lo" yaml:"lo"`
	Hi    float64 `json:"hi" yaml:"hi"`
	Color string  `json:"color,omitempty" yaml:"color"`
}

// Contains reports whether score falls in [Lo, Hi), or [Lo, Hi] when closed.
func (b Band) Contains(score float64, closed bool) bool {
	if closed {
		return score >= b.Lo && score <= b.Hi
	}
	return score >= b.Lo && score < b.Hi
}

// CompositeResult is the blended output of all fresh factors.
type CompositeResult struct {
	Date            time.Time
	Score           float64
	Band            Band
	WeightedFactors []FactorResult
	TotalWeight     float64
	Fallback        bool
}
