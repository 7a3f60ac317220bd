package model

import "time"

// PriceSource identifies which provider a stored close came from.
type PriceSource string

const (
	SourcePrimary  PriceSource = "primary"
	SourceBackfill PriceSource = "backfill"
)

// Precedence orders sources when two records share a date. Higher wins.
func (s PriceSource) Precedence() int {
	switch s {
	case SourcePrimary:
		return 2
	case SourceBackfill:
		return 1
	default:
		return 0
	}
}

// PricePoint is one daily BTC close.
type PricePoint struct {
	Date       time.Time // UTC midnight
	Close      float64
	Source     PriceSource
	IngestedAt time.Time
}

// Observation is a dated numeric sample from any upstream series.
type Observation struct {
	Date  time.Time
	Value float64
}

// DayUTC truncates t to midnight UTC.
func DayUTC(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Closes extracts the close column of points.
func Closes(points []PricePoint) []float64 {
	out := make([]float64, len(points))
	for i, p := range points {
		out[i] = p.Close
	}
	return out
}

// Values extracts the value column of observations.
func Values(obs []Observation) []float64 {
	out := make([]float64, len(obs))
	for i, o := range obs {
		out[i] = o.Value
	}
	return out
}
