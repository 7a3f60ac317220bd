package model

import "time"

// AlertType is the closed set of alert categories.
type AlertType string

const (
	AlertBandChange   AlertType = "band_change"
	AlertFactorChange AlertType = "factor_change"
	AlertZeroCross    AlertType = "zero_cross"
	AlertStaleness    AlertType = "staleness"
)

// AlertTypes lists every category in a stable order.
var AlertTypes = []AlertType{AlertBandChange, AlertFactorChange, AlertZeroCross, AlertStaleness}

// Severity ranks how urgent an alert is.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// Rank orders severities, critical highest. Unknown values rank 0.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 4
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}

// AlertData is the payload describing what changed.
type AlertData struct {
	Factor        string  `json:"factor,omitempty"`
	PreviousScore float64 `json:"previous_score"`
	CurrentScore  float64 `json:"current_score"`
	ChangePoints  float64 `json:"change_points"`
	Magnitude     float64 `json:"magnitude"`
	PreviousLabel string  `json:"previous_label,omitempty"`
	CurrentLabel  string  `json:"current_label,omitempty"`
	Message       string  `json:"message"`
}

// Alert is one stored, deduplicated event.
type Alert struct {
	ID        string    `json:"id"`
	Type      AlertType `json:"type"`
	Severity  Severity  `json:"severity"`
	Timestamp time.Time `json:"timestamp"`
	Data      AlertData `json:"data"`
	Actions   []string  `json:"actions"`
}
