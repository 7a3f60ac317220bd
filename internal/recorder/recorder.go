package recorder

import (
	"time"

	"RiskSentinel/internal/model"
)

// RunRecord is everything worth keeping about one ETL run.
type RunRecord struct {
	StartedAt    time.Time
	FinishedAt   time.Time
	ModelVersion string
	PriceUSD     float64
	Composite    model.CompositeResult
	Factors      []model.FactorResult
	AlertsAdded  int
	// Failed lists upstream sources whose last call failed.
	Failed []string
}

// Recorder persists run history for later analysis.
type Recorder interface {
	RecordRun(rec *RunRecord) error
	RecordAlerts(alerts []model.Alert) error
	Close() error
}
