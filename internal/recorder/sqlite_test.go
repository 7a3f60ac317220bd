package recorder

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"RiskSentinel/internal/model"
)

func TestSQLiteRecorder_RecordRun(t *testing.T) {
	r, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "runs.db"), zerolog.Nop())
	require.NoError(t, err)
	defer r.Close()

	score := 42.0
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	rec := &RunRecord{
		StartedAt:    day.Add(time.Hour),
		FinishedAt:   day.Add(time.Hour + time.Minute),
		ModelVersion: "v1",
		PriceUSD:     61000,
		Composite: model.CompositeResult{
			Date: day, Score: 42, TotalWeight: 20,
			Band: model.Band{Key: "moderate_buy", Label: "Moderate Buying"},
		},
		Factors: []model.FactorResult{
			{Key: "trend_valuation", Pillar: model.PillarMomentum, Weight: 20, Score: &score, Status: model.StatusFresh},
			{Key: "macro_overlay", Pillar: model.PillarMacro, Weight: 10, Status: model.StatusExcluded, Reason: "missing_fred_api_key"},
		},
		Failed: []string{"fred:WALCL"},
	}
	require.NoError(t, r.RecordRun(rec))
	require.NoError(t, r.RecordRun(rec))

	var runs int
	require.NoError(t, r.db.QueryRow(`SELECT COUNT(*) FROM runs`).Scan(&runs))
	assert.Equal(t, 2, runs)

	var nullScores int
	require.NoError(t, r.db.QueryRow(`SELECT COUNT(*) FROM factor_scores WHERE score IS NULL`).Scan(&nullScores))
	assert.Equal(t, 2, nullScores)

	var band, failed string
	require.NoError(t, r.db.QueryRow(`SELECT band_label, failed_sources FROM runs LIMIT 1`).Scan(&band, &failed))
	assert.Equal(t, "Moderate Buying", band)
	assert.Equal(t, "fred:WALCL", failed)
}

func TestSQLiteRecorder_RecordAlertsIgnoresDuplicates(t *testing.T) {
	r, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "runs.db"), zerolog.Nop())
	require.NoError(t, err)
	defer r.Close()

	a := model.Alert{
		ID: "abc", Type: model.AlertZeroCross, Severity: model.SeverityHigh,
		Timestamp: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Data:      model.AlertData{Factor: "etf_flows", Magnitude: 300, Message: "etf_daily_flow turned positive"},
	}
	require.NoError(t, r.RecordAlerts([]model.Alert{a}))
	require.NoError(t, r.RecordAlerts([]model.Alert{a}))
	require.NoError(t, r.RecordAlerts(nil))

	var n int
	require.NoError(t, r.db.QueryRow(`SELECT COUNT(*) FROM alerts`).Scan(&n))
	assert.Equal(t, 1, n)
}

func TestNoopRecorder(t *testing.T) {
	var r Recorder = NewNoopRecorder()
	assert.NoError(t, r.RecordRun(&RunRecord{}))
	assert.NoError(t, r.RecordAlerts(nil))
	assert.NoError(t, r.Close())
}
