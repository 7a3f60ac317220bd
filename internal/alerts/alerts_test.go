package alerts

import (
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"RiskSentinel/internal/history"
	"RiskSentinel/internal/model"
	"RiskSentinel/internal/strategy"
)

var asOf = time.Date(2024, 3, 2, 18, 0, 0, 0, time.UTC)

func detector() Detector {
	return Detector{Policy: DefaultPolicy(), Bands: strategy.DefaultBands, AsOf: asOf}
}

func day(s string) time.Time {
	t, _ := time.Parse("2006-01-02", s)
	return t
}

func ptr(v float64) *float64 { return &v }

func TestThresholds_Classify(t *testing.T) {
	th := DefaultPolicy()[model.AlertFactorChange]
	tests := []struct {
		mag  float64
		sev  model.Severity
		want bool
	}{
		{35, model.SeverityCritical, true},
		{30, model.SeverityCritical, true},
		{20, model.SeverityHigh, true},
		{12, model.SeverityMedium, true},
		{5, model.SeverityLow, true},
		{4.9, "", false},
	}
	for _, tt := range tests {
		sev, ok := th.Classify(tt.mag)
		assert.Equal(t, tt.want, ok, "mag %.1f", tt.mag)
		assert.Equal(t, tt.sev, sev, "mag %.1f", tt.mag)
	}
}

func TestPolicy_Validate(t *testing.T) {
	require.NoError(t, DefaultPolicy().Validate())

	p := DefaultPolicy()
	delete(p, model.AlertZeroCross)
	assert.Error(t, p.Validate())

	p = DefaultPolicy()
	p[model.AlertFactorChange] = Thresholds{Critical: 10, High: 20, Medium: 5, Low: 1}
	assert.Error(t, p.Validate())

	p = DefaultPolicy()
	p["volume_spike"] = Thresholds{}
	assert.Error(t, p.Validate())

	require.NoError(t, DefaultRetention().Validate())
}

func TestRetentionValidate(t *testing.T) {
	r := DefaultRetention()
	delete(r.Days, model.AlertStaleness)
	err := r.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "staleness")

	r = DefaultRetention()
	r.Days[model.AlertZeroCross] = 0
	assert.Error(t, r.Validate())

	r = DefaultRetention()
	r.Days["volume_spike"] = 3
	assert.Error(t, r.Validate())

	r = DefaultRetention()
	r.MaxCombined = 0
	assert.Error(t, r.Validate())
}

func TestBandChange(t *testing.T) {
	prev := history.Row{Date: day("2024-03-01"), Score: 48, Band: "Moderate Buying"}
	cur := history.Row{Date: day("2024-03-02"), Score: 82, Band: "Take Profits"}

	got := detector().BandChange(prev, cur)
	require.Len(t, got, 1)
	a := got[0]
	assert.Equal(t, model.AlertBandChange, a.Type)
	assert.Equal(t, model.SeverityCritical, a.Severity)
	assert.Equal(t, 3.0, a.Data.Magnitude)
	assert.Equal(t, 34.0, a.Data.ChangePoints)
	assert.Equal(t, day("2024-03-02"), a.Timestamp)
	assert.NotEmpty(t, a.ID)

	// same band
	cur.Band = prev.Band
	assert.Empty(t, detector().BandChange(prev, cur))
}

func TestBandChange_GapYieldsNothing(t *testing.T) {
	prev := history.Row{Date: day("2024-02-27"), Score: 10, Band: "Aggressive Buying"}
	cur := history.Row{Date: day("2024-03-02"), Score: 90, Band: "Take Profits"}
	assert.Empty(t, detector().BandChange(prev, cur))
}

func TestFactorChanges(t *testing.T) {
	prev := history.FactorRow{Date: day("2024-03-01"), Scores: map[string]*float64{
		"trend_valuation": ptr(40), "etf_flows": ptr(50), "macro_overlay": ptr(60),
	}}
	cur := history.FactorRow{Date: day("2024-03-02"), Scores: map[string]*float64{
		"trend_valuation": ptr(62), "etf_flows": ptr(53), "onchain": ptr(10),
	}}
	got := detector().FactorChanges(prev, cur, map[string]string{"trend_valuation": "Trend & Valuation"})
	require.Len(t, got, 1)
	assert.Equal(t, "trend_valuation", got[0].Data.Factor)
	assert.Equal(t, model.SeverityHigh, got[0].Severity)
	assert.Contains(t, got[0].Data.Message, "Trend & Valuation rose 22 points")
}

func TestZeroCrosses(t *testing.T) {
	signals := []model.Signal{
		{Name: "etf_daily_flow", Factor: "etf_flows", Previous: -120, Current: 310},
		{Name: "stablecoin_30d_growth", Factor: "stablecoins", Previous: 1.2, Current: 0.8},
		{Name: "net_liquidity_4w_change", Factor: "net_liquidity", Previous: 0.4, Current: -0.1},
	}
	got := detector().ZeroCrosses(signals)
	require.Len(t, got, 2)
	assert.Equal(t, "etf_flows", got[0].Data.Factor)
	assert.Equal(t, model.SeverityHigh, got[0].Severity)
	assert.Equal(t, model.SeverityLow, got[1].Severity)
}

func TestStaleness(t *testing.T) {
	previous := []model.FactorResult{
		{Key: "etf_flows", Label: "ETF Flows", Weight: 10, Score: ptr(40), Status: model.StatusFresh},
		{Key: "trend_valuation", Label: "Trend", Weight: 20, Score: ptr(50), Status: model.StatusFresh},
		{Key: "macro_overlay", Label: "Macro", Weight: 10, Status: model.StatusExcluded, Reason: "missing_fred_api_key"},
	}
	current := []model.FactorResult{
		{Key: "etf_flows", Label: "ETF Flows", Weight: 10, Status: model.StatusStale, Reason: "stale_data"},
		{Key: "trend_valuation", Label: "Trend", Weight: 20, Status: model.StatusExcluded, Reason: "error: timeout"},
		{Key: "macro_overlay", Label: "Macro", Weight: 10, Status: model.StatusExcluded, Reason: "missing_fred_api_key"},
	}
	got := detector().Staleness(previous, current)
	require.Len(t, got, 2)
	assert.Equal(t, model.SeverityMedium, got[0].Severity)
	assert.Equal(t, model.SeverityCritical, got[1].Severity)
}

func TestAlertID_Deterministic(t *testing.T) {
	data := model.AlertData{Factor: "x", PreviousScore: 1, CurrentScore: 2, ChangePoints: 1}
	a := AlertID(model.AlertFactorChange, asOf, data)
	b := AlertID(model.AlertFactorChange, asOf, data)
	assert.Equal(t, a, b)
	data.CurrentScore = 3
	assert.NotEqual(t, a, AlertID(model.AlertFactorChange, asOf, data))
}

func TestDedupe(t *testing.T) {
	base := model.Alert{
		ID: "a", Type: model.AlertFactorChange, Timestamp: asOf,
		Data: model.AlertData{Factor: "etf_flows", Magnitude: 12},
	}
	near := base
	near.ID = "b"
	near.Timestamp = asOf.Add(30 * time.Minute)
	near.Data.Magnitude = 12.5

	far := base
	far.ID = "c"
	far.Timestamp = asOf.Add(2 * time.Hour)

	other := base
	other.ID = "d"
	other.Data.Factor = "onchain"

	got := Dedupe([]model.Alert{base}, []model.Alert{base, near, far, other})
	require.Len(t, got, 2)
	assert.Equal(t, "c", got[0].ID)
	assert.Equal(t, "d", got[1].ID)
}

func TestPrune(t *testing.T) {
	now := day("2024-03-30")
	list := []model.Alert{
		{ID: "old", Timestamp: day("2024-03-01")},
		{ID: "mid", Timestamp: day("2024-03-20")},
		{ID: "new", Timestamp: day("2024-03-29")},
	}
	got := Prune(list, now, 14, 10)
	require.Len(t, got, 2)
	assert.Equal(t, "new", got[0].ID)

	got = Prune(list, now, 0, 1)
	require.Len(t, got, 1)
	assert.Equal(t, "new", got[0].ID)
}

func TestStore_SaveIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir, DefaultRetention(), zerolog.Nop())

	prev := history.Row{Date: day("2024-03-01"), Score: 48, Band: "Moderate Buying"}
	cur := history.Row{Date: day("2024-03-02"), Score: 66, Band: "Reduce Risk"}
	batch := append(detector().BandChange(prev, cur), detector().ZeroCrosses([]model.Signal{
		{Name: "etf_daily_flow", Factor: "etf_flows", Previous: -5, Current: 600},
	})...)
	require.Len(t, batch, 2)

	added, err := s.Save(asOf, batch)
	require.NoError(t, err)
	assert.Len(t, added, 2)
	first, err := os.ReadFile(s.CategoryPath(model.AlertBandChange))
	require.NoError(t, err)

	// rerun of the same day detects the same events again
	added, err = s.Save(asOf, batch)
	require.NoError(t, err)
	assert.Empty(t, added)
	second, err := os.ReadFile(s.CategoryPath(model.AlertBandChange))
	require.NoError(t, err)
	assert.Equal(t, string(first), string(second))

	stored, err := s.Load(model.AlertZeroCross)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, model.SeverityCritical, stored[0].Severity)

	for _, typ := range model.AlertTypes {
		assert.FileExists(t, s.CategoryPath(typ))
	}
	assert.FileExists(t, dir+"/"+CombinedFileName)
}
