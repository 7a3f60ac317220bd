package factors

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"RiskSentinel/internal/model"
	"RiskSentinel/internal/strategy"
)

func TestErrorReasons(t *testing.T) {
	assert.Equal(t, "missing_fred_api_key", ReasonFor(MissingConfig("fred_api_key")))
	assert.Equal(t, "insufficient_data", ReasonFor(Insufficient("%d rows", 3)))
	assert.Equal(t, "error: timeout", ReasonFor(Upstream(errors.New("timeout"))))
	assert.Equal(t, "error: plain", ReasonFor(errors.New("plain")))
	assert.Equal(t, model.ReasonStale, (&Error{Kind: KindStale}).Reason())
}

func TestRun_IsolatesFailures(t *testing.T) {
	fresh := now.AddDate(0, 0, -1)
	old := now.AddDate(0, 0, -10)
	reg := []Registered{
		{Spec: model.FactorSpec{Key: "ok", StaleDays: 3}, Factor: stubFactor{key: "ok", out: model.FactorOutcome{Score: scored(40), AsOf: &fresh}}},
		{Spec: model.FactorSpec{Key: "old", StaleDays: 3}, Factor: stubFactor{key: "old", out: model.FactorOutcome{Score: scored(40), AsOf: &old}}},
		{Spec: model.FactorSpec{Key: "panics"}, Factor: stubFactor{key: "panics", panic: true}},
		{Spec: model.FactorSpec{Key: "fails"}, Factor: stubFactor{key: "fails", err: Upstream(errors.New("status 500"))}},
		{Spec: model.FactorSpec{Key: "nan"}, Factor: stubFactor{key: "nan", out: model.FactorOutcome{Score: scored(math.NaN())}}},
	}
	out := Run(context.Background(), newContext(nil), reg)
	require.Len(t, out, 5)

	assert.Empty(t, out["ok"].Reason)
	assert.Equal(t, 40.0, *out["ok"].Score)
	assert.Equal(t, model.ReasonStale, out["old"].Reason)
	assert.Nil(t, out["old"].Score)
	assert.Equal(t, "error: panic: boom", out["panics"].Reason)
	assert.Equal(t, "error: status 500", out["fails"].Reason)
	assert.Equal(t, "error: no score", out["nan"].Reason)
}

func TestRun_MissingFredKeyRenormalizesComposite(t *testing.T) {
	noKey := &fakeSeries{key: false}
	src := Sources{Fred: noKey}
	reg := []Registered{
		{Spec: model.FactorSpec{Key: "trend_valuation", Weight: 20, StaleDays: 3}, Factor: Trend{}},
		{Spec: model.FactorSpec{Key: "net_liquidity", Weight: 10, StaleDays: 10}, Factor: New("net_liquidity", src)},
		{Spec: model.FactorSpec{Key: "macro_overlay", Weight: 10, StaleDays: 7}, Factor: New("macro_overlay", src)},
	}
	prices := flatPrices(250, 100)
	out := Run(context.Background(), newContext(prices), reg)

	assert.Equal(t, "missing_fred_api_key", out["net_liquidity"].Reason)
	assert.Equal(t, "missing_fred_api_key", out["macro_overlay"].Reason)
	assert.Zero(t, noKey.calls)

	specs := []model.FactorSpec{reg[0].Spec, reg[1].Spec, reg[2].Spec}
	results := strategy.BuildResults(specs, out)
	comp := strategy.Blend(now, results, strategy.DefaultBands, strategy.DefaultFallbackScore)
	assert.Equal(t, 20.0, comp.TotalWeight)
	assert.Equal(t, 50.0, comp.Score)
	assert.False(t, comp.Fallback)
}

func TestBlendSubs(t *testing.T) {
	score, ok := blend([]subScore{
		{Weight: 0.6, Score: 80, OK: true},
		{Weight: 0.3, Score: 20, OK: false},
		{Weight: 0.1, Score: 20, OK: true},
	})
	require.True(t, ok)
	// (0.6*80 + 0.1*20) / 0.7 = 71.43
	assert.Equal(t, 71.0, score)

	_, ok = blend([]subScore{{Weight: 1}})
	assert.False(t, ok)
}

func TestAsOfJoin(t *testing.T) {
	base := weeklyObs(3, func(i int) float64 { return float64(i) })
	other := []model.Observation{
		{Date: base[0].Date.AddDate(0, 0, 1), Value: 10},
		{Date: base[2].Date, Value: 30},
	}
	vals, ok := asOfJoin(base, other)
	assert.Equal(t, []bool{false, true, true}, ok)
	assert.Equal(t, 10.0, vals[1])
	assert.Equal(t, 30.0, vals[2])
}

func TestDailyMean(t *testing.T) {
	d := model.DayUTC(now)
	obs := []model.Observation{
		{Date: d.Add(4 * time.Hour), Value: 1},
		{Date: d.Add(12 * time.Hour), Value: 3},
		{Date: d.AddDate(0, 0, 1).Add(4 * time.Hour), Value: 5},
	}
	got := dailyMean(obs)
	require.Len(t, got, 2)
	assert.Equal(t, 2.0, got[0].Value)
	assert.Equal(t, 5.0, got[1].Value)
}

func TestCache_FingerprintAndPersistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), CacheFileName)
	c := NewCache(path)
	fp := Fingerprint(now, 100, 200)
	c.Put("trend_valuation", CacheEntry{Fingerprint: fp, Score: 61, AsOf: model.DayUTC(now)})
	c.SetMeta("etf_header_hash", "abc")
	require.NoError(t, c.Save())

	loaded, err := LoadCache(path)
	require.NoError(t, err)
	e, ok := loaded.Get("trend_valuation", fp)
	require.True(t, ok)
	assert.Equal(t, 61.0, e.Score)
	_, ok = loaded.Get("trend_valuation", Fingerprint(now, 101, 200))
	assert.False(t, ok)
	assert.Equal(t, "abc", loaded.Meta("etf_header_hash"))

	var nilCache *Cache
	_, ok = nilCache.Get("x", "y")
	assert.False(t, ok)
}

func TestRegistry_CoversCatalog(t *testing.T) {
	for _, m := range Catalog {
		f := New(m.Key, Sources{})
		require.NotNil(t, f, m.Key)
		assert.Equal(t, m.Key, f.Key())
	}
	assert.Nil(t, New("unknown", Sources{}))
}
