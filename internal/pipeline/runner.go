package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"RiskSentinel/internal/alerts"
	"RiskSentinel/internal/artifacts"
	"RiskSentinel/internal/collector"
	"RiskSentinel/internal/config"
	"RiskSentinel/internal/factors"
	"RiskSentinel/internal/history"
	"RiskSentinel/internal/metrics"
	"RiskSentinel/internal/model"
	"RiskSentinel/internal/notifier"
	"RiskSentinel/internal/pricehistory"
	"RiskSentinel/internal/recorder"
	"RiskSentinel/internal/strategy"
)

// Artifact file names written to the data directory.
const (
	LatestFileName = "latest.json"
	StatusFileName = "status.json"
)

// SpotSource quotes the current BTC price.
type SpotSource interface {
	FetchSpot(ctx context.Context) (float64, time.Time, error)
}

// Status is the shape of status.json.
type Status struct {
	UpdatedAt time.Time                `json:"updated_at"`
	Sources   []collector.SourceStatus `json:"sources"`
}

// Report summarizes one run.
type Report struct {
	Latest      model.Latest
	Composite   model.CompositeResult
	Prices      pricehistory.SyncResult
	AlertsAdded []model.Alert
	Failed      []string
	Took        time.Duration
}

// Runner executes the ETL once per call to Run. Runs must not overlap.
type Runner struct {
	Cfg      *config.Config
	Client   *collector.Client
	Prices   *pricehistory.Store
	Spot     SpotSource
	Factors  []factors.Registered
	History  *history.Store
	Alerts   *alerts.Store
	Notifier notifier.Notifier
	Recorder recorder.Recorder
	Metrics  *metrics.Registry
	Log      zerolog.Logger
	Now      func() time.Time
}

func (r *Runner) path(name string) string { return filepath.Join(r.Cfg.DataDir, name) }

// Run fetches prices, scores every factor, blends the composite and writes
// the artifacts. Upstream failures only degrade the affected factors; an
// error is returned only when an artifact cannot be written.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	started := r.Now()
	asOf := model.DayUTC(started)
	log := r.Log.With().Str("as_of", asOf.Format("2006-01-02")).Logger()
	log.Info().Msg("run started")

	health := collector.NewHealth()
	if r.Client != nil {
		r.Client.Health = health
	}

	// 1. prices
	rep := &Report{}
	if r.Prices != nil {
		if res := r.Prices.Backfill(ctx, r.Cfg.PriceHistory.BackfillDays); !res.Success {
			log.Warn().Str("reason", res.Reason).Msg("price backfill incomplete")
		}
		rep.Prices = r.Prices.FetchRecent(ctx, r.Cfg.PriceHistory.RecentDays)
		if !rep.Prices.Success {
			log.Warn().Str("reason", rep.Prices.Reason).Msg("recent prices not refreshed, using stored history")
		}
	}
	var prices []model.PricePoint
	if r.Prices != nil {
		var err error
		if prices, err = r.Prices.Load(); err != nil {
			return nil, fmt.Errorf("load price history: %w", err)
		}
	}
	spot := r.spot(ctx, prices)

	// 2. factors
	cache, err := factors.LoadCache(r.path(factors.CacheFileName))
	if err != nil {
		log.Warn().Err(err).Msg("factor cache unreadable, starting empty")
	}
	fc := &factors.Context{Now: started, Prices: prices, Cache: cache, Log: log}
	outcomes := factors.Run(ctx, fc, r.Factors)

	// 3. composite
	specs := make([]model.FactorSpec, len(r.Factors))
	for i, f := range r.Factors {
		specs[i] = f.Spec
	}
	results := strategy.BuildResults(specs, outcomes)
	comp := strategy.Blend(asOf, results, r.Cfg.Bands, *r.Cfg.FallbackScore)
	rep.Composite = comp
	log.Info().Float64("score", comp.Score).Str("band", comp.Band.Key).Float64("weight", comp.TotalWeight).Bool("fallback", comp.Fallback).Msg("composite blended")

	// 4. latest.json + status.json
	var previous model.Latest
	hadPrevious, err := artifacts.ReadJSON(r.path(LatestFileName), &previous)
	if err != nil {
		log.Warn().Err(err).Msg("previous latest.json unreadable")
		hadPrevious = false
	}
	rep.Latest = model.Latest{
		CompositeScore: comp.Score,
		Band:           comp.Band,
		Factors:        results,
		AsOfUTC:        started.UTC(),
		BTC:            spot,
		ModelVersion:   r.Cfg.ModelVersion,
	}
	if err := artifacts.WriteJSON(r.path(LatestFileName), rep.Latest); err != nil {
		return nil, fmt.Errorf("write %s: %w", LatestFileName, err)
	}
	sources := health.Snapshot()
	if err := artifacts.WriteJSON(r.path(StatusFileName), Status{UpdatedAt: started.UTC(), Sources: sources}); err != nil {
		return nil, fmt.Errorf("write %s: %w", StatusFileName, err)
	}
	rep.Failed = health.Failed()

	// 5. history
	rows, err := r.History.Append(history.RowFromComposite(comp, spot.SpotUSD))
	if err != nil {
		return nil, fmt.Errorf("append history: %w", err)
	}
	keys, frow := history.FactorRowFromResults(asOf, results)
	frows, err := r.History.AppendFactors(keys, frow)
	if err != nil {
		return nil, fmt.Errorf("append factor history: %w", err)
	}

	// 6. alerts
	det := alerts.Detector{Policy: r.Cfg.Alerts.Thresholds, Bands: r.Cfg.Bands, AsOf: asOf}
	var incoming []model.Alert
	if prev, cur, ok := history.Latest(rows); ok {
		incoming = append(incoming, det.BandChange(prev, cur)...)
	}
	if prev, cur, ok := history.LatestFactors(frows); ok {
		labels := make(map[string]string, len(results))
		for _, res := range results {
			labels[res.Key] = res.Label
		}
		incoming = append(incoming, det.FactorChanges(prev, cur, labels)...)
	}
	var signals []model.Signal
	for _, res := range results {
		signals = append(signals, res.Signals...)
	}
	incoming = append(incoming, det.ZeroCrosses(signals)...)
	if hadPrevious {
		incoming = append(incoming, det.Staleness(previous.Factors, results)...)
	}
	added, err := r.Alerts.Save(started, incoming)
	if err != nil {
		return nil, fmt.Errorf("store alerts: %w", err)
	}
	rep.AlertsAdded = added
	r.notify(ctx, added)

	// 7. bookkeeping
	finished := r.Now()
	rep.Took = finished.Sub(started)
	if r.Recorder != nil {
		if err := r.Recorder.RecordRun(&recorder.RunRecord{
			StartedAt:    started,
			FinishedAt:   finished,
			ModelVersion: r.Cfg.ModelVersion,
			PriceUSD:     spot.SpotUSD,
			Composite:    comp,
			Factors:      results,
			AlertsAdded:  len(added),
			Failed:       rep.Failed,
		}); err != nil {
			log.Error().Err(err).Msg("record run")
		}
		if err := r.Recorder.RecordAlerts(added); err != nil {
			log.Error().Err(err).Msg("record alerts")
		}
	}
	if r.Metrics != nil {
		r.Metrics.Observe(comp, results, sources, added, rep.Took, finished)
		if err := r.Metrics.WriteTextfile(r.Cfg.DataDir); err != nil {
			log.Warn().Err(err).Msg("write metrics")
		}
	}
	if err := cache.Save(); err != nil {
		log.Warn().Err(err).Msg("save factor cache")
	}

	log.Info().Int("alerts", len(added)).Strs("failed_sources", rep.Failed).Dur("took", rep.Took).Msg("run finished")
	return rep, nil
}

// spot quotes the live price, falling back to the newest stored close.
func (r *Runner) spot(ctx context.Context, prices []model.PricePoint) model.BTCQuote {
	if r.Spot != nil {
		price, at, err := r.Spot.FetchSpot(ctx)
		if err == nil && price > 0 {
			return model.BTCQuote{SpotUSD: price, AsOfUTC: at.UTC()}
		}
		r.Log.Warn().Err(err).Msg("spot quote unavailable, using last close")
	}
	if len(prices) == 0 {
		return model.BTCQuote{}
	}
	last := prices[len(prices)-1]
	return model.BTCQuote{SpotUSD: last.Close, AsOfUTC: last.Date}
}

func (r *Runner) notify(ctx context.Context, added []model.Alert) {
	if r.Notifier == nil {
		return
	}
	due := alerts.AtLeast(added, r.Cfg.Alerts.NotifyMinSeverity)
	if len(due) == 0 {
		return
	}
	if err := r.Notifier.SendWithRetry(ctx, notifier.FormatAlerts(due), 3); err != nil {
		r.Log.Error().Err(err).Int("alerts", len(due)).Msg("send alert notification")
	}
}
