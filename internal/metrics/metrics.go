package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"RiskSentinel/internal/collector"
	"RiskSentinel/internal/model"
	"RiskSentinel/internal/strategy"
)

// FileName is the node-exporter textfile written after each run.
const FileName = "metrics.prom"

// Registry holds the gauges exported for one run.
type Registry struct {
	reg *prometheus.Registry

	CompositeScore prometheus.Gauge
	Fallback       prometheus.Gauge
	FactorScore    *prometheus.GaugeVec
	FactorFresh    *prometheus.GaugeVec
	FactorWeight   *prometheus.GaugeVec
	SourceUp       *prometheus.GaugeVec
	SourceLatency  *prometheus.GaugeVec
	RunDuration    prometheus.Gauge
	AlertsAdded    *prometheus.GaugeVec
	LastRun        prometheus.Gauge
}

// NewRegistry creates a registry with every gauge registered.
func NewRegistry() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),
		CompositeScore: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "risksentinel_composite_score",
			Help: "Composite BTC risk score (0-100)",
		}),
		Fallback: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "risksentinel_composite_fallback",
			Help: "1 when no factor was fresh and the fallback score was used",
		}),
		FactorScore: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "risksentinel_factor_score",
			Help: "Per-factor risk score for fresh factors",
		}, []string{"factor"}),
		FactorFresh: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "risksentinel_factor_fresh",
			Help: "1 when the factor contributed to the composite",
		}, []string{"factor", "status"}),
		FactorWeight: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "risksentinel_factor_effective_weight_percent",
			Help: "Share of the composite carried by each fresh factor after renormalization",
		}, []string{"factor"}),
		SourceUp: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "risksentinel_source_up",
			Help: "1 when every call to the upstream source succeeded",
		}, []string{"source"}),
		SourceLatency: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "risksentinel_source_latency_ms",
			Help: "Total milliseconds spent calling the upstream source",
		}, []string{"source"}),
		RunDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "risksentinel_run_duration_seconds",
			Help: "Wall time of the last ETL run",
		}),
		AlertsAdded: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "risksentinel_alerts_added",
			Help: "Alerts stored by the last run, by category",
		}, []string{"type"}),
		LastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "risksentinel_last_run_timestamp_seconds",
			Help: "Unix time the last run finished",
		}),
	}
	r.reg.MustRegister(
		r.CompositeScore, r.Fallback, r.FactorScore, r.FactorFresh, r.FactorWeight,
		r.SourceUp, r.SourceLatency, r.RunDuration, r.AlertsAdded, r.LastRun,
	)
	return r
}

// Observe copies one run's outcome into the gauges. Labelled series from
// earlier runs are dropped first, so a factor or source that disappears or
// stops being fresh keeps no old value.
func (r *Registry) Observe(comp model.CompositeResult, results []model.FactorResult, sources []collector.SourceStatus, added []model.Alert, took time.Duration, finished time.Time) {
	for _, v := range []*prometheus.GaugeVec{r.FactorScore, r.FactorFresh, r.FactorWeight, r.SourceUp, r.SourceLatency, r.AlertsAdded} {
		v.Reset()
	}
	r.CompositeScore.Set(comp.Score)
	if comp.Fallback {
		r.Fallback.Set(1)
	} else {
		r.Fallback.Set(0)
	}
	for _, f := range results {
		fresh := 0.0
		if f.IsFresh() {
			fresh = 1
			r.FactorScore.WithLabelValues(f.Key).Set(*f.Score)
		}
		r.FactorFresh.WithLabelValues(f.Key, string(f.Status)).Set(fresh)
	}
	for key, w := range strategy.EffectiveWeights(comp) {
		r.FactorWeight.WithLabelValues(key).Set(w)
	}
	for _, s := range sources {
		up := 0.0
		if s.OK {
			up = 1
		}
		r.SourceUp.WithLabelValues(s.Name).Set(up)
		r.SourceLatency.WithLabelValues(s.Name).Set(float64(s.MS))
	}
	for _, typ := range model.AlertTypes {
		r.AlertsAdded.WithLabelValues(string(typ)).Set(0)
	}
	for _, a := range added {
		r.AlertsAdded.WithLabelValues(string(a.Type)).Inc()
	}
	r.RunDuration.Set(took.Seconds())
	r.LastRun.Set(float64(finished.Unix()))
}

// WriteTextfile writes the registry in text exposition format to
// dir/metrics.prom.
func (r *Registry) WriteTextfile(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create metrics dir: %w", err)
	}
	path := filepath.Join(dir, FileName)
	if err := prometheus.WriteToTextfile(path, r.reg); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}
