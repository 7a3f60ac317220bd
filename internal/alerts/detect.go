package alerts

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"RiskSentinel/internal/history"
	"RiskSentinel/internal/model"
	"RiskSentinel/internal/strategy"
)

var idNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("risksentinel/alerts"))

// AlertID derives a stable id from the alert's identifying fields, so the
// same event detected on a rerun hashes to the same id.
func AlertID(typ model.AlertType, ts time.Time, data model.AlertData) string {
	canonical := strings.Join([]string{
		string(typ),
		data.Factor,
		ts.UTC().Format(time.RFC3339),
		fmt.Sprintf("%.4f", data.PreviousScore),
		fmt.Sprintf("%.4f", data.CurrentScore),
		fmt.Sprintf("%.4f", data.ChangePoints),
	}, "|")
	return uuid.NewSHA1(idNamespace, []byte(canonical)).String()
}

// Detector turns consecutive observations into alerts.
type Detector struct {
	Policy Policy
	Bands  []model.Band
	// AsOf is stamped on every alert, truncated to the UTC day.
	AsOf time.Time
}

func (d Detector) build(typ model.AlertType, magnitude float64, data model.AlertData, actions []string) (model.Alert, bool) {
	sev, ok := d.Policy[typ].Classify(magnitude)
	if !ok {
		return model.Alert{}, false
	}
	ts := model.DayUTC(d.AsOf)
	data.Magnitude = magnitude
	if actions == nil {
		actions = []string{}
	}
	return model.Alert{
		ID:        AlertID(typ, ts, data),
		Type:      typ,
		Severity:  sev,
		Timestamp: ts,
		Data:      data,
		Actions:   actions,
	}, true
}

// BandChange compares two history rows. Rows that are not on consecutive
// days, or whose bands are unknown, yield nothing.
func (d Detector) BandChange(prev, cur history.Row) []model.Alert {
	if !history.Consecutive(prev.Date, cur.Date) {
		return nil
	}
	pi := strategy.BandIndex(d.Bands, prev.Band)
	ci := strategy.BandIndex(d.Bands, cur.Band)
	if pi < 0 || ci < 0 || pi == ci {
		return nil
	}
	moved := math.Abs(float64(ci - pi))
	actions := []string{"Review allocation against the new band"}
	if ci > pi {
		actions = append(actions, "Consider trimming exposure")
	} else {
		actions = append(actions, "Consider adding to DCA schedule")
	}
	a, ok := d.build(model.AlertBandChange, moved, model.AlertData{
		PreviousScore: prev.Score,
		CurrentScore:  cur.Score,
		ChangePoints:  cur.Score - prev.Score,
		PreviousLabel: d.Bands[pi].Label,
		CurrentLabel:  d.Bands[ci].Label,
		Message:       fmt.Sprintf("Risk band moved from %s to %s", d.Bands[pi].Label, d.Bands[ci].Label),
	}, actions)
	if !ok {
		return nil
	}
	return []model.Alert{a}
}

// FactorChanges compares each factor present and scored on both rows.
func (d Detector) FactorChanges(prev, cur history.FactorRow, labels map[string]string) []model.Alert {
	if !history.Consecutive(prev.Date, cur.Date) {
		return nil
	}
	var out []model.Alert
	for _, key := range sortedKeys(cur.Scores) {
		c, p := cur.Scores[key], prev.Scores[key]
		if c == nil || p == nil {
			continue
		}
		delta := *c - *p
		label := labels[key]
		if label == "" {
			label = key
		}
		dir := "rose"
		if delta < 0 {
			dir = "fell"
		}
		a, ok := d.build(model.AlertFactorChange, math.Abs(delta), model.AlertData{
			Factor:        key,
			PreviousScore: *p,
			CurrentScore:  *c,
			ChangePoints:  delta,
			Message:       fmt.Sprintf("%s %s %.0f points to %.0f", label, dir, math.Abs(delta), *c),
		}, []string{"Check factor details"})
		if ok {
			out = append(out, a)
		}
	}
	return out
}

// ZeroCrosses reports signals whose sign flipped between the two newest values.
func (d Detector) ZeroCrosses(signals []model.Signal) []model.Alert {
	var out []model.Alert
	for _, s := range signals {
		if !crossed(s.Previous, s.Current) {
			continue
		}
		dir := "positive"
		if s.Current < 0 {
			dir = "negative"
		}
		a, ok := d.build(model.AlertZeroCross, math.Abs(s.Current), model.AlertData{
			Factor:        s.Factor,
			PreviousScore: s.Previous,
			CurrentScore:  s.Current,
			ChangePoints:  s.Current - s.Previous,
			PreviousLabel: s.Name,
			CurrentLabel:  s.Name,
			Message:       fmt.Sprintf("%s turned %s (%.2f → %.2f)", s.Name, dir, s.Previous, s.Current),
		}, []string{"Watch for follow-through"})
		if ok {
			out = append(out, a)
		}
	}
	return out
}

// Staleness reports factors that were fresh in the previous run and are not now.
func (d Detector) Staleness(previous, current []model.FactorResult) []model.Alert {
	wasFresh := make(map[string]model.FactorResult, len(previous))
	for _, r := range previous {
		if r.IsFresh() {
			wasFresh[r.Key] = r
		}
	}
	var out []model.Alert
	for _, r := range current {
		p, ok := wasFresh[r.Key]
		if !ok || r.IsFresh() {
			continue
		}
		a, ok := d.build(model.AlertStaleness, r.Weight, model.AlertData{
			Factor:        r.Key,
			PreviousScore: *p.Score,
			PreviousLabel: string(model.StatusFresh),
			CurrentLabel:  string(r.Status),
			Message:       fmt.Sprintf("%s dropped out of the composite: %s", r.Label, r.Reason),
		}, []string{"Check upstream source health"})
		if ok {
			out = append(out, a)
		}
	}
	return out
}

func crossed(prev, cur float64) bool {
	return (prev < 0 && cur > 0) || (prev > 0 && cur < 0)
}
