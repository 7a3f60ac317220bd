package notifier

import (
	"fmt"
	"html"
	"strings"

	"RiskSentinel/internal/model"
)

var severityIcon = map[model.Severity]string{
	model.SeverityCritical: "🚨",
	model.SeverityHigh:     "⚠️",
	model.SeverityMedium:   "🔔",
	model.SeverityLow:      "ℹ️",
}

// FormatAlerts renders new alerts as one Telegram message.
func FormatAlerts(alerts []model.Alert) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("<b>RiskSentinel alerts</b> | %d new\n\n", len(alerts)))
	for _, a := range alerts {
		b.WriteString(fmt.Sprintf("%s <b>%s</b> %s\n", severityIcon[a.Severity], strings.ToUpper(string(a.Severity)), html.EscapeString(a.Data.Message)))
		for _, act := range a.Actions {
			b.WriteString(fmt.Sprintf("   • %s\n", html.EscapeString(act)))
		}
	}
	return b.String()
}

// FormatLatest renders a snapshot as a short score card.
func FormatLatest(l *model.Latest) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📊 <b>BTC Risk %.0f</b> | %s\n", l.CompositeScore, html.EscapeString(l.Band.Label)))
	b.WriteString(fmt.Sprintf("As of %s", l.AsOfUTC.Format("2006-01-02")))
	if l.BTC.SpotUSD > 0 {
		b.WriteString(fmt.Sprintf(" | BTC $%.0f", l.BTC.SpotUSD))
	}
	b.WriteString("\n\n")
	for _, f := range l.Factors {
		if f.Score != nil {
			b.WriteString(fmt.Sprintf("  %s: %.0f (w%.0f)\n", html.EscapeString(f.Label), *f.Score, f.Weight))
		} else {
			b.WriteString(fmt.Sprintf("  %s: – (%s)\n", html.EscapeString(f.Label), html.EscapeString(f.Reason)))
		}
	}
	return b.String()
}
