package alerts

import (
	"math"
	"sort"
	"time"

	"RiskSentinel/internal/model"
)

const (
	fuzzyWindow    = time.Hour
	fuzzyMagnitude = 1.0
)

// Duplicate reports whether a matches b exactly by id, or is the same kind of
// event for the same factor within an hour and one magnitude unit.
func Duplicate(a, b model.Alert) bool {
	if a.ID == b.ID {
		return true
	}
	if a.Type != b.Type || a.Data.Factor != b.Data.Factor {
		return false
	}
	dt := a.Timestamp.Sub(b.Timestamp)
	if dt < 0 {
		dt = -dt
	}
	return dt <= fuzzyWindow && math.Abs(a.Data.Magnitude-b.Data.Magnitude) <= fuzzyMagnitude
}

// Dedupe returns the incoming alerts that match nothing in existing nor an
// earlier incoming alert.
func Dedupe(existing, incoming []model.Alert) []model.Alert {
	seen := append([]model.Alert(nil), existing...)
	var fresh []model.Alert
	for _, a := range incoming {
		dup := false
		for _, e := range seen {
			if Duplicate(a, e) {
				dup = true
				break
			}
		}
		if dup {
			continue
		}
		fresh = append(fresh, a)
		seen = append(seen, a)
	}
	return fresh
}

// Prune drops alerts older than days before now, then keeps the newest max.
// The result is ordered newest first.
func Prune(list []model.Alert, now time.Time, days, max int) []model.Alert {
	cutoff := now.AddDate(0, 0, -days)
	kept := make([]model.Alert, 0, len(list))
	for _, a := range list {
		if days > 0 && a.Timestamp.Before(cutoff) {
			continue
		}
		kept = append(kept, a)
	}
	SortNewestFirst(kept)
	if max > 0 && len(kept) > max {
		kept = kept[:max]
	}
	return kept
}

// SortNewestFirst orders by timestamp descending, then severity, then id.
func SortNewestFirst(list []model.Alert) {
	sort.SliceStable(list, func(i, j int) bool {
		if !list[i].Timestamp.Equal(list[j].Timestamp) {
			return list[i].Timestamp.After(list[j].Timestamp)
		}
		if ri, rj := list[i].Severity.Rank(), list[j].Severity.Rank(); ri != rj {
			return ri > rj
		}
		return list[i].ID < list[j].ID
	})
}

func sortedKeys(m map[string]*float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// AtLeast keeps alerts whose severity ranks at or above min.
func AtLeast(list []model.Alert, min model.Severity) []model.Alert {
	var out []model.Alert
	for _, a := range list {
		if a.Severity.Rank() >= min.Rank() {
			out = append(out, a)
		}
	}
	return out
}
