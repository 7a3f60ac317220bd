package history

import (
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"RiskSentinel/internal/artifacts"
	"RiskSentinel/internal/model"
)

const (
	// FileName is the composite score history consumed by the UI chart.
	FileName = "history.csv"
	// FactorFileName holds one column per factor key.
	FactorFileName = "factor_history.csv"

	dateLayout = "2006-01-02"
)

var header = []string{"date", "score", "band", "price_usd"}

// Row is one day of composite history.
type Row struct {
	Date     time.Time
	Score    float64
	Band     string
	PriceUSD float64
}

// FactorRow is one day of per-factor scores. A nil score means the factor was
// not fresh that day.
type FactorRow struct {
	Date   time.Time
	Scores map[string]*float64
}

// Store reads and rewrites the history CSV files under a data directory.
type Store struct {
	dir string
	log zerolog.Logger
}

// NewStore returns a store rooted at dir.
func NewStore(dir string, log zerolog.Logger) *Store {
	return &Store{dir: dir, log: log.With().Str("component", "history").Logger()}
}

// Path returns the composite history file path.
func (s *Store) Path() string { return filepath.Join(s.dir, FileName) }

// FactorPath returns the factor history file path.
func (s *Store) FactorPath() string { return filepath.Join(s.dir, FactorFileName) }

// Load returns composite rows ascending by date. Unparseable rows are skipped
// and a later row for the same date replaces an earlier one.
func (s *Store) Load() ([]Row, error) {
	records, err := artifacts.ReadCSV(s.Path())
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	byDate := make(map[time.Time]Row)
	for i, rec := range records {
		if i == 0 && len(rec) > 0 && rec[0] == "date" {
			continue
		}
		row, err := parseRow(rec)
		if err != nil {
			s.log.Warn().Int("line", i+1).Err(err).Msg("skipping history row")
			continue
		}
		byDate[row.Date] = row
	}
	rows := make([]Row, 0, len(byDate))
	for _, r := range byDate {
		rows = append(rows, r)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Date.Before(rows[j].Date) })
	return rows, nil
}

// Append inserts row and rewrites the file. The first row written for a
// UTC date is kept; later appends for that date return the stored rows
// without touching the file.
func (s *Store) Append(row Row) ([]Row, error) {
	rows, err := s.Load()
	if err != nil {
		return nil, err
	}
	row.Date = model.DayUTC(row.Date)
	for _, r := range rows {
		if r.Date.Equal(row.Date) {
			s.log.Debug().Time("date", row.Date).Msg("history row already recorded")
			return rows, nil
		}
	}
	rows = append(rows, row)
	sort.Slice(rows, func(i, j int) bool { return rows[i].Date.Before(rows[j].Date) })

	out := make([][]string, len(rows))
	for i, r := range rows {
		out[i] = []string{
			r.Date.Format(dateLayout),
			strconv.FormatFloat(r.Score, 'f', -1, 64),
			r.Band,
			strconv.FormatFloat(r.PriceUSD, 'f', 2, 64),
		}
	}
	if err := artifacts.WriteCSV(s.Path(), header, out); err != nil {
		return nil, fmt.Errorf("write history: %w", err)
	}
	return rows, nil
}

// LoadFactors returns the factor keys found in the header and all rows
// ascending by date.
func (s *Store) LoadFactors() ([]string, []FactorRow, error) {
	records, err := artifacts.ReadCSV(s.FactorPath())
	if err != nil {
		return nil, nil, fmt.Errorf("load factor history: %w", err)
	}
	if len(records) == 0 {
		return nil, nil, nil
	}
	hdr := records[0]
	if len(hdr) == 0 || hdr[0] != "date" {
		s.log.Warn().Strs("header", hdr).Msg("factor history has no header, ignoring file")
		return nil, nil, nil
	}
	keys := append([]string(nil), hdr[1:]...)

	byDate := make(map[time.Time]FactorRow)
	for i, rec := range records[1:] {
		if len(rec) == 0 {
			continue
		}
		d, err := time.Parse(dateLayout, strings.TrimSpace(rec[0]))
		if err != nil {
			s.log.Warn().Int("line", i+2).Err(err).Msg("skipping factor history row")
			continue
		}
		row := FactorRow{Date: d, Scores: make(map[string]*float64, len(keys))}
		for j, key := range keys {
			if j+1 >= len(rec) {
				break
			}
			cell := strings.TrimSpace(rec[j+1])
			if cell == "" {
				continue
			}
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				continue
			}
			row.Scores[key] = &v
		}
		byDate[d] = row
	}
	rows := make([]FactorRow, 0, len(byDate))
	for _, r := range byDate {
		rows = append(rows, r)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Date.Before(rows[j].Date) })
	return keys, rows, nil
}

// AppendFactors inserts a factor row unless one exists for the same UTC
// date. Columns are the union of the stored header and keys, stored columns
// first.
func (s *Store) AppendFactors(keys []string, row FactorRow) ([]FactorRow, error) {
	stored, rows, err := s.LoadFactors()
	if err != nil {
		return nil, err
	}
	row.Date = model.DayUTC(row.Date)
	for _, r := range rows {
		if r.Date.Equal(row.Date) {
			return rows, nil
		}
	}
	columns := append([]string(nil), stored...)
	known := make(map[string]bool, len(columns))
	for _, k := range columns {
		known[k] = true
	}
	for _, k := range keys {
		if !known[k] {
			columns = append(columns, k)
			known[k] = true
		}
	}

	rows = append(rows, row)
	sort.Slice(rows, func(i, j int) bool { return rows[i].Date.Before(rows[j].Date) })

	out := make([][]string, len(rows))
	for i, r := range rows {
		rec := make([]string, 0, len(columns)+1)
		rec = append(rec, r.Date.Format(dateLayout))
		for _, k := range columns {
			if v := r.Scores[k]; v != nil {
				rec = append(rec, strconv.FormatFloat(*v, 'f', -1, 64))
			} else {
				rec = append(rec, "")
			}
		}
		out[i] = rec
	}
	if err := artifacts.WriteCSV(s.FactorPath(), append([]string{"date"}, columns...), out); err != nil {
		return nil, fmt.Errorf("write factor history: %w", err)
	}
	return rows, nil
}

// Consecutive reports whether cur is exactly one UTC day after prev.
// Anything else is a gap and carries no change signal.
func Consecutive(prev, cur time.Time) bool {
	return model.DayUTC(prev).AddDate(0, 0, 1).Equal(model.DayUTC(cur))
}

// Latest returns the last two rows when they are consecutive days.
func Latest(rows []Row) (prev, cur Row, ok bool) {
	if len(rows) < 2 {
		return Row{}, Row{}, false
	}
	prev, cur = rows[len(rows)-2], rows[len(rows)-1]
	return prev, cur, Consecutive(prev.Date, cur.Date)
}

// LatestFactors is Latest for factor rows.
func LatestFactors(rows []FactorRow) (prev, cur FactorRow, ok bool) {
	if len(rows) < 2 {
		return FactorRow{}, FactorRow{}, false
	}
	prev, cur = rows[len(rows)-2], rows[len(rows)-1]
	return prev, cur, Consecutive(prev.Date, cur.Date)
}

// RowFromComposite builds the history row for a composite.
func RowFromComposite(comp model.CompositeResult, price float64) Row {
	return Row{Date: comp.Date, Score: comp.Score, Band: comp.Band.Label, PriceUSD: price}
}

// FactorRowFromResults builds a factor row, leaving non-fresh factors empty.
func FactorRowFromResults(date time.Time, results []model.FactorResult) ([]string, FactorRow) {
	keys := make([]string, 0, len(results))
	row := FactorRow{Date: model.DayUTC(date), Scores: make(map[string]*float64, len(results))}
	for _, r := range results {
		keys = append(keys, r.Key)
		if r.IsFresh() {
			v := *r.Score
			row.Scores[r.Key] = &v
		}
	}
	return keys, row
}

func parseRow(rec []string) (Row, error) {
	if len(rec) < 3 {
		return Row{}, fmt.Errorf("expected at least 3 fields, got %d", len(rec))
	}
	d, err := time.Parse(dateLayout, strings.TrimSpace(rec[0]))
	if err != nil {
		return Row{}, fmt.Errorf("date: %w", err)
	}
	score, err := strconv.ParseFloat(strings.TrimSpace(rec[1]), 64)
	if err != nil {
		return Row{}, fmt.Errorf("score: %w", err)
	}
	row := Row{Date: d, Score: score, Band: strings.TrimSpace(rec[2])}
	if len(rec) > 3 && strings.TrimSpace(rec[3]) != "" {
		if p, err := strconv.ParseFloat(strings.TrimSpace(rec[3]), 64); err == nil {
			row.PriceUSD = p
		}
	}
	return row, nil
}
