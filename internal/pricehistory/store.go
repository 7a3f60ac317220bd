package pricehistory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"RiskSentinel/internal/artifacts"
	"RiskSentinel/internal/collector"
	"RiskSentinel/internal/model"
)

// FileName is the canonical BTC daily close history.
const FileName = "btc_price_history.csv"

const dateLayout = "2006-01-02"

var header = []string{"date_utc", "close_usd", "source", "ingested_at_utc"}

// PrimarySource supplies authoritative daily closes.
type PrimarySource interface {
	FetchDailyCloses(ctx context.Context, start, end time.Time) ([]model.PricePoint, error)
}

// BackfillSource supplies long daily history for a coin.
type BackfillSource interface {
	FetchRange(ctx context.Context, coin string, from, to time.Time) (collector.MarketChart, error)
}

// Options controls backfill behaviour.
type Options struct {
	// MinRows below which Backfill fetches history.
	MinRows int
	// ChunkDays is the widest range requested from the backfill source at once.
	ChunkDays int
	// RequestInterval spaces backfill requests.
	RequestInterval time.Duration
}

// SyncResult reports the outcome of a fetch-and-merge. It never carries a
// Go error; callers decide whether to continue on stale data.
type SyncResult struct {
	Success bool   `json:"success"`
	Reason  string `json:"reason,omitempty"`
	Fetched int    `json:"fetched"`
	Added   int    `json:"added"`
}

// Store owns btc_price_history.csv.
type Store struct {
	path     string
	primary  PrimarySource
	backfill BackfillSource
	opts     Options
	limiter  *rate.Limiter
	log      zerolog.Logger
	now      func() time.Time
}

// NewStore returns a store for the CSV at path. Either source may be nil, in
// which case the corresponding sync reports failure.
func NewStore(path string, primary PrimarySource, backfill BackfillSource, opts Options, log zerolog.Logger) *Store {
	if opts.ChunkDays <= 0 || opts.ChunkDays > 365 {
		opts.ChunkDays = 365
	}
	limit := rate.Inf
	if opts.RequestInterval > 0 {
		limit = rate.Every(opts.RequestInterval)
	}
	return &Store{
		path:     path,
		primary:  primary,
		backfill: backfill,
		opts:     opts,
		limiter:  rate.NewLimiter(limit, 1),
		log:      log.With().Str("component", "pricehistory").Logger(),
		now:      time.Now,
	}
}

// Path returns the CSV location.
func (s *Store) Path() string { return s.path }

// Load reads all stored closes ascending by date. A missing file is empty.
func (s *Store) Load() ([]model.PricePoint, error) {
	records, err := artifacts.ReadCSV(s.path)
	if err != nil {
		return nil, fmt.Errorf("load price history: %w", err)
	}
	points := make([]model.PricePoint, 0, len(records))
	for i, rec := range records {
		if i == 0 && len(rec) > 0 && rec[0] == header[0] {
			continue
		}
		p, err := parseRecord(rec)
		if err != nil {
			s.log.Warn().Int("line", i+1).Err(err).Msg("skipping price row")
			continue
		}
		points = append(points, p)
	}
	return Merge(nil, points), nil
}

// Save dedupes records and overwrites the CSV atomically.
func (s *Store) Save(records []model.PricePoint) error {
	merged := Merge(nil, records)
	rows := make([][]string, len(merged))
	for i, p := range merged {
		ingested := ""
		if !p.IngestedAt.IsZero() {
			ingested = p.IngestedAt.UTC().Format(time.RFC3339)
		}
		rows[i] = []string{
			p.Date.Format(dateLayout),
			strconv.FormatFloat(p.Close, 'f', 2, 64),
			string(p.Source),
			ingested,
		}
	}
	if err := artifacts.WriteCSV(s.path, header, rows); err != nil {
		return fmt.Errorf("save price history: %w", err)
	}
	return nil
}

// Merge combines existing and incoming into one ascending record per date.
// A primary record beats a backfill record; between records of the same
// source the later ingestion wins. Non-positive closes are dropped.
func Merge(existing, incoming []model.PricePoint) []model.PricePoint {
	byDate := make(map[time.Time]model.PricePoint, len(existing)+len(incoming))
	put := func(p model.PricePoint) {
		if p.Close <= 0 || math.IsNaN(p.Close) || math.IsInf(p.Close, 0) {
			return
		}
		p.Date = model.DayUTC(p.Date)
		cur, ok := byDate[p.Date]
		if !ok || wins(p, cur) {
			byDate[p.Date] = p
		}
	}
	for _, p := range existing {
		put(p)
	}
	for _, p := range incoming {
		put(p)
	}
	out := make([]model.PricePoint, 0, len(byDate))
	for _, p := range byDate {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

func wins(challenger, holder model.PricePoint) bool {
	cp, hp := challenger.Source.Precedence(), holder.Source.Precedence()
	if cp != hp {
		return cp > hp
	}
	return !challenger.IngestedAt.Before(holder.IngestedAt)
}

// Backfill fills history from the backfill source when fewer than MinRows
// closes are stored. Requests are made sequentially, one chunk at a time,
// paced by RequestInterval.
func (s *Store) Backfill(ctx context.Context, targetDays int) SyncResult {
	existing, err := s.Load()
	if err != nil {
		return SyncResult{Reason: err.Error()}
	}
	if len(existing) >= s.opts.MinRows {
		return SyncResult{Success: true, Reason: "sufficient_rows"}
	}
	if s.backfill == nil {
		return SyncResult{Reason: "no backfill source"}
	}

	to := model.DayUTC(s.now())
	from := to.AddDate(0, 0, -targetDays)
	ingested := s.now().UTC()
	var fetched []model.PricePoint
	var lastErr error

	for start := from; start.Before(to); start = start.AddDate(0, 0, s.opts.ChunkDays) {
		end := start.AddDate(0, 0, s.opts.ChunkDays)
		if end.After(to) {
			end = to
		}
		if err := s.limiter.Wait(ctx); err != nil {
			lastErr = err
			break
		}
		chart, err := s.backfill.FetchRange(ctx, "bitcoin", start, end)
		if err != nil {
			s.log.Warn().Err(err).Time("from", start).Time("to", end).Msg("backfill chunk failed")
			lastErr = err
			continue
		}
		for _, o := range chart.Prices {
			fetched = append(fetched, model.PricePoint{
				Date: o.Date, Close: o.Value, Source: model.SourceBackfill, IngestedAt: ingested,
			})
		}
	}

	res := s.mergeAndSave(existing, fetched)
	if lastErr != nil {
		res.Reason = lastErr.Error()
		res.Success = res.Success && len(fetched) > 0
	}
	s.log.Info().Int("fetched", res.Fetched).Int("added", res.Added).Bool("success", res.Success).Msg("backfill done")
	return res
}

// FetchRecent merges the trailing days of primary closes.
func (s *Store) FetchRecent(ctx context.Context, days int) SyncResult {
	existing, err := s.Load()
	if err != nil {
		return SyncResult{Reason: err.Error()}
	}
	if s.primary == nil {
		return SyncResult{Reason: "no primary source"}
	}
	end := model.DayUTC(s.now())
	start := end.AddDate(0, 0, -days)
	points, err := s.primary.FetchDailyCloses(ctx, start, end)
	if err != nil {
		s.log.Warn().Err(err).Msg("recent price fetch failed")
		return SyncResult{Reason: err.Error()}
	}
	return s.mergeAndSave(existing, points)
}

func (s *Store) mergeAndSave(existing, fetched []model.PricePoint) SyncResult {
	merged := Merge(existing, fetched)
	res := SyncResult{Fetched: len(fetched), Added: len(merged) - len(existing)}
	if len(fetched) == 0 {
		res.Reason = "no rows fetched"
		return res
	}
	if err := s.Save(merged); err != nil {
		res.Reason = err.Error()
		return res
	}
	res.Success = true
	return res
}

func parseRecord(rec []string) (model.PricePoint, error) {
	if len(rec) < 2 {
		return model.PricePoint{}, fmt.Errorf("expected 4 fields, got %d", len(rec))
	}
	d, err := time.Parse(dateLayout, strings.TrimSpace(rec[0]))
	if err != nil {
		return model.PricePoint{}, fmt.Errorf("date: %w", err)
	}
	c, err := strconv.ParseFloat(strings.TrimSpace(rec[1]), 64)
	if err != nil {
		return model.PricePoint{}, fmt.Errorf("close: %w", err)
	}
	p := model.PricePoint{Date: d, Close: c, Source: model.SourceBackfill}
	if len(rec) > 2 {
		switch src := model.PriceSource(strings.TrimSpace(rec[2])); src {
		case model.SourcePrimary, model.SourceBackfill:
			p.Source = src
		default:
			return model.PricePoint{}, fmt.Errorf("unknown source %q", rec[2])
		}
	}
	if len(rec) > 3 && strings.TrimSpace(rec[3]) != "" {
		if ts, err := time.Parse(time.RFC3339, strings.TrimSpace(rec[3])); err == nil {
			p.IngestedAt = ts
		}
	}
	return p, nil
}
