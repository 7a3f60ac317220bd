package collector

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"RiskSentinel/internal/model"
)

// CoinbaseMaxCandles is the most candles the exchange returns per request.
const CoinbaseMaxCandles = 300

// CoinbaseFetcher reads BTC-USD daily candles and the spot ticker.
type CoinbaseFetcher struct {
	Client  *Client
	BaseURL string
	Product string
	Now     func() time.Time
}

// NewCoinbaseFetcher creates a fetcher for BTC-USD.
func NewCoinbaseFetcher(client *Client, baseURL string) *CoinbaseFetcher {
	return &CoinbaseFetcher{Client: client, BaseURL: strings.TrimRight(baseURL, "/"), Product: "BTC-USD", Now: time.Now}
}

func (f *CoinbaseFetcher) Name() string { return "coinbase" }

// FetchDailyCloses returns primary closes for [start, end], ascending.
// Ranges longer than 300 days are split into several requests.
func (f *CoinbaseFetcher) FetchDailyCloses(ctx context.Context, start, end time.Time) ([]model.PricePoint, error) {
	start, end = model.DayUTC(start), model.DayUTC(end)
	if end.Before(start) {
		return nil, fmt.Errorf("coinbase: end %s before start %s", end.Format("2006-01-02"), start.Format("2006-01-02"))
	}
	ingested := f.Now().UTC()
	byDate := make(map[time.Time]model.PricePoint)

	for from := start; !from.After(end); from = from.AddDate(0, 0, CoinbaseMaxCandles) {
		to := from.AddDate(0, 0, CoinbaseMaxCandles-1)
		if to.After(end) {
			to = end
		}
		q := url.Values{}
		q.Set("granularity", "86400")
		q.Set("start", from.Format(time.RFC3339))
		q.Set("end", to.Add(24*time.Hour-time.Second).Format(time.RFC3339))
		u := fmt.Sprintf("%s/products/%s/candles?%s", f.BaseURL, f.Product, q.Encode())

		// [time, low, high, open, close, volume], newest first
		var candles [][]float64
		if err := f.Client.GetJSON(ctx, f.Name(), u, nil, &candles); err != nil {
			return nil, err
		}
		for _, c := range candles {
			if len(c) < 5 || c[4] <= 0 {
				continue
			}
			day := model.DayUTC(time.Unix(int64(c[0]), 0))
			byDate[day] = model.PricePoint{Date: day, Close: c[4], Source: model.SourcePrimary, IngestedAt: ingested}
		}
	}
	if len(byDate) == 0 {
		return nil, fmt.Errorf("coinbase: %w", ErrEmptyPayload)
	}
	points := make([]model.PricePoint, 0, len(byDate))
	for _, p := range byDate {
		points = append(points, p)
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })
	return points, nil
}

type coinbaseTicker struct {
	Price string    `json:"price"`
	Time  time.Time `json:"time"`
}

// FetchSpot returns the last traded price and its time.
func (f *CoinbaseFetcher) FetchSpot(ctx context.Context) (float64, time.Time, error) {
	u := fmt.Sprintf("%s/products/%s/ticker", f.BaseURL, f.Product)
	var t coinbaseTicker
	if err := f.Client.GetJSON(ctx, f.Name(), u, nil, &t); err != nil {
		return 0, time.Time{}, err
	}
	price, err := strconv.ParseFloat(t.Price, 64)
	if err != nil || price <= 0 {
		return 0, time.Time{}, fmt.Errorf("coinbase: bad ticker price %q", t.Price)
	}
	ts := t.Time
	if ts.IsZero() {
		ts = f.Now()
	}
	return price, ts.UTC(), nil
}
