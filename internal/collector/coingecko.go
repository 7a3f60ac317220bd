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

// MarketChart holds the three series CoinGecko returns for a coin.
type MarketChart struct {
	Prices     []model.Observation
	MarketCaps []model.Observation
	Volumes    []model.Observation
}

type geckoChart struct {
	Prices       [][]float64 `json:"prices"`
	MarketCaps   [][]float64 `json:"market_caps"`
	TotalVolumes [][]float64 `json:"total_volumes"`
}

// CoinGeckoFetcher reads market charts for any coin id.
type CoinGeckoFetcher struct {
	Client  *Client
	BaseURL string
	APIKey  string
}

// NewCoinGeckoFetcher creates a fetcher. apiKey may be empty.
func NewCoinGeckoFetcher(client *Client, baseURL, apiKey string) *CoinGeckoFetcher {
	return &CoinGeckoFetcher{Client: client, BaseURL: strings.TrimRight(baseURL, "/"), APIKey: apiKey}
}

func (f *CoinGeckoFetcher) Name() string { return "coingecko" }

func (f *CoinGeckoFetcher) headers() map[string]string {
	if f.APIKey == "" {
		return nil
	}
	return map[string]string{"x-cg-demo-api-key": f.APIKey}
}

// FetchRange returns daily series for coin between from and to.
func (f *CoinGeckoFetcher) FetchRange(ctx context.Context, coin string, from, to time.Time) (MarketChart, error) {
	q := url.Values{}
	q.Set("vs_currency", "usd")
	q.Set("from", strconv.FormatInt(from.Unix(), 10))
	q.Set("to", strconv.FormatInt(to.Unix(), 10))
	u := fmt.Sprintf("%s/coins/%s/market_chart/range?%s", f.BaseURL, url.PathEscape(coin), q.Encode())
	return f.fetch(ctx, u)
}

// FetchMarketChart returns the trailing days of daily series for coin.
func (f *CoinGeckoFetcher) FetchMarketChart(ctx context.Context, coin string, days int) (MarketChart, error) {
	q := url.Values{}
	q.Set("vs_currency", "usd")
	q.Set("days", strconv.Itoa(days))
	q.Set("interval", "daily")
	u := fmt.Sprintf("%s/coins/%s/market_chart?%s", f.BaseURL, url.PathEscape(coin), q.Encode())
	return f.fetch(ctx, u)
}

func (f *CoinGeckoFetcher) fetch(ctx context.Context, u string) (MarketChart, error) {
	var raw geckoChart
	if err := f.Client.GetJSON(ctx, f.Name(), u, f.headers(), &raw); err != nil {
		return MarketChart{}, err
	}
	chart := MarketChart{
		Prices:     DailyLast(pairs(raw.Prices)),
		MarketCaps: DailyLast(pairs(raw.MarketCaps)),
		Volumes:    DailyLast(pairs(raw.TotalVolumes)),
	}
	if len(chart.Prices) == 0 && len(chart.MarketCaps) == 0 {
		return MarketChart{}, fmt.Errorf("coingecko: %w", ErrEmptyPayload)
	}
	return chart, nil
}

// pairs converts [[ms, value], ...] into observations.
func pairs(raw [][]float64) []model.Observation {
	out := make([]model.Observation, 0, len(raw))
	for _, p := range raw {
		if len(p) < 2 {
			continue
		}
		out = append(out, model.Observation{Date: time.UnixMilli(int64(p[0])).UTC(), Value: p[1]})
	}
	return out
}

// DailyLast collapses observations to the last sample of each UTC day,
// dated at midnight, ascending.
func DailyLast(obs []model.Observation) []model.Observation {
	byDay := make(map[time.Time]model.Observation, len(obs))
	for _, o := range obs {
		day := model.DayUTC(o.Date)
		if prev, ok := byDay[day]; ok && prev.Date.After(o.Date) {
			continue
		}
		byDay[day] = o
	}
	out := make([]model.Observation, 0, len(byDay))
	for day, o := range byDay {
		out = append(out, model.Observation{Date: day, Value: o.Value})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}
