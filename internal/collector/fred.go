package collector

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"RiskSentinel/internal/model"
)

// FRED series used by the liquidity and macro factors.
const (
	SeriesFedAssets    = "WALCL"
	SeriesTGA          = "WTREGEN"
	SeriesReverseRepo  = "RRPONTSYD"
	SeriesDollarIndex  = "DTWEXBGS"
	SeriesRealYield10Y = "DFII10"
	SeriesHYSpread     = "BAMLH0A0HYM2"
)

type fredResponse struct {
	Observations []struct {
		Date  string `json:"date"`
		Value string `json:"value"`
	} `json:"observations"`
}

// FredFetcher reads series observations from the St. Louis Fed.
type FredFetcher struct {
	Client  *Client
	BaseURL string
	APIKey  string
}

// NewFredFetcher creates a fetcher. Calls fail with ErrMissingAPIKey when
// apiKey is empty.
func NewFredFetcher(client *Client, baseURL, apiKey string) *FredFetcher {
	return &FredFetcher{Client: client, BaseURL: strings.TrimRight(baseURL, "/"), APIKey: apiKey}
}

func (f *FredFetcher) Name() string { return "fred" }

// HasKey reports whether an API key is configured.
func (f *FredFetcher) HasKey() bool { return f.APIKey != "" }

// FetchSeries returns observations of id since start, ascending.
// Missing values, which FRED reports as ".", are dropped.
func (f *FredFetcher) FetchSeries(ctx context.Context, id string, start time.Time) ([]model.Observation, error) {
	if f.APIKey == "" {
		return nil, fmt.Errorf("fred %s: %w", id, ErrMissingAPIKey)
	}
	q := url.Values{}
	q.Set("series_id", id)
	q.Set("api_key", f.APIKey)
	q.Set("file_type", "json")
	q.Set("sort_order", "asc")
	if !start.IsZero() {
		q.Set("observation_start", start.Format("2006-01-02"))
	}
	u := fmt.Sprintf("%s/series/observations?%s", f.BaseURL, q.Encode())

	var resp fredResponse
	if err := f.Client.GetJSON(ctx, f.Name()+":"+id, u, nil, &resp); err != nil {
		return nil, err
	}
	out := make([]model.Observation, 0, len(resp.Observations))
	for _, o := range resp.Observations {
		if o.Value == "." || o.Value == "" {
			continue
		}
		v, err := strconv.ParseFloat(o.Value, 64)
		if err != nil {
			continue
		}
		d, err := time.Parse("2006-01-02", o.Date)
		if err != nil {
			continue
		}
		out = append(out, model.Observation{Date: d, Value: v})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("fred %s: %w", id, ErrEmptyPayload)
	}
	return out, nil
}
