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

// BitmexMaxCount is the page size limit of the funding endpoint.
const BitmexMaxCount = 500

type bitmexFunding struct {
	Timestamp   time.Time `json:"timestamp"`
	Symbol      string    `json:"symbol"`
	FundingRate float64   `json:"fundingRate"`
}

// BitmexFetcher reads perpetual funding rates.
type BitmexFetcher struct {
	Client  *Client
	BaseURL string
}

// NewBitmexFetcher creates a fetcher.
func NewBitmexFetcher(client *Client, baseURL string) *BitmexFetcher {
	return &BitmexFetcher{Client: client, BaseURL: strings.TrimRight(baseURL, "/")}
}

func (f *BitmexFetcher) Name() string { return "bitmex" }

// FetchFunding returns the newest count funding prints for symbol, ascending.
func (f *BitmexFetcher) FetchFunding(ctx context.Context, symbol string, count int) ([]model.Observation, error) {
	if count <= 0 || count > BitmexMaxCount {
		count = BitmexMaxCount
	}
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("count", strconv.Itoa(count))
	q.Set("reverse", "true")
	u := fmt.Sprintf("%s/api/v1/funding?%s", f.BaseURL, q.Encode())

	var rows []bitmexFunding
	if err := f.Client.GetJSON(ctx, f.Name(), u, nil, &rows); err != nil {
		return nil, err
	}
	out := make([]model.Observation, 0, len(rows))
	for _, r := range rows {
		if r.Timestamp.IsZero() {
			continue
		}
		out = append(out, model.Observation{Date: r.Timestamp.UTC(), Value: r.FundingRate})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("bitmex: %w", ErrEmptyPayload)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}
