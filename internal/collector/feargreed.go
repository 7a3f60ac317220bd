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

type fngResponse struct {
	Data []struct {
		Value     string `json:"value"`
		Timestamp string `json:"timestamp"`
	} `json:"data"`
}

// FearGreedFetcher reads the Alternative.me crypto Fear & Greed index.
type FearGreedFetcher struct {
	Client  *Client
	BaseURL string
}

// NewFearGreedFetcher creates a fetcher.
func NewFearGreedFetcher(client *Client, baseURL string) *FearGreedFetcher {
	return &FearGreedFetcher{Client: client, BaseURL: strings.TrimRight(baseURL, "/")}
}

func (f *FearGreedFetcher) Name() string { return "fear_greed" }

// FetchIndex returns up to limit daily values ascending. limit 0 means all.
func (f *FearGreedFetcher) FetchIndex(ctx context.Context, limit int) ([]model.Observation, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("format", "json")
	u := fmt.Sprintf("%s/fng/?%s", f.BaseURL, q.Encode())

	var resp fngResponse
	if err := f.Client.GetJSON(ctx, f.Name(), u, nil, &resp); err != nil {
		return nil, err
	}
	out := make([]model.Observation, 0, len(resp.Data))
	for _, d := range resp.Data {
		v, err := strconv.ParseFloat(d.Value, 64)
		if err != nil {
			continue
		}
		sec, err := strconv.ParseInt(d.Timestamp, 10, 64)
		if err != nil {
			continue
		}
		out = append(out, model.Observation{Date: model.DayUTC(time.Unix(sec, 0)), Value: v})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("fear_greed: %w", ErrEmptyPayload)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}
