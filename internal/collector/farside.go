package collector

import (
	"bytes"
	"context"
	"fmt"
)

// FarsideFetcher downloads the spot bitcoin ETF flow table page.
type FarsideFetcher struct {
	Client *Client
	URL    string
}

// NewFarsideFetcher creates a fetcher for pageURL.
func NewFarsideFetcher(client *Client, pageURL string) *FarsideFetcher {
	return &FarsideFetcher{Client: client, URL: pageURL}
}

func (f *FarsideFetcher) Name() string { return "farside" }

// FetchFlowsHTML returns the raw page. Parsing lives with the ETF factor.
func (f *FarsideFetcher) FetchFlowsHTML(ctx context.Context) (string, error) {
	body, err := f.Client.Get(ctx, f.Name(), f.URL, map[string]string{"Accept": "text/html"})
	if err != nil {
		return "", err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return "", fmt.Errorf("farside: %w", ErrEmptyPayload)
	}
	return string(body), nil
}
