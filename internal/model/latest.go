package model

import "time"

// BTCQuote is the spot price shown next to the score.
type BTCQuote struct {
	SpotUSD float64   `json:"spot_usd"`
	AsOfUTC time.Time `json:"as_of_utc"`
}

// Latest is the shape of latest.json, the snapshot the UI renders.
type Latest struct {
	CompositeScore float64        `json:"composite_score"`
	Band           Band           `json:"band"`
	Factors        []FactorResult `json:"factors"`
	AsOfUTC        time.Time      `json:"as_of_utc"`
	BTC            BTCQuote       `json:"btc"`
	ModelVersion   string         `json:"model_version"`
}
