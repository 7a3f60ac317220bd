package pipeline

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"RiskSentinel/internal/alerts"
	"RiskSentinel/internal/collector"
	"RiskSentinel/internal/config"
	"RiskSentinel/internal/factors"
	"RiskSentinel/internal/history"
	"RiskSentinel/internal/metrics"
	"RiskSentinel/internal/model"
	"RiskSentinel/internal/notifier"
	"RiskSentinel/internal/pricehistory"
	"RiskSentinel/internal/recorder"
)

// Registrations binds every enabled catalog factor to its configuration.
func Registrations(cfg *config.Config, src factors.Sources) []factors.Registered {
	var out []factors.Registered
	for _, meta := range factors.Catalog {
		fcfg, ok := cfg.Factors[meta.Key]
		if !ok || !fcfg.IsEnabled() {
			continue
		}
		f := factors.New(meta.Key, src)
		if f == nil {
			continue
		}
		out = append(out, factors.Registered{
			Spec: model.FactorSpec{
				Key:       meta.Key,
				Label:     meta.Label,
				Pillar:    meta.Pillar,
				Weight:    fcfg.Weight,
				StaleDays: fcfg.StaleDays,
			},
			Factor: f,
		})
	}
	return out
}

// NewPriceStore builds the price history store on the configured sources.
func NewPriceStore(cfg *config.Config, client *collector.Client, log zerolog.Logger) *pricehistory.Store {
	return pricehistory.NewStore(
		cfg.Path(pricehistory.FileName),
		collector.NewCoinbaseFetcher(client, cfg.Sources.Coinbase),
		collector.NewCoinGeckoFetcher(client, cfg.Sources.CoinGecko, cfg.Sources.CoinGeckoKey),
		pricehistory.Options{
			MinRows:         cfg.PriceHistory.MinRows,
			ChunkDays:       cfg.PriceHistory.ChunkDays,
			RequestInterval: time.Duration(cfg.PriceHistory.RequestIntervalMS) * time.Millisecond,
		},
		log,
	)
}

// New wires a Runner against the real upstream sources. The caller owns
// rec and must close it.
func New(cfg *config.Config, rec recorder.Recorder, log zerolog.Logger) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	timeout := time.Duration(cfg.HTTPTimeoutSeconds) * time.Second
	client := collector.NewClient(collector.NewHTTPClient(cfg.Proxy, timeout), collector.NewHealth())

	coinbase := collector.NewCoinbaseFetcher(client, cfg.Sources.Coinbase)
	gecko := collector.NewCoinGeckoFetcher(client, cfg.Sources.CoinGecko, cfg.Sources.CoinGeckoKey)
	src := factors.Sources{
		Fred:      collector.NewFredFetcher(client, cfg.Sources.Fred, cfg.FredAPIKey),
		Charts:    gecko,
		Funding:   collector.NewBitmexFetcher(client, cfg.Sources.Bitmex),
		ETFPage:   collector.NewFarsideFetcher(client, cfg.Sources.Farside),
		Sentiment: collector.NewFearGreedFetcher(client, cfg.Sources.FearGreed),
	}

	r := &Runner{
		Cfg:      cfg,
		Client:   client,
		Prices:   NewPriceStore(cfg, client, log),
		Spot:     coinbase,
		Factors:  Registrations(cfg, src),
		History:  history.NewStore(cfg.DataDir, log),
		Alerts:   alerts.NewStore(cfg.DataDir, cfg.Alerts.Retention, log),
		Recorder: rec,
		Metrics:  metrics.NewRegistry(),
		Log:      log.With().Str("component", "pipeline").Logger(),
		Now:      time.Now,
	}
	if cfg.TelegramEnabled() {
		r.Notifier = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy, log)
	}
	return r, nil
}
