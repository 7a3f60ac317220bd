package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"RiskSentinel/internal/alerts"
	"RiskSentinel/internal/model"
	"RiskSentinel/internal/strategy"
)

// Factor keys.
const (
	FactorTrend        = "trend_valuation"
	FactorNetLiquidity = "net_liquidity"
	FactorStablecoins  = "stablecoins"
	FactorETFFlows     = "etf_flows"
	FactorLeverage     = "term_leverage"
	FactorOnchain      = "onchain"
	FactorSocial       = "social_interest"
	FactorMacro        = "macro_overlay"
)

// FactorConfig tunes one factor. Enabled defaults to true.
type FactorConfig struct {
	Weight    float64 `yaml:"weight"`
	StaleDays int     `yaml:"stale_days"`
	Enabled   *bool   `yaml:"enabled"`
}

// IsEnabled reports whether the factor should run.
func (f FactorConfig) IsEnabled() bool { return f.Enabled == nil || *f.Enabled }

// Config holds all application configuration.
type Config struct {
	DataDir      string `yaml:"data_dir"`
	ModelVersion string `yaml:"model_version"`
	Proxy        string `yaml:"proxy"`
	FredAPIKey   string `yaml:"fred_api_key"`
	// HTTPTimeoutSeconds bounds every upstream request.
	HTTPTimeoutSeconds int `yaml:"http_timeout_seconds"`

	Log struct {
		Level  string `yaml:"level"`
		Pretty bool   `yaml:"pretty"`
	} `yaml:"log"`

	PriceHistory struct {
		MinRows           int `yaml:"min_rows"`
		BackfillDays      int `yaml:"backfill_days"`
		RecentDays        int `yaml:"recent_days"`
		ChunkDays         int `yaml:"chunk_days"`
		RequestIntervalMS int `yaml:"request_interval_ms"`
	} `yaml:"price_history"`

	Factors       map[string]FactorConfig `yaml:"factors"`
	Bands         []model.Band            `yaml:"bands"`
	FallbackScore *float64                `yaml:"fallback_score"`

	Alerts struct {
		Thresholds        alerts.Policy    `yaml:"thresholds"`
		Retention         alerts.Retention `yaml:"retention"`
		NotifyMinSeverity model.Severity   `yaml:"notify_min_severity"`
	} `yaml:"alerts"`

	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`

	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`

	Schedule struct {
		Cron       string `yaml:"cron"`
		RunOnStart bool   `yaml:"run_on_start"`
	} `yaml:"schedule"`

	Sources struct {
		Coinbase     string `yaml:"coinbase"`
		CoinGecko    string `yaml:"coingecko"`
		CoinGeckoKey string `yaml:"coingecko_api_key"`
		Fred         string `yaml:"fred"`
		Bitmex       string `yaml:"bitmex"`
		Farside      string `yaml:"farside"`
		FearGreed    string `yaml:"fear_greed"`
	} `yaml:"sources"`
}

// DefaultFactors returns the stock weight and staleness per factor.
// Weights sum to 100.
func DefaultFactors() map[string]FactorConfig {
	return map[string]FactorConfig{
		FactorTrend:        {Weight: 20, StaleDays: 3},
		FactorNetLiquidity: {Weight: 10, StaleDays: 10},
		FactorStablecoins:  {Weight: 15, StaleDays: 3},
		FactorETFFlows:     {Weight: 10, StaleDays: 5},
		FactorLeverage:     {Weight: 15, StaleDays: 3},
		FactorOnchain:      {Weight: 10, StaleDays: 3},
		FactorSocial:       {Weight: 10, StaleDays: 3},
		FactorMacro:        {Weight: 10, StaleDays: 7},
	}
}

// Load reads config from a YAML file, then applies environment variable
// overrides and defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	// .env is optional
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("FRED_API_KEY"); v != "" {
		c.FredAPIKey = v
	}
	if v := os.Getenv("COINGECKO_API_KEY"); v != "" {
		c.Sources.CoinGeckoKey = v
	}
	if v := os.Getenv("DATA_DIR"); v != "" {
		c.DataDir = v
	}
	if v := os.Getenv("MODEL_VERSION"); v != "" {
		c.ModelVersion = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		c.Telegram.ChatID = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		c.Proxy = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		c.Database.SQLitePath = v
	}
	if v := os.Getenv("CRON_SCHEDULE"); v != "" {
		c.Schedule.Cron = v
	}
	if v := os.Getenv("RUN_ON_START"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Schedule.RunOnStart = b
		}
	}
}

func (c *Config) applyDefaults() {
	if c.DataDir == "" {
		c.DataDir = "data"
	}
	if c.ModelVersion == "" {
		c.ModelVersion = "v1"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.HTTPTimeoutSeconds == 0 {
		c.HTTPTimeoutSeconds = 30
	}

	ph := &c.PriceHistory
	if ph.MinRows == 0 {
		ph.MinRows = 1500
	}
	if ph.BackfillDays == 0 {
		ph.BackfillDays = 2000
	}
	if ph.RecentDays == 0 {
		ph.RecentDays = 30
	}
	if ph.ChunkDays == 0 {
		ph.ChunkDays = 365
	}
	if ph.RequestIntervalMS == 0 {
		ph.RequestIntervalMS = 1500
	}

	defaults := DefaultFactors()
	if c.Factors == nil {
		c.Factors = make(map[string]FactorConfig, len(defaults))
	}
	for key, def := range defaults {
		fc, ok := c.Factors[key]
		if !ok {
			c.Factors[key] = def
			continue
		}
		if fc.Weight == 0 && fc.Enabled == nil {
			fc.Weight = def.Weight
		}
		if fc.StaleDays == 0 {
			fc.StaleDays = def.StaleDays
		}
		c.Factors[key] = fc
	}

	if len(c.Bands) == 0 {
		c.Bands = append([]model.Band(nil), strategy.DefaultBands...)
	}
	if c.FallbackScore == nil {
		v := strategy.DefaultFallbackScore
		c.FallbackScore = &v
	}

	if c.Alerts.Thresholds == nil {
		c.Alerts.Thresholds = alerts.DefaultPolicy()
	} else {
		for typ, th := range alerts.DefaultPolicy() {
			if _, ok := c.Alerts.Thresholds[typ]; !ok {
				c.Alerts.Thresholds[typ] = th
			}
		}
	}
	def := alerts.DefaultRetention()
	r := &c.Alerts.Retention
	if r.Days == nil {
		r.Days = def.Days
	} else {
		for typ, days := range def.Days {
			if _, ok := r.Days[typ]; !ok {
				r.Days[typ] = days
			}
		}
	}
	if r.MaxPerCategory == 0 {
		r.MaxPerCategory = def.MaxPerCategory
	}
	if r.MaxCombined == 0 {
		r.MaxCombined = def.MaxCombined
	}
	if c.Alerts.NotifyMinSeverity == "" {
		c.Alerts.NotifyMinSeverity = model.SeverityHigh
	}

	if c.Database.SQLitePath == "" {
		c.Database.SQLitePath = filepath.Join(c.DataDir, "risk_sentinel.db")
	}
	if c.Schedule.Cron == "" {
		c.Schedule.Cron = "0 15 0 * * *"
	}

	s := &c.Sources
	if s.Coinbase == "" {
		s.Coinbase = "https://api.exchange.coinbase.com"
	}
	if s.CoinGecko == "" {
		s.CoinGecko = "https://api.coingecko.com/api/v3"
	}
	if s.Fred == "" {
		s.Fred = "https://api.stlouisfed.org/fred"
	}
	if s.Bitmex == "" {
		s.Bitmex = "https://www.bitmex.com"
	}
	if s.Farside == "" {
		s.Farside = "https://farside.co.uk/bitcoin-etf-flow-all-data/"
	}
	if s.FearGreed == "" {
		s.FearGreed = "https://api.alternative.me"
	}
}

// Validate checks the configuration before any network call is made.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}
	var total float64
	for key, fc := range c.Factors {
		if _, ok := DefaultFactors()[key]; !ok {
			return fmt.Errorf("factors.%s: unknown factor", key)
		}
		if fc.Weight < 0 {
			return fmt.Errorf("factors.%s.weight must not be negative", key)
		}
		if fc.StaleDays <= 0 {
			return fmt.Errorf("factors.%s.stale_days must be positive", key)
		}
		if fc.IsEnabled() {
			total += fc.Weight
		}
	}
	if total <= 0 {
		return fmt.Errorf("at least one enabled factor needs a positive weight")
	}
	if err := strategy.ValidateBands(c.Bands); err != nil {
		return fmt.Errorf("bands: %w", err)
	}
	if fb := *c.FallbackScore; fb < 0 || fb > 100 {
		return fmt.Errorf("fallback_score must be within [0,100], got %g", fb)
	}
	if err := c.Alerts.Thresholds.Validate(); err != nil {
		return err
	}
	if err := c.Alerts.Retention.Validate(); err != nil {
		return err
	}
	if c.Alerts.NotifyMinSeverity.Rank() == 0 {
		return fmt.Errorf("alerts.notify_min_severity %q is not a severity", c.Alerts.NotifyMinSeverity)
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	if c.PriceHistory.ChunkDays <= 0 || c.PriceHistory.ChunkDays > 365 {
		return fmt.Errorf("price_history.chunk_days must be within (0,365]")
	}
	return nil
}

// Path joins name onto the data directory.
func (c *Config) Path(name string) string {
	return filepath.Join(c.DataDir, name)
}

// TelegramEnabled reports whether alert notifications can be sent.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}
