package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"RiskSentinel/internal/config"
	"RiskSentinel/internal/logger"
	"RiskSentinel/internal/recorder"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "sentinel",
	Short: "RiskSentinel BTC risk score ETL",
	Long: `RiskSentinel scores Bitcoin market risk from eight factors (trend,
liquidity, stablecoins, ETF flows, leverage, on-chain, sentiment, macro),
blends them into a 0-100 composite and writes JSON/CSV artifacts and alerts.`,
	SilenceUsage: true,
}

func init() {
	defaultPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		defaultPath = v
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", defaultPath, "Path to YAML config")
	rootCmd.AddCommand(runCmd, backfillCmd, scheduleCmd)
}

// setup loads and validates the config and builds the logger.
func setup() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("config validation: %w", err)
	}
	log := logger.New(logger.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty})
	return cfg, log, nil
}

// openRecorder falls back to a no-op recorder when SQLite is unavailable.
func openRecorder(cfg *config.Config, log zerolog.Logger) recorder.Recorder {
	if cfg.Database.SQLitePath == "" {
		return recorder.NewNoopRecorder()
	}
	sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath, log)
	if err != nil {
		log.Warn().Err(err).Msg("init sqlite recorder failed, using noop")
		return recorder.NewNoopRecorder()
	}
	return sr
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
