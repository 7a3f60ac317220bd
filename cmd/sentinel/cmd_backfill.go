package main

import (
	"fmt"
	"math"
	"time"

	"github.com/spf13/cobra"

	"RiskSentinel/internal/collector"
	"RiskSentinel/internal/pipeline"
)

var (
	backfillDays  int
	backfillForce bool
)

var backfillCmd = &cobra.Command{
	Use:   "backfill",
	Short: "Fill btc_price_history.csv from the backfill source",
	Long: `Fetch daily BTC closes from CoinGecko in chunks, paced by
price_history.request_interval_ms, and merge them into the price history.
Primary (Coinbase) rows already stored keep precedence.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}
		if backfillDays <= 0 {
			backfillDays = cfg.PriceHistory.BackfillDays
		}
		if backfillForce {
			cfg.PriceHistory.MinRows = math.MaxInt
		}
		timeout := time.Duration(cfg.HTTPTimeoutSeconds) * time.Second
		client := collector.NewClient(collector.NewHTTPClient(cfg.Proxy, timeout), collector.NewHealth())
		store := pipeline.NewPriceStore(cfg, client, log)

		res := store.Backfill(cmd.Context(), backfillDays)
		if !res.Success {
			return fmt.Errorf("backfill: %s", res.Reason)
		}
		cmd.Printf("fetched %d, added %d (%s)\n", res.Fetched, res.Added, res.Reason)
		return nil
	},
}

func init() {
	backfillCmd.Flags().IntVar(&backfillDays, "days", 0, "Days of history to request (default price_history.backfill_days)")
	backfillCmd.Flags().BoolVar(&backfillForce, "force", false, "Fetch even when enough rows are stored")
}
