package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"RiskSentinel/internal/notifier"
	"RiskSentinel/internal/pipeline"
	"RiskSentinel/internal/scheduler"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run the ETL on the configured cron schedule until interrupted",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}
		rec := openRecorder(cfg, log)
		defer rec.Close()

		runner, err := pipeline.New(cfg, rec, log)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		sched := scheduler.NewScheduler(ctx, runner, runner.Notifier, cfg.DataDir, log)
		if tn, ok := runner.Notifier.(*notifier.TelegramNotifier); ok {
			go tn.StartPolling(ctx, sched.HandleCommand)
			log.Info().Msg("telegram polling started")
		}
		if err := sched.Register(cfg.Schedule.Cron); err != nil {
			return err
		}
		sched.Start()
		defer sched.Stop()

		if cfg.Schedule.RunOnStart {
			log.Info().Msg("run_on_start enabled, executing now")
			sched.RunAsync()
		}
		log.Info().Str("cron", cfg.Schedule.Cron).Msg("RiskSentinel is running. Press Ctrl+C to stop.")

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-sigCh:
			log.Info().Msg("shutdown signal received, stopping...")
		case <-ctx.Done():
		}
		// deferred Stop waits for an in-flight run before ctx is cancelled
		return nil
	},
}
