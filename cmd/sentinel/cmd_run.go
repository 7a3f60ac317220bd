package main

import (
	"github.com/spf13/cobra"

	"RiskSentinel/internal/pipeline"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the ETL once and write all artifacts",
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
		rep, err := runner.Run(cmd.Context())
		if err != nil {
			log.Error().Err(err).Msg("run failed")
			return err
		}
		cmd.Printf("composite %.0f (%s), %d new alerts\n", rep.Composite.Score, rep.Composite.Band.Label, len(rep.AlertsAdded))
		return nil
	},
}
