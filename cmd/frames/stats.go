package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"frames-ai/internal/analytics"
	"frames-ai/internal/storage"
)

func statsCommand(opts *options) *cobra.Command {
	var (
		date   string
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Summarize the turn journal for one day",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			if cfg.TurnLogPath == "" {
				return fmt.Errorf("turn journal is disabled (TURN_LOG_PATH is empty)")
			}
			day := time.Now().UTC()
			if date != "" {
				day, err = time.Parse("2006-01-02", date)
				if err != nil {
					return fmt.Errorf("invalid --date %q: %w", date, err)
				}
			}

			rec, err := storage.NewFileRecorder(cfg.TurnLogPath)
			if err != nil {
				return err
			}
			events, err := rec.LoadInteractions()
			if err != nil {
				return err
			}
			stats := analytics.AnalyzeDailyLogs(events, day)

			out := cmd.OutOrStdout()
			if asJSON {
				raw, err := stats.ToJSON()
				if err != nil {
					return err
				}
				fmt.Fprintln(out, raw)
				return nil
			}
			fmt.Fprint(out, stats.GenerateReportSummary())
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "Day to report, YYYY-MM-DD (default today, UTC)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of text")
	return cmd
}
