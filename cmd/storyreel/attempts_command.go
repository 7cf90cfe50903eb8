package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"storyreel/internal/config"
	"storyreel/internal/queue"
)

func newAttemptsCommand(ctx *commandContext) *cobra.Command {
	var runID string
	var unitIdentity string
	var limit int

	cmd := &cobra.Command{
		Use:   "attempts",
		Short: "Show the recorded attempt history",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return runAttempts(cmd, cfg, runID, unitIdentity, limit)
		},
	}

	cmd.Flags().StringVar(&runID, "run", "", "Run identifier (defaults to the most recent run)")
	cmd.Flags().StringVar(&unitIdentity, "unit", "", "Show history for one unit across runs, e.g. scene:048")
	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum rows when listing by unit")

	return cmd
}

func runAttempts(cmd *cobra.Command, cfg *config.Config, runID, unitIdentity string, limit int) error {
	store, err := queue.Open(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	var records []queue.Record
	if unitIdentity != "" {
		records, err = store.ListUnit(cmd.Context(), unitIdentity, limit)
	} else {
		if runID == "" {
			runID, err = store.LastRunID(cmd.Context())
			if err != nil {
				return err
			}
			if runID == "" {
				fmt.Fprintln(cmd.OutOrStdout(), "No attempts recorded yet.")
				return nil
			}
		}
		records, err = store.ListRun(cmd.Context(), runID)
	}
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No attempts recorded yet.")
		return nil
	}

	rows := make([][]string, 0, len(records))
	for _, record := range records {
		outcome := string(record.Outcome)
		if record.Escalated {
			outcome += " (escalated)"
		}
		rows = append(rows, []string{
			record.Stage,
			record.Identity,
			strconv.Itoa(record.Number),
			outcome,
			record.FinishedAt.Sub(record.StartedAt).Round(time.Millisecond).String(),
			record.Error,
		})
	}
	headers := []string{"Stage", "Unit", "Attempt", "Outcome", "Duration", "Error"}
	aligns := []columnAlignment{alignLeft, alignLeft, alignRight, alignLeft, alignRight, alignLeft}
	fmt.Fprintln(cmd.OutOrStdout(), renderTable(headers, rows, aligns))
	return nil
}
