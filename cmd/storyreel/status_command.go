package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"storyreel/internal/config"
	"storyreel/internal/job"
	"storyreel/internal/pipeline"
	"storyreel/internal/queue"
	"storyreel/internal/story"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var storyPath string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show per-stage completion for a story from the filesystem",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return runStatus(cmd, cfg, storyPath)
		},
	}

	cmd.Flags().StringVarP(&storyPath, "story", "s", "", "Story definition file (JSON or YAML)")
	_ = cmd.MarkFlagRequired("story")

	return cmd
}

func runStatus(cmd *cobra.Command, cfg *config.Config, storyPath string) error {
	st, err := story.Load(storyPath)
	if err != nil {
		return err
	}
	if err := st.Validate(); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)
	layout := pipeline.NewLayout(cfg)
	builder := pipeline.NewUnitBuilder(cfg, st, layout)

	fmt.Fprintf(out, "Story: %s\n", st.Title)
	fmt.Fprintf(out, "Output: %s\n\n", cfg.Paths.OutputDir)

	for _, stage := range pipeline.StageOrder {
		kind, detail := stageStatus(cfg, builder, stage)
		fmt.Fprintln(out, renderStageLine(string(stage), kind, detail, colorize))
	}

	printLastRunStats(cmd, cfg)
	return nil
}

func stageStatus(cfg *config.Config, builder *pipeline.UnitBuilder, stage pipeline.Stage) (statusKind, string) {
	switch stage {
	case pipeline.StageMusic:
		if cfg.Paths.MusicDir == "" {
			return statusOff, "no music directory configured"
		}
	case pipeline.StageUpload:
		if !cfg.Upload.Enabled {
			return statusOff, "uploads disabled"
		}
	}

	units := builder.UnitsFor(stage)
	if len(units) == 0 {
		return statusOff, ""
	}

	satisfied := 0
	for _, unit := range units {
		if job.Check(unit).Done() {
			satisfied++
		}
	}
	detail := fmt.Sprintf("%d/%d units", satisfied, len(units))
	switch {
	case satisfied == len(units):
		return statusDone, detail
	case satisfied > 0:
		return statusPartial, detail
	default:
		return statusPending, detail
	}
}

func printLastRunStats(cmd *cobra.Command, cfg *config.Config) {
	store, err := queue.Open(cfg)
	if err != nil {
		return
	}
	defer store.Close()

	runID, err := store.LastRunID(cmd.Context())
	if err != nil || runID == "" {
		return
	}
	stats, err := store.Stats(cmd.Context(), runID)
	if err != nil {
		return
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "\nLast run: %s\n", runID)
	rows := make([][]string, 0, len(stats))
	for _, outcome := range []job.Outcome{job.OutcomeSuccess, job.OutcomeTransient, job.OutcomeFatal} {
		if count, ok := stats[outcome]; ok {
			rows = append(rows, []string{string(outcome), strconv.Itoa(count)})
		}
	}
	if len(rows) > 0 {
		fmt.Fprintln(out, renderTable([]string{"Outcome", "Attempts"}, rows, []columnAlignment{alignLeft, alignRight}))
	}
}
