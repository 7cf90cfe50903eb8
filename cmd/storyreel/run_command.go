package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"storyreel/internal/config"
	"storyreel/internal/logging"
	"storyreel/internal/music"
	"storyreel/internal/notifications"
	"storyreel/internal/pipeline"
	"storyreel/internal/queue"
	"storyreel/internal/report"
	"storyreel/internal/schedule"
	"storyreel/internal/services/ffmpeg"
	"storyreel/internal/services/tts"
	"storyreel/internal/services/whisk"
	"storyreel/internal/services/youtube"
	"storyreel/internal/story"
)

type runFlags struct {
	storyPath         string
	sceneSelection    string
	skipInitialStages bool
	videoOnly         bool
	metadataOnly      bool
	uploadOnly        bool
	uploadNow         bool
	scheduleHours     int
}

func newRunCommand(ctx *commandContext) *cobra.Command {
	flags := &runFlags{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute the pipeline for a story, resuming completed work",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return runPipeline(cmd, cfg, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.storyPath, "story", "s", "", "Story definition file (JSON or YAML)")
	cmd.Flags().StringVar(&flags.sceneSelection, "scene", "", "Force specific scenes to regenerate, e.g. 48 or 48-55")
	cmd.Flags().BoolVar(&flags.skipInitialStages, "skip-initial-stages", false, "Start at narration, assuming images already exist")
	cmd.Flags().BoolVar(&flags.videoOnly, "video-only", false, "Run only the video assembly stage")
	cmd.Flags().BoolVar(&flags.metadataOnly, "metadata-only", false, "Run only the metadata stage")
	cmd.Flags().BoolVar(&flags.uploadOnly, "upload-only", false, "Run only the upload stage")
	cmd.Flags().BoolVar(&flags.uploadNow, "upload-now", false, "Publish immediately instead of booking a schedule slot")
	cmd.Flags().IntVar(&flags.scheduleHours, "schedule-hours", 0, "Publish this many hours from now instead of the next slot")
	_ = cmd.MarkFlagRequired("story")

	return cmd
}

func runPipeline(cmd *cobra.Command, cfg *config.Config, flags *runFlags) error {
	runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	lock := flock.New(filepath.Join(cfg.Paths.OutputDir, ".storyreel.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire run lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("another run is already active in %s", cfg.Paths.OutputDir)
	}
	defer func() {
		_ = lock.Unlock()
	}()

	logger, err := newRunLogger(cfg)
	if err != nil {
		return err
	}

	st, err := story.Load(flags.storyPath)
	if err != nil {
		return err
	}
	if err := st.Validate(); err != nil {
		return err
	}

	store, err := queue.Open(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	layout := pipeline.NewLayout(cfg)
	deps := pipeline.Deps{
		Images:    whisk.NewDriver(cfg, logger),
		Narrator:  tts.NewService(cfg, logger),
		Assembler: ffmpeg.NewAssembler(cfg, logger),
		Uploader:  youtube.NewUploader(cfg, logger),
		Tracker:   schedule.NewTracker(layout.ScheduleFile(), cfg.Upload.PublishHourUTC),
		Store:     store,
		Notifier:  notifications.NewPipelineNotifier(notifications.NewService(cfg), logger),
		Logger:    logger,
	}
	if cfg.Paths.MusicDir != "" {
		deps.Music = music.NewLibrary(cfg.Paths.MusicDir)
	}

	opts := pipeline.Options{
		SkipInitialStages: flags.skipInitialStages,
		VideoOnly:         flags.videoOnly,
		MetadataOnly:      flags.metadataOnly,
		UploadOnly:        flags.uploadOnly,
		UploadNow:         flags.uploadNow,
		ScheduleHours:     flags.scheduleHours,
		SceneSelection:    flags.sceneSelection,
	}

	seq, err := pipeline.New(cfg, st, deps, opts)
	if err != nil {
		return err
	}

	summary, err := seq.Run(runCtx)
	if err != nil {
		return err
	}

	printSummary(cmd, summary)
	if summary.Clean() {
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "\nRetry failed units with: storyreel run --story %s", flags.storyPath)
	if sceneHint := sceneRetryHint(summary.FailedIdentities); sceneHint != "" {
		fmt.Fprintf(cmd.OutOrStdout(), " --scene %s", sceneHint)
	}
	fmt.Fprintln(cmd.OutOrStdout())
	return fmt.Errorf("%d unit(s) failed", summary.Failed)
}

func newRunLogger(cfg *config.Config) (*slog.Logger, error) {
	opts := logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	}
	if cfg.Paths.LogDir != "" {
		logFile := filepath.Join(cfg.Paths.LogDir, "storyreel.log")
		opts.OutputPaths = []string{"stdout", logFile}
		opts.ErrorOutputPaths = []string{"stderr", logFile}
	}
	return logging.New(opts)
}

func printSummary(cmd *cobra.Command, summary report.Summary) {
	rows := [][]string{
		{"Succeeded", strconv.Itoa(summary.Succeeded)},
		{"Skipped", strconv.Itoa(summary.Skipped)},
		{"Retried", strconv.Itoa(summary.Retried)},
		{"Failed", strconv.Itoa(summary.Failed)},
		{"Duration", summary.Duration.Round(time.Second).String()},
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Result", "Count"}, rows, []columnAlignment{alignLeft, alignRight}))
	for _, identity := range summary.FailedIdentities {
		fmt.Fprintf(cmd.OutOrStdout(), "  failed: %s\n", identity)
	}
}

// sceneRetryHint extracts the numeric part of failed scene identities so
// the retry suggestion can pass them back through --scene.
func sceneRetryHint(identities []string) string {
	var hint string
	for _, identity := range identities {
		var index int
		if _, err := fmt.Sscanf(identity, "scene:%d", &index); err != nil {
			continue
		}
		if hint != "" {
			hint += ","
		}
		hint += strconv.Itoa(index)
	}
	return hint
}
