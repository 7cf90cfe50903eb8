package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"storyreel/internal/config"
	"storyreel/internal/fileutil"
	"storyreel/internal/job"
	"storyreel/internal/logging"
	"storyreel/internal/metadata"
	"storyreel/internal/music"
	"storyreel/internal/queue"
	"storyreel/internal/report"
	"storyreel/internal/retry"
	"storyreel/internal/scenes"
	"storyreel/internal/schedule"
	"storyreel/internal/services"
	"storyreel/internal/story"
)

// Notifier receives run lifecycle events. Implementations must not
// block the pipeline on delivery failures.
type Notifier interface {
	RunStarted(ctx context.Context, title string)
	StageCompleted(ctx context.Context, stage Stage)
	RunFinished(ctx context.Context, summary report.Summary)
}

// Deps collects the external collaborators a sequencer drives.
type Deps struct {
	Images    ImageGenerator
	Narrator  NarrationSynthesizer
	Assembler VideoAssembler
	Uploader  Uploader
	Music     *music.Library
	Tracker   *schedule.Tracker
	Store     *queue.Store
	Notifier  Notifier
	Logger    *slog.Logger
}

// Options selects the run mode.
type Options struct {
	// SkipInitialStages starts at narration, assuming reference and
	// scene images already exist.
	SkipInitialStages bool
	// VideoOnly, MetadataOnly, and UploadOnly each run exactly one
	// stage after validating its prerequisites.
	VideoOnly    bool
	MetadataOnly bool
	UploadOnly   bool
	// UploadNow publishes immediately instead of booking a slot.
	UploadNow bool
	// ScheduleHours, when positive, publishes that many hours from now
	// instead of the next tracked slot.
	ScheduleHours int
	// SceneSelection forces specific scenes to regenerate, e.g. "48",
	// "48,52", "48-55". Empty means all unsatisfied scenes.
	SceneSelection string
}

// Receipt is the upload stage's durable artifact.
type Receipt struct {
	VideoID     string    `json:"video_id"`
	PublishedAt time.Time `json:"published_at,omitempty"`
	UploadedAt  time.Time `json:"uploaded_at"`
	Title       string    `json:"title"`
}

// Sequencer executes the pipeline stages in order against one story.
type Sequencer struct {
	cfg     *config.Config
	story   *story.Story
	layout  Layout
	builder *UnitBuilder
	deps    Deps
	opts    Options
	logger  *slog.Logger
	check   job.CompletionFunc

	forcedScenes map[string]struct{}
}

// New validates wiring and builds a sequencer.
func New(cfg *config.Config, s *story.Story, deps Deps, opts Options) (*Sequencer, error) {
	if cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "new", "configuration is required", nil)
	}
	if s == nil {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "new", "story is required", nil)
	}
	modes := 0
	for _, enabled := range []bool{opts.VideoOnly, opts.MetadataOnly, opts.UploadOnly} {
		if enabled {
			modes++
		}
	}
	if modes > 1 {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "new", "only one of video-only, metadata-only, upload-only may be set", nil)
	}

	logger := deps.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	layout := NewLayout(cfg)
	seq := &Sequencer{
		cfg:          cfg,
		story:        s,
		layout:       layout,
		builder:      NewUnitBuilder(cfg, s, layout),
		deps:         deps,
		opts:         opts,
		logger:       logger,
		check:        job.Check,
		forcedScenes: make(map[string]struct{}),
	}

	if opts.SceneSelection != "" {
		indices, err := scenes.ParseSelection(opts.SceneSelection, len(s.Scenes))
		if err != nil {
			return nil, err
		}
		for _, index := range indices {
			seq.forcedScenes[fmt.Sprintf("scene:%03d", index)] = struct{}{}
		}
	}

	stagesToRun, err := seq.plan()
	if err != nil {
		return nil, err
	}
	if err := seq.checkCollaborators(stagesToRun); err != nil {
		return nil, err
	}
	return seq, nil
}

// Run executes the planned stages and returns the run summary. Unit
// failures are reported through the summary; only configuration and
// prerequisite violations return an error.
func (s *Sequencer) Run(ctx context.Context) (report.Summary, error) {
	runID := uuid.New().String()
	ctx = services.WithRunID(ctx, runID)
	logger := s.logger.With(logging.String(logging.FieldRunID, runID))

	stagesToRun, err := s.plan()
	if err != nil {
		return report.Summary{}, err
	}
	if err := s.checkPrerequisites(stagesToRun[0]); err != nil {
		return report.Summary{}, err
	}

	logger.Info("run started",
		logging.String(logging.FieldEventType, "run_started"),
		logging.String("title", s.story.Title),
		logging.Any("stages", stageNames(stagesToRun)),
	)
	if s.deps.Notifier != nil {
		s.deps.Notifier.RunStarted(ctx, s.story.Title)
	}

	rep := report.New(runID)
	for _, stage := range stagesToRun {
		failed, err := s.runStage(ctx, stage, runID, rep, logger)
		if err != nil {
			return rep.Summary(), err
		}
		if failed {
			logger.Error("stage failed, halting downstream stages",
				logging.String(logging.FieldEventType, "stage_failed"),
				logging.String(logging.FieldStage, string(stage)),
			)
			break
		}
		logger.Info("stage complete",
			logging.String(logging.FieldEventType, "stage_complete"),
			logging.String(logging.FieldStage, string(stage)),
		)
		if s.deps.Notifier != nil {
			s.deps.Notifier.StageCompleted(ctx, stage)
		}
	}

	summary := rep.Summary()
	logger.Info("run finished",
		logging.String(logging.FieldEventType, "run_finished"),
		logging.Int("succeeded", summary.Succeeded),
		logging.Int("skipped", summary.Skipped),
		logging.Int("retried", summary.Retried),
		logging.Int("failed", summary.Failed),
	)
	if s.deps.Notifier != nil {
		s.deps.Notifier.RunFinished(ctx, summary)
	}
	return summary, nil
}

// plan resolves the stages this run executes, in order.
func (s *Sequencer) plan() ([]Stage, error) {
	switch {
	case s.opts.UploadOnly:
		return []Stage{StageUpload}, nil
	case s.opts.MetadataOnly:
		return []Stage{StageMetadata}, nil
	case s.opts.VideoOnly:
		return []Stage{StageVideo}, nil
	}

	var planned []Stage
	for _, stage := range StageOrder {
		if !s.stageActive(stage) {
			continue
		}
		if s.opts.SkipInitialStages && (stage == StageReferences || stage == StageScenes) {
			continue
		}
		planned = append(planned, stage)
	}
	if len(planned) == 0 {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "plan", "no stages selected", nil)
	}
	return planned, nil
}

// stageActive reports whether a stage participates in this project at
// all, independent of the run mode.
func (s *Sequencer) stageActive(stage Stage) bool {
	switch stage {
	case StageMusic:
		return s.cfg.Paths.MusicDir != ""
	case StageUpload:
		return s.cfg.Upload.Enabled || s.opts.UploadOnly
	default:
		return true
	}
}

// checkPrerequisites verifies every active stage before the entry
// stage is fully satisfied on disk, failing fast with the first unmet
// stage and unit.
func (s *Sequencer) checkPrerequisites(entry Stage) error {
	for _, stage := range StageOrder {
		if stage == entry {
			return nil
		}
		if !s.stageActive(stage) {
			continue
		}
		for _, unit := range s.builder.UnitsFor(stage) {
			if s.check(unit).Done() {
				continue
			}
			return services.Wrap(services.ErrPrerequisite, string(entry), "gate",
				fmt.Sprintf("stage %s is not satisfied: unit %s incomplete", stage, unit.Identity), nil)
		}
	}
	return nil
}

func (s *Sequencer) checkCollaborators(stagesToRun []Stage) error {
	for _, stage := range stagesToRun {
		var missing string
		switch stage {
		case StageReferences, StageScenes:
			if s.deps.Images == nil {
				missing = "image generator"
			}
		case StageNarration:
			if s.deps.Narrator == nil {
				missing = "narration synthesizer"
			}
		case StageMusic:
			if s.deps.Music == nil {
				missing = "music library"
			}
		case StageVideo, StageMetadata:
			if s.deps.Assembler == nil {
				missing = "video assembler"
			}
		case StageUpload:
			if s.deps.Uploader == nil {
				missing = "uploader"
			}
		}
		if missing != "" {
			return services.Wrap(services.ErrConfiguration, string(stage), "new",
				fmt.Sprintf("stage %s requires a %s", stage, missing), nil)
		}
	}
	return nil
}

// runStage executes one stage's units sequentially. Returns true when
// the stage ends with at least one failed unit. A fatal unit failure
// aborts the remaining units of the stage; escalated transient
// failures let siblings continue.
func (s *Sequencer) runStage(ctx context.Context, stage Stage, runID string, rep *report.Report, logger *slog.Logger) (bool, error) {
	ctx = services.WithStage(ctx, string(stage))
	stageLogger := logger.With(logging.String(logging.FieldStage, string(stage)))

	q, err := queue.NewResumable(s.check)
	if err != nil {
		return false, err
	}
	units := s.builder.UnitsFor(stage)
	if len(units) == 0 {
		return false, nil
	}
	if err := q.Enqueue(units...); err != nil {
		return false, err
	}
	if stage == StageScenes {
		for identity := range s.forcedScenes {
			q.Force(identity)
		}
	}

	for _, unit := range q.Satisfied() {
		stageLogger.Info("unit already satisfied, skipping",
			logging.String(logging.FieldEventType, "unit_skipped"),
			logging.String(logging.FieldUnit, unit.Identity),
		)
		rep.RecordSkip(string(stage), unit)
	}

	policy := retry.Policy{
		MaxRetries: s.cfg.Generation.MaxRetries,
		Delay:      s.cfg.RetryDelay(),
		Logger:     stageLogger,
	}

	failed := false
	for _, unit := range q.Pending() {
		unitCtx := services.WithUnit(ctx, unit.Identity)
		stageLogger.Info("unit started",
			logging.String(logging.FieldEventType, "unit_started"),
			logging.String(logging.FieldUnit, unit.Identity),
		)

		unitPolicy := policy
		unitPolicy.OnAttempt = func(attempt job.Attempt) {
			if s.deps.Store == nil {
				return
			}
			if err := s.deps.Store.Append(unitCtx, runID, string(stage), unit, attempt); err != nil {
				stageLogger.Warn("attempt log write failed",
					logging.String(logging.FieldUnit, unit.Identity),
					logging.Error(err),
				)
			}
		}

		attempt := unitPolicy.Execute(unitCtx, unit, s.actionFor(stage, unit))
		if err := q.Mark(unit.Identity, attempt); err != nil {
			return false, err
		}
		rep.Record(string(stage), unit, attempt)

		switch attempt.Outcome {
		case job.OutcomeFatal:
			stageLogger.Error("fatal unit failure, aborting remaining units",
				logging.String(logging.FieldEventType, "stage_aborted"),
				logging.String(logging.FieldUnit, unit.Identity),
				logging.String("error", attempt.Error),
			)
			return true, nil
		case job.OutcomeTransient:
			failed = true
		case job.OutcomeSuccess:
			if stage == StageReferences && s.deps.Images != nil {
				// Clean browser state between reference uploads so one
				// reference cannot contaminate the next.
				if err := s.deps.Images.ResetSession(unitCtx); err != nil {
					stageLogger.Warn("session reset failed",
						logging.String(logging.FieldUnit, unit.Identity),
						logging.Error(err),
					)
				}
			}
		}
	}
	return failed, nil
}

func (s *Sequencer) actionFor(stage Stage, unit job.Unit) retry.Action {
	switch stage {
	case StageReferences:
		return s.referenceAction(unit)
	case StageScenes:
		return s.sceneAction(unit)
	case StageNarration:
		return s.narrationAction(unit)
	case StageMusic:
		return s.musicAction(unit)
	case StageVideo:
		return s.videoAction(unit)
	case StageMetadata:
		return s.metadataAction(unit)
	case StageUpload:
		return s.uploadAction(unit)
	default:
		return func(context.Context) error {
			return services.Wrap(services.ErrConfiguration, string(stage), "dispatch", fmt.Sprintf("no action for stage %s", stage), nil)
		}
	}
}

func (s *Sequencer) referenceAction(unit job.Unit) retry.Action {
	return func(ctx context.Context) error {
		return s.deps.Images.GenerateReference(ctx, ReferenceRequest{
			Name:       unit.Input("name"),
			Prompt:     unit.Input("prompt"),
			OutputPath: unit.Artifacts[0].Path,
		})
	}
}

func (s *Sequencer) sceneAction(unit job.Unit) retry.Action {
	return func(ctx context.Context) error {
		var environmentRef string
		if env := unit.Input("environment"); env != "" {
			environmentRef = s.layout.EnvironmentImage(env)
		}
		var characterRefs []string
		if characters := unit.Input("characters"); characters != "" {
			for _, name := range splitComma(characters) {
				characterRefs = append(characterRefs, s.layout.CharacterImage(name))
			}
		}
		for batch := 1; batch <= s.cfg.Generation.BatchesPerScene; batch++ {
			err := s.deps.Images.GenerateScene(ctx, SceneRequest{
				SceneIndex:     unit.SceneIndex,
				Batch:          batch,
				Prompt:         unit.Input("prompt"),
				EnvironmentRef: environmentRef,
				CharacterRefs:  characterRefs,
				OutputDir:      s.layout.SceneDir(unit.SceneIndex, batch),
				ImageCount:     s.cfg.Generation.ImagesPerScene,
			})
			if err != nil {
				return err
			}
		}
		return nil
	}
}

func (s *Sequencer) narrationAction(unit job.Unit) retry.Action {
	return func(ctx context.Context) error {
		return s.deps.Narrator.Synthesize(ctx, unit.Input("text"), unit.Artifacts[0].Path)
	}
}

func (s *Sequencer) musicAction(unit job.Unit) retry.Action {
	return func(ctx context.Context) error {
		track, err := s.deps.Music.Select(unit.Input("category"), unit.Input("seed"))
		if err != nil {
			return err
		}
		if err := fileutil.CopyFile(track, unit.Artifacts[0].Path); err != nil {
			return services.Wrap(services.ErrTransient, string(StageMusic), "copy", fmt.Sprintf("copy track %s", track), err)
		}
		return nil
	}
}

func (s *Sequencer) videoAction(unit job.Unit) retry.Action {
	return func(ctx context.Context) error {
		images := s.existingSceneImages()
		if len(images) == 0 {
			return services.Wrap(services.ErrValidation, string(StageVideo), "assemble", "no scene images available for assembly", nil)
		}
		narration := s.existingPaths(s.builder.NarrationUnits())
		if len(narration) == 0 {
			return services.Wrap(services.ErrValidation, string(StageVideo), "assemble", "no narration audio available for assembly", nil)
		}
		musicFile := ""
		if fileExists(s.layout.MusicFile()) {
			musicFile = s.layout.MusicFile()
		}
		return s.deps.Assembler.Assemble(ctx, AssemblyRequest{
			SceneImages:     images,
			NarrationFiles:  narration,
			MusicFile:       musicFile,
			SecondsPerImage: s.cfg.Video.SecondsPerImage,
			MusicGainDB:     s.cfg.Video.MusicGainDB,
			OutputPath:      unit.Artifacts[0].Path,
		})
	}
}

func (s *Sequencer) metadataAction(unit job.Unit) retry.Action {
	return func(ctx context.Context) error {
		secondsPerScene := s.cfg.Video.SecondsPerImage * float64(s.cfg.Generation.ImagesPerScene*s.cfg.Generation.BatchesPerScene)
		meta, err := metadata.Build(s.story, metadata.Options{
			SecondsPerScene: secondsPerScene,
			CategoryID:      s.cfg.Upload.CategoryID,
		})
		if err != nil {
			return err
		}
		if err := meta.Save(s.layout.MetadataFile()); err != nil {
			return err
		}

		images := s.existingSceneImages()
		if len(images) == 0 {
			return services.Wrap(services.ErrValidation, string(StageMetadata), "thumbnail", "no scene image available for thumbnail", nil)
		}
		return s.deps.Assembler.Thumbnail(ctx, images[0], s.layout.ThumbnailFile())
	}
}

func (s *Sequencer) uploadAction(unit job.Unit) retry.Action {
	return func(ctx context.Context) error {
		meta, err := metadata.Load(s.layout.MetadataFile())
		if err != nil {
			return err
		}

		var publishAt time.Time
		switch {
		case s.opts.UploadNow:
			// Immediate publish, no slot booked.
		case s.opts.ScheduleHours > 0:
			publishAt = time.Now().UTC().Add(time.Duration(s.opts.ScheduleHours) * time.Hour)
		case s.deps.Tracker != nil:
			publishAt, err = s.deps.Tracker.Next()
			if err != nil {
				return err
			}
		}

		videoID, err := s.deps.Uploader.Upload(ctx, UploadRequest{
			VideoPath:     s.layout.VideoFile(),
			ThumbnailPath: s.layout.ThumbnailFile(),
			Title:         meta.Title,
			Description:   meta.Description,
			Tags:          meta.Tags,
			CategoryID:    meta.CategoryID,
			Privacy:       s.cfg.Upload.Privacy,
			PublishAt:     publishAt,
		})
		if err != nil {
			return err
		}

		if !publishAt.IsZero() && s.deps.Tracker != nil {
			if err := s.deps.Tracker.Record(publishAt, videoID, meta.Title); err != nil {
				return err
			}
		}

		receipt := Receipt{
			VideoID:     videoID,
			PublishedAt: publishAt,
			UploadedAt:  time.Now().UTC(),
			Title:       meta.Title,
		}
		data, err := json.MarshalIndent(receipt, "", "  ")
		if err != nil {
			return services.Wrap(services.ErrValidation, string(StageUpload), "receipt", "encode upload receipt", err)
		}
		if err := fileutil.WriteFileAtomic(unit.Artifacts[0].Path, append(data, '\n'), 0o644); err != nil {
			return services.Wrap(services.ErrTransient, string(StageUpload), "receipt", "write upload receipt", err)
		}
		return nil
	}
}

// existingSceneImages returns, in scene then batch then image order,
// every expected scene image currently on disk. Assembly consumes what
// exists rather than re-validating upstream stages.
func (s *Sequencer) existingSceneImages() []string {
	var images []string
	for _, unit := range s.builder.SceneUnits() {
		for _, path := range unit.ArtifactPaths() {
			if fileExists(path) {
				images = append(images, path)
			}
		}
	}
	return images
}

func (s *Sequencer) existingPaths(units []job.Unit) []string {
	var paths []string
	for _, unit := range units {
		for _, path := range unit.ArtifactPaths() {
			if fileExists(path) {
				paths = append(paths, path)
			}
		}
	}
	return paths
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func splitComma(value string) []string {
	var parts []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			parts = append(parts, part)
		}
	}
	return parts
}

func stageNames(stages []Stage) []string {
	names := make([]string, 0, len(stages))
	for _, stage := range stages {
		names = append(names, string(stage))
	}
	return names
}
