package notifications

import (
	"context"
	"log/slog"

	"storyreel/internal/logging"
	"storyreel/internal/pipeline"
	"storyreel/internal/report"
)

// PipelineNotifier adapts a Service to the pipeline's fire-and-forget
// notifier contract: delivery failures are logged, never propagated.
type PipelineNotifier struct {
	service Service
	logger  *slog.Logger
}

// NewPipelineNotifier wraps a service for pipeline use.
func NewPipelineNotifier(service Service, logger *slog.Logger) *PipelineNotifier {
	return &PipelineNotifier{
		service: service,
		logger:  logging.NewComponentLogger(logger, "notifications"),
	}
}

func (p *PipelineNotifier) RunStarted(ctx context.Context, title string) {
	if err := p.service.NotifyRunStarted(ctx, title); err != nil {
		p.logger.Warn("run-started notification failed", logging.Error(err))
	}
}

func (p *PipelineNotifier) StageCompleted(ctx context.Context, stage pipeline.Stage) {
	if err := p.service.NotifyStageCompleted(ctx, string(stage)); err != nil {
		p.logger.Warn("stage notification failed", logging.Error(err))
	}
}

func (p *PipelineNotifier) RunFinished(ctx context.Context, summary report.Summary) {
	if err := p.service.NotifyRunCompleted(ctx, summary); err != nil {
		p.logger.Warn("run-finished notification failed", logging.Error(err))
	}
}
