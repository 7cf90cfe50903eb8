package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"storyreel/internal/config"
	"storyreel/internal/report"
)

const userAgent = "Storyreel-Go/0.1.0"

// Service defines the notification surface exposed to the pipeline.
type Service interface {
	NotifyRunStarted(ctx context.Context, storyTitle string) error
	NotifyStageCompleted(ctx context.Context, stage string) error
	NotifyRunCompleted(ctx context.Context, summary report.Summary) error
	NotifyUploadScheduled(ctx context.Context, title string, publishAt time.Time) error
	NotifyError(ctx context.Context, err error, context string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when
// configured. When no ntfy topic is configured, a noop implementation
// is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) NotifyRunStarted(ctx context.Context, storyTitle string) error {
	data := payload{
		title:   "Storyreel - Run Started",
		message: fmt.Sprintf("Started pipeline run: %s", strings.TrimSpace(storyTitle)),
		tags:    []string{"storyreel", "run", "started"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyStageCompleted(ctx context.Context, stage string) error {
	data := payload{
		title:   "Storyreel - Stage Complete",
		message: fmt.Sprintf("Stage complete: %s", strings.TrimSpace(stage)),
		tags:    []string{"storyreel", "stage", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyRunCompleted(ctx context.Context, summary report.Summary) error {
	duration := summary.Duration.Round(time.Second)
	if duration < 0 {
		duration = 0
	}

	var title, message string
	if summary.Clean() {
		title = "Storyreel - Run Complete"
		message = fmt.Sprintf("Run complete: %d done, %d skipped in %s", summary.Succeeded, summary.Skipped, duration)
	} else {
		title = "Storyreel - Run Complete (with errors)"
		message = fmt.Sprintf("Run complete: %d done, %d skipped, %d failed (%s) in %s",
			summary.Succeeded, summary.Skipped, summary.Failed,
			strings.Join(summary.FailedIdentities, ", "), duration)
	}

	data := payload{
		title:    title,
		message:  message,
		tags:     []string{"storyreel", "run", "completed"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyUploadScheduled(ctx context.Context, title string, publishAt time.Time) error {
	data := payload{
		title:   "Storyreel - Upload Scheduled",
		message: fmt.Sprintf("Scheduled %s for %s", strings.TrimSpace(title), publishAt.UTC().Format(time.RFC3339)),
		tags:    []string{"storyreel", "upload", "scheduled"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	var builder strings.Builder
	builder.WriteString("Error")
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		builder.WriteString(" in ")
		builder.WriteString(contextLabel)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	data := payload{
		title:    "Storyreel - Error",
		message:  builder.String(),
		tags:     []string{"storyreel", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Storyreel - Test",
		message:  "Notification system test",
		tags:     []string{"storyreel", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyRunStarted(context.Context, string) error                  { return nil }
func (noopService) NotifyStageCompleted(context.Context, string) error              { return nil }
func (noopService) NotifyRunCompleted(context.Context, report.Summary) error        { return nil }
func (noopService) NotifyUploadScheduled(context.Context, string, time.Time) error  { return nil }
func (noopService) NotifyError(context.Context, error, string) error                { return nil }
func (noopService) TestNotification(context.Context) error                          { return nil }
