package youtube_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	yt "google.golang.org/api/youtube/v3"

	"storyreel/internal/pipeline"
	"storyreel/internal/services"
	"storyreel/internal/services/youtube"
	"storyreel/internal/testsupport"
)

func newUploader(t *testing.T) (*youtube.Uploader, pipeline.UploadRequest) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	uploader := youtube.NewUploader(cfg, nil)

	videoPath := filepath.Join(cfg.Paths.OutputDir, "final_video.mp4")
	testsupport.WriteArtifact(t, videoPath, 2048)
	return uploader, pipeline.UploadRequest{
		VideoPath:   videoPath,
		Title:       "Test Garden | A Cozy Bedtime Story",
		Description: "desc",
		Tags:        []string{"sleep story"},
		CategoryID:  "27",
		Privacy:     "public",
	}
}

func TestUploadImmediateKeepsPrivacy(t *testing.T) {
	uploader, req := newUploader(t)

	var captured *yt.Video
	uploader.WithInsertFunc(func(_ context.Context, video *yt.Video, mediaPath, thumbnailPath string) (string, error) {
		captured = video
		return "vid-123", nil
	})

	id, err := uploader.Upload(context.Background(), req)
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
	if id != "vid-123" {
		t.Fatalf("unexpected video id %q", id)
	}
	if captured.Status.PrivacyStatus != "public" || captured.Status.PublishAt != "" {
		t.Fatalf("immediate upload must keep requested privacy, got %+v", captured.Status)
	}
	if captured.Snippet.Title != req.Title || captured.Snippet.CategoryId != "27" {
		t.Fatalf("unexpected snippet %+v", captured.Snippet)
	}
}

func TestUploadScheduledGoesPrivateWithPublishAt(t *testing.T) {
	uploader, req := newUploader(t)
	req.PublishAt = time.Date(2026, 8, 25, 23, 0, 0, 0, time.UTC)

	var captured *yt.Video
	uploader.WithInsertFunc(func(_ context.Context, video *yt.Video, _, _ string) (string, error) {
		captured = video
		return "vid-456", nil
	})

	if _, err := uploader.Upload(context.Background(), req); err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
	if captured.Status.PrivacyStatus != "private" {
		t.Fatalf("scheduled upload must be private, got %q", captured.Status.PrivacyStatus)
	}
	if captured.Status.PublishAt != "2026-08-25T23:00:00Z" {
		t.Fatalf("unexpected publish time %q", captured.Status.PublishAt)
	}
}

func TestUploadRejectsMissingVideo(t *testing.T) {
	uploader, req := newUploader(t)
	req.VideoPath = filepath.Join(t.TempDir(), "absent.mp4")
	_, err := uploader.Upload(context.Background(), req)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUploadRejectsEmptyTitle(t *testing.T) {
	uploader, req := newUploader(t)
	req.Title = " "
	_, err := uploader.Upload(context.Background(), req)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
