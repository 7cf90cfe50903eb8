// Package youtube publishes finished videos through the YouTube Data
// API v3, with OAuth credentials supplied via environment variables or
// an env file.
package youtube

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	yt "google.golang.org/api/youtube/v3"

	"storyreel/internal/config"
	"storyreel/internal/logging"
	"storyreel/internal/pipeline"
	"storyreel/internal/services"
)

// Environment variables carrying the OAuth credentials.
const (
	EnvClientID     = "YOUTUBE_CLIENT_ID"
	EnvClientSecret = "YOUTUBE_CLIENT_SECRET"
	EnvRefreshToken = "YOUTUBE_REFRESH_TOKEN"
)

// insertFunc performs the actual API upload. Replaceable for tests.
type insertFunc func(ctx context.Context, video *yt.Video, mediaPath, thumbnailPath string) (string, error)

// Uploader satisfies pipeline.Uploader.
type Uploader struct {
	cfg    *config.Config
	logger *slog.Logger
	insert insertFunc
}

// NewUploader builds an uploader. When the configured credentials file
// exists it is loaded into the environment without overriding
// variables already set.
func NewUploader(cfg *config.Config, logger *slog.Logger) *Uploader {
	if cfg.Upload.CredentialsFile != "" {
		if err := godotenv.Load(cfg.Upload.CredentialsFile); err != nil && !os.IsNotExist(err) {
			logging.NewComponentLogger(logger, "youtube").Warn("credentials file not loaded",
				logging.String("path", cfg.Upload.CredentialsFile),
				logging.Error(err),
			)
		}
	}
	return &Uploader{
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, "youtube"),
	}
}

// WithInsertFunc sets a custom API call (for testing).
func (u *Uploader) WithInsertFunc(insert func(ctx context.Context, video *yt.Video, mediaPath, thumbnailPath string) (string, error)) {
	u.insert = insert
}

// Upload publishes the video. Scheduled uploads go up private with a
// PublishAt timestamp, the platform's required shape for scheduling.
func (u *Uploader) Upload(ctx context.Context, req pipeline.UploadRequest) (string, error) {
	if _, err := os.Stat(req.VideoPath); err != nil {
		return "", services.Wrap(services.ErrValidation, "upload", "publish", fmt.Sprintf("video file %s is missing", req.VideoPath), err)
	}
	if strings.TrimSpace(req.Title) == "" {
		return "", services.Wrap(services.ErrValidation, "upload", "publish", "upload title is empty", nil)
	}

	privacy := req.Privacy
	if privacy == "" {
		privacy = "private"
	}
	status := &yt.VideoStatus{
		PrivacyStatus:           privacy,
		SelfDeclaredMadeForKids: false,
	}
	if !req.PublishAt.IsZero() {
		status.PrivacyStatus = "private"
		status.PublishAt = req.PublishAt.UTC().Format(time.RFC3339)
	}

	video := &yt.Video{
		Snippet: &yt.VideoSnippet{
			Title:       req.Title,
			Description: req.Description,
			Tags:        req.Tags,
			CategoryId:  req.CategoryID,
		},
		Status: status,
	}

	insert := u.insert
	if insert == nil {
		insert = u.apiInsert
	}
	videoID, err := insert(ctx, video, req.VideoPath, req.ThumbnailPath)
	if err != nil {
		return "", err
	}

	u.logger.Info("video uploaded",
		logging.String("video_id", videoID),
		logging.String("privacy", status.PrivacyStatus),
		logging.String("publish_at", status.PublishAt),
	)
	return videoID, nil
}

func (u *Uploader) apiInsert(ctx context.Context, video *yt.Video, mediaPath, thumbnailPath string) (string, error) {
	client, err := oauthTransport(ctx)
	if err != nil {
		return "", err
	}
	svc, err := yt.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return "", services.Wrap(services.ErrTransient, "upload", "publish", "create youtube service", err)
	}

	media, err := os.Open(mediaPath)
	if err != nil {
		return "", services.Wrap(services.ErrValidation, "upload", "publish", fmt.Sprintf("open %s", mediaPath), err)
	}
	defer media.Close()

	call := svc.Videos.Insert([]string{"snippet", "status"}, video)
	call.Media(media)
	uploaded, err := call.Context(ctx).Do()
	if err != nil {
		return "", services.Wrap(services.ErrTransient, "upload", "publish", "video insert failed", err)
	}

	if thumbnailPath != "" {
		if thumb, thumbErr := os.Open(thumbnailPath); thumbErr == nil {
			set := svc.Thumbnails.Set(uploaded.Id)
			set.Media(thumb)
			if _, setErr := set.Context(ctx).Do(); setErr != nil {
				u.logger.Warn("thumbnail upload failed",
					logging.String("video_id", uploaded.Id),
					logging.Error(setErr),
				)
			}
			thumb.Close()
		}
	}
	return uploaded.Id, nil
}

// oauthTransport builds an HTTP client from refresh-token credentials
// in the environment. Missing credentials are a configuration error,
// never retried.
func oauthTransport(ctx context.Context) (*http.Client, error) {
	clientID := os.Getenv(EnvClientID)
	clientSecret := os.Getenv(EnvClientSecret)
	refreshToken := os.Getenv(EnvRefreshToken)
	if clientID == "" || clientSecret == "" || refreshToken == "" {
		return nil, services.Wrap(services.ErrConfiguration, "upload", "auth",
			fmt.Sprintf("%s, %s, and %s must be set", EnvClientID, EnvClientSecret, EnvRefreshToken), nil)
	}

	conf := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{yt.YoutubeUploadScope, yt.YoutubeScope},
	}
	token := &oauth2.Token{
		RefreshToken: refreshToken,
		// Force an immediate refresh so a stale access token never rides along.
		Expiry: time.Now().Add(-time.Hour),
	}
	return oauth2.NewClient(ctx, conf.TokenSource(ctx, token)), nil
}
