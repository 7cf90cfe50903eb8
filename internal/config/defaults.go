package config

const (
	defaultOutputDir       = "~/.local/share/storyreel/output"
	defaultCharactersDir   = "~/.local/share/storyreel/references/characters"
	defaultEnvironmentsDir = "~/.local/share/storyreel/references/environments"
	defaultMusicDir        = "~/.local/share/storyreel/music"
	defaultLogDir          = "~/.local/share/storyreel/logs"

	defaultImagesPerScene  = 1
	defaultBatchesPerScene = 1
	defaultMinImageBytes   = 10 * 1024
	defaultDownloadTimeout = 60
	defaultMaxRetries      = 3
	defaultRetryDelay      = 5
	defaultDriverCommand   = "whisk-driver"
	defaultStudioURL       = "https://labs.google/fx/tools/whisk"

	defaultVoice            = "en-US-AriaNeural"
	defaultNarrationRate    = "-10%"
	defaultNarrationCommand = "edge-tts"

	defaultSecondsPerImage = 4.0
	defaultMusicGainDB     = -18.0
	defaultFFmpegBinary    = "ffmpeg"

	defaultPublishHourUTC  = 23
	defaultUploadPrivacy   = "private"
	defaultCredentialsFile = "~/.config/storyreel/client_secret.json"
	defaultTokenFile       = "~/.config/storyreel/token.json"
	defaultCategoryID      = "1" // Film & Animation

	defaultLogFormat = "console"
	defaultLogLevel  = "info"

	defaultNotifyRequestTimeout = 10
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			OutputDir:       defaultOutputDir,
			CharactersDir:   defaultCharactersDir,
			EnvironmentsDir: defaultEnvironmentsDir,
			MusicDir:        defaultMusicDir,
			LogDir:          defaultLogDir,
		},
		Generation: Generation{
			ImagesPerScene:  defaultImagesPerScene,
			BatchesPerScene: defaultBatchesPerScene,
			MinImageBytes:   defaultMinImageBytes,
			DownloadTimeout: defaultDownloadTimeout,
			MaxRetries:      defaultMaxRetries,
			RetryDelay:      defaultRetryDelay,
			DriverCommand:   defaultDriverCommand,
			StudioURL:       defaultStudioURL,
		},
		Narration: Narration{
			Voice:   defaultVoice,
			Rate:    defaultNarrationRate,
			Command: defaultNarrationCommand,
		},
		Video: Video{
			SecondsPerImage: defaultSecondsPerImage,
			MusicGainDB:     defaultMusicGainDB,
			FFmpegBinary:    defaultFFmpegBinary,
		},
		Upload: Upload{
			PublishHourUTC:  defaultPublishHourUTC,
			Privacy:         defaultUploadPrivacy,
			CredentialsFile: defaultCredentialsFile,
			TokenFile:       defaultTokenFile,
			CategoryID:      defaultCategoryID,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
		},
	}
}
