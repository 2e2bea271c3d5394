package config

import (
	"fmt"
	"os"
	"strings"
)

// Environment variables that override file values.
const (
	EnvDownloadsDir   = "DHARMA_DOWNLOADS_DIR"
	EnvDatabasePath   = "DHARMA_DB_PATH"
	EnvAPIBind        = "DHARMA_API_BIND"
	EnvWhisperModel   = "DHARMA_WHISPER_MODEL"
	EnvFFmpegLocation = "FFMPEG_LOCATION"
)

func (c *Config) normalize() error {
	c.applyEnv()
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeFetcher(); err != nil {
		return err
	}
	if err := c.normalizeTranscriber(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) applyEnv() {
	overrides := []struct {
		env    string
		target *string
	}{
		{EnvDownloadsDir, &c.Paths.DownloadsDir},
		{EnvDatabasePath, &c.Paths.DatabasePath},
		{EnvAPIBind, &c.Paths.APIBind},
		{EnvWhisperModel, &c.Transcriber.Model},
		{EnvFFmpegLocation, &c.Fetcher.FFmpegLocation},
	}
	for _, o := range overrides {
		if value, ok := os.LookupEnv(o.env); ok && strings.TrimSpace(value) != "" {
			*o.target = strings.TrimSpace(value)
		}
	}
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DownloadsDir) == "" {
		c.Paths.DownloadsDir = defaultDownloadsDir
	}
	if c.Paths.DownloadsDir, err = expandPath(c.Paths.DownloadsDir); err != nil {
		return fmt.Errorf("paths.downloads_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.DatabasePath) == "" {
		c.Paths.DatabasePath = defaultDatabasePath
	}
	if c.Paths.DatabasePath, err = expandPath(c.Paths.DatabasePath); err != nil {
		return fmt.Errorf("paths.database_path: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	return nil
}

func (c *Config) normalizeFetcher() error {
	c.Fetcher.YtDlpBinary = strings.TrimSpace(c.Fetcher.YtDlpBinary)
	if c.Fetcher.YtDlpBinary == "" {
		c.Fetcher.YtDlpBinary = defaultYtDlpBinary
	}
	c.Fetcher.FFmpegLocation = strings.TrimSpace(c.Fetcher.FFmpegLocation)
	if c.Fetcher.FFmpegLocation != "" {
		expanded, err := expandPath(c.Fetcher.FFmpegLocation)
		if err != nil {
			return fmt.Errorf("fetcher.ffmpeg_location: %w", err)
		}
		c.Fetcher.FFmpegLocation = expanded
	}
	c.Fetcher.Format = strings.TrimSpace(c.Fetcher.Format)
	if c.Fetcher.Format == "" {
		c.Fetcher.Format = defaultFormat
	}
	c.Fetcher.AudioCodec = strings.ToLower(strings.TrimSpace(c.Fetcher.AudioCodec))
	if c.Fetcher.AudioCodec == "" {
		c.Fetcher.AudioCodec = defaultAudioCodec
	}
	c.Fetcher.AudioBitrate = strings.TrimSpace(c.Fetcher.AudioBitrate)
	if c.Fetcher.AudioBitrate == "" {
		c.Fetcher.AudioBitrate = defaultAudioBitrate
	}
	if c.Fetcher.AudioChannels == 0 {
		c.Fetcher.AudioChannels = defaultAudioChannels
	}
	if strings.TrimSpace(c.Fetcher.PlaceholderTitle) == "" {
		c.Fetcher.PlaceholderTitle = defaultPlaceholderTitle
	}
	return nil
}

func (c *Config) normalizeTranscriber() error {
	c.Transcriber.Engine = strings.ToLower(strings.TrimSpace(c.Transcriber.Engine))
	if c.Transcriber.Engine == "" {
		c.Transcriber.Engine = defaultEngine
	}
	c.Transcriber.Binary = strings.TrimSpace(c.Transcriber.Binary)
	c.Transcriber.Model = strings.TrimSpace(c.Transcriber.Model)
	if c.Transcriber.Model == "" {
		c.Transcriber.Model = defaultModel
	}
	c.Transcriber.Language = strings.ToLower(strings.TrimSpace(c.Transcriber.Language))
	if path := strings.TrimSpace(c.Transcriber.TrainedModelPath); path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return fmt.Errorf("transcriber.trained_model_path: %w", err)
		}
		c.Transcriber.TrainedModelPath = expanded
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
