package config

import (
	"errors"
	"fmt"
	"net"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateFetcher(); err != nil {
		return err
	}
	if err := c.validateTranscriber(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.DownloadsDir) == "" {
		return errors.New("paths.downloads_dir must be set")
	}
	if strings.TrimSpace(c.Paths.DatabasePath) == "" {
		return errors.New("paths.database_path must be set")
	}
	if _, _, err := net.SplitHostPort(c.Paths.APIBind); err != nil {
		return fmt.Errorf("paths.api_bind must be host:port: %w", err)
	}
	return nil
}

func (c *Config) validateFetcher() error {
	if c.Fetcher.AudioChannels < 1 || c.Fetcher.AudioChannels > 2 {
		return fmt.Errorf("fetcher.audio_channels must be 1 or 2, got %d", c.Fetcher.AudioChannels)
	}
	switch c.Fetcher.AudioCodec {
	case "mp3", "m4a", "opus", "vorbis", "aac", "flac", "wav":
	default:
		return fmt.Errorf("fetcher.audio_codec: unsupported value %q", c.Fetcher.AudioCodec)
	}
	if strings.ContainsAny(c.Fetcher.PlaceholderTitle, `<>:"/\|?*`) {
		return errors.New("fetcher.placeholder_title must not contain filesystem-unsafe characters")
	}
	return nil
}

func (c *Config) validateTranscriber() error {
	switch c.Transcriber.Engine {
	case EngineWhisper, EngineWhisperX:
	default:
		return fmt.Errorf("transcriber.engine: unsupported value %q (want %q or %q)", c.Transcriber.Engine, EngineWhisper, EngineWhisperX)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
