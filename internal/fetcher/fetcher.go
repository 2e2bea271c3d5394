// Package fetcher turns a media URL into a local audio file named after the
// source title.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"

	"dharma/internal/config"
	"dharma/internal/fileutil"
	"dharma/internal/logging"
	"dharma/internal/services"
	"dharma/internal/services/ytdlp"
	"dharma/internal/textutil"
)

// AudioBaseName is the file stem used for the fetched audio inside a title folder.
const AudioBaseName = "audio"

const stagingPrefix = ".incoming-"

// Downloader abstracts the extraction tool.
type Downloader interface {
	Download(ctx context.Context, url, outputDir string) (ytdlp.DownloadResult, error)
}

// Audio describes a fetched audio file.
type Audio struct {
	// Path is the final location, <downloads>/<Title>/audio.<ext>.
	Path string
	// Title is the sanitized title, usable as a folder name.
	Title string
	// Dir is the per-title folder holding Path.
	Dir string
	// Created reports whether this fetch created Dir.
	Created bool
}

// Fetcher downloads audio into the configured downloads root.
type Fetcher struct {
	downloadsDir string
	placeholder  string
	client       Downloader
	logger       *slog.Logger
}

// NewClient builds the yt-dlp client described by cfg.
func NewClient(cfg *config.Config) *ytdlp.Client {
	return ytdlp.New(ytdlp.Config{
		Binary:         cfg.YtDlpBinary(),
		FFmpegLocation: cfg.Fetcher.FFmpegLocation,
		Format:         cfg.Fetcher.Format,
		AudioCodec:     cfg.Fetcher.AudioCodec,
		AudioBitrate:   cfg.Fetcher.AudioBitrate,
		AudioChannels:  cfg.Fetcher.AudioChannels,
	})
}

// New constructs a fetcher. A nil client falls back to the yt-dlp client
// described by cfg.
func New(cfg *config.Config, client Downloader, logger *slog.Logger) *Fetcher {
	if client == nil {
		client = NewClient(cfg)
	}
	placeholder := strings.TrimSpace(cfg.Fetcher.PlaceholderTitle)
	if placeholder == "" {
		placeholder = "unknown_file"
	}
	return &Fetcher{
		downloadsDir: cfg.Paths.DownloadsDir,
		placeholder:  placeholder,
		client:       client,
		logger:       logging.NewComponentLogger(logger, "fetcher"),
	}
}

// Fetch downloads the audio behind url and moves it into the title folder.
func (f *Fetcher) Fetch(ctx context.Context, url string) (Audio, error) {
	var audio Audio
	url = strings.TrimSpace(url)
	if url == "" {
		return audio, services.Wrap(services.ErrInvalidInput, "fetching", "validate url", "source url is empty", nil)
	}

	logger := logging.WithContext(ctx, f.logger)
	if err := os.MkdirAll(f.downloadsDir, 0o755); err != nil {
		return audio, services.Wrap(services.ErrFetchFailed, "fetching", "prepare downloads", f.downloadsDir, err)
	}

	staging := filepath.Join(f.downloadsDir, stagingPrefix+uuid.NewString())
	defer func() {
		if err := os.RemoveAll(staging); err != nil {
			logging.WarnWithContext(logger, "staging cleanup failed", "staging_cleanup_failed",
				logging.String("path", staging),
				logging.Error(err),
				logging.String(logging.FieldImpact, "stale staging folder left in downloads root"),
			)
		}
	}()

	started := time.Now()
	logger.Info("audio download started", logging.String(logging.FieldEventType, "fetch_start"), logging.String("url", url))
	result, err := f.client.Download(ctx, url, staging)
	if err != nil {
		return audio, services.Wrap(services.ErrFetchFailed, "fetching", "download", url, err)
	}

	title := f.resolveTitle(result.Title)
	dir := filepath.Join(f.downloadsDir, title)
	_, statErr := os.Stat(dir)
	audio.Created = errors.Is(statErr, os.ErrNotExist)

	ext := strings.TrimPrefix(filepath.Ext(result.Path), ".")
	if ext == "" {
		ext = "mp3"
	}
	target := filepath.Join(dir, AudioBaseName+"."+ext)
	if err := fileutil.MoveFile(result.Path, target); err != nil {
		return audio, services.Wrap(services.ErrFetchFailed, "fetching", "move audio", target, err)
	}

	audio.Path = target
	audio.Title = title
	audio.Dir = dir
	logger.Info("audio download completed",
		logging.String(logging.FieldEventType, "fetch_complete"),
		logging.String("title", title),
		logging.String("audio_file", target),
		logging.Duration("elapsed", time.Since(started)),
	)
	return audio, nil
}

// resolveTitle normalizes a raw source title into a safe folder name.
func (f *Fetcher) resolveTitle(raw string) string {
	title := norm.NFC.String(raw)
	if strings.TrimSpace(title) == "" {
		title = f.placeholder
	}
	title = textutil.SanitizeFileName(title)
	if strings.Trim(title, ".") == "" {
		return textutil.SanitizeFileName(f.placeholder)
	}
	return title
}

// TitleDir returns the folder that holds outputs for a sanitized title.
func TitleDir(downloadsDir, title string) (string, error) {
	if title == "" || !textutil.IsSafeFileName(title) || strings.Trim(title, ".") == "" {
		return "", fmt.Errorf("%w: invalid title %q", services.ErrInvalidInput, title)
	}
	return filepath.Join(downloadsDir, title), nil
}
