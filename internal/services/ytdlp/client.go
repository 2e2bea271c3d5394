package ytdlp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// CommandRunner executes name with args and returns captured stdout and stderr.
type CommandRunner func(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)

// Client invokes yt-dlp.
type Client struct {
	cfg    Config
	runner CommandRunner
}

// New constructs a client, filling empty settings with defaults.
func New(cfg Config) *Client {
	if strings.TrimSpace(cfg.Binary) == "" {
		cfg.Binary = DefaultBinary
	}
	if strings.TrimSpace(cfg.Format) == "" {
		cfg.Format = DefaultFormat
	}
	if strings.TrimSpace(cfg.AudioCodec) == "" {
		cfg.AudioCodec = DefaultAudioCodec
	}
	if strings.TrimSpace(cfg.AudioBitrate) == "" {
		cfg.AudioBitrate = DefaultAudioBitrate
	}
	if cfg.AudioChannels <= 0 {
		cfg.AudioChannels = DefaultAudioChannels
	}
	return &Client{cfg: cfg, runner: runCommand}
}

// WithCommandRunner sets a custom command runner (for testing).
func (c *Client) WithCommandRunner(runner CommandRunner) {
	if runner == nil {
		runner = runCommand
	}
	c.runner = runner
}

// Binary returns the configured yt-dlp executable.
func (c *Client) Binary() string {
	return c.cfg.Binary
}

// RequestedDownload describes one output file reported by yt-dlp.
type RequestedDownload struct {
	Filepath string `json:"filepath"`
	Ext      string `json:"ext"`
}

// Metadata is the subset of the yt-dlp info document the client relies on.
type Metadata struct {
	ID                 string              `json:"id"`
	Title              string              `json:"title"`
	Ext                string              `json:"ext"`
	Duration           float64             `json:"duration"`
	WebpageURL         string              `json:"webpage_url"`
	Filename           string              `json:"_filename"`
	RequestedDownloads []RequestedDownload `json:"requested_downloads"`
}

// DownloadResult describes a completed download.
type DownloadResult struct {
	// Path is the absolute path of the transcoded audio file.
	Path string
	// Title is the raw title reported by the source; may be empty.
	Title string
	// Metadata is the decoded info document.
	Metadata Metadata
}

// ToolError carries the exit failure and the stderr tail of a yt-dlp run.
type ToolError struct {
	Err    error
	Stderr string
}

func (e *ToolError) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("yt-dlp: %v", e.Err)
	}
	return fmt.Sprintf("yt-dlp: %v: %s", e.Err, e.Stderr)
}

func (e *ToolError) Unwrap() error { return e.Err }

// Download fetches the audio for url into outputDir.
func (c *Client) Download(ctx context.Context, url, outputDir string) (DownloadResult, error) {
	var result DownloadResult
	url = strings.TrimSpace(url)
	if url == "" {
		return result, errors.New("download: url required")
	}
	if outputDir == "" {
		return result, errors.New("download: output directory required")
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return result, fmt.Errorf("download: ensure output dir: %w", err)
	}

	stdout, stderr, err := c.runner(ctx, c.cfg.Binary, c.BuildArgs(url, outputDir)...)
	if err != nil {
		return result, &ToolError{Err: err, Stderr: tail(string(stderr), stderrTailLimit)}
	}

	meta, err := ParseMetadata(stdout)
	if err != nil {
		return result, err
	}
	result.Metadata = meta
	result.Title = meta.Title

	path, err := c.resolveOutputPath(meta, outputDir)
	if err != nil {
		return result, err
	}
	result.Path = path
	return result, nil
}

// BuildArgs constructs the yt-dlp argument list for an audio-only download.
func (c *Client) BuildArgs(url, outputDir string) []string {
	args := []string{
		"--format", c.cfg.Format,
		"--extract-audio",
		"--audio-format", c.cfg.AudioCodec,
		"--audio-quality", c.cfg.AudioBitrate,
		"--postprocessor-args", "ExtractAudio:-ac " + strconv.Itoa(c.cfg.AudioChannels),
		"--no-playlist",
		"--no-progress",
		"--no-warnings",
		"--dump-single-json",
		"--no-simulate",
		"--paths", outputDir,
		"--output", OutputTemplate,
	}
	if loc := strings.TrimSpace(c.cfg.FFmpegLocation); loc != "" {
		args = append(args, "--ffmpeg-location", loc)
	}
	return append(args, "--", url)
}

// ParseMetadata decodes the JSON document yt-dlp prints with --dump-single-json.
// Progress noise before the document is ignored.
func ParseMetadata(stdout []byte) (Metadata, error) {
	var meta Metadata
	trimmed := bytes.TrimSpace(stdout)
	if start := bytes.IndexByte(trimmed, '{'); start > 0 {
		trimmed = trimmed[start:]
	}
	if len(trimmed) == 0 {
		return meta, errors.New("yt-dlp: empty metadata output")
	}
	if err := json.Unmarshal(trimmed, &meta); err != nil {
		return meta, fmt.Errorf("parse yt-dlp metadata: %w", err)
	}
	return meta, nil
}

func (c *Client) resolveOutputPath(meta Metadata, outputDir string) (string, error) {
	candidates := make([]string, 0, len(meta.RequestedDownloads)+1)
	for _, dl := range meta.RequestedDownloads {
		if dl.Filepath != "" {
			candidates = append(candidates, dl.Filepath)
		}
	}
	if meta.ID != "" {
		candidates = append(candidates, filepath.Join(outputDir, meta.ID+"."+c.cfg.AudioCodec))
	}
	for _, candidate := range candidates {
		if !filepath.IsAbs(candidate) {
			candidate = filepath.Join(outputDir, candidate)
		}
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
	}

	// Fall back to whatever audio file landed in the directory.
	entries, err := os.ReadDir(outputDir)
	if err != nil {
		return "", fmt.Errorf("scan output dir: %w", err)
	}
	var files []string
	for _, entry := range entries {
		if entry.IsDir() || strings.HasSuffix(entry.Name(), ".part") {
			continue
		}
		files = append(files, entry.Name())
	}
	if len(files) == 0 {
		return "", errors.New("yt-dlp reported success but produced no audio file")
	}
	sort.SliceStable(files, func(i, j int) bool {
		return strings.HasSuffix(files[i], "."+c.cfg.AudioCodec) && !strings.HasSuffix(files[j], "."+c.cfg.AudioCodec)
	})
	return filepath.Join(outputDir, files[0]), nil
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.Env = append(os.Environ(), "PYTHONUTF8=1", "PYTHONIOENCODING=utf-8")
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

func tail(value string, limit int) string {
	value = strings.TrimSpace(value)
	if len(value) <= limit {
		return value
	}
	return "..." + value[len(value)-limit:]
}
