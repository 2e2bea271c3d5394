package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains storage locations and the HTTP bind address.
type Paths struct {
	DownloadsDir string `toml:"downloads_dir"`
	DatabasePath string `toml:"database_path"`
	LogDir       string `toml:"log_dir"`
	APIBind      string `toml:"api_bind"`
}

// Fetcher contains settings for the audio extraction tool.
type Fetcher struct {
	YtDlpBinary      string `toml:"ytdlp_binary"`
	FFmpegLocation   string `toml:"ffmpeg_location"`
	Format           string `toml:"format"`
	AudioCodec       string `toml:"audio_codec"`
	AudioBitrate     string `toml:"audio_bitrate"`
	AudioChannels    int    `toml:"audio_channels"`
	PlaceholderTitle string `toml:"placeholder_title"`
}

// Transcriber contains settings for the speech recognition engine.
type Transcriber struct {
	// Engine selects the command line front end: "whisper" or "whisperx".
	Engine string `toml:"engine"`
	// Binary overrides the executable used for the engine.
	Binary string `toml:"binary"`
	// Model is the pretrained model name (e.g. "base", "small").
	Model string `toml:"model"`
	// TrainedModelPath points at a fine-tuned checkpoint; it wins over Model when the file exists.
	TrainedModelPath string `toml:"trained_model_path"`
	Language         string `toml:"language"`
	CUDAEnabled      bool   `toml:"cuda_enabled"`
}

// Pipeline contains run policy settings.
type Pipeline struct {
	CleanupOnFailure bool `toml:"cleanup_on_failure"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for dharma.
//
// Configuration sections by subsystem:
//   - Paths: downloads root, transcript database, logs, bind address
//   - Fetcher: yt-dlp and ffmpeg invocation
//   - Transcriber: whisper engine and model selection
//   - Pipeline: failure cleanup policy
//   - Logging: log format and level
type Config struct {
	Paths       Paths       `toml:"paths"`
	Fetcher     Fetcher     `toml:"fetcher"`
	Transcriber Transcriber `toml:"transcriber"`
	Pipeline    Pipeline    `toml:"pipeline"`
	Logging     Logging     `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file).DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("dharma.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the downloads root, the log directory, and the
// directory holding the transcript database.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.DownloadsDir, c.Paths.LogDir}
	if db := strings.TrimSpace(c.Paths.DatabasePath); db != "" {
		dirs = append(dirs, filepath.Dir(db))
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// LockPath returns the single-instance lock file used by the server.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.LogDir, "dharma.lock")
}

// LogPath returns the persistent log file location.
func (c *Config) LogPath() string {
	return filepath.Join(c.Paths.LogDir, "dharma.log")
}

// YtDlpBinary returns the configured yt-dlp executable.
func (c *Config) YtDlpBinary() string {
	if bin := strings.TrimSpace(c.Fetcher.YtDlpBinary); bin != "" {
		return bin
	}
	return defaultYtDlpBinary
}

// TranscriberBinary returns the executable that fronts the configured engine.
func (c *Config) TranscriberBinary() string {
	if bin := strings.TrimSpace(c.Transcriber.Binary); bin != "" {
		return bin
	}
	if c.Transcriber.Engine == EngineWhisperX {
		return "uvx"
	}
	return "whisper"
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
