package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"dharma/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantDownloads := filepath.Join(tempHome, ".local", "share", "dharma", "downloads")
	if cfg.Paths.DownloadsDir != wantDownloads {
		t.Fatalf("unexpected downloads dir: got %q want %q", cfg.Paths.DownloadsDir, wantDownloads)
	}
	if cfg.Paths.DatabasePath != filepath.Join(tempHome, ".local", "share", "dharma", "transcriptions.db") {
		t.Fatalf("unexpected database path: %q", cfg.Paths.DatabasePath)
	}
	if cfg.Paths.APIBind != "0.0.0.0:5000" {
		t.Fatalf("unexpected api bind: %q", cfg.Paths.APIBind)
	}
	if cfg.Transcriber.Engine != config.EngineWhisper {
		t.Fatalf("expected whisper engine by default, got %q", cfg.Transcriber.Engine)
	}
	if cfg.Transcriber.Model != "base" {
		t.Fatalf("expected base model by default, got %q", cfg.Transcriber.Model)
	}
	if cfg.Fetcher.AudioChannels != 1 {
		t.Fatalf("expected mono audio by default, got %d", cfg.Fetcher.AudioChannels)
	}
	if cfg.Fetcher.FFmpegLocation != "" {
		t.Fatalf("expected empty ffmpeg location, got %q", cfg.Fetcher.FFmpegLocation)
	}
	if cfg.Pipeline.CleanupOnFailure {
		t.Fatal("expected cleanup on failure disabled by default")
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.DownloadsDir, cfg.Paths.LogDir, filepath.Dir(cfg.Paths.DatabasePath)} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "dharma.toml")

	type payload struct {
		Paths struct {
			DownloadsDir string `toml:"downloads_dir"`
		} `toml:"paths"`
		Transcriber struct {
			Engine string `toml:"engine"`
			Model  string `toml:"model"`
		} `toml:"transcriber"`
		Pipeline struct {
			CleanupOnFailure bool `toml:"cleanup_on_failure"`
		} `toml:"pipeline"`
	}
	custom := payload{}
	custom.Paths.DownloadsDir = filepath.Join(tempDir, "dl")
	custom.Transcriber.Engine = " WhisperX "
	custom.Transcriber.Model = "small"
	custom.Pipeline.CleanupOnFailure = true
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.Paths.DownloadsDir != filepath.Join(tempDir, "dl") {
		t.Fatalf("unexpected downloads dir %q", cfg.Paths.DownloadsDir)
	}
	if cfg.Transcriber.Engine != config.EngineWhisperX {
		t.Fatalf("expected engine normalized to whisperx, got %q", cfg.Transcriber.Engine)
	}
	if cfg.TranscriberBinary() != "uvx" {
		t.Fatalf("expected uvx front end for whisperx, got %q", cfg.TranscriberBinary())
	}
	if cfg.Transcriber.Model != "small" {
		t.Fatalf("expected model small, got %q", cfg.Transcriber.Model)
	}
	if !cfg.Pipeline.CleanupOnFailure {
		t.Fatal("expected cleanup on failure enabled")
	}
}

func TestEnvironmentOverridesFileValues(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "dharma.toml")
	if err := os.WriteFile(configPath, []byte("[transcriber]\nmodel = \"small\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(config.EnvWhisperModel, "medium")
	t.Setenv(config.EnvFFmpegLocation, filepath.Join(tempDir, "ffmpeg"))
	t.Setenv(config.EnvAPIBind, "127.0.0.1:8080")

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Transcriber.Model != "medium" {
		t.Fatalf("expected env model override, got %q", cfg.Transcriber.Model)
	}
	if cfg.Fetcher.FFmpegLocation != filepath.Join(tempDir, "ffmpeg") {
		t.Fatalf("expected ffmpeg location from env, got %q", cfg.Fetcher.FFmpegLocation)
	}
	if cfg.Paths.APIBind != "127.0.0.1:8080" {
		t.Fatalf("expected bind from env, got %q", cfg.Paths.APIBind)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "dharma.toml")
	if err := os.WriteFile(configPath, []byte("[paths]\nstaging_dir = \"/tmp\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(configPath); err == nil {
		t.Fatal("expected unknown key to fail parsing")
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"engine", func(c *config.Config) { c.Transcriber.Engine = "vosk" }, "transcriber.engine"},
		{"channels", func(c *config.Config) { c.Fetcher.AudioChannels = 6 }, "fetcher.audio_channels"},
		{"codec", func(c *config.Config) { c.Fetcher.AudioCodec = "wma" }, "fetcher.audio_codec"},
		{"placeholder", func(c *config.Config) { c.Fetcher.PlaceholderTitle = "a/b" }, "fetcher.placeholder_title"},
		{"bind", func(c *config.Config) { c.Paths.APIBind = "nope" }, "paths.api_bind"},
		{"log format", func(c *config.Config) { c.Logging.Format = "xml" }, "logging.format"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected %q in error, got %v", tc.want, err)
			}
		})
	}
}

func TestCreateSampleRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}
	t.Setenv("HOME", t.TempDir())
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("sample config should load cleanly: %v", err)
	}
	if !exists {
		t.Fatal("expected sample config to exist")
	}
	if cfg.Fetcher.AudioCodec != "mp3" {
		t.Fatalf("unexpected codec from sample: %q", cfg.Fetcher.AudioCodec)
	}
}
