package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"dharma/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DownloadsDir = filepath.Join(base, "downloads")
	cfgVal.Paths.DatabasePath = filepath.Join(base, "data", "transcriptions.db")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.APIBind = "127.0.0.1:0"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithCleanupOnFailure toggles removal of partial outputs after failed runs.
func WithCleanupOnFailure(enabled bool) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Pipeline.CleanupOnFailure = enabled
	}
}

// WithEngine selects the transcription engine on the test config.
func WithEngine(engine string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Transcriber.Engine = engine
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH. If names is empty, the default external tools are
// stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"yt-dlp", "ffmpeg", "whisper"}
		}
		for _, name := range names {
			WriteStub(b.t, b.baseDir, name, "#!/bin/sh\nexit 0\n")
		}
	}
}

// WriteStub writes an executable script into <baseDir>/bin and prepends that
// directory to PATH for the rest of the test.
func WriteStub(t testing.TB, baseDir, name, script string) string {
	t.Helper()

	binDir := filepath.Join(baseDir, "bin")
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		t.Fatalf("mkdir bin dir: %v", err)
	}
	target := filepath.Join(binDir, name)
	if err := os.WriteFile(target, []byte(script), 0o755); err != nil {
		t.Fatalf("write stub %s: %v", name, err)
	}

	path := os.Getenv("PATH")
	if !pathHasPrefix(path, binDir) {
		t.Setenv("PATH", binDir+string(os.PathListSeparator)+path)
	}
	return target
}

func pathHasPrefix(path, dir string) bool {
	prefix := dir + string(os.PathListSeparator)
	return path == dir || len(path) >= len(prefix) && path[:len(prefix)] == prefix
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DownloadsDir)
}
