// Package serverrun wires the transcription runtime and hosts the HTTP server
// until the process is signalled.
package serverrun

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"dharma/internal/config"
	"dharma/internal/fetcher"
	"dharma/internal/logging"
	"dharma/internal/pipeline"
	"dharma/internal/preflight"
	"dharma/internal/transcriber"
	"dharma/internal/transcripts"
	"dharma/internal/web"
)

// Options configures server process runtime behavior.
type Options struct {
	LogLevel    string
	Development bool
	// ConsoleOutput is "stdout" (default) or "stderr".
	ConsoleOutput string
	// PreloadModel resolves the transcription engine before accepting requests.
	PreloadModel bool
}

// Runtime holds the components shared by the server and one-shot CLI runs.
type Runtime struct {
	Store        *transcripts.Store
	Fetcher      *fetcher.Fetcher
	Transcriber  *transcriber.Transcriber
	Orchestrator *pipeline.Orchestrator
}

// NewRuntime opens the transcript store and builds the pipeline around it.
func NewRuntime(cfg *config.Config, logger *slog.Logger) (*Runtime, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	store, err := transcripts.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open transcript store: %w", err)
	}
	f := fetcher.New(cfg, nil, logger)
	t := transcriber.New(cfg, logger)
	return &Runtime{
		Store:        store,
		Fetcher:      f,
		Transcriber:  t,
		Orchestrator: pipeline.New(cfg, f, t, store, logger),
	}, nil
}

// Close releases the transcript store.
func (r *Runtime) Close() error {
	if r == nil || r.Store == nil {
		return nil
	}
	return r.Store.Close()
}

// NewLogger builds the process logger, honoring a level override.
func NewLogger(cfg *config.Config, opts Options) (*slog.Logger, error) {
	return logging.NewFromConfig(cfg, logging.ConfigOverrides{
		Level:       opts.LogLevel,
		Console:     opts.ConsoleOutput,
		Development: opts.Development,
	})
}

// Run starts the dharma server and blocks until cmdCtx is cancelled or the
// process receives SIGINT/SIGTERM.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("ensure directories: %w", err)
	}

	logger, err := NewLogger(cfg, opts)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	logDependencySnapshot(logger, cfg)
	for _, failed := range preflight.Failed(preflight.RunAll(signalCtx, cfg)) {
		logging.WarnWithContext(logger, "preflight check failed", "preflight_failed",
			logging.String("check", failed.Name),
			logging.String("detail", failed.Detail),
			logging.String(logging.FieldErrorHint, "fix directory permissions in the [paths] config section"),
			logging.String(logging.FieldImpact, "transcription runs may fail"),
		)
	}

	rt, err := NewRuntime(cfg, logger)
	if err != nil {
		logger.Error("open transcript store", logging.Error(err))
		return err
	}
	defer rt.Close()

	if opts.PreloadModel {
		if err := rt.Transcriber.Load(signalCtx); err != nil {
			logging.WarnWithContext(logger, "transcription engine unavailable", "model_load_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "install the configured engine or fix transcriber.binary"),
				logging.String(logging.FieldImpact, "process requests will fail at the transcribing stage"),
			)
		}
	}

	srv, err := web.New(cfg, rt.Orchestrator, rt.Store, logger)
	if err != nil {
		return fmt.Errorf("create web server: %w", err)
	}
	if err := srv.Start(signalCtx); err != nil {
		return fmt.Errorf("start web server: %w", err)
	}
	// Stop drains in-flight runs before the deferred store close.
	defer srv.Stop()

	pidPath := filepath.Join(cfg.Paths.LogDir, "dharma.pid")
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	<-signalCtx.Done()
	logger.Info("dharma server shutting down", logging.String(logging.FieldEventType, "server_shutdown"))
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}

func logDependencySnapshot(logger *slog.Logger, cfg *config.Config) {
	if logger == nil || cfg == nil {
		return
	}
	ytdlp := cfg.YtDlpBinary()
	engine := cfg.TranscriberBinary()
	logger.Info("dependency snapshot",
		logging.String(logging.FieldEventType, "dependency_snapshot"),
		logging.Bool("ytdlp_available", binaryAvailable(ytdlp)),
		logging.String("ytdlp_binary", ytdlp),
		logging.String("ffmpeg_location", cfg.Fetcher.FFmpegLocation),
		logging.String("transcriber_engine", cfg.Transcriber.Engine),
		logging.Bool("transcriber_available", binaryAvailable(engine)),
		logging.String("transcriber_binary", engine),
		logging.String("transcriber_model", cfg.Transcriber.Model),
		logging.Bool("trained_model_configured", strings.TrimSpace(cfg.Transcriber.TrainedModelPath) != ""),
		logging.Bool("cuda_enabled", cfg.Transcriber.CUDAEnabled),
		logging.Bool("cleanup_on_failure", cfg.Pipeline.CleanupOnFailure),
	)
}

func binaryAvailable(name string) bool {
	if strings.TrimSpace(name) == "" {
		return false
	}
	_, err := exec.LookPath(name)
	return err == nil
}
