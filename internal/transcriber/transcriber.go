// Package transcriber converts an audio file into full text plus timed
// segments using a Whisper engine.
//
// The Transcriber owns the model handle. It is resolved once per process on
// first use or through Load; a failed load is remembered and reported on every
// later call.
package transcriber

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"sort"
	"strings"
	"sync"
	"time"

	"dharma/internal/config"
	"dharma/internal/logging"
	"dharma/internal/services"
	"dharma/internal/services/whisper"
	"dharma/internal/subtitles"
)

// Transcript is the recognized text of one audio file.
type Transcript struct {
	Text     string
	Language string
	Segments []subtitles.Segment
}

// Option customizes a Transcriber.
type Option func(*Transcriber)

// WithCommandRunner routes engine invocations through runner (for testing).
func WithCommandRunner(runner whisper.CommandRunner) Option {
	return func(t *Transcriber) {
		t.service.WithCommandRunner(runner)
	}
}

// WithLookPath overrides binary resolution (for testing).
func WithLookPath(fn func(string) (string, error)) Option {
	return func(t *Transcriber) {
		if fn != nil {
			t.lookPath = fn
		}
	}
}

// Transcriber runs whole-file inference through a Whisper engine.
type Transcriber struct {
	service          *whisper.Service
	trainedModelPath string
	lookPath         func(string) (string, error)
	logger           *slog.Logger

	once    sync.Once
	loadErr error
}

// New constructs a transcriber from configuration. The model is not loaded
// until Load or the first Transcribe call.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) *Transcriber {
	t := &Transcriber{
		service: whisper.NewService(whisper.Config{
			Engine:      cfg.Transcriber.Engine,
			Binary:      cfg.Transcriber.Binary,
			Model:       cfg.Transcriber.Model,
			Language:    cfg.Transcriber.Language,
			CUDAEnabled: cfg.Transcriber.CUDAEnabled,
		}),
		trainedModelPath: strings.TrimSpace(cfg.Transcriber.TrainedModelPath),
		lookPath:         exec.LookPath,
		logger:           logging.NewComponentLogger(logger, "transcriber"),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Load resolves the engine binary and model once. Subsequent calls return the
// cached outcome.
func (t *Transcriber) Load(ctx context.Context) error {
	t.once.Do(func() {
		t.loadErr = t.load(ctx)
	})
	return t.loadErr
}

func (t *Transcriber) load(ctx context.Context) error {
	logger := logging.WithContext(ctx, t.logger)
	binary := t.service.Binary()
	if _, err := t.lookPath(binary); err != nil {
		return services.Wrap(services.ErrTranscriptionFailed, "transcribing", "load model",
			fmt.Sprintf("engine binary %q not available", binary), err)
	}

	source := "pretrained"
	if t.trainedModelPath != "" {
		if info, err := os.Stat(t.trainedModelPath); err == nil && !info.IsDir() {
			t.service.SetModel(t.trainedModelPath)
			source = "trained"
		} else {
			logger.Info("trained model not found; using pretrained model",
				logging.String(logging.FieldEventType, "trained_model_missing"),
				logging.String("trained_model_path", t.trainedModelPath),
				logging.String("model", t.service.Model()),
			)
		}
	}

	logger.Info("transcription model ready",
		logging.String(logging.FieldEventType, "model_loaded"),
		logging.String("engine", t.service.Engine()),
		logging.String("model", t.service.Model()),
		logging.String("model_source", source),
		logging.Bool("cuda", t.service.CUDAEnabled()),
	)
	return nil
}

// Model returns the resolved model name or checkpoint path.
func (t *Transcriber) Model() string {
	return t.service.Model()
}

// Engine returns the configured engine name.
func (t *Transcriber) Engine() string {
	return t.service.Engine()
}

// Transcribe runs one inference over audioPath.
func (t *Transcriber) Transcribe(ctx context.Context, audioPath string) (Transcript, error) {
	var transcript Transcript
	if strings.TrimSpace(audioPath) == "" {
		return transcript, services.Wrap(services.ErrInvalidInput, "transcribing", "validate input", "audio path is empty", nil)
	}
	info, err := os.Stat(audioPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return transcript, services.Wrap(services.ErrNotFound, "transcribing", "open audio", audioPath, err)
		}
		return transcript, services.Wrap(services.ErrTranscriptionFailed, "transcribing", "open audio", audioPath, err)
	}
	if info.IsDir() {
		return transcript, services.Wrap(services.ErrNotFound, "transcribing", "open audio", audioPath+" is a directory", nil)
	}

	if err := t.Load(ctx); err != nil {
		return transcript, err
	}

	workDir, err := os.MkdirTemp("", "dharma-transcribe-*")
	if err != nil {
		return transcript, services.Wrap(services.ErrTranscriptionFailed, "transcribing", "create work dir", "", err)
	}
	defer os.RemoveAll(workDir)

	logger := logging.WithContext(ctx, t.logger)
	started := time.Now()
	logger.Info("transcription started",
		logging.String(logging.FieldEventType, "transcribe_start"),
		logging.String("audio_file", audioPath),
		logging.String("model", t.service.Model()),
	)

	result, err := t.service.TranscribeFile(ctx, audioPath, workDir)
	if err != nil {
		return transcript, services.Wrap(services.ErrTranscriptionFailed, "transcribing", "run engine", t.service.Engine(), err)
	}

	transcript.Segments = NormalizeSegments(result.Segments)
	transcript.Text = strings.TrimSpace(result.Text)
	if transcript.Text == "" {
		transcript.Text = whisper.JoinText(result.Segments)
	}
	transcript.Language = result.Language

	logger.Info("transcription completed",
		logging.String(logging.FieldEventType, "transcribe_complete"),
		logging.Int("segments", len(transcript.Segments)),
		logging.String("language", transcript.Language),
		logging.Duration("elapsed", time.Since(started)),
	)
	return transcript, nil
}

// NormalizeSegments converts engine segments into ordered subtitle segments.
// Blank segments are dropped, negative starts clamp to zero, ends clamp up to
// their start, and segments are stably sorted by start. Indices are reassigned
// from 1.
func NormalizeSegments(raw []whisper.Segment) []subtitles.Segment {
	segments := make([]subtitles.Segment, 0, len(raw))
	for _, seg := range raw {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		start := seg.Start
		if start < 0 {
			start = 0
		}
		end := seg.End
		if end < start {
			end = start
		}
		segments = append(segments, subtitles.Segment{Start: start, End: end, Text: text})
	}
	sort.SliceStable(segments, func(i, j int) bool {
		return segments[i].Start < segments[j].Start
	})
	for i := range segments {
		segments[i].Index = i + 1
	}
	return segments
}
