package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"

	"dharma/internal/config"
	"dharma/internal/logging"
	"dharma/internal/services"
	"dharma/internal/subtitles"
	"dharma/internal/transcriber"
)

// Orchestrator runs the transcription pipeline.
type Orchestrator struct {
	fetcher          Fetcher
	transcriber      Transcriber
	store            Store
	cleanupOnFailure bool
	logger           *slog.Logger
}

// New constructs an orchestrator over the given stage implementations.
func New(cfg *config.Config, f Fetcher, t Transcriber, s Store, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		fetcher:          f,
		transcriber:      t,
		store:            s,
		cleanupOnFailure: cfg != nil && cfg.Pipeline.CleanupOnFailure,
		logger:           logging.NewComponentLogger(logger, "pipeline"),
	}
}

// Process runs one URL through every stage and reports the outcome.
func (o *Orchestrator) Process(ctx context.Context, sourceURL string) Result {
	job := Job{SourceURL: strings.TrimSpace(sourceURL), RequestID: uuid.NewString()}
	if rid, ok := services.RequestIDFromContext(ctx); ok {
		job.RequestID = rid
	} else {
		ctx = services.WithRequestID(ctx, job.RequestID)
	}
	result := Result{Stage: StageIdle, RequestID: job.RequestID}
	logger := logging.WithContext(ctx, o.logger)
	started := time.Now()

	if job.SourceURL == "" {
		return o.fail(ctx, result, StageIdle, services.Wrap(services.ErrInvalidInput, string(StageIdle), "validate url", "source url is empty", nil))
	}
	logger.Info("pipeline run started", logging.String(logging.FieldEventType, "run_start"), logging.String("url", job.SourceURL))

	var createdDir bool
	failed := func(stage Stage, err error) Result {
		if o.cleanupOnFailure && createdDir && job.Dir != "" {
			o.cleanup(ctx, job.Dir)
		}
		return o.fail(ctx, result, stage, err)
	}

	err := o.runStage(ctx, StageFetching, func(stageCtx context.Context) error {
		audio, err := o.fetcher.Fetch(stageCtx, job.SourceURL)
		if err != nil {
			return err
		}
		job.Title = audio.Title
		job.AudioPath = audio.Path
		job.Dir = audio.Dir
		createdDir = audio.Created
		return nil
	})
	if err != nil {
		return failed(StageFetching, err)
	}
	result.Title = job.Title
	result.AudioFile = job.AudioPath

	var transcript transcriber.Transcript
	err = o.runStage(ctx, StageTranscribing, func(stageCtx context.Context) error {
		out, err := o.transcriber.Transcribe(stageCtx, job.AudioPath)
		if err != nil {
			return err
		}
		transcript = out
		return nil
	})
	if err != nil {
		return failed(StageTranscribing, err)
	}

	err = o.runStage(ctx, StageFormatting, func(context.Context) error {
		outputs, err := subtitles.WriteOutputs(job.Dir, transcript.Text, transcript.Segments)
		if err != nil {
			return fmt.Errorf("%s: write outputs: %w", StageFormatting, err)
		}
		result.TranscriptFile = outputs.TranscriptPath
		result.SubtitleFile = outputs.SubtitlePath
		return nil
	})
	if err != nil {
		return failed(StageFormatting, err)
	}

	err = o.runStage(ctx, StagePersisting, func(stageCtx context.Context) error {
		id, err := o.store.Save(stageCtx, job.Title, transcript.Text)
		if err != nil {
			return services.Wrap(services.ErrStoreUnavailable, string(StagePersisting), "save transcript", job.Title, err)
		}
		result.RecordID = id
		return nil
	})
	if err != nil {
		return failed(StagePersisting, err)
	}

	result.Success = true
	result.State = StageDone
	result.Stage = StageDone
	logging.WithContext(services.WithRecordID(ctx, result.RecordID), o.logger).Info("pipeline run completed",
		logging.String(logging.FieldEventType, "run_complete"),
		logging.String("title", result.Title),
		logging.Int("segments", len(transcript.Segments)),
		logging.Duration("elapsed", time.Since(started)),
	)
	return result
}

// runStage executes fn with stage-tagged context and converts panics into errors.
func (o *Orchestrator) runStage(ctx context.Context, stage Stage, fn func(context.Context) error) (err error) {
	stageCtx := services.WithStage(ctx, string(stage))
	logger := logging.WithContext(stageCtx, o.logger)
	defer func() {
		if r := recover(); r != nil {
			logger.Error("stage panicked",
				logging.String(logging.FieldEventType, "stage_panic"),
				logging.String("panic", fmt.Sprint(r)),
				logging.String("stack", string(debug.Stack())),
			)
			err = fmt.Errorf("%s: panic: %v", stage, r)
		}
	}()

	if err := stageCtx.Err(); err != nil {
		return err
	}
	logger.Debug("stage started")
	return fn(stageCtx)
}

func (o *Orchestrator) fail(ctx context.Context, result Result, stage Stage, err error) Result {
	result.Success = false
	result.State = StageFailed
	result.Stage = stage
	result.Err = err
	logging.ErrorWithContext(logging.WithContext(services.WithStage(ctx, string(stage)), o.logger), "pipeline run failed", "run_failed",
		logging.Error(err),
		logging.String("error_kind", services.Kind(err)),
		logging.String(logging.FieldErrorHint, hintFor(stage)),
	)
	return result
}

func (o *Orchestrator) cleanup(ctx context.Context, dir string) {
	logger := logging.WithContext(ctx, o.logger)
	if err := os.RemoveAll(dir); err != nil {
		logging.WarnWithContext(logger, "failed run cleanup incomplete", "cleanup_failed",
			logging.String("path", dir),
			logging.Error(err),
			logging.String(logging.FieldImpact, "partial outputs remain in downloads folder"),
		)
		return
	}
	logger.Info("removed outputs of failed run", logging.String(logging.FieldEventType, "cleanup_complete"), logging.String("path", dir))
}

func hintFor(stage Stage) string {
	switch stage {
	case StageIdle:
		return "submit a non-empty media url"
	case StageFetching:
		return "check the url is reachable and yt-dlp/ffmpeg are installed"
	case StageTranscribing:
		return "check the whisper engine is installed and the audio file is readable"
	case StageFormatting:
		return "check the downloads folder is writable"
	case StagePersisting:
		return "check the transcript database path is writable"
	default:
		return "check logs for details"
	}
}
