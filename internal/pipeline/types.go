package pipeline

import (
	"context"

	"dharma/internal/fetcher"
	"dharma/internal/services"
	"dharma/internal/transcriber"
)

// Stage names a step of a run.
type Stage string

// Run stages in execution order.
const (
	StageIdle         Stage = "idle"
	StageFetching     Stage = "fetching"
	StageTranscribing Stage = "transcribing"
	StageFormatting   Stage = "formatting"
	StagePersisting   Stage = "persisting"
	StageDone         Stage = "done"
	StageFailed       Stage = "failed"
)

func (s Stage) String() string { return string(s) }

// Fetcher downloads audio for a URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (fetcher.Audio, error)
}

// Transcriber converts an audio file into text and segments.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (transcriber.Transcript, error)
}

// Store persists completed transcripts.
type Store interface {
	Save(ctx context.Context, title, content string) (int64, error)
}

// Job is the transient state of one run.
type Job struct {
	SourceURL string
	RequestID string
	Title     string
	AudioPath string
	Dir       string
}

// Result is the uniform outcome of a run. State is StageDone or StageFailed.
// On failure Stage names the step that failed and Err carries the cause.
type Result struct {
	Success        bool
	State          Stage
	Stage          Stage
	RequestID      string
	Title          string
	RecordID       int64
	AudioFile      string
	TranscriptFile string
	SubtitleFile   string
	Err            error
}

// ErrorMessage returns the failure text, or "" on success.
func (r Result) ErrorMessage() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

// ErrorKind returns the short error classification, or "" on success.
func (r Result) ErrorKind() string {
	return services.Kind(r.Err)
}
