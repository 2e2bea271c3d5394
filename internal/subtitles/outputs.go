package subtitles

import (
	"fmt"
	"path/filepath"

	"dharma/internal/fileutil"
)

// Output file names inside a title folder.
const (
	TranscriptFileName = "transcription.txt"
	SubtitleFileName   = "subtitles.srt"
)

// Outputs lists the files written for one transcript.
type Outputs struct {
	TranscriptPath string
	SubtitlePath   string
}

// WriteOutputs writes the plain transcript and the SRT rendering of segments
// into dir. Each file is replaced atomically.
func WriteOutputs(dir, fullText string, segments []Segment) (Outputs, error) {
	var out Outputs
	if dir == "" {
		return out, fmt.Errorf("write outputs: directory required")
	}
	transcriptPath := filepath.Join(dir, TranscriptFileName)
	if err := fileutil.WriteFileAtomic(transcriptPath, []byte(fullText), 0o644); err != nil {
		return out, fmt.Errorf("write transcript: %w", err)
	}
	subtitlePath := filepath.Join(dir, SubtitleFileName)
	if err := fileutil.WriteFileAtomic(subtitlePath, []byte(Format(segments)), 0o644); err != nil {
		return out, fmt.Errorf("write subtitles: %w", err)
	}
	out.TranscriptPath = transcriptPath
	out.SubtitlePath = subtitlePath
	return out, nil
}
