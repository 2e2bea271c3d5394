package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"dharma/internal/pipeline"
	"dharma/internal/serverrun"
)

var errProcessFailed = errors.New("transcription run failed")

type processOutput struct {
	Success        bool   `json:"success"`
	State          string `json:"state"`
	Stage          string `json:"stage"`
	RequestID      string `json:"request_id,omitempty"`
	ID             int64  `json:"id,omitempty"`
	Title          string `json:"title,omitempty"`
	AudioFile      string `json:"audio_file,omitempty"`
	TranscriptFile string `json:"transcript_file,omitempty"`
	SubtitleFile   string `json:"subtitle_file,omitempty"`
	Error          string `json:"error,omitempty"`
	ErrorKind      string `json:"error_kind,omitempty"`
}

func newProcessOutput(result pipeline.Result) processOutput {
	return processOutput{
		Success:        result.Success,
		State:          string(result.State),
		Stage:          string(result.Stage),
		RequestID:      result.RequestID,
		ID:             result.RecordID,
		Title:          result.Title,
		AudioFile:      result.AudioFile,
		TranscriptFile: result.TranscriptFile,
		SubtitleFile:   result.SubtitleFile,
		Error:          result.ErrorMessage(),
		ErrorKind:      result.ErrorKind(),
	}
}

func newProcessCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "process <url>",
		Short: "Download, transcribe, and store a single URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := serverrun.NewLogger(cfg, serverrun.Options{
				LogLevel:      ctx.logLevel(),
				ConsoleOutput: "stderr",
			})
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			rt, err := serverrun.NewRuntime(cfg, logger)
			if err != nil {
				return err
			}
			defer rt.Close()

			result := rt.Orchestrator.Process(cmd.Context(), args[0])
			out := newProcessOutput(result)
			if jsonOutput {
				if err := writeJSON(cmd, out); err != nil {
					return err
				}
				if !result.Success {
					return errProcessFailed
				}
				return nil
			}

			w := cmd.OutOrStdout()
			if !result.Success {
				return fmt.Errorf("%w at %s: %s", errProcessFailed, out.Stage, out.Error)
			}
			fmt.Fprintf(w, "Transcribed %q (record #%d)\n", out.Title, out.ID)
			fmt.Fprintf(w, "  Audio:      %s\n", out.AudioFile)
			fmt.Fprintf(w, "  Transcript: %s\n", out.TranscriptFile)
			fmt.Fprintf(w, "  Subtitles:  %s\n", out.SubtitleFile)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the run result as JSON")
	return cmd
}
