package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"dharma/internal/fetcher"
	"dharma/internal/subtitles"
	"dharma/internal/transcripts"
)

func newShowCommand(ctx *commandContext) *cobra.Command {
	var srt bool
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Print a stored transcription",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(strings.TrimSpace(args[0]), 10, 64)
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid transcription id %q", args[0])
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return ctx.withStore(func(store *transcripts.Store) error {
				record, err := store.GetByID(cmd.Context(), id)
				if err != nil {
					return fmt.Errorf("load transcription: %w", err)
				}
				if record == nil {
					return fmt.Errorf("transcription %d not found", id)
				}
				if jsonOutput {
					return writeJSON(cmd, record)
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "#%d %s\n\n", record.ID, record.Title)
				fmt.Fprintln(out, strings.TrimRight(record.Content, "\n"))
				if !srt {
					return nil
				}

				fmt.Fprintln(out)
				fmt.Fprintln(out, describeSubtitles(cfg.Paths.DownloadsDir, record.Title))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&srt, "srt", false, "Summarize the subtitle file written for this title")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the record as JSON")
	return cmd
}

func describeSubtitles(downloadsDir, title string) string {
	dir, err := fetcher.TitleDir(downloadsDir, title)
	if err != nil {
		return "Subtitles: unavailable (" + err.Error() + ")"
	}
	path := filepath.Join(dir, subtitles.SubtitleFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "Subtitles: not found at " + path
		}
		return "Subtitles: unreadable (" + err.Error() + ")"
	}
	content := string(data)
	summary := fmt.Sprintf("Subtitles: %d cues (%s)", subtitles.CountCues(content), path)
	if first, last, ok := subtitles.Bounds(content); ok {
		summary += fmt.Sprintf(", %s --> %s", subtitles.FormatTime(first), subtitles.FormatTime(last))
	}
	return summary
}
