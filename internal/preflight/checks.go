package preflight

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"dharma/internal/config"
	"dharma/internal/deps"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckSystemDeps evaluates the external tools required by the configured
// fetcher and transcription engine. The server health route and the CLI
// status command share this list.
func CheckSystemDeps(cfg *config.Config) []deps.Status {
	engineDescription := "Required for Whisper transcription"
	if cfg.Transcriber.Engine == config.EngineWhisperX {
		engineDescription = "Required for WhisperX-driven transcription"
	}
	statuses := deps.CheckBinaries([]deps.Requirement{
		{
			Name:        "yt-dlp",
			Command:     cfg.YtDlpBinary(),
			Description: "Required for audio download",
		},
		{
			Name:        "Transcriber",
			Command:     cfg.TranscriberBinary(),
			Description: engineDescription,
		},
	})
	return append(statuses, deps.CheckFFmpeg(cfg.Fetcher.FFmpegLocation))
}
