package deps

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// CheckFFmpeg reports the ffmpeg binary yt-dlp will execute.
//
// location mirrors yt-dlp's --ffmpeg-location: it may name the binary itself
// or the directory holding it. An empty location resolves "ffmpeg" from PATH.
func CheckFFmpeg(location string) Status {
	result := Status{
		Name:        "FFmpeg",
		Description: "Used by yt-dlp to transcode audio",
	}

	location = strings.TrimSpace(location)
	if location != "" {
		candidate := location
		if info, err := os.Stat(location); err == nil && info.IsDir() {
			candidate = filepath.Join(location, executableName("ffmpeg"))
		}
		result.Command = candidate
		if info, err := os.Stat(candidate); err == nil && isExecutable(info) {
			result.Available = true
			return result
		}
		result.Detail = fmt.Sprintf("ffmpeg not found at %q", candidate)
		return result
	}

	ffmpegName := "ffmpeg"
	if ffmpegPath, err := exec.LookPath(ffmpegName); err == nil {
		result.Command = ffmpegPath
		result.Available = true
		return result
	}

	result.Command = ffmpegName
	result.Detail = fmt.Sprintf("binary %q not found", ffmpegName)
	return result
}

func executableName(name string) string {
	if runtime.GOOS == "windows" {
		return name + ".exe"
	}
	return name
}

func isExecutable(info os.FileInfo) bool {
	if info == nil || info.IsDir() {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	return info.Mode().Perm()&0o111 != 0
}
