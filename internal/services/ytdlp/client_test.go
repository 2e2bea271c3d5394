package ytdlp

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

func argValue(args []string, flag string) string {
	for i := 0; i < len(args)-1; i++ {
		if args[i] == flag {
			return args[i+1]
		}
	}
	return ""
}

func TestBuildArgs(t *testing.T) {
	client := New(Config{FFmpegLocation: "/opt/ffmpeg/bin"})
	args := client.BuildArgs("https://example.com/watch?v=abc", "/tmp/out")

	checks := map[string]string{
		"--format":             "bestaudio/best",
		"--audio-format":       "mp3",
		"--audio-quality":      "192K",
		"--postprocessor-args": "ExtractAudio:-ac 1",
		"--paths":              "/tmp/out",
		"--output":             OutputTemplate,
		"--ffmpeg-location":    "/opt/ffmpeg/bin",
	}
	for flag, want := range checks {
		if got := argValue(args, flag); got != want {
			t.Fatalf("%s = %q, want %q (args %v)", flag, got, want, args)
		}
	}
	for _, flag := range []string{"--extract-audio", "--dump-single-json", "--no-simulate", "--no-playlist"} {
		if !slices.Contains(args, flag) {
			t.Fatalf("expected %s in %v", flag, args)
		}
	}
	if args[len(args)-1] != "https://example.com/watch?v=abc" || args[len(args)-2] != "--" {
		t.Fatalf("expected url terminated by --, got %v", args[len(args)-2:])
	}
}

func TestBuildArgsOmitsEmptyFFmpegLocation(t *testing.T) {
	args := New(Config{}).BuildArgs("u", "/tmp")
	if slices.Contains(args, "--ffmpeg-location") {
		t.Fatalf("unexpected --ffmpeg-location in %v", args)
	}
}

func TestDownloadReadsRequestedFilepath(t *testing.T) {
	dir := t.TempDir()
	client := New(Config{Binary: "fake-yt-dlp"})
	client.WithCommandRunner(func(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
		if name != "fake-yt-dlp" {
			t.Fatalf("unexpected binary %q", name)
		}
		out := filepath.Join(argValue(args, "--paths"), "abc.mp3")
		if err := os.WriteFile(out, []byte("audio"), 0o644); err != nil {
			t.Fatal(err)
		}
		payload := fmt.Sprintf(`{"id":"abc","title":"My Talk","ext":"webm","requested_downloads":[{"filepath":%q,"ext":"mp3"}]}`, out)
		return []byte("[info] noise\n" + payload), nil, nil
	})

	result, err := client.Download(context.Background(), "https://example.com/v", dir)
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if result.Title != "My Talk" {
		t.Fatalf("unexpected title %q", result.Title)
	}
	if result.Path != filepath.Join(dir, "abc.mp3") {
		t.Fatalf("unexpected path %q", result.Path)
	}
}

func TestDownloadFallsBackToDirectoryScan(t *testing.T) {
	dir := t.TempDir()
	client := New(Config{})
	client.WithCommandRunner(func(_ context.Context, _ string, args ...string) ([]byte, []byte, error) {
		base := argValue(args, "--paths")
		_ = os.WriteFile(filepath.Join(base, "thumb.jpg"), []byte("x"), 0o644)
		_ = os.WriteFile(filepath.Join(base, "renamed.mp3"), []byte("audio"), 0o644)
		return []byte(`{"id":"other","title":""}`), nil, nil
	})

	result, err := client.Download(context.Background(), "u", dir)
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if filepath.Base(result.Path) != "renamed.mp3" {
		t.Fatalf("expected mp3 preferred, got %q", result.Path)
	}
}

func TestDownloadToolFailureCarriesStderr(t *testing.T) {
	client := New(Config{})
	client.WithCommandRunner(func(context.Context, string, ...string) ([]byte, []byte, error) {
		return nil, []byte("ERROR: Video unavailable\n"), errors.New("exit status 1")
	})

	_, err := client.Download(context.Background(), "u", t.TempDir())
	var toolErr *ToolError
	if !errors.As(err, &toolErr) {
		t.Fatalf("expected ToolError, got %v", err)
	}
	if !strings.Contains(toolErr.Error(), "Video unavailable") {
		t.Fatalf("expected stderr in error, got %q", toolErr.Error())
	}
}

func TestDownloadNoOutputFile(t *testing.T) {
	client := New(Config{})
	client.WithCommandRunner(func(context.Context, string, ...string) ([]byte, []byte, error) {
		return []byte(`{"id":"abc","title":"t"}`), nil, nil
	})
	if _, err := client.Download(context.Background(), "u", t.TempDir()); err == nil {
		t.Fatal("expected error when no file was produced")
	}
}

func TestDownloadRejectsBlankURL(t *testing.T) {
	if _, err := New(Config{}).Download(context.Background(), "  ", t.TempDir()); err == nil {
		t.Fatal("expected error for blank url")
	}
}

func TestParseMetadataRejectsGarbage(t *testing.T) {
	if _, err := ParseMetadata([]byte("not json")); err == nil {
		t.Fatal("expected parse error")
	}
	if _, err := ParseMetadata(nil); err == nil {
		t.Fatal("expected error for empty output")
	}
}

func TestTailTruncates(t *testing.T) {
	got := tail(strings.Repeat("a", 10)+"end", 3)
	if got != "...end" {
		t.Fatalf("unexpected tail %q", got)
	}
}
