package deps

import (
	"os"
	"path/filepath"
	"testing"
)

func writeStub(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
}

func TestCheckBinaries(t *testing.T) {
	present := filepath.Join(t.TempDir(), "present")
	writeStub(t, present)
	reqs := []Requirement{
		{Name: "Present", Command: present},
		{Name: "Missing", Command: "clearly-not-present-binary"},
		{Name: "Empty", Command: "  ", Optional: true},
	}

	results := CheckBinaries(reqs)
	if len(results) != len(reqs) {
		t.Fatalf("expected %d results, got %d", len(reqs), len(results))
	}
	if !results[0].Available || results[0].Detail != "" {
		t.Fatalf("expected first requirement available, got %#v", results[0])
	}
	if results[1].Available || results[1].Detail == "" {
		t.Fatalf("expected missing binary unavailable with detail, got %#v", results[1])
	}
	if results[1].Command != "clearly-not-present-binary" {
		t.Fatalf("unexpected command recorded: %s", results[1].Command)
	}
	if results[2].Detail != "command not configured" {
		t.Fatalf("unexpected detail %q", results[2].Detail)
	}
	if AllRequiredAvailable(results) {
		t.Fatal("expected missing required binary to fail the aggregate")
	}
	if !AllRequiredAvailable([]Status{results[0], results[2]}) {
		t.Fatal("optional binaries must not fail the aggregate")
	}
}

func TestCheckFFmpegDirectoryLocation(t *testing.T) {
	dir := t.TempDir()
	ffmpeg := filepath.Join(dir, executableName("ffmpeg"))
	writeStub(t, ffmpeg)

	status := CheckFFmpeg(dir)
	if !status.Available || status.Command != ffmpeg {
		t.Fatalf("expected ffmpeg in directory, got %#v", status)
	}
}

func TestCheckFFmpegBinaryLocation(t *testing.T) {
	ffmpeg := filepath.Join(t.TempDir(), "ffmpeg-7")
	writeStub(t, ffmpeg)

	if status := CheckFFmpeg(ffmpeg); !status.Available {
		t.Fatalf("expected explicit binary available, got %#v", status)
	}
}

func TestCheckFFmpegMissingLocation(t *testing.T) {
	status := CheckFFmpeg(filepath.Join(t.TempDir(), "nope"))
	if status.Available || status.Detail == "" {
		t.Fatalf("expected failure, got %#v", status)
	}
}

func TestCheckFFmpegPathFallback(t *testing.T) {
	binDir := t.TempDir()
	ffmpeg := filepath.Join(binDir, executableName("ffmpeg"))
	writeStub(t, ffmpeg)
	t.Setenv("PATH", binDir)

	status := CheckFFmpeg("")
	if !status.Available || status.Command != ffmpeg {
		t.Fatalf("expected PATH ffmpeg, got %#v", status)
	}
}
