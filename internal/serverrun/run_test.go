package serverrun_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gofrs/flock"

	"dharma/internal/logging"
	"dharma/internal/serverrun"
	"dharma/internal/testsupport"
)

func TestNewRuntimeOpensStore(t *testing.T) {
	cfg := testsupport.NewConfig(t)

	rt, err := serverrun.NewRuntime(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("NewRuntime: %v", err)
	}
	defer rt.Close()

	if rt.Store == nil || rt.Orchestrator == nil || rt.Fetcher == nil || rt.Transcriber == nil {
		t.Fatalf("runtime incomplete: %+v", rt)
	}
	if rt.Store.Path() != cfg.Paths.DatabasePath {
		t.Fatalf("store path %q, want %q", rt.Store.Path(), cfg.Paths.DatabasePath)
	}
	if _, err := os.Stat(cfg.Paths.DatabasePath); err != nil {
		t.Fatalf("expected database file: %v", err)
	}
}

func TestNewLoggerRejectsUnknownFormat(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Logging.Format = "xml"

	if _, err := serverrun.NewLogger(cfg, serverrun.Options{}); err == nil {
		t.Fatal("expected error for unknown log format")
	}
}

func TestRunServesUntilCancelled(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	cfg.Logging.Level = "error"

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() {
		done <- serverrun.Run(ctx, cfg, serverrun.Options{})
	}()

	pidPath := filepath.Join(cfg.Paths.LogDir, "dharma.pid")
	deadline := time.Now().Add(5 * time.Second)
	for {
		if _, err := os.Stat(pidPath); err == nil {
			break
		}
		select {
		case err := <-done:
			t.Fatalf("Run exited early: %v", err)
		default:
		}
		if time.Now().After(deadline) {
			t.Fatal("server did not start in time")
		}
		time.Sleep(20 * time.Millisecond)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("Run did not stop after cancellation")
	}
	if _, err := os.Stat(pidPath); !os.IsNotExist(err) {
		t.Fatalf("expected pid file removed, stat err=%v", err)
	}
}

func TestRunFailsWhenLockHeld(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Logging.Level = "error"
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	lock := flock.New(cfg.LockPath())
	ok, err := lock.TryLock()
	if err != nil || !ok {
		t.Fatalf("TryLock: ok=%v err=%v", ok, err)
	}
	defer lock.Unlock()

	err = serverrun.Run(context.Background(), cfg, serverrun.Options{})
	if err == nil || !strings.Contains(err.Error(), "already running") {
		t.Fatalf("expected lock contention, got %v", err)
	}
}

func TestRunRejectsNilConfig(t *testing.T) {
	if err := serverrun.Run(context.Background(), nil, serverrun.Options{}); err == nil {
		t.Fatal("expected error for nil config")
	}
}
