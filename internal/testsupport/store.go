package testsupport

import (
	"context"
	"testing"

	"dharma/internal/config"
	"dharma/internal/transcripts"
)

// MustOpenStore opens a transcripts.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *transcripts.Store {
	t.Helper()

	store, err := transcripts.Open(cfg)
	if err != nil {
		t.Fatalf("transcripts.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// MustSave stores a transcript and returns its id.
func MustSave(t testing.TB, store *transcripts.Store, title, content string) int64 {
	t.Helper()

	id, err := store.Save(context.Background(), title, content)
	if err != nil {
		t.Fatalf("store.Save: %v", err)
	}
	return id
}
