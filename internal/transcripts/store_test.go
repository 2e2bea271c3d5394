package transcripts_test

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"

	"dharma/internal/services"
	"dharma/internal/testsupport"
	"dharma/internal/transcripts"
)

func TestSaveAndGetRoundTrip(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	id, err := store.Save(ctx, "My Talk", "hello world")
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	record, err := store.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if record == nil || record.Title != "My Talk" || record.Content != "hello world" || record.ID != id {
		t.Fatalf("unexpected record %+v", record)
	}

	list, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 1 || list[0] != (transcripts.Summary{ID: id, Title: "My Talk"}) {
		t.Fatalf("unexpected list %+v", list)
	}
}

func TestIDsStrictlyIncrease(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	var prev int64
	for i := 0; i < 5; i++ {
		id := testsupport.MustSave(t, store, "same title", "content")
		if id <= prev {
			t.Fatalf("id %d not greater than %d", id, prev)
		}
		prev = id
	}

	list, err := store.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	for i := 1; i < len(list); i++ {
		if list[i].ID <= list[i-1].ID {
			t.Fatalf("list not ascending: %+v", list)
		}
	}
	count, err := store.Count(context.Background())
	if err != nil || count != 5 {
		t.Fatalf("Count = %d, %v", count, err)
	}
}

func TestGetByIDMissing(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	record, err := store.GetByID(context.Background(), 42)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if record != nil {
		t.Fatalf("expected nil record, got %+v", record)
	}
}

func TestListEmpty(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	list, err := store.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if list == nil || len(list) != 0 {
		t.Fatalf("expected empty non-nil list, got %#v", list)
	}
}

func TestSaveRejectsBlankTitle(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	if _, err := store.Save(context.Background(), "  ", "x"); !errors.Is(err, services.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestSaveAfterCloseIsUnavailable(t *testing.T) {
	store, err := transcripts.Open(testsupport.NewConfig(t))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	store.Close()
	if _, err := store.Save(context.Background(), "t", "c"); !errors.Is(err, services.ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
}

func TestReopenKeepsRecords(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store, err := transcripts.Open(cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	id := testsupport.MustSave(t, store, "persisted", "body")
	store.Close()

	reopened := testsupport.MustOpenStore(t, cfg)
	record, err := reopened.GetByID(context.Background(), id)
	if err != nil || record == nil || record.Title != "persisted" {
		t.Fatalf("unexpected record %+v %v", record, err)
	}
}

func TestOpenAdoptsUnversionedDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "transcriptions.db")
	legacy, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := legacy.Exec(`CREATE TABLE transcriptions (id INTEGER PRIMARY KEY AUTOINCREMENT, title TEXT NOT NULL, content TEXT NOT NULL)`); err != nil {
		t.Fatal(err)
	}
	if _, err := legacy.Exec(`INSERT INTO transcriptions (title, content) VALUES ('old', 'text')`); err != nil {
		t.Fatal(err)
	}
	legacy.Close()

	store, err := transcripts.OpenPath(path)
	if err != nil {
		t.Fatalf("OpenPath: %v", err)
	}
	defer store.Close()

	list, err := store.List(context.Background())
	if err != nil || len(list) != 1 || list[0].Title != "old" {
		t.Fatalf("expected legacy row kept, got %+v %v", list, err)
	}
}

func TestOpenRejectsNewerSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "future.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec(`PRAGMA user_version = 99`); err != nil {
		t.Fatal(err)
	}
	db.Close()

	if _, err := transcripts.OpenPath(path); !errors.Is(err, transcripts.ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := transcripts.OpenPath(" "); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}

func TestPingReportsClosedStore(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	if err := store.Ping(ctx); err != nil {
		t.Fatalf("Ping: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := store.Ping(ctx); !errors.Is(err, services.ErrStoreUnavailable) {
		t.Fatalf("expected store unavailable, got %v", err)
	}
}
