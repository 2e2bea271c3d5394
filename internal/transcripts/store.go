package transcripts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"dharma/internal/config"
	"dharma/internal/services"
)

// Store manages transcript persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open connects to the configured transcript database, creating it if needed.
func Open(cfg *config.Config) (*Store, error) {
	if cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, "store", "open", "configuration required", nil)
	}
	return OpenPath(cfg.Paths.DatabasePath)
}

// OpenPath connects to the database at dbPath, creating it if needed.
func OpenPath(dbPath string) (*Store, error) {
	dbPath = strings.TrimSpace(dbPath)
	if dbPath == "" {
		return nil, services.Wrap(services.ErrConfiguration, "store", "open", "database path required", nil)
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, services.Wrap(services.ErrStoreUnavailable, "store", "open", "ensure database directory", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, services.Wrap(services.ErrStoreUnavailable, "store", "open", dbPath, err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, services.Wrap(services.ErrStoreUnavailable, "store", "open", fmt.Sprintf("apply pragma %q", pragma), execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, services.Wrap(services.ErrStoreUnavailable, "store", "open", "initialize schema", err)
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return services.Wrap(services.ErrStoreUnavailable, "store", "ping", s.path, err)
	}
	return nil
}

// Save inserts a transcript inside a single transaction and returns its id.
func (s *Store) Save(ctx context.Context, title, content string) (int64, error) {
	if strings.TrimSpace(title) == "" {
		return 0, services.Wrap(services.ErrInvalidInput, "persisting", "save", "title is empty", nil)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, services.Wrap(services.ErrStoreUnavailable, "persisting", "save", "begin transaction", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	res, err := tx.ExecContext(ctx, `INSERT INTO transcriptions (title, content) VALUES (?, ?)`, title, content)
	if err != nil {
		return 0, services.Wrap(services.ErrStoreUnavailable, "persisting", "save", "insert transcript", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, services.Wrap(services.ErrStoreUnavailable, "persisting", "save", "last insert id", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, services.Wrap(services.ErrStoreUnavailable, "persisting", "save", "commit", err)
	}
	return id, nil
}

// List returns every transcript id and title in ascending id order.
func (s *Store) List(ctx context.Context) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, title FROM transcriptions ORDER BY id`)
	if err != nil {
		return nil, services.Wrap(services.ErrStoreUnavailable, "store", "list", "", err)
	}
	defer rows.Close()

	summaries := make([]Summary, 0)
	for rows.Next() {
		var summary Summary
		if err := rows.Scan(&summary.ID, &summary.Title); err != nil {
			return nil, services.Wrap(services.ErrStoreUnavailable, "store", "list", "scan row", err)
		}
		summaries = append(summaries, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, services.Wrap(services.ErrStoreUnavailable, "store", "list", "iterate rows", err)
	}
	return summaries, nil
}

// GetByID fetches a transcript. A missing id yields nil without error.
func (s *Store) GetByID(ctx context.Context, id int64) (*Record, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, title, content FROM transcriptions WHERE id = ?`, id)
	var record Record
	err := row.Scan(&record.ID, &record.Title, &record.Content)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, services.Wrap(services.ErrStoreUnavailable, "store", "get", fmt.Sprintf("id %d", id), err)
	}
	return &record, nil
}

// Count returns the number of stored transcripts.
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM transcriptions`).Scan(&count); err != nil {
		return 0, services.Wrap(services.ErrStoreUnavailable, "store", "count", "", err)
	}
	return count, nil
}
