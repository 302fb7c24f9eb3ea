package resultcache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"subgen/internal/transcribe"
)

// Store persists cache entries in SQLite so results survive restarts.
type Store struct {
	db   *sql.DB
	path string
}

const schema = `CREATE TABLE IF NOT EXISTS results (
    fingerprint TEXT NOT NULL,
    tier        TEXT NOT NULL,
    transcript  TEXT NOT NULL,
    srt         TEXT NOT NULL,
    created_at  TEXT NOT NULL,
    PRIMARY KEY (fingerprint, tier)
)`

// OpenStore initializes or connects to the cache database at path.
func OpenStore(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("cache store path required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure cache directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Get fetches one entry by key.
func (s *Store) Get(ctx context.Context, key Key) (Entry, bool, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT transcript, srt FROM results WHERE fingerprint = ? AND tier = ?`,
		key.Fingerprint, string(key.Tier),
	)
	var entry Entry
	if err := row.Scan(&entry.Transcript, &entry.SRT); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Entry{}, false, nil
		}
		return Entry{}, false, fmt.Errorf("get cache entry: %w", err)
	}
	return entry, true, nil
}

// Put inserts or replaces one entry.
func (s *Store) Put(ctx context.Context, key Key, entry Entry) error {
	_, err := s.db.ExecContext(
		ctx,
		`INSERT OR REPLACE INTO results (fingerprint, tier, transcript, srt, created_at)
         VALUES (?, ?, ?, ?, ?)`,
		key.Fingerprint,
		string(key.Tier),
		entry.Transcript,
		entry.SRT,
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("put cache entry: %w", err)
	}
	return nil
}

// Record describes one persisted entry for inspection commands.
type Record struct {
	Key       Key
	SRTBytes  int
	CreatedAt time.Time
}

// List returns persisted entries ordered newest first.
func (s *Store) List(ctx context.Context) ([]Record, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT fingerprint, tier, LENGTH(srt), created_at FROM results ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list cache entries: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var (
			record     Record
			tier       string
			createdRaw string
		)
		if err := rows.Scan(&record.Key.Fingerprint, &tier, &record.SRTBytes, &createdRaw); err != nil {
			return nil, fmt.Errorf("scan cache entry: %w", err)
		}
		record.Key.Tier = transcribe.Tier(tier)
		if created, parseErr := time.Parse(time.RFC3339Nano, createdRaw); parseErr == nil {
			record.CreatedAt = created
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// Clear removes all persisted entries and reports how many were deleted.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM results`)
	if err != nil {
		return 0, fmt.Errorf("clear cache: %w", err)
	}
	return res.RowsAffected()
}
