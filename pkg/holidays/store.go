package holidays

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // sqlite driver
)

// Store persists fetched holiday lists across process restarts, keyed by
// (scope, country code, year). Load returns a zero cachedAt when no entry
// exists; Upsert overwrites in place.
type Store interface {
	Load(ctx context.Context, scope, country string, year int) (list []Holiday, cachedAt time.Time, err error)
	Upsert(ctx context.Context, scope, country string, year int, list []Holiday, cachedAt time.Time) error
	Close() error
}

// SQLiteStore is a Store backed by a local SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

const createHolidayCacheSQL = `
CREATE TABLE IF NOT EXISTS holiday_cache (
	scope     TEXT    NOT NULL,
	country   TEXT    NOT NULL,
	year      INTEGER NOT NULL,
	holidays  TEXT    NOT NULL,
	cached_at TEXT    NOT NULL,
	PRIMARY KEY (scope, country, year)
)`

// OpenSQLiteStore opens (creating if necessary) a SQLite-backed holiday
// store at the given path.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening holiday store: %w", err)
	}
	if _, err := db.Exec(createHolidayCacheSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating holiday cache table: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Load reads the cached list for (scope, country, year). A missing row is
// not an error; it reports a zero cachedAt.
func (s *SQLiteStore) Load(ctx context.Context, scope, country string, year int) ([]Holiday, time.Time, error) {
	var payload, cachedAtStr string
	err := s.db.QueryRowContext(ctx,
		`SELECT holidays, cached_at FROM holiday_cache WHERE scope = ? AND country = ? AND year = ?`,
		scope, country, year,
	).Scan(&payload, &cachedAtStr)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, time.Time{}, nil
	}
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("reading holiday cache row: %w", err)
	}

	cachedAt, err := time.Parse(time.RFC3339Nano, cachedAtStr)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("parsing cached_at: %w", err)
	}

	var list []Holiday
	if err := json.Unmarshal([]byte(payload), &list); err != nil {
		return nil, time.Time{}, fmt.Errorf("decoding cached holidays: %w", err)
	}
	return list, cachedAt, nil
}

// Upsert writes the list for (scope, country, year), overwriting any
// existing row. Last write wins; entries are idempotent given identical
// inputs, so no further coordination is needed.
func (s *SQLiteStore) Upsert(ctx context.Context, scope, country string, year int, list []Holiday, cachedAt time.Time) error {
	payload, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("encoding holidays: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO holiday_cache (scope, country, year, holidays, cached_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (scope, country, year)
		 DO UPDATE SET holidays = excluded.holidays, cached_at = excluded.cached_at`,
		scope, country, year, string(payload), cachedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("upserting holiday cache row: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
