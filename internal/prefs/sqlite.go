package prefs

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"git.home.luguber.info/inful/partsd/internal/util/sets"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteStore opens (creating if needed) a preferences database.
// Use ":memory:" for an in-memory database, or a file path for persistent storage.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, ErrDatabaseOpenFailed.WithCause(err).WithContext("path", dbPath)
		}
	}

	dsn := dbPath
	if dbPath != ":memory:" {
		// The CLI and the daemon share the file; wait out the other writer.
		dsn = "file:" + dbPath + "?_pragma=busy_timeout(5000)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, ErrDatabaseOpenFailed.WithCause(err).WithContext("path", dbPath)
	}
	// A single connection keeps ":memory:" databases coherent and serialises writers.
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close()
		return nil, ErrInitializeSchemaFailed.WithCause(err).WithContext("path", dbPath)
	}

	return store, nil
}

func (s *SQLiteStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS prefs (
		key TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		value TEXT NOT NULL,
		updated_at INTEGER NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) get(ctx context.Context, key string, want kind) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var k, value string
	err := s.db.QueryRowContext(ctx, "SELECT kind, value FROM prefs WHERE key = ?", key).Scan(&k, &value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, ErrReadFailed.WithCause(err).WithContext("key", key)
	}
	if kind(k) != want {
		return "", false, ErrKindMismatch.WithContext("key", key).WithContext("kind", k)
	}
	return value, true, nil
}

func (s *SQLiteStore) put(ctx context.Context, key string, k kind, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO prefs (key, kind, value, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET kind = excluded.kind, value = excluded.value, updated_at = excluded.updated_at`,
		key, string(k), value, time.Now().Unix(),
	)
	if err != nil {
		return ErrWriteFailed.WithCause(err).WithContext("key", key)
	}
	return nil
}

// GetString returns the string stored under key.
func (s *SQLiteStore) GetString(ctx context.Context, key string) (string, bool, error) {
	return s.get(ctx, key, kindString)
}

// PutString stores value under key.
func (s *SQLiteStore) PutString(ctx context.Context, key, value string) error {
	return s.put(ctx, key, kindString, value)
}

// GetStringSet returns the string set stored under key.
func (s *SQLiteStore) GetStringSet(ctx context.Context, key string) (sets.Set[string], bool, error) {
	raw, found, err := s.get(ctx, key, kindStringSet)
	if err != nil || !found {
		return nil, found, err
	}
	var members []string
	if err := json.Unmarshal([]byte(raw), &members); err != nil {
		return nil, false, ErrReadFailed.WithCause(fmt.Errorf("decode string set: %w", err)).WithContext("key", key)
	}
	return sets.New(members...), true, nil
}

// PutStringSet stores set under key. Members are written sorted so the stored
// value is stable for identical sets.
func (s *SQLiteStore) PutStringSet(ctx context.Context, key string, set sets.Set[string]) error {
	data, err := json.Marshal(sets.Sorted(set))
	if err != nil {
		return ErrWriteFailed.WithCause(err).WithContext("key", key)
	}
	return s.put(ctx, key, kindStringSet, string(data))
}

// Remove deletes key. Removing a missing key is not an error.
func (s *SQLiteStore) Remove(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, "DELETE FROM prefs WHERE key = ?", key); err != nil {
		return ErrWriteFailed.WithCause(err).WithContext("key", key)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}
