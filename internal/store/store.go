// Package store is the durable key-value contract behind the game:
// endless high score, a saved in-progress endless run, and the lifetime
// coin wallet. Values are JSON blobs in a single SQLite table. Callers
// treat failures as best-effort durability, never as fatal.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// Well-known keys.
const (
	KeyEndlessHighScore = "endless:highscore"
	KeyEndlessRun       = "endless:run"
	KeyWallet           = "wallet:coins"
)

// ErrNotFound is returned by Load when the key is absent.
var ErrNotFound = errors.New("store: key not found")

// Store is a SQLite-backed key-value store.
type Store struct {
	db *sql.DB
}

// Open creates or opens the store at path, creating parent directories
// and the schema as needed.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	// WAL keeps readers from blocking the game loop's writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	schema := `CREATE TABLE IF NOT EXISTS kv (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save writes v under key as JSON, replacing any previous value.
func (s *Store) Save(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	_, err = s.db.Exec(
		"INSERT INTO kv(key, value) VALUES(?, ?) ON CONFLICT(key) DO UPDATE SET value=excluded.value",
		key, string(data))
	if err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// Load reads the value under key into v. Returns ErrNotFound when the
// key is absent.
func (s *Store) Load(key string, v any) error {
	var data string
	err := s.db.QueryRow("SELECT value FROM kv WHERE key = ?", key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("load %s: %w", key, err)
	}
	if err := json.Unmarshal([]byte(data), v); err != nil {
		return fmt.Errorf("unmarshal %s: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting an absent key is not an error.
func (s *Store) Delete(key string) error {
	if _, err := s.db.Exec("DELETE FROM kv WHERE key = ?", key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}
