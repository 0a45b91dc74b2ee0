package icons

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// DefaultMaxEntries bounds both the memory and the persistent cache.
const DefaultMaxEntries = 200

// Store persists fetched icons in a SQLite database.
type Store struct {
	db  *sql.DB
	max int
}

// OpenStore opens (or creates) the icon cache at dbPath.
func OpenStore(dbPath string, maxEntries int) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}

	s := &Store{db: db, max: maxEntries}
	if err := s.init(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// init creates the database schema
func (s *Store) init() error {
	schema := `
	CREATE TABLE IF NOT EXISTS icons (
		ext TEXT PRIMARY KEY,
		icon_key TEXT NOT NULL,
		data_url TEXT NOT NULL,
		fetched_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_icons_fetched_at ON icons(fetched_at);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("create icon cache schema: %w", err)
	}
	return nil
}

// Get returns the cached data URL for an extension.
func (s *Store) Get(ext string) (string, bool, error) {
	var dataURL string
	err := s.db.QueryRow("SELECT data_url FROM icons WHERE ext = ?", ext).Scan(&dataURL)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return dataURL, true, nil
}

// Put stores an icon and drops the oldest entries beyond the bound.
func (s *Store) Put(ext, key, dataURL string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	_, err = tx.Exec(`
		INSERT OR REPLACE INTO icons (ext, icon_key, data_url, fetched_at)
		VALUES (?, ?, ?, ?)
	`, ext, key, dataURL, time.Now().UnixNano())
	if err != nil {
		return err
	}

	_, err = tx.Exec(`
		DELETE FROM icons WHERE ext NOT IN (
			SELECT ext FROM icons ORDER BY fetched_at DESC LIMIT ?
		)
	`, s.max)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// All returns every cached entry keyed by extension, plus the extensions
// ordered oldest fetch first.
func (s *Store) All() (map[string]string, []string, error) {
	rows, err := s.db.Query("SELECT ext, data_url FROM icons ORDER BY fetched_at ASC")
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	entries := make(map[string]string)
	var order []string
	for rows.Next() {
		var ext, dataURL string
		if err := rows.Scan(&ext, &dataURL); err != nil {
			return nil, nil, err
		}
		entries[ext] = dataURL
		order = append(order, ext)
	}
	return entries, order, rows.Err()
}

// Len returns the number of cached icons.
func (s *Store) Len() (int, error) {
	var n int
	err := s.db.QueryRow("SELECT COUNT(*) FROM icons").Scan(&n)
	return n, err
}

// Clear removes every cached icon.
func (s *Store) Clear() error {
	_, err := s.db.Exec("DELETE FROM icons")
	return err
}

// Close closes the store
func (s *Store) Close() error {
	return s.db.Close()
}
