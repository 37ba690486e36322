// Package prefs persists the user's last-selected category and deck between
// runs, so the app reopens where it was left.
package prefs

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/mattn/go-sqlite3"

	"github.com/example/flashvoz/internal/logger"
)

const (
	lastCategoryKey = "flashcards_last_category"
	lastDeckPrefix  = "flashcards_last_deck_"
)

// Store is a small key/value preference store backed by SQLite.
type Store struct {
	db  *sql.DB
	log *logger.Logger
}

// DefaultPath returns the preference database location in the XDG state
// directory.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".local", "state", "flashvoz", "prefs.db"), nil
}

// Open opens (creating if needed) the preference store at the given path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create state directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open preference store: %w", err)
	}

	schema := `CREATE TABLE IF NOT EXISTS prefs (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize preference store: %w", err)
	}

	return &Store{db: db, log: logger.Default().WithPrefix("prefs")}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) get(key string) (string, bool) {
	query, args, err := sq.Select("value").From("prefs").Where(sq.Eq{"key": key}).ToSql()
	if err != nil {
		return "", false
	}
	var value string
	err = s.db.QueryRow(query, args...).Scan(&value)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.log.Warn("failed to read preference %q: %v", key, err)
		}
		return "", false
	}
	return value, true
}

func (s *Store) set(key, value string) error {
	query, args, err := sq.Insert("prefs").
		Columns("key", "value").
		Values(key, value).
		Suffix("ON CONFLICT(key) DO UPDATE SET value = excluded.value").
		ToSql()
	if err != nil {
		return err
	}
	if _, err := s.db.Exec(query, args...); err != nil {
		return fmt.Errorf("failed to save preference %q: %w", key, err)
	}
	return nil
}

// LastCategory returns the last selected category, if one was saved.
func (s *Store) LastCategory() (string, bool) {
	return s.get(lastCategoryKey)
}

// SetLastCategory saves the selected category.
func (s *Store) SetLastCategory(category string) error {
	return s.set(lastCategoryKey, category)
}

// LastDeck returns the last selected deck within a category, if saved.
func (s *Store) LastDeck(category string) (string, bool) {
	return s.get(lastDeckPrefix + category)
}

// SetLastDeck saves the selected deck for a category.
func (s *Store) SetLastDeck(category, deck string) error {
	return s.set(lastDeckPrefix+category, deck)
}

// PickCategory chooses the category to restore: the saved one when it still
// exists in the available list, otherwise the first available.
func PickCategory(saved string, ok bool, available []string) string {
	if len(available) == 0 {
		return ""
	}
	if ok && contains(available, saved) {
		return saved
	}
	return available[0]
}

// PickDeck chooses the deck to restore within a category, falling back to
// the first available when the saved one is missing or stale.
func PickDeck(saved string, ok bool, available []string) string {
	if len(available) == 0 {
		return ""
	}
	if ok && contains(available, saved) {
		return saved
	}
	return available[0]
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
