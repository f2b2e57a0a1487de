// Package journal durably stores entries as one JSON file per identifier.
// It is the fallback destination when upstream sync fails and the source for
// bulk CSV export.
package journal

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/termrelay/termrelay/internal/model"
)

// Store writes entries under a single directory. Writes are idempotent per
// identifier: writing the same ID again overwrites the previous record.
type Store struct {
	dir string
}

// New creates a Store rooted at dir, creating the directory with 0700
// permissions if it does not exist.
func New(dir string) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("journal directory not configured")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("cannot create journal directory %s: %w", dir, err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the journal directory.
func (s *Store) Dir() string { return s.dir }

// Write persists the entry under its identifier.
func (s *Store) Write(e *model.Entry) error {
	if e.ID == "" {
		return fmt.Errorf("cannot journal an entry without an identifier")
	}
	data, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal entry %s: %w", e.ID, err)
	}
	return os.WriteFile(s.path(e.ID), data, 0o600)
}

// Read loads the entry stored under id.
func (s *Store) Read(id string) (*model.Entry, error) {
	data, err := os.ReadFile(s.path(id))
	if err != nil {
		return nil, err
	}
	var e model.Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("decode journal record %s: %w", id, err)
	}
	return &e, nil
}

// Remove deletes the record for id. Removing an absent record is not an
// error.
func (s *Store) Remove(id string) error {
	if err := os.Remove(s.path(id)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// List reads a snapshot of all journaled entries. Records written while the
// listing runs may or may not appear; unreadable files are skipped so one
// corrupt record cannot block a bulk export.
func (s *Store) List() ([]*model.Entry, error) {
	dirents, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}
	var entries []*model.Entry
	for _, d := range dirents {
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.dir, d.Name()))
		if err != nil {
			continue
		}
		var e model.Entry
		if err := json.Unmarshal(data, &e); err != nil {
			continue
		}
		entries = append(entries, &e)
	}
	return entries, nil
}

func (s *Store) path(id string) string {
	return filepath.Join(s.dir, sanitize(id)+".json")
}

// sanitize keeps identifiers filesystem-safe. Anything outside a small
// conservative character set becomes '-'.
func sanitize(id string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-' || r == '_' || r == '.':
			return r
		default:
			return '-'
		}
	}, id)
}
