// Package history records every capture-and-query outcome in a SQLite file.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"screen-timer-llm/src/countdown"
)

// Entry is one recorded cycle.
type Entry struct {
	ID         int64
	StartedAt  time.Time
	Prompt     string
	Response   string
	Error      string
	ImagePath  string
	DurationMs int64
}

// OK reports whether the cycle produced a response.
func (e Entry) OK() bool { return e.Error == "" }

type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the history database at path.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("history path is empty")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	// One writer; sqlite serializes anyway.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.initTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("history: init tables: %w", err)
	}
	return s, nil
}

func (s *Store) initTables() error {
	_, err := s.db.Exec(`
        CREATE TABLE IF NOT EXISTS outcomes (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            started_at DATETIME NOT NULL,
            prompt TEXT NOT NULL,
            response TEXT NOT NULL DEFAULT '',
            error TEXT NOT NULL DEFAULT '',
            image_path TEXT NOT NULL DEFAULT '',
            duration_ms INTEGER NOT NULL DEFAULT 0
        )
    `)
	return err
}

// Record stores one outcome.
func (s *Store) Record(ctx context.Context, out countdown.Outcome) error {
	started := out.StartedAt
	if started.IsZero() {
		started = time.Now()
	}
	var errText string
	if out.Err != nil {
		errText = countdown.DisplayText(out)
	}
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO outcomes (started_at, prompt, response, error, image_path, duration_ms)
        VALUES (?, ?, ?, ?, ?, ?)
    `, started.UTC(), out.Prompt, out.Text, errText, out.ImagePath, out.Elapsed.Milliseconds())
	return err
}

// Recent returns up to n entries, newest first.
func (s *Store) Recent(ctx context.Context, n int) ([]Entry, error) {
	if n <= 0 {
		n = 10
	}
	rows, err := s.db.QueryContext(ctx, `
        SELECT id, started_at, prompt, response, error, image_path, duration_ms
        FROM outcomes
        ORDER BY id DESC
        LIMIT ?
    `, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.StartedAt, &e.Prompt, &e.Response, &e.Error, &e.ImagePath, &e.DurationMs); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *Store) Close() error {
	return s.db.Close()
}
