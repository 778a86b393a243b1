// Package store persists papers and QA interactions in SQLite.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/dgallion1/paperqa/internal/paper"
)

// ErrDuplicate is returned by AddPaper when a paper with the same URL is
// already stored. Callers use it to resolve concurrent first-time
// ingestions of the same URL.
var ErrDuplicate = errors.New("paper already exists")

const schema = `
CREATE TABLE IF NOT EXISTS papers (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	url TEXT NOT NULL UNIQUE,
	name TEXT NOT NULL,
	paper TEXT NOT NULL,
	notes TEXT NOT NULL,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS qa_interactions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	question TEXT NOT NULL,
	answer TEXT NOT NULL,
	context TEXT NOT NULL,
	followup_questions TEXT NOT NULL,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);
`

// Store is the SQLite-backed paper repository.
type Store struct {
	db *sql.DB
}

// Open creates or opens the database under dataDir.
func Open(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	dbPath := filepath.Join(dataDir, "paperqa.db")

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// AddPaper inserts a paper row. Insert-only: a second insert for the same
// URL fails with ErrDuplicate, never upserts.
func (s *Store) AddPaper(ctx context.Context, p paper.Paper) error {
	notesJSON, err := json.Marshal(p.Notes)
	if err != nil {
		return fmt.Errorf("encode notes: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO papers (url, name, paper, notes) VALUES (?, ?, ?, ?)`,
		p.URL, p.Name, p.Text, string(notesJSON),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("%w: %s", ErrDuplicate, p.URL)
		}
		return fmt.Errorf("insert paper: %w", err)
	}
	return nil
}

// GetPaper returns the paper stored for url, or (nil, nil) when none
// exists. Absence is a valid result; only transport or decode failures
// return an error.
func (s *Store) GetPaper(ctx context.Context, url string) (*paper.Paper, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT url, name, paper, notes FROM papers WHERE url = ?`, url)

	var p paper.Paper
	var notesJSON string
	if err := row.Scan(&p.URL, &p.Name, &p.Text, &notesJSON); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select paper: %w", err)
	}
	if err := json.Unmarshal([]byte(notesJSON), &p.Notes); err != nil {
		return nil, fmt.Errorf("decode notes: %w", err)
	}
	return &p, nil
}

// SaveQA appends one interaction row. Failure propagates; an unlogged
// interaction is something the caller must know about.
func (s *Store) SaveQA(ctx context.Context, qa paper.QAInteraction) error {
	followups, err := json.Marshal(qa.FollowupQuestions)
	if err != nil {
		return fmt.Errorf("encode followup questions: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO qa_interactions (question, answer, context, followup_questions) VALUES (?, ?, ?, ?)`,
		qa.Question, qa.Answer, qa.Context, string(followups),
	)
	if err != nil {
		return fmt.Errorf("insert qa interaction: %w", err)
	}
	return nil
}
