// Package archive persists completed interview reports in a local SQLite
// database so past runs can be listed and reviewed.
package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/srujanlakku/ai-interview-agent/internal/interview"
)

// ErrNotFound is returned when no report exists for the session ID.
var ErrNotFound = errors.New("report not found")

const schema = `
CREATE TABLE IF NOT EXISTS reports (
	session_id    TEXT PRIMARY KEY,
	role          TEXT NOT NULL,
	company       TEXT NOT NULL DEFAULT '',
	questions     INTEGER NOT NULL,
	overall_score REAL NOT NULL,
	readiness     TEXT NOT NULL,
	completed_at  TEXT NOT NULL,
	payload       TEXT NOT NULL
);
`

// Store is a report archive backed by SQLite.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the archive at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("archive ping failed: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create archive schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save stores the report, replacing any previous report for the session.
func (s *Store) Save(ctx context.Context, report *interview.Report) error {
	if report == nil {
		return errors.New("report is required")
	}

	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO reports
		 (session_id, role, company, questions, overall_score, readiness, completed_at, payload)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		report.SessionID,
		report.Profile.Role,
		report.Profile.Company,
		report.QuestionsAsked,
		report.OverallScore,
		string(report.Readiness),
		report.CompletedAt.UTC().Format(time.RFC3339),
		string(payload),
	)
	if err != nil {
		return fmt.Errorf("save report: %w", err)
	}

	return nil
}

// Entry is a row of the archive listing.
type Entry struct {
	SessionID    string
	Role         string
	Company      string
	Questions    int
	OverallScore float64
	Readiness    interview.Readiness
	CompletedAt  time.Time
}

// List returns archived reports, most recent first.
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT session_id, role, company, questions, overall_score, readiness, completed_at
		 FROM reports ORDER BY completed_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var entry Entry
		var readiness, completedAt string
		if err := rows.Scan(&entry.SessionID, &entry.Role, &entry.Company, &entry.Questions, &entry.OverallScore, &readiness, &completedAt); err != nil {
			return nil, fmt.Errorf("scan report row: %w", err)
		}
		entry.Readiness = interview.Readiness(readiness)
		if parsed, err := time.Parse(time.RFC3339, completedAt); err == nil {
			entry.CompletedAt = parsed
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("report rows: %w", err)
	}

	return entries, nil
}

// Get loads the full report for the session ID.
func (s *Store) Get(ctx context.Context, sessionID string) (*interview.Report, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM reports WHERE session_id = ?`, sessionID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load report: %w", err)
	}

	var report interview.Report
	if err := json.Unmarshal([]byte(payload), &report); err != nil {
		return nil, fmt.Errorf("decode report payload: %w", err)
	}

	return &report, nil
}
