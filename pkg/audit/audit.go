// Package audit records tool invocations in a relational database.
package audit

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

const schema = `
CREATE TABLE IF NOT EXISTS tool_invocations (
	id             TEXT PRIMARY KEY,
	tool_name      TEXT NOT NULL,
	category       TEXT NOT NULL,
	status         TEXT NOT NULL,
	error_kind     TEXT,
	duration_ms    INTEGER NOT NULL,
	requested_at   TIMESTAMP NOT NULL
)`

// Record is one completed tool invocation.
type Record struct {
	ID          string
	ToolName    string
	Category    string
	Status      string
	ErrorKind   string
	Duration    time.Duration
	RequestedAt time.Time
}

// Recorder writes invocation records to a SQL database. Queries use $N
// placeholders, so the backing database must be postgres or sqlite.
type Recorder struct {
	db *sql.DB
}

// NewRecorder prepares the invocation table and returns a recorder.
func NewRecorder(ctx context.Context, db *sql.DB) (*Recorder, error) {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("failed to create audit schema: %w", err)
	}
	return &Recorder{db: db}, nil
}

// Write persists a single invocation record.
func (r *Recorder) Write(ctx context.Context, rec Record) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO tool_invocations (id, tool_name, category, status, error_kind, duration_ms, requested_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		rec.ID, rec.ToolName, rec.Category, rec.Status, rec.ErrorKind,
		rec.Duration.Milliseconds(), rec.RequestedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to write audit record: %w", err)
	}
	return nil
}

// Recent returns the most recent invocation records, newest first.
func (r *Recorder) Recent(ctx context.Context, limit int) ([]Record, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, tool_name, category, status, COALESCE(error_kind, ''), duration_ms, requested_at
		 FROM tool_invocations ORDER BY requested_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit records: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		var durationMS int64
		if err := rows.Scan(&rec.ID, &rec.ToolName, &rec.Category, &rec.Status,
			&rec.ErrorKind, &durationMS, &rec.RequestedAt); err != nil {
			return nil, fmt.Errorf("failed to scan audit record: %w", err)
		}
		rec.Duration = time.Duration(durationMS) * time.Millisecond
		records = append(records, rec)
	}
	return records, rows.Err()
}
