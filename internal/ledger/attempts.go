package ledger

import (
	"context"
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"
)

// Outcome classifies a finished attempt.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
	OutcomeSkipped Outcome = "skipped"
)

// Attempt is one immutable ledger row.
type Attempt struct {
	ID           int64
	RunID        string
	Path         string
	Stem         string
	SizeBytes    int64
	Outcome      Outcome
	ErrorMessage string
	StartedAt    time.Time
	FinishedAt   time.Time
}

// Summary aggregates attempt counts, per run or overall.
type Summary struct {
	Total     int
	Succeeded int
	Failed    int
	Skipped   int
}

// RecordAttempt appends one row. The row is only written once the outcome is
// final; existing rows are never updated.
func (s *Store) RecordAttempt(ctx context.Context, attempt Attempt) (int64, error) {
	if attempt.FinishedAt.IsZero() {
		attempt.FinishedAt = time.Now().UTC()
	}
	if attempt.StartedAt.IsZero() {
		attempt.StartedAt = attempt.FinishedAt
	}

	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO attempts (
            run_id, path, stem, size_bytes, outcome, error_message,
            started_at, finished_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		attempt.RunID,
		attempt.Path,
		attempt.Stem,
		attempt.SizeBytes,
		string(attempt.Outcome),
		nullableString(attempt.ErrorMessage),
		attempt.StartedAt.UTC().Format(time.RFC3339Nano),
		attempt.FinishedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("insert attempt: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

// Recent returns the newest attempts, most recent first. A non-positive limit
// defaults to 50.
func (s *Store) Recent(ctx context.Context, limit int) ([]Attempt, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.queryAttempts(ctx,
		selectColumns+" FROM attempts ORDER BY id DESC LIMIT ?", limit)
}

// ByStem returns the full attempt history for one recording, oldest first.
func (s *Store) ByStem(ctx context.Context, stem string) ([]Attempt, error) {
	return s.queryAttempts(ctx,
		selectColumns+" FROM attempts WHERE stem = ? ORDER BY id ASC", stem)
}

// ByRun returns all attempts recorded under one run, oldest first.
func (s *Store) ByRun(ctx context.Context, runID string) ([]Attempt, error) {
	return s.queryAttempts(ctx,
		selectColumns+" FROM attempts WHERE run_id = ? ORDER BY id ASC", runID)
}

// Summarize aggregates outcome counts. An empty runID covers the whole
// ledger.
func (s *Store) Summarize(ctx context.Context, runID string) (Summary, error) {
	ctx = ensureContext(ctx)
	query := "SELECT outcome, COUNT(1) FROM attempts"
	args := []any{}
	if runID != "" {
		query += " WHERE run_id = ?"
		args = append(args, runID)
	}
	query += " GROUP BY outcome"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return Summary{}, fmt.Errorf("summarize attempts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var summary Summary
	for rows.Next() {
		var outcome string
		var count int
		if err := rows.Scan(&outcome, &count); err != nil {
			return Summary{}, fmt.Errorf("scan summary row: %w", err)
		}
		summary.Total += count
		switch Outcome(outcome) {
		case OutcomeSuccess:
			summary.Succeeded = count
		case OutcomeFailure:
			summary.Failed = count
		case OutcomeSkipped:
			summary.Skipped = count
		}
	}
	if err := rows.Err(); err != nil {
		return Summary{}, fmt.Errorf("iterate summary rows: %w", err)
	}
	return summary, nil
}

// ExportCSV streams every attempt as CSV, oldest first.
func (s *Store) ExportCSV(ctx context.Context, w io.Writer) error {
	attempts, err := s.queryAttempts(ctx, selectColumns+" FROM attempts ORDER BY id ASC")
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	header := []string{"id", "run_id", "path", "stem", "size_bytes", "outcome", "error", "started_at", "finished_at"}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, attempt := range attempts {
		record := []string{
			strconv.FormatInt(attempt.ID, 10),
			attempt.RunID,
			attempt.Path,
			attempt.Stem,
			strconv.FormatInt(attempt.SizeBytes, 10),
			string(attempt.Outcome),
			attempt.ErrorMessage,
			attempt.StartedAt.UTC().Format(time.RFC3339),
			attempt.FinishedAt.UTC().Format(time.RFC3339),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

const selectColumns = `SELECT id, run_id, path, stem, size_bytes, outcome,
    error_message, started_at, finished_at`

func (s *Store) queryAttempts(ctx context.Context, query string, args ...any) ([]Attempt, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query attempts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var attempts []Attempt
	for rows.Next() {
		attempt, err := scanAttempt(rows)
		if err != nil {
			return nil, err
		}
		attempts = append(attempts, attempt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attempts: %w", err)
	}
	return attempts, nil
}

func scanAttempt(rows *sql.Rows) (Attempt, error) {
	var (
		attempt    Attempt
		outcome    string
		errMsg     sql.NullString
		startedAt  string
		finishedAt string
	)
	if err := rows.Scan(
		&attempt.ID, &attempt.RunID, &attempt.Path, &attempt.Stem,
		&attempt.SizeBytes, &outcome, &errMsg, &startedAt, &finishedAt,
	); err != nil {
		return Attempt{}, fmt.Errorf("scan attempt: %w", err)
	}
	attempt.Outcome = Outcome(outcome)
	attempt.ErrorMessage = errMsg.String
	attempt.StartedAt = parseTimestamp(startedAt)
	attempt.FinishedAt = parseTimestamp(finishedAt)
	return attempt, nil
}

func parseTimestamp(value string) time.Time {
	ts, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return ts
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
