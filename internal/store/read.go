package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// ListRuns returns all runs, most recent first.
//
// Returns an empty slice (not nil) if the history is empty.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, started_at, corpus, engine, passed, failed, skipped, nodes
		FROM runs
		ORDER BY started_at DESC, id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}

	return runs, nil
}

// GetRun returns one run by ID, or sql.ErrNoRows if it doesn't exist.
func (s *Store) GetRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, started_at, corpus, engine, passed, failed, skipped, nodes
		FROM runs
		WHERE id = ?
	`, id)
	return scanRun(row)
}

// ResultsForRun returns a run's results in insertion order, which is corpus
// order. An empty status filters nothing; otherwise only rows with that
// status are returned (e.g. "FAIL" to list regressions).
func (s *Store) ResultsForRun(ctx context.Context, runID, status string) ([]Result, error) {
	query := `
		SELECT run_id, position, depth, expected, actual, status, diagnostic
		FROM results
		WHERE run_id = ?
	`
	args := []any{runID}
	if status != "" {
		query += " AND status = ?"
		args = append(args, status)
	}
	query += " ORDER BY id ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}
	defer rows.Close()

	results := []Result{}
	for rows.Next() {
		var r Result
		var expected int64
		var actual sql.NullInt64
		if err := rows.Scan(&r.RunID, &r.Position, &r.Depth, &expected, &actual, &r.Status, &r.Diagnostic); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		r.Expected = uint64(expected)
		if actual.Valid {
			a := uint64(actual.Int64)
			r.Actual = &a
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate results: %w", err)
	}

	return results, nil
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var run Run
	var started string
	var nodes int64
	if err := row.Scan(&run.ID, &started, &run.Corpus, &run.Engine,
		&run.Passed, &run.Failed, &run.Skipped, &nodes); err != nil {
		return Run{}, fmt.Errorf("scan run: %w", err)
	}

	ts, err := time.Parse(time.RFC3339, started)
	if err != nil {
		return Run{}, fmt.Errorf("scan run: bad started_at %q: %w", started, err)
	}
	run.StartedAt = ts
	run.Nodes = uint64(nodes)
	return run, nil
}
