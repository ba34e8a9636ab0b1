package store

import (
	"context"
	"fmt"
	"time"

	"github.com/roach88/perftcheck/internal/harness"
)

// CreateRun inserts a run row with a zero tally. Call FinishRun once the
// harness loop completes to persist the final counts.
func (s *Store) CreateRun(ctx context.Context, id, corpus, engine string, startedAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, started_at, corpus, engine)
		VALUES (?, ?, ?, ?)
	`, id, startedAt.UTC().Format(time.RFC3339), corpus, engine)
	if err != nil {
		return fmt.Errorf("create run: %w", err)
	}
	return nil
}

// FinishRun persists the final tally for a run.
func (s *Store) FinishRun(ctx context.Context, id string, tally harness.Tally) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE runs SET passed = ?, failed = ?, skipped = ?, nodes = ?
		WHERE id = ?
	`, tally.Passed, tally.Failed, tally.Skipped, int64(tally.Nodes), id)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("finish run: no run with id %q", id)
	}
	return nil
}

// RecordOutcome inserts one evaluated expectation. Implements
// harness.Recorder, so a Store can be attached directly to a harness run.
func (s *Store) RecordOutcome(ctx context.Context, runID string, o harness.Outcome) error {
	var actual any
	if o.Status != harness.StatusSkip {
		actual = int64(o.Actual)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO results (run_id, position, depth, expected, actual, status, diagnostic)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, runID, o.Position, o.Depth, int64(o.Expected), actual, string(o.Status), o.Diagnostic)
	if err != nil {
		return fmt.Errorf("record outcome: %w", err)
	}
	return nil
}
