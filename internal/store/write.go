package store

import (
	"context"
	"fmt"
	"time"
)

// WriteRun inserts a run record. Duplicate IDs are silently ignored so a
// retried write is harmless.
func (s *Store) WriteRun(ctx context.Context, run Run) error {
	settings, err := marshalSettings(run.Settings)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO runs (id, seq, started_at, settings)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		run.ID,
		run.Seq,
		run.StartedAt.UTC().Format(time.RFC3339Nano),
		settings,
	)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}
	return nil
}

// WriteResult inserts one test result. The run must exist. A second result
// for the same run and test is ignored.
func (s *Store) WriteResult(ctx context.Context, r Result) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO results
		(run_id, seq, test, outcome, expected, actual, detail, tree_hash, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, test) DO NOTHING
	`,
		r.RunID,
		r.Seq,
		r.Test,
		r.Outcome,
		r.Expected,
		r.Actual,
		r.Detail,
		r.TreeHash,
		r.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("write result %s: %w", r.Test, err)
	}
	return nil
}

// WriteResults inserts results in one transaction.
func (s *Store) WriteResults(ctx context.Context, results []Result) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write results: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO results
		(run_id, seq, test, outcome, expected, actual, detail, tree_hash, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, test) DO NOTHING
	`)
	if err != nil {
		return fmt.Errorf("write results: %w", err)
	}
	defer stmt.Close()

	for _, r := range results {
		if _, err := stmt.ExecContext(ctx,
			r.RunID, r.Seq, r.Test, r.Outcome, r.Expected, r.Actual, r.Detail, r.TreeHash, r.Duration.Milliseconds(),
		); err != nil {
			return fmt.Errorf("write result %s: %w", r.Test, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write results: commit: %w", err)
	}
	return nil
}

// NextRunSeq returns one more than the highest run seq stored.
func (s *Store) NextRunSeq(ctx context.Context) (int64, error) {
	var max int64
	if err := s.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) FROM runs`).Scan(&max); err != nil {
		return 0, fmt.Errorf("next run seq: %w", err)
	}
	return max + 1, nil
}
