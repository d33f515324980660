package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lodestar-hq/lodestar/internal/types"
)

// CreateSyncRun inserts a ledger row for a new sync invocation
func (s *SQLiteStorage) CreateSyncRun(ctx context.Context, run *types.SyncRun) error {
	if run.RunID == "" {
		return fmt.Errorf("run id is required")
	}
	if !run.Status.IsValid() {
		return fmt.Errorf("invalid run status: %s", run.Status)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sync_runs (run_id, query, status, total_count, upserted_count, error, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.RunID, run.Query, string(run.Status), run.TotalCount, run.UpsertedCount,
		run.Error, run.StartedAt)
	if err != nil {
		return fmt.Errorf("failed to create sync run %s: %w", run.RunID, err)
	}
	return nil
}

// UpdateSyncRun records the terminal outcome of a run. The ledger is
// append-only: each row is updated exactly once, when the run ends.
func (s *SQLiteStorage) UpdateSyncRun(ctx context.Context, runID string, status types.RunStatus, totalCount, upsertedCount int, runErr string) error {
	if !status.IsValid() {
		return fmt.Errorf("invalid run status: %s", status)
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE sync_runs
		SET status = ?, total_count = ?, upserted_count = ?, error = ?, finished_at = ?
		WHERE run_id = ?`,
		string(status), totalCount, upsertedCount, runErr, time.Now().UTC(), runID)
	if err != nil {
		return fmt.Errorf("failed to update sync run %s: %w", runID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result for run %s: %w", runID, err)
	}
	if affected == 0 {
		return fmt.Errorf("sync run %s: %w", runID, ErrNotFound)
	}
	return nil
}

// GetSyncRun retrieves one ledger row
func (s *SQLiteStorage) GetSyncRun(ctx context.Context, runID string) (*types.SyncRun, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT run_id, query, status, total_count, upserted_count, error, started_at, finished_at
		FROM sync_runs WHERE run_id = ?`, runID)

	run, err := scanSyncRun(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("sync run %s: %w", runID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sync run %s: %w", runID, err)
	}
	return run, nil
}

// ListSyncRuns returns the most recent ledger rows, newest first
func (s *SQLiteStorage) ListSyncRuns(ctx context.Context, limit int) ([]*types.SyncRun, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, query, status, total_count, upserted_count, error, started_at, finished_at
		FROM sync_runs
		ORDER BY started_at DESC, run_id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list sync runs: %w", err)
	}
	defer rows.Close()

	var runs []*types.SyncRun
	for rows.Next() {
		run, err := scanSyncRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sync run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sync runs: %w", err)
	}
	return runs, nil
}

func scanSyncRun(row rowScanner) (*types.SyncRun, error) {
	var run types.SyncRun
	var finishedAt sql.NullTime

	err := row.Scan(&run.RunID, &run.Query, &run.Status, &run.TotalCount,
		&run.UpsertedCount, &run.Error, &run.StartedAt, &finishedAt)
	if err != nil {
		return nil, err
	}
	if finishedAt.Valid {
		t := finishedAt.Time
		run.FinishedAt = &t
	}
	return &run, nil
}
