package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lodestar-hq/lodestar/internal/types"
)

// UpsertSyncState writes the mirror state for one tracked issue. Each
// issue maps to a disjoint row, so per-issue writes need no cross-issue
// locking.
func (s *SQLiteStorage) UpsertSyncState(ctx context.Context, state *types.IssueSyncState) error {
	if !state.MirrorStatus.IsValid() {
		return fmt.Errorf("invalid mirror status: %s", state.MirrorStatus)
	}

	var source sql.NullString
	if state.StatusSource != "" {
		source = sql.NullString{String: string(state.StatusSource), Valid: true}
	}
	var errCode, errMsg sql.NullString
	if state.SyncError != nil {
		errCode = sql.NullString{String: state.SyncError.Code, Valid: true}
		errMsg = sql.NullString{String: state.SyncError.Message, Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO issue_sync_state
			(issue_id, external_issue_number, mirror_status, status_raw_snapshot,
			 status_source, status_updated_at, last_sync_at, sync_error_code, sync_error_message)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(issue_id) DO UPDATE SET
			external_issue_number = excluded.external_issue_number,
			mirror_status = excluded.mirror_status,
			status_raw_snapshot = excluded.status_raw_snapshot,
			status_source = excluded.status_source,
			status_updated_at = excluded.status_updated_at,
			last_sync_at = excluded.last_sync_at,
			sync_error_code = excluded.sync_error_code,
			sync_error_message = excluded.sync_error_message`,
		state.IssueID, state.ExternalIssueNumber, string(state.MirrorStatus),
		state.StatusRawSnapshot, source, state.StatusUpdatedAt, state.LastSyncAt,
		errCode, errMsg)
	if err != nil {
		return fmt.Errorf("failed to upsert sync state for %s: %w", state.IssueID, err)
	}
	return nil
}

// GetSyncState retrieves the mirror state for one tracked issue
func (s *SQLiteStorage) GetSyncState(ctx context.Context, issueID string) (*types.IssueSyncState, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT issue_id, external_issue_number, mirror_status, status_raw_snapshot,
		       status_source, status_updated_at, last_sync_at, sync_error_code, sync_error_message
		FROM issue_sync_state WHERE issue_id = ?`, issueID)

	state, err := scanSyncState(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("sync state for %s: %w", issueID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sync state for %s: %w", issueID, err)
	}
	return state, nil
}

// ListSyncStates returns all mirror states ordered by (external number, issue id)
func (s *SQLiteStorage) ListSyncStates(ctx context.Context) ([]*types.IssueSyncState, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT issue_id, external_issue_number, mirror_status, status_raw_snapshot,
		       status_source, status_updated_at, last_sync_at, sync_error_code, sync_error_message
		FROM issue_sync_state
		ORDER BY external_issue_number, issue_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sync states: %w", err)
	}
	defer rows.Close()

	var states []*types.IssueSyncState
	for rows.Next() {
		state, err := scanSyncState(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sync state: %w", err)
		}
		states = append(states, state)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sync states: %w", err)
	}
	return states, nil
}

func scanSyncState(row rowScanner) (*types.IssueSyncState, error) {
	var state types.IssueSyncState
	var snapshot, source, errCode, errMsg sql.NullString
	var statusUpdatedAt sql.NullTime

	err := row.Scan(&state.IssueID, &state.ExternalIssueNumber, &state.MirrorStatus,
		&snapshot, &source, &statusUpdatedAt, &state.LastSyncAt, &errCode, &errMsg)
	if err != nil {
		return nil, err
	}

	if snapshot.Valid {
		state.StatusRawSnapshot = &snapshot.String
	}
	if source.Valid {
		state.StatusSource = types.StatusSource(source.String)
	}
	if statusUpdatedAt.Valid {
		t := statusUpdatedAt.Time
		state.StatusUpdatedAt = &t
	}
	if errCode.Valid {
		state.SyncError = &types.SyncError{Code: errCode.String, Message: errMsg.String}
	}
	return &state, nil
}
