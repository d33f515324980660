package sqlite

import (
	"context"
	"fmt"

	"github.com/lodestar-hq/lodestar/internal/types"
)

// UpsertDiscoveredIssue idempotently writes a lightweight snapshot of
// an external issue keyed by (repo, number). first_seen_at is set once
// on insert and preserved on later updates.
func (s *SQLiteStorage) UpsertDiscoveredIssue(ctx context.Context, d *types.DiscoveredIssue) error {
	if d.Repo == "" || d.Number <= 0 {
		return fmt.Errorf("discovered issue requires repo and positive number (got %q #%d)", d.Repo, d.Number)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO discovered_issues
			(repo, issue_number, title, state, url, updated_at, first_seen_at, last_seen_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(repo, issue_number) DO UPDATE SET
			title = excluded.title,
			state = excluded.state,
			url = excluded.url,
			updated_at = excluded.updated_at,
			last_seen_at = excluded.last_seen_at`,
		d.Repo, d.Number, d.Title, string(d.State), d.URL,
		d.UpdatedAt, d.FirstSeenAt, d.LastSeenAt)
	if err != nil {
		return fmt.Errorf("failed to upsert discovered issue %s#%d: %w", d.Repo, d.Number, err)
	}
	return nil
}

// ListDiscoveredIssues returns all discovery snapshots ordered by (repo, number)
func (s *SQLiteStorage) ListDiscoveredIssues(ctx context.Context) ([]*types.DiscoveredIssue, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT repo, issue_number, title, state, url, updated_at, first_seen_at, last_seen_at
		FROM discovered_issues
		ORDER BY repo, issue_number`)
	if err != nil {
		return nil, fmt.Errorf("failed to list discovered issues: %w", err)
	}
	defer rows.Close()

	var issues []*types.DiscoveredIssue
	for rows.Next() {
		var d types.DiscoveredIssue
		if err := rows.Scan(&d.Repo, &d.Number, &d.Title, &d.State, &d.URL,
			&d.UpdatedAt, &d.FirstSeenAt, &d.LastSeenAt); err != nil {
			return nil, fmt.Errorf("failed to scan discovered issue: %w", err)
		}
		issues = append(issues, &d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate discovered issues: %w", err)
	}
	return issues, nil
}
