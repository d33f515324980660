package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lodestar-hq/lodestar/internal/types"
)

// CreateTrackedIssue creates a new tracked issue
func (s *SQLiteStorage) CreateTrackedIssue(ctx context.Context, issue *types.TrackedIssue) error {
	if err := issue.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now().UTC()
	issue.CreatedAt = now
	issue.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tracked_issues (id, title, external_owner, external_repo, external_issue_number, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		issue.ID, issue.Title, issue.ExternalOwner, issue.ExternalRepo,
		issue.ExternalIssueNumber, issue.CreatedAt, issue.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create tracked issue %s: %w", issue.ID, err)
	}
	return nil
}

// GetTrackedIssue retrieves a tracked issue by id
func (s *SQLiteStorage) GetTrackedIssue(ctx context.Context, id string) (*types.TrackedIssue, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, title, external_owner, external_repo, external_issue_number, created_at, updated_at
		FROM tracked_issues WHERE id = ?`, id)

	issue, err := scanTrackedIssue(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("tracked issue %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get tracked issue %s: %w", id, err)
	}
	return issue, nil
}

// LinkExternalIssue attaches an external issue reference to a tracked issue
func (s *SQLiteStorage) LinkExternalIssue(ctx context.Context, id, owner, repo string, number int) error {
	if number <= 0 {
		return fmt.Errorf("external issue number must be positive (got %d)", number)
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE tracked_issues
		SET external_owner = ?, external_repo = ?, external_issue_number = ?, updated_at = ?
		WHERE id = ?`,
		owner, repo, number, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to link issue %s: %w", id, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check link result for %s: %w", id, err)
	}
	if affected == 0 {
		return fmt.Errorf("tracked issue %s: %w", id, ErrNotFound)
	}
	return nil
}

// ListTrackedIssues returns all tracked issues ordered by id
func (s *SQLiteStorage) ListTrackedIssues(ctx context.Context) ([]*types.TrackedIssue, error) {
	return s.listTracked(ctx, `
		SELECT id, title, external_owner, external_repo, external_issue_number, created_at, updated_at
		FROM tracked_issues ORDER BY id`)
}

// ListLinkedIssues returns tracked issues with a linked external number,
// ordered by (external number, id) - the sync pass processing order.
func (s *SQLiteStorage) ListLinkedIssues(ctx context.Context) ([]*types.TrackedIssue, error) {
	return s.listTracked(ctx, `
		SELECT id, title, external_owner, external_repo, external_issue_number, created_at, updated_at
		FROM tracked_issues
		WHERE external_issue_number IS NOT NULL
		ORDER BY external_issue_number, id`)
}

func (s *SQLiteStorage) listTracked(ctx context.Context, query string) ([]*types.TrackedIssue, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list tracked issues: %w", err)
	}
	defer rows.Close()

	var issues []*types.TrackedIssue
	for rows.Next() {
		issue, err := scanTrackedIssue(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan tracked issue: %w", err)
		}
		issues = append(issues, issue)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tracked issues: %w", err)
	}
	return issues, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTrackedIssue(row rowScanner) (*types.TrackedIssue, error) {
	var issue types.TrackedIssue
	var number sql.NullInt64

	err := row.Scan(&issue.ID, &issue.Title, &issue.ExternalOwner, &issue.ExternalRepo,
		&number, &issue.CreatedAt, &issue.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if number.Valid {
		n := int(number.Int64)
		issue.ExternalIssueNumber = &n
	}
	return &issue, nil
}
