package types

import (
	"fmt"
	"strings"
	"time"
)

// TrackedIssue represents an internally tracked work item that may be
// linked to an issue in the external tracker.
type TrackedIssue struct {
	ID                  string    `json:"id"`
	Title               string    `json:"title"`
	ExternalOwner       string    `json:"external_owner,omitempty"`
	ExternalRepo        string    `json:"external_repo,omitempty"`
	ExternalIssueNumber *int      `json:"external_issue_number,omitempty"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// Validate checks if the tracked issue has valid field values
func (t *TrackedIssue) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return fmt.Errorf("id is required")
	}
	if len(t.Title) == 0 {
		return fmt.Errorf("title is required")
	}
	if len(t.Title) > 500 {
		return fmt.Errorf("title must be 500 characters or less (got %d)", len(t.Title))
	}
	if t.ExternalIssueNumber != nil && *t.ExternalIssueNumber <= 0 {
		return fmt.Errorf("external_issue_number must be positive (got %d)", *t.ExternalIssueNumber)
	}
	return nil
}

// Linked reports whether the issue has an external issue attached.
func (t *TrackedIssue) Linked() bool {
	return t.ExternalIssueNumber != nil
}

// ExternalRef returns the external issue reference for a linked issue.
func (t *TrackedIssue) ExternalRef() ExternalIssueRef {
	ref := ExternalIssueRef{Owner: t.ExternalOwner, Repo: t.ExternalRepo}
	if t.ExternalIssueNumber != nil {
		ref.Number = *t.ExternalIssueNumber
	}
	return ref
}

// ExternalIssueRef identifies an issue in the external tracker
type ExternalIssueRef struct {
	Owner  string `json:"owner"`
	Repo   string `json:"repo"`
	Number int    `json:"number"`
}

func (r ExternalIssueRef) String() string {
	return fmt.Sprintf("%s/%s#%d", r.Owner, r.Repo, r.Number)
}

// IssueState is the open/closed state of an external issue
type IssueState string

const (
	IssueStateOpen   IssueState = "open"
	IssueStateClosed IssueState = "closed"
)

// IsValid checks if the issue state value is valid
func (s IssueState) IsValid() bool {
	switch s {
	case IssueStateOpen, IssueStateClosed:
		return true
	}
	return false
}

// RawExternalIssue is the unprocessed view of an external issue as
// returned by the tracker client. Labels preserve API order.
type RawExternalIssue struct {
	Ref           ExternalIssueRef `json:"ref"`
	State         IssueState       `json:"state"`
	Title         string           `json:"title"`
	Body          string           `json:"body,omitempty"`
	Labels        []string         `json:"labels"`
	ProjectStatus string           `json:"project_status,omitempty"`
	UpdatedAt     time.Time        `json:"updated_at"`
	ClosedAt      *time.Time       `json:"closed_at,omitempty"`
	URL           string           `json:"url,omitempty"`
}

// MirrorStatus is the internally stored reflection of an issue's
// external progress. It is distinct from any internally authoritative
// workflow status and is only ever written by the sync pass.
type MirrorStatus string

const (
	MirrorUnknown    MirrorStatus = "unknown"
	MirrorOpen       MirrorStatus = "open"
	MirrorInProgress MirrorStatus = "in_progress"
	MirrorMergeReady MirrorStatus = "merge_ready"
	MirrorDone       MirrorStatus = "done"
	MirrorHold       MirrorStatus = "hold"
	MirrorClosed     MirrorStatus = "closed"
	MirrorError      MirrorStatus = "error"
)

// IsValid checks if the mirror status value is valid
func (m MirrorStatus) IsValid() bool {
	switch m {
	case MirrorUnknown, MirrorOpen, MirrorInProgress, MirrorMergeReady,
		MirrorDone, MirrorHold, MirrorClosed, MirrorError:
		return true
	}
	return false
}

// StatusSource records which external signal produced a mirror status
type StatusSource string

const (
	SourceProject StatusSource = "external_project"
	SourceLabel   StatusSource = "external_label"
	SourceState   StatusSource = "external_state"
	SourceNone    StatusSource = "none"
)

// IsValid checks if the status source value is valid
func (s StatusSource) IsValid() bool {
	switch s {
	case SourceProject, SourceLabel, SourceState, SourceNone:
		return true
	}
	return false
}

// SyncError is the sanitized record of a per-issue fetch failure.
// It carries a stable code and a short message, never raw stack
// traces or credential material.
type SyncError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IssueSyncState is the persisted mirror state for one tracked issue.
// Only the sync orchestrator writes these rows; user-facing edit flows
// never touch them.
type IssueSyncState struct {
	IssueID             string       `json:"issue_id"`
	ExternalIssueNumber int          `json:"external_issue_number"`
	MirrorStatus        MirrorStatus `json:"mirror_status"`
	StatusRawSnapshot   *string      `json:"status_raw_snapshot,omitempty"`
	StatusSource        StatusSource `json:"status_source,omitempty"`
	StatusUpdatedAt     *time.Time   `json:"status_updated_at,omitempty"`
	LastSyncAt          time.Time    `json:"last_sync_at"`
	SyncError           *SyncError   `json:"sync_error,omitempty"`
}

// MatchMode indicates whether a canonical-id resolution found an issue
type MatchMode string

const (
	MatchFound    MatchMode = "found"
	MatchNotFound MatchMode = "not_found"
)

// MarkerLocation identifies where a canonical-id marker was embedded
type MarkerLocation string

const (
	MarkerBody  MarkerLocation = "body"
	MarkerTitle MarkerLocation = "title"
)

// CanonicalMatch is the ephemeral result of resolving a canonical id
// against the external tracker. It is never persisted.
type CanonicalMatch struct {
	Mode        MatchMode      `json:"mode"`
	IssueNumber int            `json:"issue_number,omitempty"`
	IssueURL    string         `json:"issue_url,omitempty"`
	MatchedBy   MarkerLocation `json:"matched_by,omitempty"`
}

// IssueCandidate is a search hit considered during canonical-id
// resolution. Pull requests are excluded before candidates are built.
type IssueCandidate struct {
	Number int    `json:"number"`
	Title  string `json:"title"`
	Body   string `json:"body"`
	URL    string `json:"url"`
}

// DiscoveredIssue is a lightweight snapshot of an external issue found
// by the bulk-discovery sub-pass, keyed by (repo, number).
type DiscoveredIssue struct {
	Repo        string    `json:"repo"`
	Number      int       `json:"number"`
	Title       string    `json:"title"`
	State       IssueState `json:"state"`
	URL         string    `json:"url"`
	UpdatedAt   time.Time `json:"updated_at"`
	FirstSeenAt time.Time `json:"first_seen_at"`
	LastSeenAt  time.Time `json:"last_seen_at"`
}

// RunStatus is the terminal status of a sync run
type RunStatus string

const (
	RunRunning RunStatus = "RUNNING"
	RunSuccess RunStatus = "SUCCESS"
	RunFailed  RunStatus = "FAILED"
)

// IsValid checks if the run status value is valid
func (s RunStatus) IsValid() bool {
	switch s {
	case RunRunning, RunSuccess, RunFailed:
		return true
	}
	return false
}

// SyncRun is one append-only ledger row per sync invocation. The row is
// created when the run starts and updated exactly once when it ends.
type SyncRun struct {
	RunID         string     `json:"run_id"`
	Query         string     `json:"query"`
	TotalCount    int        `json:"total_count"`
	UpsertedCount int        `json:"upserted_count"`
	Status        RunStatus  `json:"status"`
	Error         string     `json:"error,omitempty"`
	StartedAt     time.Time  `json:"started_at"`
	FinishedAt    *time.Time `json:"finished_at,omitempty"`
}

// SyncReport holds the structured counts returned to callers of the
// sync pass. Partial degradation is always observable: attempted,
// fetchOk and fetchFailed are reported separately so a caller can tell
// a clean run from a degraded one.
type SyncReport struct {
	Attempted   int `json:"attempted"`
	FetchOK     int `json:"fetch_ok"`
	FetchFailed int `json:"fetch_failed"`
	Synced      int `json:"synced"`
	TotalFound  int `json:"total_found"`
	Upserted    int `json:"upserted"`
}
