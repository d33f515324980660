// Package sync implements the batch reconciliation pass that keeps
// internal mirror state current against the external issue tracker.
//
// A run has two sub-passes, always in this order:
//  1. linked-issue sync: every tracked issue with a linked external
//     number gets its IssueSyncState refreshed
//  2. bulk discovery: a scoped search upserts lightweight snapshots
//     for external issues not yet linked internally
//
// The external tracker is the source of truth for mirror fields; the
// pass is one-way and sequential so ordering is deterministic and
// per-issue failures stay isolated.
package sync

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lodestar-hq/lodestar/internal/githubext"
	"github.com/lodestar-hq/lodestar/internal/status"
	"github.com/lodestar-hq/lodestar/internal/types"
)

// ExternalClient is the tracker surface the orchestrator consumes.
// Retry and backoff are owned by the implementation, not by this
// package; an error here means retries are already exhausted.
type ExternalClient interface {
	GetIssue(ctx context.Context, ref types.ExternalIssueRef) (*types.RawExternalIssue, error)
	SearchIssues(ctx context.Context, query string) ([]types.DiscoveredIssue, error)
}

// Store is the persistence surface the orchestrator consumes.
type Store interface {
	UpsertSyncState(ctx context.Context, state *types.IssueSyncState) error
	UpsertDiscoveredIssue(ctx context.Context, d *types.DiscoveredIssue) error
	CreateSyncRun(ctx context.Context, run *types.SyncRun) error
	UpdateSyncRun(ctx context.Context, runID string, runStatus types.RunStatus, totalCount, upsertedCount int, runErr string) error
}

// Config holds orchestrator configuration
type Config struct {
	// SnapshotMaxBytes is the byte budget for status snapshots.
	SnapshotMaxBytes int
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		SnapshotMaxBytes: status.DefaultSnapshotMaxBytes,
	}
}

// Orchestrator runs the reconciliation pass.
type Orchestrator struct {
	client ExternalClient
	store  Store
	log    *zap.Logger
	config *Config

	// now is swappable for tests
	now func() time.Time
}

// NewOrchestrator creates a sync orchestrator.
func NewOrchestrator(client ExternalClient, store Store, log *zap.Logger, cfg *Config) *Orchestrator {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.SnapshotMaxBytes <= 0 {
		cfg.SnapshotMaxBytes = status.DefaultSnapshotMaxBytes
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Orchestrator{
		client: client,
		store:  store,
		log:    log,
		config: cfg,
		now:    time.Now,
	}
}

// Run executes one reconciliation pass over the given tracked issues
// and records a ledger row for the invocation. Issues without a linked
// external number are out of scope. Per-issue fetch failures are
// isolated; a failed search or a failed write ends the run with a
// FAILED ledger row. Counts in the returned report always reflect
// writes that actually happened.
func (o *Orchestrator) Run(ctx context.Context, tracked []*types.TrackedIssue, searchQuery string) (*types.SyncReport, error) {
	if strings.TrimSpace(searchQuery) == "" {
		return nil, types.NewValidationError("search_query", "must not be empty")
	}

	run := &types.SyncRun{
		RunID:     uuid.NewString(),
		Query:     searchQuery,
		Status:    types.RunRunning,
		StartedAt: o.now().UTC(),
	}
	if err := o.store.CreateSyncRun(ctx, run); err != nil {
		return nil, fmt.Errorf("failed to create sync run ledger row: %w", err)
	}

	o.log.Info("sync run started",
		zap.String("run_id", run.RunID),
		zap.Int("tracked", len(tracked)))

	report := &types.SyncReport{}

	if err := o.syncLinked(ctx, tracked, report); err != nil {
		o.failRun(ctx, run.RunID, report, err)
		return report, err
	}

	if err := o.discover(ctx, tracked, searchQuery, report); err != nil {
		o.failRun(ctx, run.RunID, report, err)
		return report, err
	}

	if err := o.store.UpdateSyncRun(ctx, run.RunID, types.RunSuccess, report.TotalFound, report.Upserted, ""); err != nil {
		return report, fmt.Errorf("failed to finalize sync run ledger row: %w", err)
	}

	o.log.Info("sync run completed",
		zap.String("run_id", run.RunID),
		zap.Int("attempted", report.Attempted),
		zap.Int("fetch_ok", report.FetchOK),
		zap.Int("fetch_failed", report.FetchFailed),
		zap.Int("total_found", report.TotalFound),
		zap.Int("upserted", report.Upserted))
	return report, nil
}

// syncLinked is the linked-issue sub-pass: refresh mirror state for
// every tracked issue with a linked external number, in the total
// order (external number asc, internal id asc).
func (o *Orchestrator) syncLinked(ctx context.Context, tracked []*types.TrackedIssue, report *types.SyncReport) error {
	linked := make([]*types.TrackedIssue, 0, len(tracked))
	for _, issue := range tracked {
		if issue.Linked() {
			linked = append(linked, issue)
		}
	}
	sort.Slice(linked, func(i, j int) bool {
		ni, nj := *linked[i].ExternalIssueNumber, *linked[j].ExternalIssueNumber
		if ni != nj {
			return ni < nj
		}
		return linked[i].ID < linked[j].ID
	})

	for _, issue := range linked {
		report.Attempted++

		state, err := o.mirrorState(ctx, issue, report)
		if err != nil {
			return err
		}
		if err := o.store.UpsertSyncState(ctx, state); err != nil {
			return fmt.Errorf("failed to persist sync state for %s: %w", issue.ID, err)
		}
		report.Synced++
	}
	return nil
}

// mirrorState computes the next IssueSyncState for one linked issue.
// A fetch failure produces an ERROR state instead of aborting the run.
func (o *Orchestrator) mirrorState(ctx context.Context, issue *types.TrackedIssue, report *types.SyncReport) (*types.IssueSyncState, error) {
	ref := issue.ExternalRef()
	now := o.now().UTC()

	raw, err := o.client.GetIssue(ctx, ref)
	if err != nil {
		report.FetchFailed++
		syncErr := syncErrorFrom(err)
		o.log.Warn("external issue fetch failed",
			zap.String("issue_id", issue.ID),
			zap.String("external", ref.String()),
			zap.String("code", syncErr.Code))
		return &types.IssueSyncState{
			IssueID:             issue.ID,
			ExternalIssueNumber: ref.Number,
			MirrorStatus:        types.MirrorError,
			LastSyncAt:          now,
			SyncError:           syncErr,
		}, nil
	}
	report.FetchOK++

	mirror, sig := resolveMirror(raw)
	snapshot, err := status.BoundSnapshot(raw.State, raw.Labels, raw.UpdatedAt, raw.ClosedAt, o.config.SnapshotMaxBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to bound status snapshot for %s: %w", issue.ID, err)
	}

	state := &types.IssueSyncState{
		IssueID:             issue.ID,
		ExternalIssueNumber: ref.Number,
		MirrorStatus:        mirror,
		StatusRawSnapshot:   &snapshot,
		LastSyncAt:          now,
	}
	if !sig.Absent() {
		state.StatusSource = sig.Source
		updatedAt := raw.UpdatedAt
		state.StatusUpdatedAt = &updatedAt
	}
	return state, nil
}

// resolveMirror applies extraction, classification and the composition
// rule. A closed issue whose only "done" evidence is the closed state
// itself maps to UNKNOWN: closure without an explicit done signal may
// mean cancelled or abandoned, never proven completion.
func resolveMirror(raw *types.RawExternalIssue) (types.MirrorStatus, status.Signal) {
	sig := status.Extract(raw.ProjectStatus, raw.Labels, raw.State)
	if sig.Absent() {
		return types.MirrorUnknown, sig
	}

	mirror, ok := status.Classify(sig.Raw)
	if !ok {
		// Fail closed on unrecognized signals but keep the provenance.
		return types.MirrorUnknown, sig
	}

	if mirror == types.MirrorDone && sig.Source == types.SourceState {
		return types.MirrorUnknown, status.Signal{Source: types.SourceNone}
	}
	return mirror, sig
}

// discover is the bulk-discovery sub-pass: search the external tracker
// and idempotently upsert snapshots for issues not yet linked
// internally. It runs after the linked-issue sub-pass and never
// touches issue_sync_state rows.
func (o *Orchestrator) discover(ctx context.Context, tracked []*types.TrackedIssue, query string, report *types.SyncReport) error {
	found, err := o.client.SearchIssues(ctx, query)
	if err != nil {
		return fmt.Errorf("discovery search failed: %w", err)
	}
	report.TotalFound = len(found)

	// Locally owned ordering: upserts happen in (repo, number) order
	// regardless of how the search service ordered its results.
	sort.Slice(found, func(i, j int) bool {
		if found[i].Repo != found[j].Repo {
			return found[i].Repo < found[j].Repo
		}
		return found[i].Number < found[j].Number
	})

	linked := make(map[string]bool, len(tracked))
	for _, issue := range tracked {
		if issue.Linked() {
			key := fmt.Sprintf("%s/%s#%d", issue.ExternalOwner, issue.ExternalRepo, *issue.ExternalIssueNumber)
			linked[key] = true
		}
	}

	now := o.now().UTC()
	for i := range found {
		d := found[i]
		if linked[fmt.Sprintf("%s#%d", d.Repo, d.Number)] {
			continue
		}
		d.FirstSeenAt = now
		d.LastSeenAt = now
		if err := o.store.UpsertDiscoveredIssue(ctx, &d); err != nil {
			return fmt.Errorf("failed to persist discovered issue %s#%d: %w", d.Repo, d.Number, err)
		}
		report.Upserted++
	}
	return nil
}

// failRun marks the ledger row FAILED. The original error is what the
// caller sees; a secondary ledger-write failure is only logged.
func (o *Orchestrator) failRun(ctx context.Context, runID string, report *types.SyncReport, cause error) {
	if err := o.store.UpdateSyncRun(ctx, runID, types.RunFailed, report.TotalFound, report.Upserted, cause.Error()); err != nil {
		o.log.Error("failed to record FAILED sync run",
			zap.String("run_id", runID),
			zap.Error(err))
	}
}

// syncErrorFrom converts a client failure into the sanitized per-issue
// error record.
func syncErrorFrom(err error) *types.SyncError {
	var fe *githubext.FetchError
	if errors.As(err, &fe) {
		return &types.SyncError{Code: fe.Code, Message: fe.Message}
	}
	return &types.SyncError{Code: "fetch_failed", Message: "external issue fetch failed"}
}
