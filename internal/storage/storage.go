package storage

import (
	"context"

	"github.com/lodestar-hq/lodestar/internal/storage/sqlite"
	"github.com/lodestar-hq/lodestar/internal/types"
)

// ErrNotFound is returned when a requested row does not exist
var ErrNotFound = sqlite.ErrNotFound

// Storage defines the interface for the tracked-issue store
type Storage interface {
	// Tracked issues
	CreateTrackedIssue(ctx context.Context, issue *types.TrackedIssue) error
	GetTrackedIssue(ctx context.Context, id string) (*types.TrackedIssue, error)
	LinkExternalIssue(ctx context.Context, id, owner, repo string, number int) error
	ListTrackedIssues(ctx context.Context) ([]*types.TrackedIssue, error)
	ListLinkedIssues(ctx context.Context) ([]*types.TrackedIssue, error)

	// Mirror state - written only by the sync orchestrator
	UpsertSyncState(ctx context.Context, state *types.IssueSyncState) error
	GetSyncState(ctx context.Context, issueID string) (*types.IssueSyncState, error)
	ListSyncStates(ctx context.Context) ([]*types.IssueSyncState, error)

	// Discovery snapshots - keyed by (repo, number)
	UpsertDiscoveredIssue(ctx context.Context, d *types.DiscoveredIssue) error
	ListDiscoveredIssues(ctx context.Context) ([]*types.DiscoveredIssue, error)

	// Sync run ledger - append-only, one row per invocation
	CreateSyncRun(ctx context.Context, run *types.SyncRun) error
	UpdateSyncRun(ctx context.Context, runID string, status types.RunStatus, totalCount, upsertedCount int, runErr string) error
	GetSyncRun(ctx context.Context, runID string) (*types.SyncRun, error)
	ListSyncRuns(ctx context.Context, limit int) ([]*types.SyncRun, error)

	// Lifecycle
	Close() error
}

// Config holds database configuration
type Config struct {
	// Path is the SQLite database file path.
	// Special value ":memory:" creates an in-memory database (useful for tests)
	Path string
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Path: ".lodestar/lodestar.db",
	}
}

// NewStorage creates a new SQLite storage backend
func NewStorage(_ context.Context, cfg *Config) (Storage, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.Path == "" {
		cfg.Path = DefaultConfig().Path
	}
	return sqlite.New(cfg.Path)
}
