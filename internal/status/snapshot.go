package status

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/lodestar-hq/lodestar/internal/types"
)

// DefaultSnapshotMaxBytes is the storage budget for a serialized
// status snapshot.
const DefaultSnapshotMaxBytes = 256

// snapshot is the serialized form persisted in IssueSyncState.
// Field order is fixed by the struct so identical inputs always
// serialize identically.
type snapshot struct {
	State     types.IssueState `json:"state"`
	Labels    []string         `json:"labels"`
	UpdatedAt time.Time        `json:"updated_at"`
	ClosedAt  *time.Time       `json:"closed_at,omitempty"`
}

// BoundSnapshot serializes an external issue's status fields and
// deterministically truncates the result to maxBytes. Labels are
// sorted ascending and, when the budget is exceeded, removed from the
// end one at a time: the lexicographically largest remaining label
// always goes first, so any permutation of the same label set
// truncates to the same retained subset. State, updatedAt and closedAt
// are never trimmed.
func BoundSnapshot(state types.IssueState, labels []string, updatedAt time.Time, closedAt *time.Time, maxBytes int) (string, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultSnapshotMaxBytes
	}

	sorted := make([]string, len(labels))
	copy(sorted, labels)
	sort.Strings(sorted)

	snap := snapshot{
		State:     state,
		Labels:    sorted,
		UpdatedAt: updatedAt.UTC(),
		ClosedAt:  closedAt,
	}

	for {
		data, err := json.Marshal(snap)
		if err != nil {
			return "", fmt.Errorf("failed to serialize status snapshot: %w", err)
		}
		if len(data) <= maxBytes || len(snap.Labels) == 0 {
			return string(data), nil
		}
		snap.Labels = snap.Labels[:len(snap.Labels)-1]
	}
}
