package status

import (
	"encoding/json"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lodestar-hq/lodestar/internal/types"
)

func decodeSnapshot(t *testing.T, raw string) (types.IssueState, []string) {
	t.Helper()
	var snap struct {
		State  types.IssueState `json:"state"`
		Labels []string         `json:"labels"`
	}
	require.NoError(t, json.Unmarshal([]byte(raw), &snap))
	return snap.State, snap.Labels
}

func TestBoundSnapshotUnderBudget(t *testing.T) {
	updated := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	out, err := BoundSnapshot(types.IssueStateOpen, []string{"bug", "p1"}, updated, nil, 256)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(out), 256)

	state, labels := decodeSnapshot(t, out)
	assert.Equal(t, types.IssueStateOpen, state)
	assert.Equal(t, []string{"bug", "p1"}, labels)
	assert.Contains(t, out, "2026-03-14T09:00:00Z")
}

func TestBoundSnapshotTrimsLargestLabelFirst(t *testing.T) {
	updated := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	labels := []string{
		"aaaa-" + strings.Repeat("x", 40),
		"bbbb-" + strings.Repeat("x", 40),
		"cccc-" + strings.Repeat("x", 40),
		"dddd-" + strings.Repeat("x", 40),
	}

	out, err := BoundSnapshot(types.IssueStateClosed, labels, updated, &updated, 180)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(out), 180)

	_, kept := decodeSnapshot(t, out)
	require.NotEmpty(t, kept)
	// The lexicographically largest labels are dropped first, so
	// whatever remains is a prefix of the ascending-sorted set.
	for i, l := range kept {
		assert.Equal(t, labels[i], l)
	}
	assert.Less(t, len(kept), len(labels))
}

func TestBoundSnapshotDeterministicAcrossPermutations(t *testing.T) {
	updated := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	labels := []string{"zeta-label", "alpha-label", "mid-label", "omega-label", "beta-label"}

	reference, err := BoundSnapshot(types.IssueStateOpen, labels, updated, nil, 100)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 20; i++ {
		shuffled := make([]string, len(labels))
		copy(shuffled, labels)
		rng.Shuffle(len(shuffled), func(a, b int) {
			shuffled[a], shuffled[b] = shuffled[b], shuffled[a]
		})

		out, err := BoundSnapshot(types.IssueStateOpen, shuffled, updated, nil, 100)
		require.NoError(t, err)
		assert.Equal(t, reference, out, "permutation %d produced a different snapshot", i)
	}
}

func TestBoundSnapshotNeverTrimsFixedFields(t *testing.T) {
	updated := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	closed := updated.Add(time.Hour)

	// Budget so tight every label is dropped.
	out, err := BoundSnapshot(types.IssueStateClosed, []string{"a", "b", "c"}, updated, &closed, 10)
	require.NoError(t, err)

	state, labels := decodeSnapshot(t, out)
	assert.Equal(t, types.IssueStateClosed, state)
	assert.Empty(t, labels)
	assert.Contains(t, out, "closed_at")
}

func TestBoundSnapshotDefaultBudget(t *testing.T) {
	out, err := BoundSnapshot(types.IssueStateOpen, nil, time.Now(), nil, 0)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(out), DefaultSnapshotMaxBytes)
}
