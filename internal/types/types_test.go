package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackedIssueValidate(t *testing.T) {
	num := 12
	badNum := -1

	tests := []struct {
		name    string
		issue   TrackedIssue
		wantErr string
	}{
		{
			name:  "valid unlinked issue",
			issue: TrackedIssue{ID: "ls-1", Title: "Fix flaky export"},
		},
		{
			name:  "valid linked issue",
			issue: TrackedIssue{ID: "ls-2", Title: "Mirror drift", ExternalIssueNumber: &num},
		},
		{
			name:    "missing id",
			issue:   TrackedIssue{Title: "No id"},
			wantErr: "id is required",
		},
		{
			name:    "missing title",
			issue:   TrackedIssue{ID: "ls-3"},
			wantErr: "title is required",
		},
		{
			name:    "negative external number",
			issue:   TrackedIssue{ID: "ls-4", Title: "Bad link", ExternalIssueNumber: &badNum},
			wantErr: "external_issue_number must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.issue.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestMirrorStatusIsValid(t *testing.T) {
	valid := []MirrorStatus{
		MirrorUnknown, MirrorOpen, MirrorInProgress, MirrorMergeReady,
		MirrorDone, MirrorHold, MirrorClosed, MirrorError,
	}
	for _, m := range valid {
		assert.True(t, m.IsValid(), "expected %q to be valid", m)
	}
	assert.False(t, MirrorStatus("finished").IsValid())
	assert.False(t, MirrorStatus("").IsValid())
}

func TestStatusSourceIsValid(t *testing.T) {
	for _, s := range []StatusSource{SourceProject, SourceLabel, SourceState, SourceNone} {
		assert.True(t, s.IsValid(), "expected %q to be valid", s)
	}
	assert.False(t, StatusSource("external_webhook").IsValid())
}

func TestLinkedAndExternalRef(t *testing.T) {
	num := 42
	issue := TrackedIssue{
		ID:                  "ls-9",
		Title:               "Linked",
		ExternalOwner:       "lodestar-hq",
		ExternalRepo:        "delivery",
		ExternalIssueNumber: &num,
	}
	require.True(t, issue.Linked())

	ref := issue.ExternalRef()
	assert.Equal(t, "lodestar-hq/delivery#42", ref.String())

	unlinked := TrackedIssue{ID: "ls-10", Title: "Unlinked"}
	assert.False(t, unlinked.Linked())
	assert.Zero(t, unlinked.ExternalRef().Number)
}

func TestValidationError(t *testing.T) {
	err := NewValidationError("canonical_id", "must not be empty")
	assert.Equal(t, "invalid canonical_id: must not be empty", err.Error())
}
