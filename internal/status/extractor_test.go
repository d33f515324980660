package status

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lodestar-hq/lodestar/internal/types"
)

func TestExtractPrecedence(t *testing.T) {
	tests := []struct {
		name          string
		projectStatus string
		labels        []string
		state         types.IssueState
		wantRaw       string
		wantSource    types.StatusSource
	}{
		{
			name:          "project field wins over everything",
			projectStatus: "In Progress",
			labels:        []string{"status: done"},
			state:         types.IssueStateClosed,
			wantRaw:       "In Progress",
			wantSource:    types.SourceProject,
		},
		{
			name:       "status label wins over closed state",
			labels:     []string{"bug", "status: blocked"},
			state:      types.IssueStateClosed,
			wantRaw:    "status: blocked",
			wantSource: types.SourceLabel,
		},
		{
			name:       "first status label wins",
			labels:     []string{"status: review", "status: done"},
			state:      types.IssueStateOpen,
			wantRaw:    "status: review",
			wantSource: types.SourceLabel,
		},
		{
			name:       "closed state fallback",
			labels:     []string{"bug"},
			state:      types.IssueStateClosed,
			wantRaw:    "closed",
			wantSource: types.SourceState,
		},
		{
			name:       "nothing",
			labels:     []string{"bug", "p1"},
			state:      types.IssueStateOpen,
			wantSource: types.SourceNone,
		},
		{
			name:          "whitespace project field is ignored",
			projectStatus: "   ",
			labels:        nil,
			state:         types.IssueStateOpen,
			wantSource:    types.SourceNone,
		},
		{
			name:       "empty status label value is skipped",
			labels:     []string{"status: ", "status: todo"},
			state:      types.IssueStateOpen,
			wantRaw:    "status: todo",
			wantSource: types.SourceLabel,
		},
		{
			name:       "label prefix match is case-insensitive",
			labels:     []string{"Status: Done"},
			state:      types.IssueStateOpen,
			wantRaw:    "Status: Done",
			wantSource: types.SourceLabel,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sig := Extract(tt.projectStatus, tt.labels, tt.state)
			assert.Equal(t, tt.wantSource, sig.Source)
			assert.Equal(t, tt.wantRaw, sig.Raw)
		})
	}
}

func TestExtractIsDeterministic(t *testing.T) {
	labels := []string{"bug", "status: in progress", "p2"}
	first := Extract("", labels, types.IssueStateOpen)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Extract("", labels, types.IssueStateOpen))
	}
}

func TestSignalAbsent(t *testing.T) {
	assert.True(t, Signal{Source: types.SourceNone}.Absent())
	assert.False(t, Signal{Raw: "closed", Source: types.SourceState}.Absent())
}
