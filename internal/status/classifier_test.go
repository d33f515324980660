package status

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lodestar-hq/lodestar/internal/types"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		raw    string
		want   types.MirrorStatus
		wantOK bool
	}{
		// in-progress family
		{"in progress", types.MirrorInProgress, true},
		{"In-Progress", types.MirrorInProgress, true},
		{"status: in progress", types.MirrorInProgress, true},
		{"implementing", types.MirrorInProgress, true},
		{"WIP", types.MirrorInProgress, true},

		// merge-ready family
		{"review", types.MirrorMergeReady, true},
		{"ready for review", types.MirrorMergeReady, true},
		{"merge-ready", types.MirrorMergeReady, true},
		{"PR", types.MirrorMergeReady, true},

		// done family
		{"done", types.MirrorDone, true},
		{"Completed", types.MirrorDone, true},
		{"closed", types.MirrorDone, true},
		{"status: done", types.MirrorDone, true},

		// hold family
		{"blocked", types.MirrorHold, true},
		{"on hold", types.MirrorHold, true},
		{"waiting", types.MirrorHold, true},

		// open family
		{"ready", types.MirrorOpen, true},
		{"todo", types.MirrorOpen, true},
		{"Backlog", types.MirrorOpen, true},

		// fail-closed
		{"", "", false},
		{"   ", "", false},
		{"weird custom state", "", false},
		{"status:", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := Classify(tt.raw)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClassifyWordBoundaries(t *testing.T) {
	// "in progress" contains the letters "pr" but must not classify as
	// merge-ready.
	got, ok := Classify("in progress")
	assert.True(t, ok)
	assert.Equal(t, types.MirrorInProgress, got)

	// "merge ready" must not fall through to the open family via "ready".
	got, ok = Classify("merge ready")
	assert.True(t, ok)
	assert.Equal(t, types.MirrorMergeReady, got)
}
