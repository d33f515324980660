package status

import (
	"strings"

	"github.com/lodestar-hq/lodestar/internal/types"
)

// family groups the keywords that map a normalized raw signal onto one
// mirror status. Families are evaluated in order; the order matters
// because keywords overlap ("merge ready" contains "ready", "ready for
// review" must classify as merge-ready rather than open).
type family struct {
	status   types.MirrorStatus
	keywords []string
}

var families = []family{
	{types.MirrorMergeReady, []string{"merge ready", "review", "reviewing", "pr"}},
	{types.MirrorInProgress, []string{"in progress", "implementing", "doing", "wip", "started"}},
	{types.MirrorHold, []string{"blocked", "hold", "on hold", "waiting", "paused"}},
	{types.MirrorDone, []string{"done", "completed", "complete", "closed", "shipped", "finished"}},
	{types.MirrorOpen, []string{"ready", "todo", "to do", "open", "backlog", "triage"}},
}

// Classify normalizes a raw status signal and matches it against the
// keyword families. It fails closed: empty or unrecognized input
// returns ok=false and the caller must not guess a status.
func Classify(raw string) (types.MirrorStatus, bool) {
	norm := normalize(raw)
	if norm == "" {
		return "", false
	}

	// Pad with spaces so keyword matching respects word boundaries;
	// "in progress" must not match the keyword "pr".
	padded := " " + norm + " "
	for _, f := range families {
		for _, kw := range f.keywords {
			if strings.Contains(padded, " "+kw+" ") {
				return f.status, true
			}
		}
	}
	return "", false
}

// normalize lowercases the signal, strips an optional "status:" label
// prefix, and collapses separator characters so "In-Progress" and
// "status: in_progress" both reduce to "in progress".
func normalize(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.TrimPrefix(s, labelPrefix)
	s = strings.ReplaceAll(s, "-", " ")
	s = strings.ReplaceAll(s, "_", " ")
	return strings.Join(strings.Fields(s), " ")
}
