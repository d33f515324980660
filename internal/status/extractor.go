// Package status derives a canonical mirror status from the ambiguous
// signals an external issue carries: an optional project field, label
// conventions, and the bare open/closed state.
//
// Signal Precedence:
// - project field → source=external_project
// - "status: <value>" label → source=external_label
// - closed state fallback → source=external_state
// - nothing → source=none
package status

import (
	"strings"

	"github.com/lodestar-hq/lodestar/internal/types"
)

// Signal is a raw status signal paired with the source that produced
// it. An absent signal has Source == types.SourceNone and an empty Raw.
type Signal struct {
	Raw    string
	Source types.StatusSource
}

// Absent reports whether no usable signal was found.
func (s Signal) Absent() bool {
	return s.Source == types.SourceNone
}

// labelPrefix is the label convention for explicit status labels,
// e.g. "status: in progress".
const labelPrefix = "status:"

// strategy inspects one signal source and returns nil when that source
// carries no signal. Strategies are evaluated in a fixed order and the
// first non-nil result wins.
type strategy func(projectStatus string, labels []string, state types.IssueState) *Signal

var strategies = []strategy{
	projectFieldStrategy,
	labelStrategy,
	stateFallbackStrategy,
}

// Extract derives the raw status signal for an external issue. It is
// side-effect free: the same input always yields the same Signal.
func Extract(projectStatus string, labels []string, state types.IssueState) Signal {
	for _, s := range strategies {
		if sig := s(projectStatus, labels, state); sig != nil {
			return *sig
		}
	}
	return Signal{Source: types.SourceNone}
}

// projectFieldStrategy uses a non-empty project status field verbatim.
func projectFieldStrategy(projectStatus string, _ []string, _ types.IssueState) *Signal {
	trimmed := strings.TrimSpace(projectStatus)
	if trimmed == "" {
		return nil
	}
	return &Signal{Raw: trimmed, Source: types.SourceProject}
}

// labelStrategy picks the first label following the "status: <value>"
// convention. The full label name is kept as the raw signal so the
// stored provenance matches what the external issue actually carries.
func labelStrategy(_ string, labels []string, _ types.IssueState) *Signal {
	for _, label := range labels {
		name := strings.TrimSpace(label)
		if len(name) <= len(labelPrefix) {
			continue
		}
		if !strings.HasPrefix(strings.ToLower(name), labelPrefix) {
			continue
		}
		value := strings.TrimSpace(name[len(labelPrefix):])
		if value == "" {
			continue
		}
		return &Signal{Raw: name, Source: types.SourceLabel}
	}
	return nil
}

// stateFallbackStrategy maps a closed issue to the raw signal "closed".
// The orchestrator's composition rule later refuses to let this
// fallback alone produce a DONE mirror status.
func stateFallbackStrategy(_ string, _ []string, state types.IssueState) *Signal {
	if state != types.IssueStateClosed {
		return nil
	}
	return &Signal{Raw: "closed", Source: types.SourceState}
}
