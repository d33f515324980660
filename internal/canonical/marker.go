// Package canonical resolves whether an external issue already
// represents an internally assigned canonical identifier. Identifiers
// are embedded in free text via two marker conventions: a bracketed
// "[CID:<id>]" prefix in the title and a "Canonical-ID: <id>" line in
// the body. The body marker is authoritative when both are present.
package canonical

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/lodestar-hq/lodestar/internal/types"
)

// Marker is an extracted canonical-id marker together with where it
// was found. Extraction returns (Marker, false) for absent or
// malformed markers so "no marker" is distinguishable from "empty
// value" at the type level.
type Marker struct {
	Location types.MarkerLocation
	Value    string
}

var (
	// Whitespace-tolerant "[CID:<id>]". The value may not contain a
	// closing bracket, which also rejects unterminated markers.
	titleMarkerRe = regexp.MustCompile(`\[\s*CID\s*:\s*([^\]]+?)\s*\]`)

	// First "Canonical-ID: <id>" line in the body, tolerant of CRLF.
	bodyMarkerRe = regexp.MustCompile(`(?m)^\s*Canonical-ID:[ \t]*(.+?)[ \t\r]*$`)
)

// ExtractFromTitle extracts a canonical-id marker from an issue title.
// Returns ok=false when the title has no well-formed, non-empty marker.
func ExtractFromTitle(title string) (Marker, bool) {
	m := titleMarkerRe.FindStringSubmatch(title)
	if m == nil {
		return Marker{}, false
	}
	value := strings.TrimSpace(m[1])
	if value == "" {
		return Marker{}, false
	}
	return Marker{Location: types.MarkerTitle, Value: value}, true
}

// ExtractFromBody extracts a canonical-id marker from an issue body.
// The first "Canonical-ID:" line wins; both line-ending conventions
// are accepted. Returns ok=false for an empty body or a marker line
// with no value.
func ExtractFromBody(body string) (Marker, bool) {
	if body == "" {
		return Marker{}, false
	}
	m := bodyMarkerRe.FindStringSubmatch(body)
	if m == nil {
		return Marker{}, false
	}
	value := strings.TrimSpace(m[1])
	if value == "" {
		return Marker{}, false
	}
	return Marker{Location: types.MarkerBody, Value: value}, true
}

// TitleWithMarker builds an issue title carrying a canonical-id marker
// so the issue can be resolved later.
func TitleWithMarker(id, title string) string {
	return fmt.Sprintf("[CID:%s] %s", id, title)
}

// BodyWithMarker builds an issue body carrying a canonical-id marker
// line followed by the original body text.
func BodyWithMarker(id, body string) string {
	return fmt.Sprintf("Canonical-ID: %s\n\n%s", id, body)
}

// CheckMatch reports whether a candidate issue carries the given
// canonical id, and through which marker. The body marker is checked
// first and always wins when both markers are present and equal the
// queried id.
func CheckMatch(candidate types.IssueCandidate, id string) (bool, types.MarkerLocation) {
	if m, ok := ExtractFromBody(candidate.Body); ok && m.Value == id {
		return true, types.MarkerBody
	}
	if m, ok := ExtractFromTitle(candidate.Title); ok && m.Value == id {
		return true, types.MarkerTitle
	}
	return false, ""
}
