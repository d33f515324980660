package canonical

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lodestar-hq/lodestar/internal/types"
)

func TestExtractFromTitle(t *testing.T) {
	tests := []struct {
		name   string
		title  string
		want   string
		wantOK bool
	}{
		{"plain marker", "[CID:REQ-1042] Fix export", "REQ-1042", true},
		{"whitespace tolerant", "[ CID : REQ-1042 ] Fix export", "REQ-1042", true},
		{"marker mid-title", "Fix export [CID:REQ-7]", "REQ-7", true},
		{"no marker", "Fix export", "", false},
		{"empty value", "[CID:] Fix export", "", false},
		{"whitespace value", "[CID:   ] Fix export", "", false},
		{"unterminated", "[CID:REQ-1042 Fix export", "", false},
		{"empty title", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, ok := ExtractFromTitle(tt.title)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, m.Value)
				assert.Equal(t, types.MarkerTitle, m.Location)
			}
		})
	}
}

func TestExtractFromBody(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		want   string
		wantOK bool
	}{
		{"plain line", "Canonical-ID: REQ-1042\n\nDetails follow.", "REQ-1042", true},
		{"crlf line endings", "Canonical-ID: REQ-1042\r\n\r\nDetails.", "REQ-1042", true},
		{"line not first", "Intro paragraph.\nCanonical-ID: REQ-9\nMore.", "REQ-9", true},
		{"first occurrence wins", "Canonical-ID: REQ-1\nCanonical-ID: REQ-2", "REQ-1", true},
		{"indented line", "  Canonical-ID: REQ-3", "REQ-3", true},
		{"no marker", "Just a body.", "", false},
		{"empty value", "Canonical-ID:\nbody", "", false},
		{"empty body", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, ok := ExtractFromBody(tt.body)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, m.Value)
				assert.Equal(t, types.MarkerBody, m.Location)
			}
		})
	}
}

func TestMarkerRoundTrip(t *testing.T) {
	ids := []string{"REQ-1042", "abc123", "PROJ/44", "x"}
	for _, id := range ids {
		title := TitleWithMarker(id, "Some issue title")
		m, ok := ExtractFromTitle(title)
		require.True(t, ok, "title round trip failed for %q", id)
		assert.Equal(t, id, m.Value)

		body := BodyWithMarker(id, "Longer body text.\nWith lines.")
		m, ok = ExtractFromBody(body)
		require.True(t, ok, "body round trip failed for %q", id)
		assert.Equal(t, id, m.Value)
	}
}

func TestMarkerBuilders(t *testing.T) {
	assert.Equal(t, "[CID:REQ-1] Title", TitleWithMarker("REQ-1", "Title"))
	assert.Equal(t, "Canonical-ID: REQ-1\n\nBody", BodyWithMarker("REQ-1", "Body"))
}

func TestCheckMatchBodyPrecedence(t *testing.T) {
	candidate := types.IssueCandidate{
		Number: 7,
		Title:  TitleWithMarker("REQ-1", "Mirrored issue"),
		Body:   BodyWithMarker("REQ-1", "details"),
	}

	matched, by := CheckMatch(candidate, "REQ-1")
	require.True(t, matched)
	assert.Equal(t, types.MarkerBody, by)
}

func TestCheckMatch(t *testing.T) {
	tests := []struct {
		name    string
		c       types.IssueCandidate
		id      string
		matched bool
		by      types.MarkerLocation
	}{
		{
			name:    "title only",
			c:       types.IssueCandidate{Title: "[CID:REQ-2] t", Body: "no marker"},
			id:      "REQ-2",
			matched: true,
			by:      types.MarkerTitle,
		},
		{
			name:    "body marker for different id falls back to title",
			c:       types.IssueCandidate{Title: "[CID:REQ-2] t", Body: "Canonical-ID: REQ-9"},
			id:      "REQ-2",
			matched: true,
			by:      types.MarkerTitle,
		},
		{
			name:    "no markers",
			c:       types.IssueCandidate{Title: "t", Body: "b"},
			id:      "REQ-2",
			matched: false,
		},
		{
			name:    "marker for other id",
			c:       types.IssueCandidate{Title: "[CID:REQ-3] t", Body: ""},
			id:      "REQ-2",
			matched: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			matched, by := CheckMatch(tt.c, tt.id)
			assert.Equal(t, tt.matched, matched)
			if tt.matched {
				assert.Equal(t, tt.by, by)
			}
		})
	}
}
