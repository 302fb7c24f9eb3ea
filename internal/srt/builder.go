package srt

import (
	"strconv"
	"strings"
)

// Segment is one backend-produced span of speech. Start and End are
// seconds. Segments arrive in the backend's emission order and are never
// re-sorted.
type Segment struct {
	Start float64
	End   float64
	Text  string
}

// Build renders segments as a complete SRT document. Cues are renumbered
// from 1 regardless of any backend segment id, text is trimmed of
// surrounding whitespace, and the output always ends with exactly one
// newline. An empty segment slice yields "\n".
func Build(segments []Segment) string {
	lines := make([]string, 0, len(segments)*4)
	for i, seg := range segments {
		lines = append(lines,
			strconv.Itoa(i+1),
			FormatTimestamp(seg.Start)+" --> "+FormatTimestamp(seg.End),
			strings.TrimSpace(seg.Text),
			"",
		)
	}
	return strings.TrimSpace(strings.Join(lines, "\n")) + "\n"
}
