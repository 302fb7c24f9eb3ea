package srt

import (
	"fmt"
	"strings"
)

// Parse reads an SRT document back into segments. Cue numbers are
// validated for presence but the parsed segments carry only timing and
// text; Build reassigns numbering.
func Parse(content string) ([]Segment, error) {
	trimmed := strings.TrimSpace(strings.ReplaceAll(content, "\r\n", "\n"))
	if trimmed == "" {
		return nil, nil
	}

	var segments []Segment
	for _, block := range strings.Split(trimmed, "\n\n") {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		lines := strings.Split(block, "\n")
		if len(lines) < 2 {
			return nil, fmt.Errorf("srt: malformed cue %q", block)
		}
		timing := lines[1]
		parts := strings.Split(timing, "-->")
		if len(parts) != 2 {
			return nil, fmt.Errorf("srt: malformed timing line %q", timing)
		}
		start, err := ParseTimestamp(parts[0])
		if err != nil {
			return nil, fmt.Errorf("srt: cue start: %w", err)
		}
		end, err := ParseTimestamp(parts[1])
		if err != nil {
			return nil, fmt.Errorf("srt: cue end: %w", err)
		}
		text := ""
		if len(lines) > 2 {
			text = strings.Join(lines[2:], "\n")
		}
		segments = append(segments, Segment{Start: start, End: end, Text: text})
	}
	return segments, nil
}

// CountCues returns the number of cue blocks in an SRT document without
// requiring the timing lines to parse.
func CountCues(content string) int {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return 0
	}
	count := 0
	for _, block := range strings.Split(trimmed, "\n\n") {
		if strings.TrimSpace(block) != "" {
			count++
		}
	}
	return count
}
