package srt

import (
	"math"
	"testing"
)

func TestFormatTimestamp(t *testing.T) {
	cases := []struct {
		seconds float64
		want    string
	}{
		{0.0, "00:00:00,000"},
		{-5.0, "00:00:00,000"},
		{1.5, "00:00:01,500"},
		{3725.250, "01:02:05,250"},
		{59.0, "00:00:59,000"},
		{3600.0, "01:00:00,000"},
		{90000.0, "25:00:00,000"},
	}
	for _, tc := range cases {
		if got := FormatTimestamp(tc.seconds); got != tc.want {
			t.Fatalf("FormatTimestamp(%v) = %q, want %q", tc.seconds, got, tc.want)
		}
	}
}

func TestFormatTimestampTruncatesMillis(t *testing.T) {
	// 0.5625 is exactly representable; 562.5ms must truncate to 562,
	// not round to 563.
	if got := FormatTimestamp(0.5625); got != "00:00:00,562" {
		t.Fatalf("expected truncated millis, got %q", got)
	}
}

func TestParseTimestamp(t *testing.T) {
	cases := []struct {
		value string
		want  float64
	}{
		{"00:00:00,000", 0},
		{"01:02:05,250", 3725.250},
		{"00:00:01.500", 1.5}, // period separator accepted
		{"25:00:00,000", 90000},
	}
	for _, tc := range cases {
		got, err := ParseTimestamp(tc.value)
		if err != nil {
			t.Fatalf("ParseTimestamp(%q): %v", tc.value, err)
		}
		if math.Abs(got-tc.want) > 1e-9 {
			t.Fatalf("ParseTimestamp(%q) = %v, want %v", tc.value, got, tc.want)
		}
	}
}

func TestParseTimestampRejectsGarbage(t *testing.T) {
	for _, value := range []string{"", "1:2", "aa:bb:cc,ddd", "00:00:00"} {
		if _, err := ParseTimestamp(value); err == nil {
			t.Fatalf("expected error for %q", value)
		}
	}
}

func TestFormatParseRoundTrip(t *testing.T) {
	for _, seconds := range []float64{0, 0.001, 1.5, 61.25, 3725.250, 7199.999} {
		formatted := FormatTimestamp(seconds)
		parsed, err := ParseTimestamp(formatted)
		if err != nil {
			t.Fatalf("parse %q: %v", formatted, err)
		}
		if math.Abs(parsed-seconds) > 0.001 {
			t.Fatalf("round trip drift: %v -> %q -> %v", seconds, formatted, parsed)
		}
	}
}
