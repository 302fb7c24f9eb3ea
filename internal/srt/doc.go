// Package srt renders and parses SubRip subtitle documents. Build and
// FormatTimestamp are pure functions; callers own segment ordering.
package srt
