// Package transcribe wraps the external speech-to-text backend. The
// backend is a black box: it receives a path to decodable audio and
// returns the transcript plus timed segments, which are passed through
// with no reinterpretation of timing.
package transcribe
