// Package media normalizes heterogeneous uploads into audio the
// transcription backend accepts. Audio files pass through untouched;
// video files have their default audio stream extracted to a transient
// 16 kHz mono WAV owned by the caller.
package media
