// Package pipeline orchestrates subtitle generation: normalize the
// upload, fingerprint it, consult the result cache, and on a miss run
// model load, transcription, and SRT assembly. Transient audio artifacts
// are released on every exit path.
package pipeline
