// Command subgen generates SRT subtitles and plain transcripts from
// audio or video files using an external whisper-style CLI, with a
// persistent result cache keyed by content fingerprint and model tier.
package main
