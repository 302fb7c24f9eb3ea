// Package language normalizes user-supplied language hints to the ISO
// 639-1 codes the transcriber understands and maps codes back to
// display names for the CLI.
package language
