// Package engine invokes WhisperX to transcribe one recording at a time.
//
// WhisperX runs as a subprocess through uvx, writes its JSON result into a
// working directory inside scratch, and this package loads that result into
// the shared transcript model. The engine is treated as a long-running,
// resource-heavy black box; any failure it reports is a per-file
// transcription error, never a run-fatal one.
package engine
