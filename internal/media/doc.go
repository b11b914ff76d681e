// Package media defines the shared data model for the transcription
// pipeline: candidate recordings discovered by a lister and the transcript
// produced by the speech engine.
//
// Values in this package are plain data. Candidates are immutable once
// produced; transcripts are owned by the scratch lifecycle only for the
// duration of writing output artifacts.
package media
