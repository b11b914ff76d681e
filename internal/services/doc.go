// Package services defines the error taxonomy shared by every pipeline
// component and helpers for annotating contexts with run metadata.
//
// Errors are classified by wrapping them with a sentinel marker: fatal
// conditions (ErrSourceUnavailable, ErrDiskExhausted) halt the run, while
// per-file conditions (ErrFetch, ErrTranscription, ErrWrite) are recorded in
// the ledger and processing continues with the next candidate.
package services
