// Package markers manages the per-recording completion sentinel.
//
// A zero-byte "<stem>.done" file in the output directory is the sole
// authoritative signal that every output artifact for that recording was
// durably written. Partial artifacts without a marker are never trusted.
package markers

import (
	"fmt"
	"os"
	"path/filepath"

	"lectern/internal/media"
)

// Suffix is appended to a candidate's stem to form its marker file name.
const Suffix = ".done"

// Registry answers completeness queries against the output directory's
// current filesystem state and writes markers atomically.
type Registry struct {
	OutputDir string
	// Force makes IsComplete always report false, re-processing candidates
	// and overwriting their artifacts and markers.
	Force bool
}

// MarkerPath returns the deterministic marker location for a candidate.
func (r Registry) MarkerPath(candidate media.CandidateFile) string {
	return filepath.Join(r.OutputDir, candidate.Stem()+Suffix)
}

// ArtifactStem returns the shared path stem for a candidate's output
// artifacts (marker and transcript projections alike).
func (r Registry) ArtifactStem(candidate media.CandidateFile) string {
	return filepath.Join(r.OutputDir, candidate.Stem())
}

// IsComplete reports whether the candidate already has a completion marker.
// The check is a live filesystem lookup so that deleting a marker by hand
// forces a redo of just that file on the next run.
func (r Registry) IsComplete(candidate media.CandidateFile) bool {
	if r.Force {
		return false
	}
	info, err := os.Stat(r.MarkerPath(candidate))
	return err == nil && !info.IsDir()
}

// Mark writes the candidate's completion marker. The marker is written to a
// temporary name and renamed into place so a re-run under Force never leaves
// a window where the old marker is gone and the new one unconfirmed.
func (r Registry) Mark(candidate media.CandidateFile) error {
	final := r.MarkerPath(candidate)
	tmp := final + ".tmp"
	if err := os.WriteFile(tmp, nil, 0o644); err != nil {
		return fmt.Errorf("write marker: %w", err)
	}
	if err := os.Rename(tmp, final); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("commit marker: %w", err)
	}
	return nil
}
