package media

import (
	"path/filepath"
	"strings"
	"time"
)

// CandidateFile identifies one recording eligible for processing. Path is
// either an absolute local path or a path relative to the remote root,
// depending on which lister produced it. Contents are never read at listing
// time; only metadata travels through the pipeline.
type CandidateFile struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// Name returns the base file name of the candidate.
func (c CandidateFile) Name() string {
	return filepath.Base(c.Path)
}

// Stem returns the base name with the extension removed. All output
// artifacts and the completion marker for a candidate share this stem.
func (c CandidateFile) Stem() string {
	name := c.Name()
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// Ext returns the lower-cased file extension, including the leading dot.
func (c CandidateFile) Ext() string {
	return strings.ToLower(filepath.Ext(c.Path))
}

// NormalizeExtensions lower-cases the accepted extension set and guarantees a
// leading dot on each entry. Empty entries are dropped.
func NormalizeExtensions(accepted []string) []string {
	normalized := make([]string, 0, len(accepted))
	for _, entry := range accepted {
		ext := strings.ToLower(strings.TrimSpace(entry))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		normalized = append(normalized, ext)
	}
	return normalized
}

// MatchesExtension reports whether the candidate's extension appears in the
// accepted set. Matching is case-insensitive; entries may be given with or
// without a leading dot.
func (c CandidateFile) MatchesExtension(accepted []string) bool {
	ext := c.Ext()
	for _, entry := range NormalizeExtensions(accepted) {
		if ext == entry {
			return true
		}
	}
	return false
}
