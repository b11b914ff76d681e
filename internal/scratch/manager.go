// Package scratch owns the per-recording working set on local disk.
//
// At most one recording occupies scratch at a time. The manager fetches the
// scratch copy, drives transcription, projects the transcript into the
// configured output formats, writes the completion marker, and always purges
// the working set before returning, success or not. Crash recovery is
// implicit: a stale working set left by a previous process is removed before
// the next fetch.
package scratch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"lectern/internal/logging"
	"lectern/internal/markers"
	"lectern/internal/media"
	"lectern/internal/services"
	"lectern/internal/source"
	"lectern/internal/writers"
)

// Transcriber produces a transcript from a local scratch copy, using workDir
// for any intermediate files it needs.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath, workDir string) (media.Transcript, error)
}

// Manager runs the fetch, transcribe, write, mark sequence for one candidate
// at a time inside ScratchDir.
type Manager struct {
	ScratchDir string
	Fetcher    source.Fetcher
	Engine     Transcriber
	Writers    []writers.Writer
	Registry   markers.Registry
	Logger     *slog.Logger
}

// Process handles a single candidate end to end. Per-file failures come back
// tagged with the fetch, transcription, or write sentinel; context
// cancellation is passed through untagged so the caller can stop the run.
// The candidate's working set is purged unconditionally on return.
func (m *Manager) Process(ctx context.Context, candidate media.CandidateFile) error {
	logger := m.logger().With(logging.String(logging.FieldCandidate, candidate.Path))

	if err := os.MkdirAll(m.ScratchDir, 0o755); err != nil {
		return services.Wrap(services.ErrFetch, "scratch", "prepare", m.ScratchDir, err)
	}

	scratchPath := filepath.Join(m.ScratchDir, candidate.Name())
	workDir := filepath.Join(m.ScratchDir, candidate.Stem()+".work")
	defer m.purge(logger, scratchPath, workDir)

	// A stale working set from a crashed process must not be mistaken for a
	// fresh fetch.
	m.purge(logger, scratchPath, workDir)

	start := time.Now()
	logger.InfoContext(ctx, "fetching scratch copy", logging.Int64("size_bytes", candidate.Size))
	if err := m.Fetcher.Fetch(ctx, candidate, scratchPath); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return services.Wrap(services.ErrFetch, "fetch", candidate.Name(), "", err)
	}

	logger.InfoContext(ctx, "transcribing", logging.Duration("fetch_duration", time.Since(start)))
	transcript, err := m.Engine.Transcribe(services.WithStep(ctx, "transcribe"), scratchPath, workDir)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return services.Wrap(services.ErrTranscription, "transcribe", candidate.Name(), "", err)
	}

	stem := m.Registry.ArtifactStem(candidate)
	for _, writer := range m.Writers {
		if err := writer.Write(transcript, stem); err != nil {
			return services.Wrap(services.ErrWrite, "write", writer.Format(), "", err)
		}
	}

	if err := m.Registry.Mark(candidate); err != nil {
		return services.Wrap(services.ErrWrite, "write", "marker", "", err)
	}

	logger.InfoContext(ctx, "completed",
		logging.Int("segments", len(transcript.Segments)),
		logging.Duration("total_duration", time.Since(start)))
	return nil
}

// purge removes the candidate's scratch copy and engine work directory.
// Failures are logged, never returned; a purge error must not mask the
// pipeline outcome.
func (m *Manager) purge(logger *slog.Logger, scratchPath, workDir string) {
	if err := os.Remove(scratchPath); err != nil && !os.IsNotExist(err) {
		logger.Warn("failed to remove scratch copy", logging.Error(err))
	}
	if err := os.RemoveAll(workDir); err != nil {
		logger.Warn("failed to remove work dir", logging.Error(err))
	}
}

func (m *Manager) logger() *slog.Logger {
	if m.Logger != nil {
		return m.Logger
	}
	return logging.NewNop()
}

// PurgeAll empties the scratch directory entirely. Used at startup so disk
// accounting starts from a clean baseline after a crash.
func PurgeAll(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read scratch dir: %w", err)
	}
	for _, entry := range entries {
		if err := os.RemoveAll(filepath.Join(dir, entry.Name())); err != nil {
			return fmt.Errorf("purge %s: %w", entry.Name(), err)
		}
	}
	return nil
}
