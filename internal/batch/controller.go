// Package batch drives a single sequential transcription run.
//
// The controller lists candidates once, walks them in stable order, skips the
// ones whose completion markers already exist, and hands the rest to the
// scratch manager one at a time. Per-file failures are recorded and the run
// continues; fatal conditions (source unavailable, disk exhausted) stop it.
package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"lectern/internal/ledger"
	"lectern/internal/logging"
	"lectern/internal/markers"
	"lectern/internal/media"
	"lectern/internal/services"
	"lectern/internal/source"
)

// ErrAlreadyRunning indicates another process holds the run lock.
var ErrAlreadyRunning = errors.New("another transcription run is already active")

// Processor handles one candidate end to end.
type Processor interface {
	Process(ctx context.Context, candidate media.CandidateFile) error
}

// Guard blocks until enough disk space is available or reports a fatal
// exhaustion error.
type Guard interface {
	Ensure(ctx context.Context) error
}

// Recorder appends finished attempts to the run ledger.
type Recorder interface {
	RecordAttempt(ctx context.Context, attempt ledger.Attempt) (int64, error)
}

// Controller owns one run over the current candidate set.
type Controller struct {
	Lister    source.Lister
	Registry  markers.Registry
	Guard     Guard
	Processor Processor
	Ledger    Recorder
	Logger    *slog.Logger

	// MaxFiles caps how many candidates are processed this run. Skipped
	// candidates do not count. Zero means unlimited.
	MaxFiles int

	// LockPath guards against concurrent runs over the same output
	// directory. Empty disables locking.
	LockPath string

	// RunID identifies this run in logs and ledger rows. Generated when
	// empty.
	RunID string
}

// Summary reports what one run did.
type Summary struct {
	RunID      string
	Candidates int
	Completed  int
	Failed     int
	Skipped    int
}

// Run executes the batch. The returned summary is valid even when err is
// non-nil; it covers everything done before the run stopped.
func (c *Controller) Run(ctx context.Context) (Summary, error) {
	runID := c.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	summary := Summary{RunID: runID}
	ctx = services.WithRunID(ctx, runID)
	logger := c.logger().With(logging.String(logging.FieldRunID, runID))

	if c.LockPath != "" {
		lock := flock.New(c.LockPath)
		ok, err := lock.TryLock()
		if err != nil {
			return summary, fmt.Errorf("acquire run lock: %w", err)
		}
		if !ok {
			return summary, ErrAlreadyRunning
		}
		defer func() {
			if err := lock.Unlock(); err != nil {
				logger.Warn("failed to release run lock", logging.Error(err))
			}
		}()
	}

	candidates, err := c.Lister.List(ctx)
	if err != nil {
		return summary, err
	}
	summary.Candidates = len(candidates)
	logger.InfoContext(ctx, "run started",
		logging.Int("candidates", len(candidates)),
		logging.Int("max_files", c.MaxFiles))

	processed := 0
	for _, candidate := range candidates {
		if ctx.Err() != nil {
			return summary, ctx.Err()
		}

		if c.Registry.IsComplete(candidate) {
			c.record(ctx, logger, candidate, ledger.Attempt{
				RunID: runID, Outcome: ledger.OutcomeSkipped,
				StartedAt: time.Now().UTC(),
			})
			summary.Skipped++
			continue
		}

		if c.MaxFiles > 0 && processed >= c.MaxFiles {
			logger.InfoContext(ctx, "file cap reached", logging.Int("processed", processed))
			break
		}

		if err := c.Guard.Ensure(ctx); err != nil {
			return summary, err
		}

		started := time.Now().UTC()
		processErr := c.Processor.Process(ctx, candidate)
		processed++

		if processErr != nil {
			if ctx.Err() != nil {
				return summary, ctx.Err()
			}
			if services.IsFatal(processErr) {
				return summary, processErr
			}
			summary.Failed++
			logger.ErrorContext(ctx, "candidate failed",
				logging.String(logging.FieldCandidate, candidate.Path),
				logging.String(logging.FieldOutcome, services.Label(processErr)),
				logging.Error(processErr))
			c.record(ctx, logger, candidate, ledger.Attempt{
				RunID: runID, Outcome: ledger.OutcomeFailure,
				ErrorMessage: processErr.Error(),
				StartedAt:    started, FinishedAt: time.Now().UTC(),
			})
			continue
		}

		summary.Completed++
		c.record(ctx, logger, candidate, ledger.Attempt{
			RunID: runID, Outcome: ledger.OutcomeSuccess,
			StartedAt: started, FinishedAt: time.Now().UTC(),
		})
	}

	logger.InfoContext(ctx, "run finished",
		logging.Int("completed", summary.Completed),
		logging.Int("failed", summary.Failed),
		logging.Int("skipped", summary.Skipped))
	return summary, nil
}

// record fills candidate identity into the attempt and appends it. Ledger
// writes are diagnostic; a failed append is logged and the run continues.
func (c *Controller) record(ctx context.Context, logger *slog.Logger, candidate media.CandidateFile, attempt ledger.Attempt) {
	if c.Ledger == nil {
		return
	}
	attempt.Path = candidate.Path
	attempt.Stem = candidate.Stem()
	attempt.SizeBytes = candidate.Size
	if attempt.FinishedAt.IsZero() {
		attempt.FinishedAt = time.Now().UTC()
	}
	if _, err := c.Ledger.RecordAttempt(ctx, attempt); err != nil {
		logger.Warn("failed to record ledger attempt",
			logging.String(logging.FieldCandidate, candidate.Path),
			logging.Error(err))
	}
}

func (c *Controller) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return logging.NewNop()
}
