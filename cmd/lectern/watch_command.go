package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"lectern/internal/ledger"
	"lectern/internal/logging"
	"lectern/internal/media"
	"lectern/internal/services"
	"lectern/internal/watch"
)

func newWatchCommand(cmdCtx *commandContext) *cobra.Command {
	var inputDir string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Transcribe recordings as they appear in a local inbox directory",
		Long: `Watch monitors a local directory and transcribes each new recording as it
arrives, still one at a time. Remote sources are not supported; use run for
rclone remotes.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}

			dir := inputDir
			if dir == "" {
				dir = cfg.Source.InputDir
			}
			if dir == "" {
				return errors.New("watch requires a local directory: set source.input_dir or pass --input-dir")
			}

			pipe, err := buildPipeline(cfg, sourceOverrides{inputDir: dir}, false)
			if err != nil {
				return err
			}
			defer func() { _ = pipe.Close() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			ctx, cancel := context.WithCancel(ctx)
			defer cancel()

			runID := uuid.NewString()
			ctx = services.WithRunID(ctx, runID)
			logger := logging.NewComponentLogger(pipe.logger, "watch")

			// A fatal pipeline condition must stop the whole session, not
			// just the file that hit it.
			var fatal error
			handler := func(ctx context.Context, path string) error {
				err := handleInboxFile(ctx, pipe, runID, path)
				if err != nil && services.IsFatal(err) {
					fatal = err
					cancel()
				}
				return err
			}

			watcher, err := watch.New(dir, cfg.Source.IncludeExtensions, handler, logger)
			if err != nil {
				return err
			}

			runErr := watcher.Run(ctx)
			if fatal != nil {
				return fatal
			}
			if errors.Is(runErr, context.Canceled) {
				return nil
			}
			return runErr
		},
	}

	cmd.Flags().StringVar(&inputDir, "input-dir", "", "Directory to watch instead of source.input_dir")
	return cmd
}

func handleInboxFile(ctx context.Context, pipe *pipeline, runID, path string) error {
	candidate := media.CandidateFile{Path: path}
	if info, err := os.Stat(path); err == nil {
		candidate.Size = info.Size()
		candidate.ModTime = info.ModTime()
	}

	if pipe.registry.IsComplete(candidate) {
		recordWatchAttempt(ctx, pipe, runID, candidate, ledger.Attempt{Outcome: ledger.OutcomeSkipped})
		return nil
	}

	if err := pipe.guard.Ensure(ctx); err != nil {
		return err
	}

	started := time.Now().UTC()
	if err := pipe.manager.Process(ctx, candidate); err != nil {
		if ctx.Err() != nil || services.IsFatal(err) {
			return err
		}
		recordWatchAttempt(ctx, pipe, runID, candidate, ledger.Attempt{
			Outcome: ledger.OutcomeFailure, ErrorMessage: err.Error(), StartedAt: started,
		})
		return err
	}

	recordWatchAttempt(ctx, pipe, runID, candidate, ledger.Attempt{
		Outcome: ledger.OutcomeSuccess, StartedAt: started,
	})
	return nil
}

func recordWatchAttempt(ctx context.Context, pipe *pipeline, runID string, candidate media.CandidateFile, attempt ledger.Attempt) {
	attempt.RunID = runID
	attempt.Path = candidate.Path
	attempt.Stem = candidate.Stem()
	attempt.SizeBytes = candidate.Size
	if attempt.StartedAt.IsZero() {
		attempt.StartedAt = time.Now().UTC()
	}
	attempt.FinishedAt = time.Now().UTC()
	if _, err := pipe.store.RecordAttempt(ctx, attempt); err != nil {
		pipe.logger.Warn("failed to record ledger attempt",
			logging.String(logging.FieldCandidate, candidate.Path),
			logging.Error(err))
	}
}
