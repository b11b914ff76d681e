// Package watch turns inbox directory events into sequential work.
//
// A filesystem watcher picks up recordings dropped into the local input
// directory and hands each one to a handler, one at a time. Files still being
// copied in are held back until their size stops changing. Processing stays
// strictly sequential so the scratch footprint bound holds in watch mode too.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"

	"lectern/internal/logging"
	"lectern/internal/media"
)

const (
	defaultSettlePoll = 500 * time.Millisecond
	settleTimeout     = 5 * time.Minute
)

// Handler processes one settled file path.
type Handler func(ctx context.Context, path string) error

// Watcher monitors one inbox directory for new recordings.
type Watcher struct {
	dir        string
	extensions []string
	settlePoll time.Duration
	handler    Handler
	logger     *slog.Logger
	fsw        *fsnotify.Watcher
}

// New creates a watcher over dir. Extensions are normalized the same way the
// source lister normalizes them.
func New(dir string, extensions []string, handler Handler, logger *slog.Logger) (*Watcher, error) {
	if handler == nil {
		return nil, fmt.Errorf("watch: handler required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fsw.Add(dir); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}

	return &Watcher{
		dir:        dir,
		extensions: media.NormalizeExtensions(extensions),
		settlePoll: defaultSettlePoll,
		handler:    handler,
		logger:     logger,
		fsw:        fsw,
	}, nil
}

// Run blocks until ctx is cancelled or the watcher fails. Handler calls run
// inline; a long transcription simply delays later events rather than
// overlapping with them.
func (w *Watcher) Run(ctx context.Context) error {
	defer func() { _ = w.fsw.Close() }()
	w.logger.InfoContext(ctx, "watching inbox", logging.String("dir", w.dir))

	for {
		select {
		case <-ctx.Done():
			w.logger.InfoContext(ctx, "watch stopped")
			return ctx.Err()

		case event, ok := <-w.fsw.Events:
			if !ok {
				return fmt.Errorf("watch events channel closed")
			}
			// Moves into the watched directory surface as Create events.
			if !event.Op.Has(fsnotify.Create) {
				continue
			}
			candidate := media.CandidateFile{Path: event.Name}
			if !candidate.MatchesExtension(w.extensions) {
				continue
			}

			if err := w.waitSettled(ctx, event.Name); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				w.logger.Warn("file never settled",
					logging.String(logging.FieldCandidate, event.Name),
					logging.Error(err))
				continue
			}

			if err := w.handler(ctx, event.Name); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				w.logger.Error("failed to process inbox file",
					logging.String(logging.FieldCandidate, event.Name),
					logging.Error(err))
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return fmt.Errorf("watch errors channel closed")
			}
			w.logger.Warn("watch error", logging.Error(err))
		}
	}
}

// waitSettled blocks until two consecutive size samples of path agree, so a
// file still being copied in is not picked up half-written. The file
// disappearing is an error; it was likely moved away before processing.
func (w *Watcher) waitSettled(ctx context.Context, path string) error {
	deadline := time.Now().Add(settleTimeout)
	lastSize := int64(-1)

	for {
		info, err := os.Stat(path)
		if err != nil {
			return fmt.Errorf("stat %s: %w", path, err)
		}
		if info.Size() == lastSize {
			return nil
		}
		lastSize = info.Size()

		if time.Now().After(deadline) {
			return fmt.Errorf("%s still growing after %s", path, settleTimeout)
		}
		select {
		case <-time.After(w.settlePoll):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
