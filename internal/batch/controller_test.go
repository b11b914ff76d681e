package batch

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/gofrs/flock"

	"lectern/internal/ledger"
	"lectern/internal/markers"
	"lectern/internal/media"
	"lectern/internal/services"
)

type fakeLister struct {
	candidates []media.CandidateFile
	err        error
}

func (l *fakeLister) List(context.Context) ([]media.CandidateFile, error) {
	return l.candidates, l.err
}

type fakeProcessor struct {
	registry markers.Registry
	order    []string
	failPath string
	failErr  error
	cancel   context.CancelFunc
}

func (p *fakeProcessor) Process(_ context.Context, candidate media.CandidateFile) error {
	p.order = append(p.order, candidate.Path)
	if p.cancel != nil {
		p.cancel()
	}
	if candidate.Path == p.failPath {
		return p.failErr
	}
	return p.registry.Mark(candidate)
}

type fakeGuard struct {
	calls int
	errAt int
	err   error
}

func (g *fakeGuard) Ensure(context.Context) error {
	g.calls++
	if g.err != nil && g.calls == g.errAt {
		return g.err
	}
	return nil
}

type fakeLedger struct {
	attempts []ledger.Attempt
}

func (l *fakeLedger) RecordAttempt(_ context.Context, attempt ledger.Attempt) (int64, error) {
	l.attempts = append(l.attempts, attempt)
	return int64(len(l.attempts)), nil
}

func candidates(paths ...string) []media.CandidateFile {
	out := make([]media.CandidateFile, 0, len(paths))
	for _, path := range paths {
		out = append(out, media.CandidateFile{Path: path, Size: 100})
	}
	return out
}

func newController(t *testing.T, listed []media.CandidateFile) (*Controller, *fakeProcessor, *fakeLedger) {
	t.Helper()
	registry := markers.Registry{OutputDir: t.TempDir()}
	processor := &fakeProcessor{registry: registry}
	recorder := &fakeLedger{}
	return &Controller{
		Lister:    &fakeLister{candidates: listed},
		Registry:  registry,
		Guard:     &fakeGuard{},
		Processor: processor,
		Ledger:    recorder,
		RunID:     "run-test",
	}, processor, recorder
}

func TestRunProcessesCandidatesInOrder(t *testing.T) {
	ctrl, processor, recorder := newController(t, candidates("a.mp4", "b.mp4", "c.mp4"))

	summary, err := ctrl.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if summary.Candidates != 3 || summary.Completed != 3 {
		t.Fatalf("unexpected summary: %+v", summary)
	}

	want := []string{"a.mp4", "b.mp4", "c.mp4"}
	for i, path := range want {
		if processor.order[i] != path {
			t.Fatalf("unexpected order: %v", processor.order)
		}
	}
	if len(recorder.attempts) != 3 {
		t.Fatalf("expected 3 ledger rows, got %d", len(recorder.attempts))
	}
	for _, attempt := range recorder.attempts {
		if attempt.Outcome != ledger.OutcomeSuccess || attempt.RunID != "run-test" {
			t.Fatalf("unexpected attempt: %+v", attempt)
		}
	}
}

func TestRunIsIdempotentAcrossRestarts(t *testing.T) {
	ctrl, processor, recorder := newController(t, candidates("a.mp4", "b.mp4"))

	if _, err := ctrl.Run(context.Background()); err != nil {
		t.Fatalf("first run failed: %v", err)
	}

	summary, err := ctrl.Run(context.Background())
	if err != nil {
		t.Fatalf("second run failed: %v", err)
	}
	if summary.Skipped != 2 || summary.Completed != 0 {
		t.Fatalf("expected all skips on re-run: %+v", summary)
	}
	if len(processor.order) != 2 {
		t.Fatalf("completed candidates were reprocessed: %v", processor.order)
	}
	for _, attempt := range recorder.attempts[2:] {
		if attempt.Outcome != ledger.OutcomeSkipped {
			t.Fatalf("expected skipped rows, got %+v", attempt)
		}
	}
}

func TestRunContinuesPastPerFileFailure(t *testing.T) {
	ctrl, processor, recorder := newController(t, candidates("a.mp4", "b.mp4", "c.mp4"))
	processor.failPath = "b.mp4"
	processor.failErr = services.Wrap(services.ErrTranscription, "transcribe", "b.mp4", "", errors.New("decode failed"))

	summary, err := ctrl.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if summary.Completed != 2 || summary.Failed != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}

	var failure ledger.Attempt
	for _, attempt := range recorder.attempts {
		if attempt.Outcome == ledger.OutcomeFailure {
			failure = attempt
		}
	}
	if failure.Path != "b.mp4" || failure.ErrorMessage == "" {
		t.Fatalf("failure not recorded: %+v", failure)
	}
}

func TestRunStopsOnDiskExhaustion(t *testing.T) {
	ctrl, processor, _ := newController(t, candidates("a.mp4", "b.mp4", "c.mp4"))
	ctrl.Guard = &fakeGuard{
		errAt: 2,
		err:   services.Wrap(services.ErrDiskExhausted, "diskguard", "wait", "gave up after 60m", nil),
	}

	summary, err := ctrl.Run(context.Background())
	if !errors.Is(err, services.ErrDiskExhausted) {
		t.Fatalf("expected disk exhaustion, got %v", err)
	}
	if summary.Completed != 1 {
		t.Fatalf("expected run to stop after first candidate: %+v", summary)
	}
	if len(processor.order) != 1 || processor.order[0] != "a.mp4" {
		t.Fatalf("unexpected processing order: %v", processor.order)
	}
}

func TestRunGuardsEveryCandidateBeforeFetch(t *testing.T) {
	ctrl, _, _ := newController(t, candidates("a.mp4", "b.mp4", "c.mp4"))
	guard := &fakeGuard{}
	ctrl.Guard = guard

	if _, err := ctrl.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if guard.calls != 3 {
		t.Fatalf("expected 3 guard checks, got %d", guard.calls)
	}
}

func TestRunHonorsFileCap(t *testing.T) {
	ctrl, processor, recorder := newController(t, candidates("a.mp4", "b.mp4", "c.mp4"))
	ctrl.MaxFiles = 1

	// A prior run already completed a.mp4; skips must not consume the cap.
	if err := ctrl.Registry.Mark(media.CandidateFile{Path: "a.mp4"}); err != nil {
		t.Fatal(err)
	}

	summary, err := ctrl.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if summary.Skipped != 1 || summary.Completed != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if len(processor.order) != 1 || processor.order[0] != "b.mp4" {
		t.Fatalf("unexpected processing order: %v", processor.order)
	}
	if len(recorder.attempts) != 2 {
		t.Fatalf("expected skip + success rows, got %d", len(recorder.attempts))
	}
}

func TestRunPropagatesListerFailure(t *testing.T) {
	ctrl, _, _ := newController(t, nil)
	ctrl.Lister = &fakeLister{
		err: services.Wrap(services.ErrSourceUnavailable, "source", "list", "input dir missing", nil),
	}

	if _, err := ctrl.Run(context.Background()); !errors.Is(err, services.ErrSourceUnavailable) {
		t.Fatalf("expected source unavailable, got %v", err)
	}
}

func TestRunStopsBetweenFilesOnCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	ctrl, processor, _ := newController(t, candidates("a.mp4", "b.mp4", "c.mp4"))
	processor.cancel = cancel

	summary, err := ctrl.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
	if len(processor.order) != 1 {
		t.Fatalf("expected run to stop before the next file: %v", processor.order)
	}
	if summary.Completed != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
}

func TestRunRefusesConcurrentInstance(t *testing.T) {
	lockPath := filepath.Join(t.TempDir(), "run.lock")
	holder := flock.New(lockPath)
	ok, err := holder.TryLock()
	if err != nil || !ok {
		t.Fatalf("prime lock: ok=%v err=%v", ok, err)
	}
	defer func() { _ = holder.Unlock() }()

	ctrl, _, _ := newController(t, candidates("a.mp4"))
	ctrl.LockPath = lockPath

	if _, err := ctrl.Run(context.Background()); !errors.Is(err, ErrAlreadyRunning) {
		t.Fatalf("expected ErrAlreadyRunning, got %v", err)
	}
}

func TestRunGeneratesRunID(t *testing.T) {
	ctrl, _, recorder := newController(t, candidates("a.mp4"))
	ctrl.RunID = ""

	summary, err := ctrl.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if summary.RunID == "" {
		t.Fatal("expected generated run id")
	}
	if recorder.attempts[0].RunID != summary.RunID {
		t.Fatalf("ledger row carries wrong run id: %+v", recorder.attempts[0])
	}
}
