package scratch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"lectern/internal/markers"
	"lectern/internal/media"
	"lectern/internal/services"
	"lectern/internal/writers"
)

type copyFetcher struct {
	residents []int
	err       error
}

func (f *copyFetcher) Fetch(_ context.Context, _ media.CandidateFile, dest string) error {
	entries, _ := os.ReadDir(filepath.Dir(dest))
	f.residents = append(f.residents, len(entries))
	if f.err != nil {
		return f.err
	}
	return os.WriteFile(dest, []byte("audio"), 0o644)
}

type fakeEngine struct {
	transcript media.Transcript
	err        error
}

func (e *fakeEngine) Transcribe(_ context.Context, audioPath, workDir string) (media.Transcript, error) {
	if _, statErr := os.Stat(audioPath); statErr != nil {
		return media.Transcript{}, statErr
	}
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return media.Transcript{}, err
	}
	if e.err != nil {
		return media.Transcript{}, e.err
	}
	return e.transcript, nil
}

func newManager(t *testing.T, fetcher *copyFetcher, engine *fakeEngine) (*Manager, string) {
	t.Helper()
	scratchDir := t.TempDir()
	outputDir := t.TempDir()
	return &Manager{
		ScratchDir: scratchDir,
		Fetcher:    fetcher,
		Engine:     engine,
		Writers:    []writers.Writer{writers.Text{}},
		Registry:   markers.Registry{OutputDir: outputDir},
	}, scratchDir
}

func candidate() media.CandidateFile {
	return media.CandidateFile{Path: "week1/lecture.mp4", Size: 5}
}

func TestProcessWritesArtifactsAndMarker(t *testing.T) {
	engine := &fakeEngine{transcript: media.Transcript{
		Segments: []media.Segment{{Start: 0, End: 1, Text: "hello"}},
	}}
	mgr, scratchDir := newManager(t, &copyFetcher{}, engine)

	if err := mgr.Process(context.Background(), candidate()); err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	if _, err := os.Stat(filepath.Join(mgr.Registry.OutputDir, "lecture.txt")); err != nil {
		t.Fatalf("missing transcript artifact: %v", err)
	}
	if !mgr.Registry.IsComplete(candidate()) {
		t.Fatal("expected completion marker")
	}
	assertEmpty(t, scratchDir)
}

func TestProcessNeverHoldsTwoScratchCopies(t *testing.T) {
	fetcher := &copyFetcher{}
	engine := &fakeEngine{}
	mgr, scratchDir := newManager(t, fetcher, engine)

	for i := 0; i < 3; i++ {
		if err := mgr.Process(context.Background(), candidate()); err != nil {
			t.Fatalf("Process failed: %v", err)
		}
	}

	for _, resident := range fetcher.residents {
		if resident != 0 {
			t.Fatalf("scratch not empty at fetch time: %v", fetcher.residents)
		}
	}
	assertEmpty(t, scratchDir)
}

func TestProcessPurgesStaleWorkingSet(t *testing.T) {
	mgr, scratchDir := newManager(t, &copyFetcher{}, &fakeEngine{})

	// Leftovers from a process that died mid-transcription.
	if err := os.WriteFile(filepath.Join(scratchDir, "lecture.mp4"), []byte("stale"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(scratchDir, "lecture.work"), 0o755); err != nil {
		t.Fatal(err)
	}

	if err := mgr.Process(context.Background(), candidate()); err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	assertEmpty(t, scratchDir)
}

func TestProcessClassifiesFetchFailure(t *testing.T) {
	mgr, scratchDir := newManager(t, &copyFetcher{err: errors.New("remote reset")}, &fakeEngine{})

	err := mgr.Process(context.Background(), candidate())
	if !errors.Is(err, services.ErrFetch) {
		t.Fatalf("expected fetch error, got %v", err)
	}
	if services.IsFatal(err) {
		t.Fatalf("fetch failure must stay per-file: %v", err)
	}
	assertEmpty(t, scratchDir)
}

func TestProcessFailureLeavesNoMarker(t *testing.T) {
	engine := &fakeEngine{err: errors.New("decode failed")}
	mgr, scratchDir := newManager(t, &copyFetcher{}, engine)

	err := mgr.Process(context.Background(), candidate())
	if !errors.Is(err, services.ErrTranscription) {
		t.Fatalf("expected transcription error, got %v", err)
	}
	if mgr.Registry.IsComplete(candidate()) {
		t.Fatal("failed candidate must not be marked complete")
	}
	assertEmpty(t, scratchDir)
}

func TestProcessPassesThroughCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	mgr, _ := newManager(t, &copyFetcher{err: ctx.Err()}, &fakeEngine{})
	err := mgr.Process(ctx, candidate())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if errors.Is(err, services.ErrFetch) {
		t.Fatalf("cancellation must not be classified as a file failure: %v", err)
	}
}

func TestPurgeAll(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.mp4"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(dir, "a.work"), 0o755); err != nil {
		t.Fatal(err)
	}

	if err := PurgeAll(dir); err != nil {
		t.Fatalf("PurgeAll failed: %v", err)
	}
	assertEmpty(t, dir)

	if err := PurgeAll(filepath.Join(dir, "missing")); err != nil {
		t.Fatalf("missing dir should not error: %v", err)
	}
}

func assertEmpty(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read %s: %v", dir, err)
	}
	if len(entries) != 0 {
		names := make([]string, 0, len(entries))
		for _, entry := range entries {
			names = append(names, entry.Name())
		}
		t.Fatalf("expected empty dir, found %v", names)
	}
}
