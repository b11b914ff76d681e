package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func TestNewRequiresHandler(t *testing.T) {
	if _, err := New(t.TempDir(), []string{"mp4"}, nil, nil); err == nil {
		t.Fatal("expected error for nil handler")
	}
}

func TestNewRejectsMissingDir(t *testing.T) {
	handler := func(context.Context, string) error { return nil }
	missing := filepath.Join(t.TempDir(), "nope")
	if _, err := New(missing, []string{"mp4"}, handler, nil); err == nil {
		t.Fatal("expected error for missing dir")
	}
}

func TestRunHandlesNewRecording(t *testing.T) {
	dir := t.TempDir()

	var (
		mu   sync.Mutex
		seen []string
	)
	handled := make(chan struct{}, 4)
	handler := func(_ context.Context, path string) error {
		mu.Lock()
		seen = append(seen, path)
		mu.Unlock()
		handled <- struct{}{}
		return nil
	}

	w, err := New(dir, []string{"mp4"}, handler, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	w.settlePoll = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// A matching recording and a file the watcher must ignore.
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignore"), 0o644); err != nil {
		t.Fatal(err)
	}
	target := filepath.Join(dir, "lecture.mp4")
	if err := os.WriteFile(target, []byte("audio"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-handled:
	case <-time.After(5 * time.Second):
		t.Fatal("handler never invoked")
	}

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 1 || seen[0] != target {
		t.Fatalf("unexpected handled paths: %v", seen)
	}
}

func TestWaitSettledWaitsForStableSize(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "grow.mp4")
	if err := os.WriteFile(path, []byte("12"), 0o644); err != nil {
		t.Fatal(err)
	}

	w := &Watcher{settlePoll: 20 * time.Millisecond}

	go func() {
		time.Sleep(5 * time.Millisecond)
		f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return
		}
		_, _ = f.WriteString("34")
		_ = f.Close()
	}()

	if err := w.waitSettled(context.Background(), path); err != nil {
		t.Fatalf("waitSettled failed: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() != 4 {
		t.Fatalf("settled before writes finished: size=%d", info.Size())
	}
}

func TestWaitSettledFailsOnMissingFile(t *testing.T) {
	w := &Watcher{settlePoll: 10 * time.Millisecond}
	err := w.waitSettled(context.Background(), filepath.Join(t.TempDir(), "gone.mp4"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestWaitSettledHonorsCancellation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "slow.mp4")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	w := &Watcher{settlePoll: time.Hour}
	if err := w.waitSettled(ctx, path); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
}
