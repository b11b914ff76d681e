package services_test

import (
	"errors"
	"testing"

	"lectern/internal/services"
)

func TestWrapPreservesMarker(t *testing.T) {
	base := errors.New("exit status 1")
	err := services.Wrap(services.ErrTranscription, "transcribe", "whisperx", "engine crashed", base)
	if !errors.Is(err, services.ErrTranscription) {
		t.Fatalf("expected transcription marker, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped base error, got %v", err)
	}
	if services.IsFatal(err) {
		t.Fatal("transcription errors are per-file, not fatal")
	}
}

func TestWrapWithoutCause(t *testing.T) {
	err := services.Wrap(services.ErrFetch, "fetch", "rclone", "copy failed", nil)
	if !errors.Is(err, services.ErrFetch) {
		t.Fatalf("expected fetch marker, got %v", err)
	}
	if got := err.Error(); got != "fetch error: fetch: rclone: copy failed" {
		t.Fatalf("unexpected message: %q", got)
	}
}

func TestIsFatal(t *testing.T) {
	cases := []struct {
		err   error
		fatal bool
	}{
		{services.Wrap(services.ErrSourceUnavailable, "list", "", "", nil), true},
		{services.Wrap(services.ErrDiskExhausted, "guard", "", "", nil), true},
		{services.Wrap(services.ErrFetch, "fetch", "", "", nil), false},
		{services.Wrap(services.ErrWrite, "write", "", "", nil), false},
		{errors.New("plain"), false},
	}
	for _, tc := range cases {
		if got := services.IsFatal(tc.err); got != tc.fatal {
			t.Fatalf("IsFatal(%v) = %v, want %v", tc.err, got, tc.fatal)
		}
	}
}

func TestLabel(t *testing.T) {
	cases := map[string]error{
		"source_unavailable": services.ErrSourceUnavailable,
		"disk_exhausted":     services.ErrDiskExhausted,
		"fetch":              services.ErrFetch,
		"transcription":      services.ErrTranscription,
		"write":              services.ErrWrite,
		"unclassified":       errors.New("mystery"),
	}
	for want, err := range cases {
		if got := services.Label(services.Wrap(err, "step", "", "", nil)); got != want {
			t.Fatalf("Label(%v) = %q, want %q", err, got, want)
		}
	}
	if services.Label(nil) != "" {
		t.Fatal("expected empty label for nil error")
	}
}
