package services

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors classifying pipeline failures. The first two are fatal and
// halt the run; the remaining three are per-file, recorded in the ledger, and
// never abort the batch controller.
var (
	ErrSourceUnavailable = errors.New("source unavailable")
	ErrDiskExhausted     = errors.New("disk space exhausted")
	ErrFetch             = errors.New("fetch error")
	ErrTranscription     = errors.New("transcription error")
	ErrWrite             = errors.New("write error")
)

// Wrap builds an error message that includes step context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, step, operation, message string, err error) error {
	detail := buildDetail(step, operation, message)
	if marker == nil {
		marker = ErrTranscription
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsFatal reports whether the error must halt the whole run rather than be
// recorded against a single file.
func IsFatal(err error) bool {
	return errors.Is(err, ErrSourceUnavailable) || errors.Is(err, ErrDiskExhausted)
}

// Label returns a short classification name used in ledger rows and logs.
func Label(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrSourceUnavailable):
		return "source_unavailable"
	case errors.Is(err, ErrDiskExhausted):
		return "disk_exhausted"
	case errors.Is(err, ErrFetch):
		return "fetch"
	case errors.Is(err, ErrTranscription):
		return "transcription"
	case errors.Is(err, ErrWrite):
		return "write"
	default:
		return "unclassified"
	}
}

func buildDetail(step, operation, message string) string {
	parts := make([]string, 0, 3)
	if step = strings.TrimSpace(step); step != "" {
		parts = append(parts, step)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "pipeline failure"
	}
	return strings.Join(parts, ": ")
}
