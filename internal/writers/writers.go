// Package writers projects a transcript into durable output formats.
//
// Each writer produces one artifact next to the recording's shared path
// stem: "<stem>.srt", "<stem>.vtt", "<stem>.txt", "<stem>.csv", or
// "<stem>.json". Speaker labels from diarization are rendered inline as
// "[SPEAKER_NN]" in the subtitle and text projections.
package writers

import (
	"fmt"
	"strings"

	"lectern/internal/media"
)

// Writer serializes one transcript projection to "<stem>.<ext>".
type Writer interface {
	Format() string
	Write(transcript media.Transcript, stem string) error
}

// ForFormats returns one writer per requested format name.
func ForFormats(formats []string) ([]Writer, error) {
	result := make([]Writer, 0, len(formats))
	seen := make(map[string]struct{}, len(formats))
	for _, format := range formats {
		name := strings.ToLower(strings.TrimSpace(format))
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}

		switch name {
		case "srt":
			result = append(result, SRT{})
		case "vtt":
			result = append(result, VTT{})
		case "txt":
			result = append(result, Text{})
		case "csv":
			result = append(result, CSV{})
		case "json":
			result = append(result, JSON{})
		default:
			return nil, fmt.Errorf("unsupported output format %q", format)
		}
	}
	if len(result) == 0 {
		return nil, fmt.Errorf("no output formats configured")
	}
	return result, nil
}

// timecode renders seconds as HH:MM:SS with millisecond precision, using the
// given decimal separator ("," for SRT, "." for VTT).
func timecode(seconds float64, decimal string) string {
	if seconds < 0 {
		seconds = 0
	}
	totalMillis := int64(seconds*1000 + 0.5)
	hours := totalMillis / 3_600_000
	minutes := (totalMillis % 3_600_000) / 60_000
	secs := (totalMillis % 60_000) / 1000
	millis := totalMillis % 1000
	return fmt.Sprintf("%02d:%02d:%02d%s%03d", hours, minutes, secs, decimal, millis)
}

// labeledText prefixes segment text with its speaker label when present.
func labeledText(seg media.Segment) string {
	text := strings.TrimSpace(seg.Text)
	if seg.Speaker == "" {
		return text
	}
	return fmt.Sprintf("[%s] %s", seg.Speaker, text)
}
