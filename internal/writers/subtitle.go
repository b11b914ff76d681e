package writers

import (
	"fmt"
	"os"
	"strings"

	"lectern/internal/media"
)

// SRT writes SubRip cues with comma decimal timestamps.
type SRT struct{}

func (SRT) Format() string { return "srt" }

func (SRT) Write(transcript media.Transcript, stem string) error {
	var b strings.Builder
	for i, seg := range transcript.Segments {
		fmt.Fprintf(&b, "%d\n%s --> %s\n%s\n\n",
			i+1,
			timecode(seg.Start, ","),
			timecode(seg.End, ","),
			labeledText(seg),
		)
	}
	return os.WriteFile(stem+".srt", []byte(b.String()), 0o644)
}

// VTT writes WebVTT cues with dot decimal timestamps.
type VTT struct{}

func (VTT) Format() string { return "vtt" }

func (VTT) Write(transcript media.Transcript, stem string) error {
	var b strings.Builder
	b.WriteString("WEBVTT\n\n")
	for _, seg := range transcript.Segments {
		fmt.Fprintf(&b, "%s --> %s\n%s\n\n",
			timecode(seg.Start, "."),
			timecode(seg.End, "."),
			labeledText(seg),
		)
	}
	return os.WriteFile(stem+".vtt", []byte(b.String()), 0o644)
}
