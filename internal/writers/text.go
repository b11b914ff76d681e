package writers

import (
	"os"
	"strings"

	"lectern/internal/media"
)

// Text writes a plain reading transcript. When diarization labels are
// present, a new paragraph headed by the speaker label starts at each
// speaker change.
type Text struct{}

func (Text) Format() string { return "txt" }

func (Text) Write(transcript media.Transcript, stem string) error {
	var b strings.Builder
	currentSpeaker := ""
	for _, seg := range transcript.Segments {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		if seg.Speaker != "" && seg.Speaker != currentSpeaker {
			currentSpeaker = seg.Speaker
			if b.Len() > 0 {
				b.WriteString("\n\n")
			}
			b.WriteString("[" + currentSpeaker + "]\n")
		}
		b.WriteString(text)
		b.WriteString(" ")
	}
	content := strings.TrimRight(b.String(), " ")
	if content != "" {
		content += "\n"
	}
	return os.WriteFile(stem+".txt", []byte(content), 0o644)
}
