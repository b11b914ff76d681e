package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"lectern/internal/media"
)

type whisperxWord struct {
	Score float64 `json:"score"`
}

type whisperxSegment struct {
	Start   float64        `json:"start"`
	End     float64        `json:"end"`
	Text    string         `json:"text"`
	Speaker string         `json:"speaker"`
	Words   []whisperxWord `json:"words"`
}

type whisperxResult struct {
	Segments []whisperxSegment `json:"segments"`
	Language string            `json:"language"`
}

// loadResult reads a WhisperX JSON output file into the shared transcript
// model. Segment confidence is the mean word score when word-level scores
// are present.
func loadResult(path string) (media.Transcript, error) {
	var transcript media.Transcript

	data, err := os.ReadFile(path)
	if err != nil {
		return transcript, fmt.Errorf("read %s: %w", path, err)
	}

	var result whisperxResult
	if err := json.Unmarshal(data, &result); err != nil {
		return transcript, fmt.Errorf("decode %s: %w", path, err)
	}

	transcript.Language = result.Language
	transcript.Segments = make([]media.Segment, 0, len(result.Segments))
	for _, seg := range result.Segments {
		transcript.Segments = append(transcript.Segments, media.Segment{
			Start:      seg.Start,
			End:        seg.End,
			Speaker:    seg.Speaker,
			Text:       strings.TrimSpace(seg.Text),
			Confidence: meanScore(seg.Words),
		})
	}
	return transcript, nil
}

func meanScore(words []whisperxWord) float64 {
	if len(words) == 0 {
		return 0
	}
	var sum float64
	for _, word := range words {
		sum += word.Score
	}
	return sum / float64(len(words))
}
