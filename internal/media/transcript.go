package media

import "sort"

// Segment is one timed span of transcribed speech. Speaker is empty when
// diarization was disabled or found nothing; Confidence is zero when the
// engine did not report one.
type Segment struct {
	Start      float64 `json:"start"`
	End        float64 `json:"end"`
	Speaker    string  `json:"speaker,omitempty"`
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence,omitempty"`
}

// Transcript is the ordered output of the transcription engine for one
// recording. It exists only between the transcribe and write steps of the
// scratch lifecycle; output writers project it into durable formats.
type Transcript struct {
	Language string    `json:"language,omitempty"`
	Segments []Segment `json:"segments"`
}

// Speakers returns the distinct speaker labels in order of first appearance.
func (t Transcript) Speakers() []string {
	seen := make(map[string]struct{})
	var labels []string
	for _, seg := range t.Segments {
		if seg.Speaker == "" {
			continue
		}
		if _, ok := seen[seg.Speaker]; ok {
			continue
		}
		seen[seg.Speaker] = struct{}{}
		labels = append(labels, seg.Speaker)
	}
	return labels
}

// Duration returns the end time of the last segment in seconds.
func (t Transcript) Duration() float64 {
	var last float64
	for _, seg := range t.Segments {
		if seg.End > last {
			last = seg.End
		}
	}
	return last
}

// SortSegments orders segments by start time. Engines generally emit
// segments in order already; this keeps projections stable when they do not.
func (t *Transcript) SortSegments() {
	sort.SliceStable(t.Segments, func(i, j int) bool {
		return t.Segments[i].Start < t.Segments[j].Start
	})
}
