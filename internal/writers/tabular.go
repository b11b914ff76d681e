package writers

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"strconv"
	"strings"

	"lectern/internal/media"
)

// CSV writes one row per segment with start/end seconds, speaker, and text.
// The projection is aimed at spreadsheet analysis of lecture content.
type CSV struct{}

func (CSV) Format() string { return "csv" }

func (CSV) Write(transcript media.Transcript, stem string) error {
	file, err := os.Create(stem + ".csv")
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write([]string{"start_time", "end_time", "speaker", "text"}); err != nil {
		return err
	}
	for _, seg := range transcript.Segments {
		speaker := seg.Speaker
		if speaker == "" {
			speaker = "N/A"
		}
		record := []string{
			strconv.FormatFloat(seg.Start, 'f', 3, 64),
			strconv.FormatFloat(seg.End, 'f', 3, 64),
			speaker,
			strings.TrimSpace(seg.Text),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return file.Close()
}

// JSON writes the structured transcript, the canonical machine-readable
// artifact downstream indexers consume.
type JSON struct{}

func (JSON) Format() string { return "json" }

func (JSON) Write(transcript media.Transcript, stem string) error {
	data, err := json.MarshalIndent(transcript, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(stem+".json", append(data, '\n'), 0o644)
}
