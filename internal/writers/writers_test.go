package writers_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"lectern/internal/media"
	"lectern/internal/writers"
)

func sampleTranscript() media.Transcript {
	return media.Transcript{
		Language: "en",
		Segments: []media.Segment{
			{Start: 0, End: 4.5, Speaker: "SPEAKER_00", Text: " Good morning everyone. "},
			{Start: 4.5, End: 9.25, Speaker: "SPEAKER_00", Text: "Today we cover recursion."},
			{Start: 9.25, End: 12.8, Speaker: "SPEAKER_01", Text: "Can you repeat that?"},
		},
	}
}

func TestForFormatsRejectsUnknown(t *testing.T) {
	if _, err := writers.ForFormats([]string{"srt", "docx"}); err == nil {
		t.Fatal("expected error for unknown format")
	}
	if _, err := writers.ForFormats(nil); err == nil {
		t.Fatal("expected error for empty format list")
	}
}

func TestForFormatsDeduplicates(t *testing.T) {
	ws, err := writers.ForFormats([]string{"srt", "SRT", "json"})
	if err != nil {
		t.Fatalf("ForFormats failed: %v", err)
	}
	if len(ws) != 2 {
		t.Fatalf("expected 2 writers, got %d", len(ws))
	}
}

func TestSRTProjection(t *testing.T) {
	stem := filepath.Join(t.TempDir(), "lecture")
	if err := (writers.SRT{}).Write(sampleTranscript(), stem); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	data, err := os.ReadFile(stem + ".srt")
	if err != nil {
		t.Fatalf("read srt: %v", err)
	}
	content := string(data)
	if !strings.HasPrefix(content, "1\n00:00:00,000 --> 00:00:04,500\n[SPEAKER_00] Good morning everyone.\n") {
		t.Fatalf("unexpected first cue:\n%s", content)
	}
	if !strings.Contains(content, "3\n00:00:09,250 --> 00:00:12,800\n[SPEAKER_01] Can you repeat that?\n") {
		t.Fatalf("unexpected third cue:\n%s", content)
	}
}

func TestVTTProjection(t *testing.T) {
	stem := filepath.Join(t.TempDir(), "lecture")
	if err := (writers.VTT{}).Write(sampleTranscript(), stem); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	data, err := os.ReadFile(stem + ".vtt")
	if err != nil {
		t.Fatalf("read vtt: %v", err)
	}
	content := string(data)
	if !strings.HasPrefix(content, "WEBVTT\n\n") {
		t.Fatal("missing WEBVTT header")
	}
	if !strings.Contains(content, "00:00:04.500 --> 00:00:09.250\n") {
		t.Fatalf("expected dot decimal timestamps:\n%s", content)
	}
}

func TestTextProjectionGroupsBySpeaker(t *testing.T) {
	stem := filepath.Join(t.TempDir(), "lecture")
	if err := (writers.Text{}).Write(sampleTranscript(), stem); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	data, err := os.ReadFile(stem + ".txt")
	if err != nil {
		t.Fatalf("read txt: %v", err)
	}
	content := string(data)
	want := "[SPEAKER_00]\nGood morning everyone. Today we cover recursion.\n\n[SPEAKER_01]\nCan you repeat that?\n"
	if content != want {
		t.Fatalf("unexpected text projection:\ngot:  %q\nwant: %q", content, want)
	}
}

func TestCSVProjection(t *testing.T) {
	stem := filepath.Join(t.TempDir(), "lecture")
	if err := (writers.CSV{}).Write(sampleTranscript(), stem); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	data, err := os.ReadFile(stem + ".csv")
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header + 3 rows, got %d lines", len(lines))
	}
	if lines[0] != "start_time,end_time,speaker,text" {
		t.Fatalf("unexpected header: %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "0.000,4.500,SPEAKER_00,") {
		t.Fatalf("unexpected first row: %q", lines[1])
	}
}

func TestCSVWithoutSpeakers(t *testing.T) {
	stem := filepath.Join(t.TempDir(), "plain")
	transcript := media.Transcript{Segments: []media.Segment{{Start: 0, End: 1, Text: "hello"}}}
	if err := (writers.CSV{}).Write(transcript, stem); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	data, err := os.ReadFile(stem + ".csv")
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if !strings.Contains(string(data), ",N/A,") {
		t.Fatalf("expected N/A speaker placeholder:\n%s", data)
	}
}

func TestJSONRoundTripsTranscript(t *testing.T) {
	stem := filepath.Join(t.TempDir(), "lecture")
	original := sampleTranscript()
	if err := (writers.JSON{}).Write(original, stem); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	data, err := os.ReadFile(stem + ".json")
	if err != nil {
		t.Fatalf("read json: %v", err)
	}
	var decoded media.Transcript
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.Language != "en" || len(decoded.Segments) != 3 {
		t.Fatalf("unexpected decoded transcript: %+v", decoded)
	}
	if decoded.Segments[2].Speaker != "SPEAKER_01" {
		t.Fatalf("speaker lost in projection: %+v", decoded.Segments[2])
	}
}

func TestTimecodeViaLongRecording(t *testing.T) {
	stem := filepath.Join(t.TempDir(), "long")
	transcript := media.Transcript{Segments: []media.Segment{
		{Start: 3599.999, End: 3661.5, Text: "one hour in"},
	}}
	if err := (writers.SRT{}).Write(transcript, stem); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	data, err := os.ReadFile(stem + ".srt")
	if err != nil {
		t.Fatalf("read srt: %v", err)
	}
	if !strings.Contains(string(data), "00:59:59,999 --> 01:01:01,500") {
		t.Fatalf("unexpected hour rollover:\n%s", data)
	}
}
