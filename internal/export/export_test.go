package export

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"voice-ingest-go/internal/types"
)

func sampleRecords() []types.TranscriptRecord {
	return []types.TranscriptRecord{
		{
			FileName:       "230415_1030.mp3",
			FilePath:       "/data/2023-04-15/230415_1030.mp3",
			Date:           time.Date(2023, 4, 15, 10, 30, 0, 0, time.UTC),
			TranscriptText: "we talked about the roadmap",
			SummaryText:    "Roadmap discussion.",
			DurationMillis: 249000,
		},
		{
			FileName:       "230416_0915.mp3",
			FilePath:       "/data/2023-04-16/230416_0915.mp3",
			Date:           time.Date(2023, 4, 16, 9, 15, 0, 0, time.UTC),
			TranscriptText: "short note",
			SummaryText:    "A note.",
			DurationMillis: 49000,
		},
		{
			FileName:       "230415_1400.mp3",
			Date:           time.Date(2023, 4, 15, 14, 0, 0, 0, time.UTC),
			DurationMillis: 61000,
		},
	}
}

func TestFormatDuration(t *testing.T) {
	tests := map[int64]string{
		0:       "00m 00s",
		49000:   "00m 49s",
		61500:   "01m 01s",
		249000:  "04m 09s",
		3600000: "60m 00s",
		-5:      "00m 00s",
	}
	for ms, want := range tests {
		if got := FormatDuration(ms); got != want {
			t.Errorf("FormatDuration(%d) = %q, want %q", ms, got, want)
		}
	}
}

func TestWriteWorkbookRows(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteWorkbook(&buf, sampleRecords()); err != nil {
		t.Fatalf("WriteWorkbook() error = %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(transcriptSheet)
	if err != nil {
		t.Fatalf("GetRows() error = %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("rows = %d, want header + 3", len(rows))
	}
	if rows[0][0] != "File Name" || rows[0][3] != "Duration" {
		t.Fatalf("header = %v", rows[0])
	}
	first := rows[1]
	if first[0] != "230415_1030.mp3" || first[1] != "2023-04-15" || first[2] != "10:30" || first[3] != "04m 09s" || first[4] != "Roadmap discussion." {
		t.Fatalf("first row = %v", first)
	}
}

func TestWriteWorkbookEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteWorkbook(&buf, nil); err != nil {
		t.Fatalf("WriteWorkbook() error = %v", err)
	}
	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows(transcriptSheet)
	if err != nil {
		t.Fatalf("GetRows() error = %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows = %v, want header only", rows)
	}
}

func writeManifest(t *testing.T, rows [][]interface{}) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow("Sheet1", cell, &row); err != nil {
			t.Fatalf("SetSheetRow() error = %v", err)
		}
	}
	path := filepath.Join(t.TempDir(), "manifest.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("SaveAs() error = %v", err)
	}
	return path
}

func TestLoadManifestDetectsPathColumn(t *testing.T) {
	path := writeManifest(t, [][]interface{}{
		{"Notes", "File Path"},
		{"standup", "230415_1030.mp3"},
		{"skip me", "cover.jpg"},
		{"absolute", "/recordings/230416_0915.MP3"},
		{"empty", ""},
	})

	got, err := LoadManifest(path)
	if err != nil {
		t.Fatalf("LoadManifest() error = %v", err)
	}
	want := []string{
		filepath.Join(filepath.Dir(path), "230415_1030.mp3"),
		"/recordings/230416_0915.MP3",
	}
	if len(got) != len(want) {
		t.Fatalf("paths = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("paths = %v, want %v", got, want)
		}
	}
}

func TestLoadManifestWithoutPathColumn(t *testing.T) {
	path := writeManifest(t, [][]interface{}{
		{"Notes", "Owner"},
		{"standup", "me"},
	})
	if _, err := LoadManifest(path); err == nil {
		t.Fatal("expected error for missing path column")
	}
}

func TestSummarizeGroupsByDay(t *testing.T) {
	s := Summarize(sampleRecords())
	if s.Total != 3 || s.DurationMillis != 359000 || s.Duration != "05m 59s" {
		t.Fatalf("summary = %+v", s)
	}
	if len(s.Days) != 2 {
		t.Fatalf("days = %+v", s.Days)
	}
	if s.Days[0].Day != "2023-04-16" || s.Days[1].Day != "2023-04-15" {
		t.Fatalf("day order = %s, %s", s.Days[0].Day, s.Days[1].Day)
	}
	day := s.Days[1]
	if day.Count != 2 || day.FileNames[0] != "230415_1030.mp3" || day.FileNames[1] != "230415_1400.mp3" {
		t.Fatalf("day group = %+v", day)
	}
}

func TestSummarizeGroupsByMonth(t *testing.T) {
	records := append(sampleRecords(), types.TranscriptRecord{
		FileName:       "230502_0800.mp3",
		Date:           time.Date(2023, 5, 2, 8, 0, 0, 0, time.UTC),
		DurationMillis: 30000,
	})
	s := Summarize(records)
	if len(s.Months) != 2 {
		t.Fatalf("months = %+v", s.Months)
	}
	may, april := s.Months[0], s.Months[1]
	if may.Month != "2023-05" || may.Count != 1 || may.Duration != "00m 30s" {
		t.Fatalf("may = %+v", may)
	}
	if april.Month != "2023-04" || april.Count != 3 || len(april.Days) != 2 || april.Days[0].Day != "2023-04-16" {
		t.Fatalf("april = %+v", april)
	}
	if april.DurationMillis != 359000 {
		t.Fatalf("april duration = %d", april.DurationMillis)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil)
	if s.Total != 0 || s.Months == nil || len(s.Months) != 0 || len(s.Days) != 0 {
		t.Fatalf("summary = %+v", s)
	}
}
