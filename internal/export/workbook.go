// Package export moves catalog data in and out of Excel workbooks.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"voice-ingest-go/internal/types"
)

const transcriptSheet = "Transcripts"

var transcriptHeader = []interface{}{"File Name", "Date", "Time", "Duration", "Summary", "Transcript", "File Path"}

// FormatDuration renders milliseconds as "04m 09s".
func FormatDuration(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	return fmt.Sprintf("%02dm %02ds", ms/60000, (ms%60000)/1000)
}

// WriteWorkbook writes one row per record, in catalog order, to w as xlsx.
func WriteWorkbook(w io.Writer, records []types.TranscriptRecord) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", transcriptSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := f.SetSheetRow(transcriptSheet, "A1", &transcriptHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	if err := f.SetCellStyle(transcriptSheet, "A1", "G1", bold); err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	_ = f.SetColWidth(transcriptSheet, "A", "A", 20)
	_ = f.SetColWidth(transcriptSheet, "E", "F", 60)

	for i, rec := range records {
		row := []interface{}{
			rec.FileName,
			rec.Date.Format("2006-01-02"),
			rec.Date.Format("15:04"),
			FormatDuration(rec.DurationMillis),
			rec.SummaryText,
			rec.TranscriptText,
			rec.FilePath,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(transcriptSheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
