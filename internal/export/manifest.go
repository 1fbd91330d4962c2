package export

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// LoadManifest reads the audio file paths listed in the first sheet of an
// xlsx workbook. The path column is detected from the header; relative
// paths resolve against the workbook's folder.
func LoadManifest(path string) ([]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	if len(rows) <= 1 {
		return nil, fmt.Errorf("no data rows")
	}

	pathIdx := detectPathColumn(rows[0])
	if pathIdx == -1 {
		return nil, fmt.Errorf("no path column in header %v", rows[0])
	}

	base := filepath.Dir(path)
	var out []string
	for _, r := range rows[1:] {
		if pathIdx >= len(r) {
			continue
		}
		p := strings.TrimSpace(r[pathIdx])
		// rows without an mp3 path are skipped quietly
		if p == "" || !strings.EqualFold(filepath.Ext(p), ".mp3") {
			continue
		}
		if !filepath.IsAbs(p) {
			p = filepath.Join(base, p)
		}
		out = append(out, p)
	}
	return out, nil
}

func detectPathColumn(header []string) int {
	fallback := -1
	for i, h := range header {
		l := strings.ToLower(strings.TrimSpace(h))
		switch {
		case strings.Contains(l, "path"):
			return i
		case strings.Contains(l, "file") || strings.Contains(l, "audio") || strings.Contains(l, "recording"):
			if fallback == -1 {
				fallback = i
			}
		}
	}
	// single-column sheets are taken as a plain list
	if fallback == -1 && len(header) == 1 {
		return 0
	}
	return fallback
}
