package export

import (
	"sort"

	"voice-ingest-go/internal/types"
)

// DayGroup collects the recordings of one calendar day.
type DayGroup struct {
	Day            string   `json:"day"`
	Count          int      `json:"count"`
	DurationMillis int64    `json:"duration"`
	Duration       string   `json:"durationText"`
	FileNames      []string `json:"fileNames"`
}

// MonthGroup is one calendar month of the list view, with its days.
type MonthGroup struct {
	Month          string     `json:"month"`
	Count          int        `json:"count"`
	DurationMillis int64      `json:"duration"`
	Duration       string     `json:"durationText"`
	Days           []DayGroup `json:"days"`
}

// CatalogSummary is a compact overview of the catalog for list views.
type CatalogSummary struct {
	Total          int          `json:"total"`
	DurationMillis int64        `json:"duration"`
	Duration       string       `json:"durationText"`
	Months         []MonthGroup `json:"months"`
	Days           []DayGroup   `json:"days"`
}

// Summarize groups records by recording month and day, newest first;
// records within a day keep catalog order.
func Summarize(records []types.TranscriptRecord) CatalogSummary {
	byDay := map[string]*DayGroup{}
	var s CatalogSummary
	for _, rec := range records {
		day := rec.Date.Format("2006-01-02")
		g, ok := byDay[day]
		if !ok {
			g = &DayGroup{Day: day, FileNames: []string{}}
			byDay[day] = g
		}
		g.Count++
		g.DurationMillis += rec.DurationMillis
		g.FileNames = append(g.FileNames, rec.FileName)

		s.Total++
		s.DurationMillis += rec.DurationMillis
	}

	s.Days = make([]DayGroup, 0, len(byDay))
	for _, g := range byDay {
		g.Duration = FormatDuration(g.DurationMillis)
		s.Days = append(s.Days, *g)
	}
	sort.Slice(s.Days, func(i, j int) bool { return s.Days[i].Day > s.Days[j].Day })
	s.Duration = FormatDuration(s.DurationMillis)
	s.Months = groupMonths(s.Days)
	return s
}

// groupMonths folds days, already newest first, into their months.
func groupMonths(days []DayGroup) []MonthGroup {
	months := []MonthGroup{}
	for _, d := range days {
		month := d.Day[:len("2006-01")]
		if n := len(months); n == 0 || months[n-1].Month != month {
			months = append(months, MonthGroup{Month: month, Days: []DayGroup{}})
		}
		m := &months[len(months)-1]
		m.Count += d.Count
		m.DurationMillis += d.DurationMillis
		m.Days = append(m.Days, d)
	}
	for i := range months {
		months[i].Duration = FormatDuration(months[i].DurationMillis)
	}
	return months
}
