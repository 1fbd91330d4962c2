// Package identity derives the canonical recording time of a candidate file.
package identity

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"voice-ingest-go/internal/types"
)

var (
	ErrFileNameFormat = errors.New("File name is not in the correct format")
	ErrNoTimestamp    = errors.New("File has no usable timestamp")
)

// recorder names look like 230415_1030.mp3 (yymmdd_hhmm)
var fileNamePattern = regexp.MustCompile(`^(\d{6})_(\d{4})$`)

const fileNameLayout = "060102_1504"

// Extractor assigns a date to a candidate or rejects it.
type Extractor interface {
	Identify(c types.CandidateFile) (time.Time, error)
	// DerivesName reports whether the stored file name comes from the date
	// rather than the candidate name.
	DerivesName() bool
}

// New returns the extractor for strategy "filename" or "modtime".
func New(strategy string, loc *time.Location) (Extractor, error) {
	if loc == nil {
		loc = time.Local
	}
	switch strategy {
	case "", "filename":
		return FileName{Location: loc}, nil
	case "modtime":
		return ModTime{}, nil
	default:
		return nil, fmt.Errorf("unknown identity strategy %q", strategy)
	}
}

// FileName parses yymmdd_hhmm from the base name, ignoring the extension.
type FileName struct {
	Location *time.Location
}

func (f FileName) Identify(c types.CandidateFile) (time.Time, error) {
	base := strings.TrimSuffix(c.Name, filepath.Ext(c.Name))
	if !fileNamePattern.MatchString(base) {
		return time.Time{}, ErrFileNameFormat
	}
	loc := f.Location
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation(fileNameLayout, base, loc)
	if err != nil {
		// matches the digits but not the calendar, e.g. month 13
		return time.Time{}, ErrFileNameFormat
	}
	return t, nil
}

func (FileName) DerivesName() bool { return false }

// ModTime uses the file's own last-modified time.
type ModTime struct{}

func (ModTime) Identify(c types.CandidateFile) (time.Time, error) {
	if c.ModTime.IsZero() || c.ModTime.Unix() <= 0 {
		return time.Time{}, ErrNoTimestamp
	}
	return c.ModTime, nil
}

func (ModTime) DerivesName() bool { return true }

// NameFor is the stored file name derived from a date, keeping ext.
func NameFor(t time.Time, ext string) string {
	return t.Format(fileNameLayout) + ext
}
