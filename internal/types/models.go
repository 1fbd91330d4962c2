package types

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"
)

// CandidateFile is one caller-supplied audio file pending ingestion.
type CandidateFile struct {
	Name    string
	Data    []byte
	ModTime time.Time
}

// LoadCandidate reads a file from disk into a CandidateFile.
func LoadCandidate(path string) (CandidateFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return CandidateFile{}, fmt.Errorf("stat: %w", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return CandidateFile{}, fmt.Errorf("read: %w", err)
	}
	return CandidateFile{Name: filepath.Base(path), Data: data, ModTime: info.ModTime()}, nil
}

type ItemStatus string

const (
	StatusQueued       ItemStatus = "queued"
	StatusTranscribing ItemStatus = "transcribing"
	StatusSummarizing  ItemStatus = "summarizing"
	StatusDone         ItemStatus = "done"
)

// Rank orders statuses along the forward-only item lifecycle.
func (s ItemStatus) Rank() int {
	switch s {
	case StatusQueued:
		return 0
	case StatusTranscribing:
		return 1
	case StatusSummarizing:
		return 2
	case StatusDone:
		return 3
	default:
		return -1
	}
}

// Weight is the share of one item's progress credit the status earns.
func (s ItemStatus) Weight() float64 {
	switch s {
	case StatusDone:
		return 1
	case StatusSummarizing:
		return 0.5
	default:
		return 0
	}
}

type BatchItem struct {
	Key       string        `json:"key"`
	Candidate CandidateFile `json:"-"`
	Status    ItemStatus    `json:"status"`
	Error     string        `json:"error,omitempty"`
}

// Terminal reports whether the item will see no further transitions.
func (i BatchItem) Terminal() bool {
	return i.Status == StatusDone
}

// Failed reports whether the item ended (or will end) without a record.
func (i BatchItem) Failed() bool {
	return i.Error != ""
}

type TranscriptRecord struct {
	FileName       string    `json:"fileName"`
	FilePath       string    `json:"filePath"`
	Date           time.Time `json:"date"`
	TranscriptText string    `json:"transcript"`
	SummaryText    string    `json:"summary"`
	DurationMillis int64     `json:"duration"`
}

// UnmarshalJSON accepts fractional durations, which catalogs written by the
// desktop app contain, and rounds them to whole milliseconds.
func (r *TranscriptRecord) UnmarshalJSON(data []byte) error {
	type plain TranscriptRecord
	aux := struct {
		*plain
		DurationMillis float64 `json:"duration"`
	}{plain: (*plain)(r)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	r.DurationMillis = int64(math.Round(aux.DurationMillis))
	return nil
}

type Credentials struct {
	APIKey         string     `json:"apiKey,omitempty"`
	OrganizationID string     `json:"organizationKey,omitempty"`
	VerifiedAt     *time.Time `json:"verified,omitempty"`
}

// Verified reports whether a successful verification has been recorded.
func (c Credentials) Verified() bool {
	return c.VerifiedAt != nil && !c.VerifiedAt.IsZero()
}

// Document is the persisted catalog file.
type Document struct {
	API         Credentials        `json:"api"`
	Transcripts []TranscriptRecord `json:"transcripts"`
}
