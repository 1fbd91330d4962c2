package pipeline

import "voice-ingest-go/internal/types"

type Failure struct {
	Key   string `json:"key"`
	Name  string `json:"name"`
	Error string `json:"error"`
}

// Summary aggregates the outcome of a batch run.
type Summary struct {
	BatchID   string                   `json:"batch_id"`
	Total     int                      `json:"total"`
	Succeeded int                      `json:"succeeded"`
	Failed    int                      `json:"failed"`
	Merged    bool                     `json:"merged"`
	Records   []types.TranscriptRecord `json:"records"`
	Failures  []Failure                `json:"failures"`
	Progress  float64                  `json:"progress"`
}

// Summarize builds a summary from the final item states.
func Summarize(batchID string, items []types.BatchItem, records []types.TranscriptRecord, progress float64) Summary {
	s := Summary{BatchID: batchID, Total: len(items), Records: records, Progress: progress}
	for _, item := range items {
		if item.Failed() {
			s.Failed++
			s.Failures = append(s.Failures, Failure{Key: item.Key, Name: item.Candidate.Name, Error: item.Error})
			continue
		}
		if item.Status == types.StatusDone {
			s.Succeeded++
		}
	}
	return s
}
