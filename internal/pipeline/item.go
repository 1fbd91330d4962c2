package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"voice-ingest-go/internal/logger"
	"voice-ingest-go/internal/types"
)

// processItem takes one queued item through preconditions, blob save,
// transcription and summarization. It moves the tracker through
// transcribing and summarizing; the caller closes the item.
func (d *Driver) processItem(ctx context.Context, b *Batch, item types.BatchItem, log *logger.Logger) (types.TranscriptRecord, error) {
	file := item.Candidate
	creds := d.deps.Credentials.Credentials()

	date, err := d.checkPreconditions(b, item, creds)
	if err != nil {
		return types.TranscriptRecord{}, err
	}

	b.Tracker.Transition(item.Key, types.StatusTranscribing)
	b.Tracker.Log(item.Key, "Transcribing "+file.Name)

	// a blob without a catalog record is left over from a failed attempt
	// and gets overwritten
	if orphan, _ := d.deps.Blobs.Exists(d.deps.Blobs.PathFor(file, date)); orphan {
		log.Info("overwriting blob from an earlier attempt")
	}
	path, err := d.deps.Blobs.Save(file, date)
	if err != nil {
		return types.TranscriptRecord{}, fmt.Errorf("%w: %v", ErrSave, err)
	}
	log.WithField("path", path).Debug("blob saved")

	start := time.Now()
	transcript, err := d.deps.Transcriber.Transcribe(ctx, creds, file)
	if err != nil {
		return types.TranscriptRecord{}, fmt.Errorf("%w: %v", ErrTranscript, err)
	}
	log.WithField("duration_ms", time.Since(start).Milliseconds()).Debug("transcript received")

	if b.Dismissed() {
		return types.TranscriptRecord{}, errDismissedInFlight
	}

	b.Tracker.Transition(item.Key, types.StatusSummarizing)
	b.Tracker.Log(item.Key, "Summarizing "+file.Name)

	start = time.Now()
	summary, err := d.deps.Summarizer.Summarize(ctx, creds, transcript)
	if err != nil {
		return types.TranscriptRecord{}, fmt.Errorf("%w: %v", ErrSummary, err)
	}
	log.WithField("duration_ms", time.Since(start).Milliseconds()).Debug("summary received")

	length, err := d.deps.Durations.Duration(file.Data)
	if err != nil {
		return types.TranscriptRecord{}, fmt.Errorf("%w: %v", ErrDuration, err)
	}

	return types.TranscriptRecord{
		FileName:       file.Name,
		FilePath:       path,
		Date:           date,
		TranscriptText: transcript,
		SummaryText:    summary,
		DurationMillis: length.Milliseconds(),
	}, nil
}

// checkPreconditions runs the cheap checks that need no external call and
// returns the item's date.
func (d *Driver) checkPreconditions(b *Batch, item types.BatchItem, creds types.Credentials) (time.Time, error) {
	file := item.Candidate

	if !creds.Verified() {
		return time.Time{}, ErrNotVerified
	}
	if strings.TrimSpace(creds.APIKey) == "" {
		return time.Time{}, ErrMissingKey
	}
	if d.deps.Catalog.Has(file.Name) {
		return time.Time{}, ErrInCatalog
	}
	if queuedEarlier(b, item) {
		return time.Time{}, ErrDuplicateInRun
	}
	if !strings.EqualFold(filepath.Ext(file.Name), d.deps.Extension) {
		return time.Time{}, ErrWrongType
	}

	return d.deps.Identity.Identify(file)
}

// queuedEarlier reports whether an item inserted before this one carries
// the same file name.
func queuedEarlier(b *Batch, item types.BatchItem) bool {
	for _, other := range b.Tracker.Items() {
		if other.Key == item.Key {
			return false
		}
		if other.Candidate.Name == item.Candidate.Name {
			return true
		}
	}
	return false
}
