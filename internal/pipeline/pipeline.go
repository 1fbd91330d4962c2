// internal/pipeline/pipeline.go
package pipeline

import (
	"context"
	"fmt"
	"time"

	"voice-ingest-go/internal/identity"
	"voice-ingest-go/internal/logger"
	"voice-ingest-go/internal/types"
)

type CredentialSource interface {
	Credentials() types.Credentials
}

// Catalog is the durable record collection. Append must not persist; the
// driver calls Save once after merging.
type Catalog interface {
	Has(fileName string) bool
	Append(records ...types.TranscriptRecord)
	Save() error
}

type BlobStore interface {
	PathFor(c types.CandidateFile, date time.Time) string
	Exists(path string) (bool, error)
	Save(c types.CandidateFile, date time.Time) (string, error)
}

type Transcriber interface {
	Transcribe(ctx context.Context, creds types.Credentials, file types.CandidateFile) (string, error)
}

type Summarizer interface {
	Summarize(ctx context.Context, creds types.Credentials, transcript string) (string, error)
}

type DurationProber interface {
	Duration(data []byte) (time.Duration, error)
}

// Deps are the collaborators of a Driver.
type Deps struct {
	Credentials CredentialSource
	Catalog     Catalog
	Identity    identity.Extractor
	Blobs       BlobStore
	Transcriber Transcriber
	Summarizer  Summarizer
	Durations   DurationProber
	// Extension is the accepted file extension, ".mp3" by default.
	Extension string
}

// Driver runs batches one item at a time.
type Driver struct {
	deps Deps
	log  *logger.Logger
}

func NewDriver(deps Deps, log *logger.Logger) *Driver {
	if deps.Extension == "" {
		deps.Extension = ".mp3"
	}
	return &Driver{deps: deps, log: log.With("component", "pipeline")}
}

// Run drives every queued item of b to a terminal state, in insertion
// order, then merges the produced records into the catalog with a single
// append and save. Item failures never abort the batch.
func (d *Driver) Run(ctx context.Context, b *Batch) (Summary, error) {
	log := d.log.WithBatch(b.ID)
	start := time.Now()
	log.WithField("items", len(b.Tracker.Items())).Info("batch started")

	var staged []types.TranscriptRecord
	for {
		if b.Dismissed() {
			d.abandon(b, "Batch was dismissed")
			break
		}
		if ctx.Err() != nil {
			d.abandon(b, "Batch was cancelled")
			break
		}

		item, ok := b.Tracker.NextQueued()
		if !ok {
			break
		}

		itemLog := log.WithItem(item.Key)
		rec, err := d.processItem(ctx, b, item, itemLog)
		if err != nil {
			b.Tracker.RecordError(item.Key, err.Error())
			itemLog.WithError(err).Warn("item failed")
		} else {
			staged = append(staged, rec)
			itemLog.Info("item done")
		}
		b.Tracker.Transition(item.Key, types.StatusDone)
		if err != nil {
			b.Tracker.Log(item.Key, "Failed "+item.Candidate.Name)
		} else {
			b.Tracker.Log(item.Key, "Done "+item.Candidate.Name)
		}
	}

	summary := Summarize(b.ID, b.Tracker.Items(), staged, b.Tracker.Progress())
	if !b.Tracker.Complete() {
		// every exit path above leaves items terminal
		return summary, fmt.Errorf("batch %s ended with non-terminal items", b.ID)
	}

	if b.Dismissed() {
		log.WithField("dropped_records", len(staged)).Info("batch dismissed, skipping catalog merge")
		summary.Records = nil
		return summary, ErrDismissed
	}

	if len(staged) > 0 {
		d.deps.Catalog.Append(staged...)
		if err := d.deps.Catalog.Save(); err != nil {
			log.WithError(err).Error("catalog save failed")
			return summary, fmt.Errorf("save catalog: %w", err)
		}
		summary.Merged = true
	}
	log.WithField("succeeded", summary.Succeeded).
		WithField("failed", summary.Failed).
		WithField("duration_ms", time.Since(start).Milliseconds()).
		Info("batch finished")
	return summary, nil
}

// abandon closes every still-queued item with reason.
func (d *Driver) abandon(b *Batch, reason string) {
	for {
		item, ok := b.Tracker.NextQueued()
		if !ok {
			return
		}
		b.Tracker.RecordError(item.Key, reason)
		b.Tracker.Transition(item.Key, types.StatusDone)
	}
}
