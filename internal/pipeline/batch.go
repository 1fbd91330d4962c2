package pipeline

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"voice-ingest-go/internal/tracker"
	"voice-ingest-go/internal/types"
)

// Batch is one ingestion run over a fixed set of candidates.
type Batch struct {
	ID      string
	Tracker *tracker.Tracker

	dismissed atomic.Bool
	done      chan struct{}
	once      sync.Once
	summary   Summary
	err       error
}

// NewBatch enqueues every candidate in the given order.
func NewBatch(candidates []types.CandidateFile) *Batch {
	id := uuid.New().String()
	b := &Batch{
		ID:      id,
		Tracker: tracker.New(id, 0),
		done:    make(chan struct{}),
	}
	for _, c := range candidates {
		b.Tracker.Enqueue(c)
	}
	return b
}

// Dismiss stops selection of further items and the catalog merge. An item
// already in flight runs to completion and its result is dropped.
func (b *Batch) Dismiss() {
	b.dismissed.Store(true)
}

func (b *Batch) Dismissed() bool {
	return b.dismissed.Load()
}

// Done is closed once the driver has returned.
func (b *Batch) Done() <-chan struct{} {
	return b.done
}

func (b *Batch) Finished() bool {
	select {
	case <-b.done:
		return true
	default:
		return false
	}
}

// Result is valid after Done is closed.
func (b *Batch) Result() (Summary, error) {
	<-b.done
	return b.summary, b.err
}

func (b *Batch) finish(s Summary, err error) {
	b.once.Do(func() {
		b.summary = s
		b.err = err
		close(b.done)
	})
}
