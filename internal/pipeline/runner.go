package pipeline

import (
	"context"
	"sync"

	"voice-ingest-go/internal/logger"
	"voice-ingest-go/internal/types"
)

// Runner allows a single batch at a time and runs it in the background.
type Runner struct {
	ctx    context.Context
	driver *Driver
	log    *logger.Logger

	mu      sync.Mutex
	current *Batch // visible to callers until dismissed
	active  *Batch // still executing, dismissed or not
}

// NewRunner binds batch execution to ctx; cancelling it stops selection
// of further items.
func NewRunner(ctx context.Context, driver *Driver, log *logger.Logger) *Runner {
	return &Runner{ctx: ctx, driver: driver, log: log.With("component", "runner")}
}

// Start creates a batch from candidates and begins processing it.
func (r *Runner) Start(candidates []types.CandidateFile) (*Batch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.active != nil && !r.active.Finished() {
		return nil, ErrBatchRunning
	}

	b := NewBatch(candidates)
	r.current = b
	r.active = b
	go func() {
		summary, err := r.driver.Run(r.ctx, b)
		if err != nil && err != ErrDismissed {
			r.log.WithBatch(b.ID).WithError(err).Error("batch ended with error")
		}
		b.finish(summary, err)
	}()
	return b, nil
}

// Current returns the batch a display should show, if any.
func (r *Runner) Current() (*Batch, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current, r.current != nil
}

// Busy reports whether a batch is still executing.
func (r *Runner) Busy() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active != nil && !r.active.Finished()
}

// Dismiss discards the current batch's tracking state. A running batch
// stops after its in-flight item and skips the catalog merge.
func (r *Runner) Dismiss() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.current == nil {
		return ErrNoBatch
	}
	r.current.Dismiss()
	r.current = nil
	return nil
}

// Wait blocks until the executing batch, dismissed or not, has returned.
func (r *Runner) Wait() {
	r.mu.Lock()
	b := r.active
	r.mu.Unlock()
	if b != nil {
		<-b.Done()
	}
}
