// Package tracker owns the per-item state of one batch and the progress
// derived from it.
package tracker

import (
	"fmt"
	"sync"

	"voice-ingest-go/internal/types"
)

// Tracker holds the batch items keyed by name, in insertion order.
// All mutation goes through its methods; callers only see copies.
type Tracker struct {
	mu       sync.RWMutex
	batchID  string
	order    []string
	items    map[string]types.BatchItem
	progress float64
	messages []string
	events   *EventBus
}

// Snapshot is a consistent copy of the tracker for display.
type Snapshot struct {
	BatchID  string            `json:"id"`
	Progress float64           `json:"progress"`
	Items    []types.BatchItem `json:"items"`
	Messages []string          `json:"messages"`
	Complete bool              `json:"complete"`
}

func New(batchID string, maxEvents int) *Tracker {
	return &Tracker{
		batchID:  batchID,
		items:    make(map[string]types.BatchItem),
		progress: 100,
		events:   NewEventBus(maxEvents),
	}
}

func (t *Tracker) BatchID() string { return t.batchID }

// Enqueue adds a queued item and returns its key. The key is the file name;
// a repeated name gets a " (n)" suffix so both stay addressable.
func (t *Tracker) Enqueue(c types.CandidateFile) string {
	t.mu.Lock()
	defer t.mu.Unlock()

	key := c.Name
	for n := 2; ; n++ {
		if _, taken := t.items[key]; !taken {
			break
		}
		key = fmt.Sprintf("%s (%d)", c.Name, n)
	}
	t.items[key] = types.BatchItem{Key: key, Candidate: c, Status: types.StatusQueued}
	t.order = append(t.order, key)
	t.progress = t.computeProgress()
	t.logLocked(key, "Queued "+c.Name)
	return key
}

// Transition moves an item forward. Unknown keys and non-forward moves are
// ignored and report false.
func (t *Tracker) Transition(key string, status types.ItemStatus) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	item, ok := t.items[key]
	if !ok || status.Rank() <= item.Status.Rank() {
		return false
	}
	item.Status = status
	t.items[key] = item
	t.progress = t.computeProgress()

	t.events.Publish(Event{
		BatchID:  t.batchID,
		Type:     EventTypeStatus,
		Key:      key,
		Status:   status,
		Progress: t.progress,
	})
	return true
}

// RecordError annotates an item without touching its status.
func (t *Tracker) RecordError(key, message string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	item, ok := t.items[key]
	if !ok {
		return false
	}
	item.Error = message
	t.items[key] = item

	t.messages = append(t.messages, fmt.Sprintf("%s: %s", item.Candidate.Name, message))
	t.events.Publish(Event{
		BatchID:  t.batchID,
		Type:     EventTypeError,
		Key:      key,
		Status:   item.Status,
		Message:  message,
		Progress: t.progress,
	})
	return true
}

// Log appends a console line for the batch.
func (t *Tracker) Log(key, message string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.logLocked(key, message)
}

func (t *Tracker) logLocked(key, message string) {
	t.messages = append(t.messages, message)
	t.events.Publish(Event{
		BatchID:  t.batchID,
		Type:     EventTypeLog,
		Key:      key,
		Message:  message,
		Progress: t.progress,
	})
}

// computeProgress must be called with mu held.
func (t *Tracker) computeProgress() float64 {
	if len(t.order) == 0 {
		return 100
	}
	var sum float64
	for _, key := range t.order {
		sum += t.items[key].Status.Weight()
	}
	p := sum / float64(len(t.order)) * 100
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	default:
		return p
	}
}

func (t *Tracker) Progress() float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.progress
}

func (t *Tracker) Item(key string) (types.BatchItem, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	item, ok := t.items[key]
	return item, ok
}

// NextQueued returns the earliest-inserted item still queued.
func (t *Tracker) NextQueued() (types.BatchItem, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, key := range t.order {
		if item := t.items[key]; item.Status == types.StatusQueued {
			return item, true
		}
	}
	return types.BatchItem{}, false
}

// Items returns the items in insertion order.
func (t *Tracker) Items() []types.BatchItem {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]types.BatchItem, 0, len(t.order))
	for _, key := range t.order {
		out = append(out, t.items[key])
	}
	return out
}

// Complete reports whether every item is terminal.
func (t *Tracker) Complete() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, key := range t.order {
		if !t.items[key].Terminal() {
			return false
		}
	}
	return true
}

func (t *Tracker) Messages() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]string(nil), t.messages...)
}

// Since returns events published after seq, optionally limited to the
// given item keys.
func (t *Tracker) Since(seq int64, keys ...string) []Event {
	return t.events.Since(seq, keys...)
}

// Missed reports whether the event feed no longer covers everything after
// seq.
func (t *Tracker) Missed(seq int64) bool {
	return t.events.Missed(seq)
}

func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()

	items := make([]types.BatchItem, 0, len(t.order))
	complete := true
	for _, key := range t.order {
		item := t.items[key]
		items = append(items, item)
		if !item.Terminal() {
			complete = false
		}
	}
	return Snapshot{
		BatchID:  t.batchID,
		Progress: t.progress,
		Items:    items,
		Messages: append([]string(nil), t.messages...),
		Complete: complete,
	}
}
