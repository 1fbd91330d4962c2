package tracker

import (
	"sync"
	"time"

	"voice-ingest-go/internal/types"
)

// EventType classifies messages emitted while a batch runs.
type EventType string

const (
	EventTypeStatus EventType = "status"
	EventTypeError  EventType = "error"
	EventTypeLog    EventType = "log"
)

// Event is a sequenced payload consumed by progress displays.
type Event struct {
	Seq       int64            `json:"seq"`
	Timestamp time.Time        `json:"timestamp"`
	BatchID   string           `json:"batchId"`
	Type      EventType        `json:"type"`
	Key       string           `json:"key,omitempty"`
	Status    types.ItemStatus `json:"status,omitempty"`
	Message   string           `json:"message,omitempty"`
	Progress  float64          `json:"progress"`
}

// EventBus stores recent events and provides incremental reads.
type EventBus struct {
	mu        sync.RWMutex
	nextSeq   int64
	maxEvents int
	events    []Event
}

// NewEventBus creates a bounded in-memory event buffer.
func NewEventBus(maxEvents int) *EventBus {
	if maxEvents <= 0 {
		maxEvents = 500
	}

	return &EventBus{
		maxEvents: maxEvents,
		events:    make([]Event, 0, maxEvents),
	}
}

// Publish appends one event and assigns sequence and timestamp.
func (b *EventBus) Publish(event Event) Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextSeq++
	event.Seq = b.nextSeq
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	b.events = append(b.events, event)
	if len(b.events) > b.maxEvents {
		trim := len(b.events) - b.maxEvents
		b.events = append([]Event(nil), b.events[trim:]...)
	}

	return event
}

// Since returns events with sequence strictly greater than seq. With keys,
// only events of those items are returned; batch-wide events (no key) are
// always included.
func (b *EventBus) Since(seq int64, keys ...string) []Event {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var want map[string]bool
	if len(keys) > 0 {
		want = make(map[string]bool, len(keys))
		for _, k := range keys {
			want[k] = true
		}
	}

	out := make([]Event, 0, len(b.events))
	for _, event := range b.events {
		if event.Seq <= seq {
			continue
		}
		if want != nil && event.Key != "" && !want[event.Key] {
			continue
		}
		out = append(out, event)
	}
	return out
}

// Missed reports whether events after seq were already trimmed, so a
// display polling from seq must reload the full snapshot.
func (b *EventBus) Missed(seq int64) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.events) > 0 && b.events[0].Seq > seq+1
}
