// Package watcher turns audio files dropped into an inbox directory into
// batches.
package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"voice-ingest-go/internal/logger"
	"voice-ingest-go/internal/types"
)

// SubmitFunc starts a batch. An error keeps the files pending for the next
// attempt.
type SubmitFunc func(files []types.CandidateFile) error

// Watcher collects created or rewritten .mp3 files and submits them once
// they have been quiet for the settle period.
type Watcher struct {
	dir    string
	settle time.Duration
	submit SubmitFunc
	log    *logger.Logger
	fs     *fsnotify.Watcher

	// Busy, when set, reports that a submit would be refused; pending files
	// are then left unread until the next tick.
	Busy func() bool

	mu      sync.Mutex
	pending map[string]time.Time
}

func New(dir string, settle time.Duration, submit SubmitFunc, log *logger.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, fmt.Errorf("add watch path: %w", err)
	}
	if settle <= 0 {
		settle = 2 * time.Second
	}
	return &Watcher{
		dir:     dir,
		settle:  settle,
		submit:  submit,
		log:     log.With("component", "watcher").With("inbox", dir),
		fs:      fw,
		pending: map[string]time.Time{},
	}, nil
}

// Run blocks until ctx is done or the fsnotify channels close.
func (w *Watcher) Run(ctx context.Context) error {
	w.log.Info("inbox watcher started")
	tick := time.NewTicker(w.settle / 2)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info("inbox watcher stopped")
			return ctx.Err()

		case event, ok := <-w.fs.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if !isAudioFile(event.Name) {
				w.log.WithField("file", event.Name).Debug("ignoring non-mp3 file")
				continue
			}
			w.note(event.Name, time.Now())

		case err, ok := <-w.fs.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			w.log.WithError(err).Error("watcher error")

		case now := <-tick.C:
			w.flush(now)
		}
	}
}

func (w *Watcher) Close() error {
	return w.fs.Close()
}

// Pending lists the files waiting to be submitted.
func (w *Watcher) Pending() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]string, 0, len(w.pending))
	for p := range w.pending {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

func (w *Watcher) note(path string, at time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, seen := w.pending[path]; !seen {
		w.log.WithField("file", filepath.Base(path)).Info("new recording detected")
	}
	w.pending[path] = at
}

// flush submits every pending file that has settled as one batch, in
// file-name order.
func (w *Watcher) flush(now time.Time) {
	w.mu.Lock()
	var ready []string
	for p, last := range w.pending {
		if now.Sub(last) >= w.settle {
			ready = append(ready, p)
		}
	}
	w.mu.Unlock()
	if len(ready) == 0 {
		return
	}
	if w.Busy != nil && w.Busy() {
		return
	}
	sort.Slice(ready, func(i, j int) bool { return filepath.Base(ready[i]) < filepath.Base(ready[j]) })

	files := make([]types.CandidateFile, 0, len(ready))
	var loaded []string
	for _, p := range ready {
		c, err := types.LoadCandidate(p)
		if err != nil {
			w.log.WithError(err).WithField("file", p).Warn("dropping unreadable file")
			w.forget(p)
			continue
		}
		files = append(files, c)
		loaded = append(loaded, p)
	}
	if len(files) == 0 {
		return
	}

	if err := w.submit(files); err != nil {
		w.log.WithError(err).WithField("files", len(files)).Debug("submit deferred")
		return
	}
	w.forget(loaded...)
	w.log.WithField("files", len(files)).Info("inbox batch submitted")
}

func (w *Watcher) forget(paths ...string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, p := range paths {
		delete(w.pending, p)
	}
}

func isAudioFile(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".mp3")
}
