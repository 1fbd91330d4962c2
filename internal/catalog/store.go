// Package catalog persists the transcript catalog and the API credentials as
// one JSON document.
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"voice-ingest-go/internal/blobstore"
	"voice-ingest-go/internal/types"
)

// JSONStore keeps the document in memory; Save writes it wholesale.
type JSONStore struct {
	path string

	mu  sync.RWMutex
	doc types.Document
}

func NewJSONStore(path string) *JSONStore {
	return &JSONStore{path: path, doc: defaultDocument()}
}

func defaultDocument() types.Document {
	return types.Document{Transcripts: []types.TranscriptRecord{}}
}

func (s *JSONStore) Path() string { return s.path }

// Load reads the document from disk; a missing file leaves defaults.
// Missing top-level keys are filled with defaults.
func (s *JSONStore) Load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.mu.Lock()
			s.doc = defaultDocument()
			s.mu.Unlock()
			return nil
		}
		return err
	}

	doc := defaultDocument()
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse %s: %w", s.path, err)
	}
	if doc.Transcripts == nil {
		doc.Transcripts = []types.TranscriptRecord{}
	}

	s.mu.Lock()
	s.doc = doc
	s.mu.Unlock()
	return nil
}

// Save writes the whole document as indented JSON.
func (s *JSONStore) Save() error {
	s.mu.RLock()
	data, err := json.MarshalIndent(s.doc, "", "  ")
	s.mu.RUnlock()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	return blobstore.WriteAtomic(s.path, data)
}

func (s *JSONStore) Credentials() types.Credentials {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc.API
}

// SetCredentials replaces key and organization and clears verification.
func (s *JSONStore) SetCredentials(apiKey, organizationID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc.API = types.Credentials{APIKey: apiKey, OrganizationID: organizationID}
}

func (s *JSONStore) MarkVerified(at time.Time) types.Credentials {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc.API.VerifiedAt = &at
	return s.doc.API
}

// Transcripts returns the records in stored order.
func (s *JSONStore) Transcripts() []types.TranscriptRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]types.TranscriptRecord(nil), s.doc.Transcripts...)
}

func (s *JSONStore) Has(fileName string) bool {
	_, ok := s.Get(fileName)
	return ok
}

func (s *JSONStore) Get(fileName string) (types.TranscriptRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, rec := range s.doc.Transcripts {
		if rec.FileName == fileName {
			return rec, true
		}
	}
	return types.TranscriptRecord{}, false
}

// Append adds records in one step. It does not save.
func (s *JSONStore) Append(records ...types.TranscriptRecord) {
	if len(records) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc.Transcripts = append(s.doc.Transcripts, records...)
}

// Remove drops the record with fileName. It does not save.
func (s *JSONStore) Remove(fileName string) (types.TranscriptRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, rec := range s.doc.Transcripts {
		if rec.FileName == fileName {
			s.doc.Transcripts = append(s.doc.Transcripts[:i:i], s.doc.Transcripts[i+1:]...)
			return rec, true
		}
	}
	return types.TranscriptRecord{}, false
}
