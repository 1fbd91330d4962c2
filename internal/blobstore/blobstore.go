// Package blobstore persists raw audio bytes under date-keyed folders.
package blobstore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"voice-ingest-go/internal/identity"
	"voice-ingest-go/internal/types"
)

// FS stores blobs below Root as <Root>/<yyyy-mm-dd>/<name>.
type FS struct {
	Root string
	// DeriveName stores files as yymmdd_hhmm<ext> instead of the candidate
	// name; set when identity comes from modification times.
	DeriveName bool
}

func New(root string, deriveName bool) *FS {
	return &FS{Root: root, DeriveName: deriveName}
}

// FolderFor is the folder path for a date.
func (s *FS) FolderFor(date time.Time) string {
	return filepath.Join(s.Root, date.Format("2006-01-02"))
}

// PathFor is where Save will write the candidate.
func (s *FS) PathFor(c types.CandidateFile, date time.Time) string {
	name := filepath.Base(c.Name)
	if s.DeriveName {
		name = identity.NameFor(date, strings.ToLower(filepath.Ext(c.Name)))
	}
	return filepath.Join(s.FolderFor(date), name)
}

// Save writes the candidate's bytes and returns the stored path.
func (s *FS) Save(c types.CandidateFile, date time.Time) (string, error) {
	folder := s.FolderFor(date)
	if err := s.EnsureFolder(folder); err != nil {
		return "", err
	}
	path := s.PathFor(c, date)
	if err := s.WriteFile(path, c.Data); err != nil {
		return "", err
	}
	return path, nil
}

func (s *FS) Exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, err
}

func (s *FS) EnsureFolder(path string) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("create folder: %w", err)
	}
	return nil
}

func (s *FS) WriteFile(path string, data []byte) error {
	return WriteAtomic(path, data)
}

// WriteAtomic writes via a temp file and rename so a crash never leaves a
// truncated file under the final name.
func WriteAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	tmpPath := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpPath) }

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("write: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("sync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		cleanup()
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}

// Remove deletes a stored blob; a missing file is not an error.
func (s *FS) Remove(path string) error {
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
