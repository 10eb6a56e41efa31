package fingerprint

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Store persists the digest of the last run that produced output.
// It holds a single slot.
type Store interface {
	// ReadPrevious returns the stored digest, or ok=false when none exists yet.
	ReadPrevious(ctx context.Context) (digest Digest, ok bool, err error)

	// Write replaces the stored digest.
	Write(ctx context.Context, digest Digest) error
}

// Toucher is implemented by stores that keep a "last checked" marker,
// updated on runs that found no change.
type Toucher interface {
	Touch(ctx context.Context, at time.Time) error
}

// MemoryStore keeps the digest in process memory.
type MemoryStore struct {
	mu          sync.RWMutex
	digest      Digest
	set         bool
	lastChecked time.Time
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) ReadPrevious(ctx context.Context) (Digest, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.digest, s.set, nil
}

func (s *MemoryStore) Write(ctx context.Context, digest Digest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.digest = digest
	s.set = true
	return nil
}

func (s *MemoryStore) Touch(ctx context.Context, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastChecked = at
	return nil
}

// LastChecked returns the time of the last no-change run.
func (s *MemoryStore) LastChecked() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastChecked
}

// FileStore keeps the digest in a small text file.
type FileStore struct {
	path string
}

// NewFileStore creates a FileStore at path. The file is created on first Write.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) ReadPrevious(ctx context.Context) (Digest, bool, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("FileStore.ReadPrevious: %w", err)
	}

	digest := Digest(strings.TrimSpace(string(data)))
	if digest == "" {
		return "", false, nil
	}
	return digest, true, nil
}

// Write replaces the file through a rename so a crash never leaves a partial digest.
func (s *FileStore) Write(ctx context.Context, digest Digest) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("FileStore.Write: create directory: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, []byte(string(digest)+"\n"), 0o644); err != nil {
		return fmt.Errorf("FileStore.Write: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("FileStore.Write: rename: %w", err)
	}
	return nil
}

var (
	_ Store   = (*MemoryStore)(nil)
	_ Toucher = (*MemoryStore)(nil)
	_ Store   = (*FileStore)(nil)
)
