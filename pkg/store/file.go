package store

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	ferrors "github.com/matzehuels/flowscope/pkg/errors"
	"github.com/matzehuels/flowscope/pkg/graph"
)

// FileStore keeps each trace as <id>.json in a directory.
type FileStore struct {
	mu      sync.RWMutex
	baseDir string
}

// NewFileStore creates a file-based trace store.
// If baseDir is empty, defaults to ~/.local/share/flowscope/traces/
func NewFileStore(baseDir string) (*FileStore, error) {
	if baseDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home dir: %w", err)
		}
		baseDir = filepath.Join(home, ".local", "share", "flowscope", "traces")
	}
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("create trace dir: %w", err)
	}
	return &FileStore{baseDir: baseDir}, nil
}

func (s *FileStore) path(id string) string {
	return filepath.Join(s.baseDir, id+".json")
}

// Put stores doc unless a trace with the same content exists.
func (s *FileStore) Put(ctx context.Context, doc graph.Document) (*Trace, error) {
	t, err := NewTrace(doc)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.scan()
	if err != nil {
		return nil, err
	}
	for _, sum := range existing {
		if sum.Hash == t.Hash {
			return s.read(sum.ID)
		}
	}

	data, err := json.Marshal(t)
	if err != nil {
		return nil, fmt.Errorf("marshal trace: %w", err)
	}
	if err := os.WriteFile(s.path(t.ID), data, 0600); err != nil {
		return nil, fmt.Errorf("write trace: %w", err)
	}
	return t, nil
}

// Get reads the trace with the given id.
func (s *FileStore) Get(ctx context.Context, id string) (*Trace, error) {
	if err := ferrors.ValidateTraceID(id); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.read(id)
}

func (s *FileStore) read(id string) (*Trace, error) {
	data, err := os.ReadFile(s.path(id))
	if errors.Is(err, os.ErrNotExist) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("read trace: %w", err)
	}
	var t Trace
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, ferrors.Wrap(ferrors.ErrCodeInvalidDocument, err, "decode trace %s", id)
	}
	return &t, nil
}

// List returns every stored trace, oldest first.
func (s *FileStore) List(ctx context.Context) ([]Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.scan()
}

// scan reads the summaries of all traces. Unreadable files are skipped.
// Callers hold s.mu.
func (s *FileStore) scan() ([]Summary, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, fmt.Errorf("read trace dir: %w", err)
	}
	var out []Summary
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		t, err := s.read(strings.TrimSuffix(e.Name(), ".json"))
		if err != nil {
			continue
		}
		out = append(out, t.Summary)
	}
	slices.SortFunc(out, func(a, b Summary) int {
		return cmp.Or(a.CreatedAt.Compare(b.CreatedAt), cmp.Compare(a.ID, b.ID))
	})
	return out, nil
}

// Delete removes the trace with the given id.
func (s *FileStore) Delete(ctx context.Context, id string) error {
	if err := ferrors.ValidateTraceID(id); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	err := os.Remove(s.path(id))
	if errors.Is(err, os.ErrNotExist) {
		return notFound(id)
	}
	return err
}

// Path returns the store directory.
func (s *FileStore) Path() string { return s.baseDir }

// Close does nothing for the file store.
func (s *FileStore) Close(context.Context) error { return nil }

var _ Store = (*FileStore)(nil)
