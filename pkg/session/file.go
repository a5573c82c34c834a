package session

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/matzehuels/flowscope/pkg/config"
	ferrors "github.com/matzehuels/flowscope/pkg/errors"
	"github.com/matzehuels/flowscope/pkg/graph"
)

// DefaultSnapshotTTL is how long a snapshot stays resumable.
const DefaultSnapshotTTL = 30 * 24 * time.Hour

// Snapshot is the resumable state of a session.
type Snapshot struct {
	ID        string        `json:"id"`
	Frame     int           `json:"frame"`
	Config    config.Config `json:"config"`
	Layout    graph.Layout  `json:"layout"`
	ExpiresAt time.Time     `json:"expires_at"`
	CreatedAt time.Time     `json:"created_at"`
}

// IsExpired returns true if the snapshot has expired.
func (s *Snapshot) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// Snapshot captures the session under the given id, usually the content
// hash of its trace.
func (s *Session) Snapshot(id string, ttl time.Duration) *Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	l := graph.LayoutOf(s.graph, s.cfg.Width, s.cfg.Height)
	l.Ticks = s.sim.Ticks()
	l.Alpha = s.sim.Alpha()
	now := time.Now()
	return &Snapshot{
		ID:        id,
		Frame:     s.ctl.Index(),
		Config:    s.cfg,
		Layout:    l,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}
}

// Restore applies a snapshot: configuration, node positions, pins and
// frame. The simulation is left cold so the restored layout stays where it
// was. On error the session is unchanged.
func (s *Session) Restore(snap *Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if snap.Layout.Matches(s.graph) == 0 && s.graph.NodeCount() > 0 {
		return ferrors.New(ferrors.ErrCodeInvalidInput, "snapshot %s does not match this trace", snap.ID)
	}
	if err := s.setConfig(snap.Config); err != nil {
		return err
	}
	for _, n := range s.graph.Nodes {
		_ = s.sim.Release(n.ID)
	}
	clear(s.direct)
	snap.Layout.Apply(s.graph)
	s.sim.Stop()
	s.ctl.SetFrame(snap.Frame)
	return nil
}

// Store is the interface for snapshot storage backends.
type Store interface {
	// Get retrieves a snapshot by ID.
	// Returns nil, nil if the snapshot doesn't exist or has expired.
	Get(ctx context.Context, id string) (*Snapshot, error)

	// Set stores a snapshot.
	Set(ctx context.Context, snap *Snapshot) error

	// Delete removes a snapshot.
	Delete(ctx context.Context, id string) error

	// Cleanup removes expired snapshots.
	Cleanup(ctx context.Context) error
}

// FileStore is a file-based snapshot store for CLI applications.
// Snapshots are stored as JSON files in a config directory.
type FileStore struct {
	mu      sync.RWMutex
	baseDir string
}

// NewFileStore creates a new file-based snapshot store.
// If baseDir is empty, defaults to ~/.config/flowscope/snapshots/
func NewFileStore(baseDir string) (*FileStore, error) {
	if baseDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home dir: %w", err)
		}
		baseDir = filepath.Join(home, ".config", "flowscope", "snapshots")
	}
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("create snapshot dir: %w", err)
	}
	return &FileStore{baseDir: baseDir}, nil
}

func (s *FileStore) snapshotPath(id string) string {
	return filepath.Join(s.baseDir, id+".json")
}

func (s *FileStore) Get(ctx context.Context, id string) (*Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	path := s.snapshotPath(id)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read snapshot file: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("parse snapshot: %w", err)
	}

	if snap.IsExpired() {
		os.Remove(path)
		return nil, nil
	}
	return &snap, nil
}

func (s *FileStore) Set(ctx context.Context, snap *Snapshot) error {
	if err := ferrors.ValidatePath(snap.ID + ".json"); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	path := s.snapshotPath(snap.ID)
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write snapshot file: %w", err)
	}
	return nil
}

func (s *FileStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.snapshotPath(id)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove snapshot file: %w", err)
	}
	return nil
}

func (s *FileStore) Cleanup(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return fmt.Errorf("read snapshot dir: %w", err)
	}

	now := time.Now()
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		path := filepath.Join(s.baseDir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var snap Snapshot
		if err := json.Unmarshal(data, &snap); err != nil {
			continue
		}
		if now.After(snap.ExpiresAt) {
			os.Remove(path)
		}
	}
	return nil
}

// Path returns the base directory for snapshot files.
func (s *FileStore) Path() string {
	return s.baseDir
}

var _ Store = (*FileStore)(nil)
