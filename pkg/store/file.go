package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/relata/relata/pkg/observability"
	"github.com/relata/relata/pkg/prefab"
)

// FileStore keeps snapshots as JSON documents in a directory, one file per
// prefab ID. Suited to CLI workflows.
type FileStore struct {
	mu      sync.RWMutex
	baseDir string
}

// NewFileStore creates a file-based snapshot store.
// If baseDir is empty, defaults to ~/.config/relata/snapshots/
func NewFileStore(baseDir string) (*FileStore, error) {
	if baseDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home dir: %w", err)
		}
		baseDir = filepath.Join(home, ".config", "relata", "snapshots")
	}
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("create snapshot dir: %w", err)
	}
	return &FileStore{baseDir: baseDir}, nil
}

// Path returns the base directory for snapshot files.
func (s *FileStore) Path() string {
	return s.baseDir
}

func (s *FileStore) snapshotPath(id string) string {
	return filepath.Join(s.baseDir, id+".json")
}

func (s *FileStore) Put(ctx context.Context, p *prefab.Prefab) error {
	start := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := os.WriteFile(s.snapshotPath(p.ID.String()), data, 0600); err != nil {
		return fmt.Errorf("write snapshot file: %w", err)
	}

	observability.Store().OnPut(ctx, "file", p.ID.String(), p.EntityCount(), p.EdgeCount(), time.Since(start))
	return nil
}

func (s *FileStore) Get(ctx context.Context, id string) (*prefab.Prefab, error) {
	start := time.Now()
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.snapshotPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			observability.Store().OnGet(ctx, "file", id, false, time.Since(start))
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("read snapshot file: %w", err)
	}

	var p prefab.Prefab
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse snapshot: %w", err)
	}
	observability.Store().OnGet(ctx, "file", id, true, time.Since(start))
	return &p, nil
}

func (s *FileStore) List(ctx context.Context) ([]Info, error) {
	start := time.Now()
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, fmt.Errorf("read snapshot dir: %w", err)
	}

	var infos []Info
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.baseDir, entry.Name()))
		if err != nil {
			continue
		}
		var p prefab.Prefab
		if err := json.Unmarshal(data, &p); err != nil {
			// Foreign or corrupt file, skip it.
			continue
		}
		if p.ID.String() != strings.TrimSuffix(entry.Name(), ".json") {
			continue
		}
		infos = append(infos, InfoOf(&p))
	}

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].CreatedAt.After(infos[j].CreatedAt)
	})
	observability.Store().OnList(ctx, "file", len(infos), time.Since(start))
	return infos, nil
}

func (s *FileStore) Delete(ctx context.Context, id string) error {
	start := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.snapshotPath(id)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove snapshot file: %w", err)
	}
	observability.Store().OnDelete(ctx, "file", id, time.Since(start))
	return nil
}

var _ Store = (*FileStore)(nil)
