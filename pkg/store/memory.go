package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/relata/relata/pkg/observability"
	"github.com/relata/relata/pkg/prefab"
)

// MemoryStore is an in-process snapshot store for development and tests.
// Documents are kept as encoded JSON so a stored prefab cannot be mutated
// through a retained pointer.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string][]byte
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string][]byte)}
}

func (s *MemoryStore) Put(ctx context.Context, p *prefab.Prefab) error {
	start := time.Now()
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	s.mu.Lock()
	s.docs[p.ID.String()] = data
	s.mu.Unlock()

	observability.Store().OnPut(ctx, "memory", p.ID.String(), p.EntityCount(), p.EdgeCount(), time.Since(start))
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*prefab.Prefab, error) {
	start := time.Now()
	s.mu.RLock()
	data, ok := s.docs[id]
	s.mu.RUnlock()

	observability.Store().OnGet(ctx, "memory", id, ok, time.Since(start))
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	var p prefab.Prefab
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse snapshot: %w", err)
	}
	return &p, nil
}

func (s *MemoryStore) List(ctx context.Context) ([]Info, error) {
	start := time.Now()
	s.mu.RLock()
	infos := make([]Info, 0, len(s.docs))
	for _, data := range s.docs {
		var p prefab.Prefab
		if err := json.Unmarshal(data, &p); err != nil {
			s.mu.RUnlock()
			return nil, fmt.Errorf("parse snapshot: %w", err)
		}
		infos = append(infos, InfoOf(&p))
	}
	s.mu.RUnlock()

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].CreatedAt.After(infos[j].CreatedAt)
	})
	observability.Store().OnList(ctx, "memory", len(infos), time.Since(start))
	return infos, nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	start := time.Now()
	s.mu.Lock()
	delete(s.docs, id)
	s.mu.Unlock()

	observability.Store().OnDelete(ctx, "memory", id, time.Since(start))
	return nil
}

var _ Store = (*MemoryStore)(nil)
