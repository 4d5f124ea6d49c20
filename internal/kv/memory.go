package kv

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore keeps every workspace in process memory.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]map[string][]byte
}

// NewMemoryStore builds an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]map[string][]byte)}
}

// Bucket returns the bucket for workspace.
func (s *MemoryStore) Bucket(workspace string) Bucket {
	return &memoryBucket{store: s, workspace: workspace}
}

// Workspaces lists workspaces holding at least one key.
func (s *MemoryStore) Workspaces(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.data))
	for ws, keys := range s.data {
		if len(keys) > 0 {
			out = append(out, ws)
		}
	}
	sort.Strings(out)
	return out, nil
}

type memoryBucket struct {
	store     *MemoryStore
	workspace string
}

func (b *memoryBucket) Get(ctx context.Context, key string) ([]byte, error) {
	b.store.mu.RLock()
	defer b.store.mu.RUnlock()
	value, ok := b.store.data[b.workspace][key]
	if !ok {
		return nil, ErrKeyNotFound
	}
	return append([]byte(nil), value...), nil
}

func (b *memoryBucket) Set(ctx context.Context, key string, value []byte) error {
	b.store.mu.Lock()
	defer b.store.mu.Unlock()
	keys, ok := b.store.data[b.workspace]
	if !ok {
		keys = make(map[string][]byte)
		b.store.data[b.workspace] = keys
	}
	keys[key] = append([]byte(nil), value...)
	return nil
}

func (b *memoryBucket) Delete(ctx context.Context, key string) error {
	b.store.mu.Lock()
	defer b.store.mu.Unlock()
	delete(b.store.data[b.workspace], key)
	return nil
}

func (b *memoryBucket) Keys(ctx context.Context) ([]string, error) {
	b.store.mu.RLock()
	defer b.store.mu.RUnlock()
	keys := make([]string, 0, len(b.store.data[b.workspace]))
	for k := range b.store.data[b.workspace] {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}
