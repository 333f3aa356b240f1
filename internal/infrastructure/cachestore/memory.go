package cachestore

import (
	"context"
	"sort"
	"sync"

	"github.com/Erickgiber/debts-my-clients/internal/domain/offline"
)

// MemoryStorage keeps buckets in process memory.
// Suitable for single-instance deployments and tests.
type MemoryStorage struct {
	mu      sync.RWMutex
	buckets map[string]*memoryBucket
}

var _ offline.CacheStorage = (*MemoryStorage)(nil)

// NewMemoryStorage creates an empty in-memory storage
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{buckets: make(map[string]*memoryBucket)}
}

// Open implements offline.CacheStorage
func (s *MemoryStorage) Open(_ context.Context, name string) (offline.Bucket, error) {
	if err := validBucketName(name); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.buckets[name]
	if !ok {
		b = &memoryBucket{entries: make(map[offline.RequestKey]*offline.StoredResponse)}
		s.buckets[name] = b
	}
	return b, nil
}

// Keys implements offline.CacheStorage
func (s *MemoryStorage) Keys(context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.buckets))
	for name := range s.buckets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Delete implements offline.CacheStorage. Handles to a deleted bucket stay
// readable until dropped but no longer accept writes.
func (s *MemoryStorage) Delete(_ context.Context, name string) (bool, error) {
	s.mu.Lock()
	b, ok := s.buckets[name]
	delete(s.buckets, name)
	s.mu.Unlock()
	if ok {
		b.detach()
	}
	return ok, nil
}

type memoryBucket struct {
	mu       sync.RWMutex
	entries  map[offline.RequestKey]*offline.StoredResponse
	detached bool
}

func (b *memoryBucket) detach() {
	b.mu.Lock()
	b.detached = true
	b.mu.Unlock()
}

func (b *memoryBucket) Match(_ context.Context, key offline.RequestKey) (*offline.StoredResponse, bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	resp, ok := b.entries[key]
	if !ok {
		return nil, false, nil
	}
	return resp.Clone(), true, nil
}

func (b *memoryBucket) Put(_ context.Context, key offline.RequestKey, resp *offline.StoredResponse) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.detached {
		return nil
	}
	b.entries[key] = resp.Clone()
	return nil
}

func (b *memoryBucket) Delete(_ context.Context, key offline.RequestKey) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.entries[key]
	delete(b.entries, key)
	return ok, nil
}

func (b *memoryBucket) Keys(context.Context) ([]offline.RequestKey, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	keys := make([]offline.RequestKey, 0, len(b.entries))
	for k := range b.entries {
		keys = append(keys, k)
	}
	sortKeys(keys)
	return keys, nil
}

func sortKeys(keys []offline.RequestKey) {
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].URL != keys[j].URL {
			return keys[i].URL < keys[j].URL
		}
		return keys[i].Method < keys[j].Method
	})
}
