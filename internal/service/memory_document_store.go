package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryDocumentStore in-process DocumentStore for running without the managed object store.
type MemoryDocumentStore struct {
	mu      sync.Mutex
	buckets map[string]map[string]StoredObject // bucket -> path -> object
}

func NewMemoryDocumentStore() *MemoryDocumentStore {
	return &MemoryDocumentStore{buckets: map[string]map[string]StoredObject{}}
}

var _ DocumentStore = (*MemoryDocumentStore)(nil)

// Put registers an object at path.
func (m *MemoryDocumentStore) Put(bucket, path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.buckets[bucket] == nil {
		m.buckets[bucket] = map[string]StoredObject{}
	}
	name := path[strings.LastIndex(path, "/")+1:]
	m.buckets[bucket][path] = StoredObject{Name: name, UpdatedAt: time.Now()}
}

func (m *MemoryDocumentStore) List(_ context.Context, bucket, prefix string) ([]StoredObject, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []StoredObject{}
	for path, obj := range m.buckets[bucket] {
		if strings.HasPrefix(path, prefix) {
			out = append(out, obj)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *MemoryDocumentStore) Remove(_ context.Context, bucket string, paths []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range paths {
		delete(m.buckets[bucket], p)
	}
	return nil
}
