package store

import (
	"context"
	"sync"
)

// MemoryStore keeps records in process memory. Contents are lost on restart.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[Kind]map[string][]byte
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	records := make(map[Kind]map[string][]byte, len(Kinds))
	for _, k := range Kinds {
		records[k] = make(map[string][]byte)
	}
	return &MemoryStore{records: records}
}

func (s *MemoryStore) Get(_ context.Context, kind Kind, id string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[kind][id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneBytes(rec), nil
}

func (s *MemoryStore) List(_ context.Context, kind Kind) ([][]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([][]byte, 0, len(s.records[kind]))
	for _, rec := range s.records[kind] {
		out = append(out, cloneBytes(rec))
	}
	return out, nil
}

func (s *MemoryStore) Put(_ context.Context, kind Kind, id string, record []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	bucket, ok := s.records[kind]
	if !ok {
		bucket = make(map[string][]byte)
		s.records[kind] = bucket
	}
	bucket[id] = cloneBytes(record)
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, kind Kind, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.records[kind], id)
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}
