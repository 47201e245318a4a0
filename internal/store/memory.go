package store

import (
	gocache "github.com/patrickmn/go-cache"
)

// MemoryStore keeps records in process memory. Records never expire.
type MemoryStore struct {
	items *gocache.Cache
}

// NewMemoryStore creates an empty memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		items: gocache.New(gocache.NoExpiration, 0),
	}
}

// Get returns a copy of the stored value
func (s *MemoryStore) Get(key string) ([]byte, bool) {
	val, found := s.items.Get(key)
	if !found {
		return nil, false
	}
	b, ok := val.([]byte)
	if !ok {
		return nil, false
	}
	return append([]byte(nil), b...), true
}

// Put stores a copy of value under key
func (s *MemoryStore) Put(key string, value []byte) error {
	s.items.Set(key, append([]byte(nil), value...), gocache.NoExpiration)
	return nil
}

// Delete removes key
func (s *MemoryStore) Delete(key string) error {
	if _, found := s.items.Get(key); !found {
		return ErrNotFound
	}
	s.items.Delete(key)
	return nil
}

// Clear removes every record
func (s *MemoryStore) Clear() error {
	s.items.Flush()
	return nil
}
