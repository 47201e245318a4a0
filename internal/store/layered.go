package store

import "errors"

// LayeredStore serves reads from memory and writes through to disk
type LayeredStore struct {
	memory Store
	disk   Store
}

// NewLayeredStore creates a memory store in front of a disk store at dir
func NewLayeredStore(dir string) *LayeredStore {
	return &LayeredStore{
		memory: NewMemoryStore(),
		disk:   NewDiskStore(dir),
	}
}

// Get checks memory first, then disk
func (s *LayeredStore) Get(key string) ([]byte, bool) {
	if val, found := s.memory.Get(key); found {
		return val, true
	}

	if val, found := s.disk.Get(key); found {
		// Promote to memory
		_ = s.memory.Put(key, val)
		return val, true
	}

	return nil, false
}

// Put writes to disk first so memory never holds a record that was not persisted
func (s *LayeredStore) Put(key string, value []byte) error {
	if err := s.disk.Put(key, value); err != nil {
		return err
	}
	return s.memory.Put(key, value)
}

// Delete removes key from both layers
func (s *LayeredStore) Delete(key string) error {
	memErr := s.memory.Delete(key)
	diskErr := s.disk.Delete(key)
	if errors.Is(memErr, ErrNotFound) && errors.Is(diskErr, ErrNotFound) {
		return ErrNotFound
	}
	if diskErr != nil && !errors.Is(diskErr, ErrNotFound) {
		return diskErr
	}
	return nil
}

// Clear empties both layers
func (s *LayeredStore) Clear() error {
	_ = s.memory.Clear()
	return s.disk.Clear()
}
