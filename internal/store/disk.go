package store

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// DiskStore keeps one JSON file per record under dir
type DiskStore struct {
	dir string
	mu  sync.Mutex
}

// NewDiskStore creates a disk store rooted at dir. The directory is created on first write.
func NewDiskStore(dir string) *DiskStore {
	return &DiskStore{dir: dir}
}

type diskRecord struct {
	Key       string          `json:"key"`
	Data      json.RawMessage `json:"data"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Get reads the record for key
func (s *DiskStore) Get(key string) ([]byte, bool) {
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		return nil, false
	}

	var rec diskRecord
	if err := json.Unmarshal(data, &rec); err != nil || rec.Key != key {
		return nil, false
	}
	return rec.Data, true
}

// Put writes value for key, replacing any previous record atomically
func (s *DiskStore) Put(key string, value []byte) error {
	if !json.Valid(value) {
		return fmt.Errorf("store %q: value is not valid JSON", key)
	}

	data, err := json.Marshal(diskRecord{
		Key:       key,
		Data:      value,
		UpdatedAt: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create store dir: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write record: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close record: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path(key)); err != nil {
		return fmt.Errorf("commit record: %w", err)
	}
	return nil
}

// Delete removes the record for key
func (s *DiskStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return ErrNotFound
	}
	return err
}

// Clear removes every record file
func (s *DiskStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return os.RemoveAll(s.dir)
}

// path maps a key to a file name that is safe whatever the key contains
func (s *DiskStore) path(key string) string {
	hash := sha256.Sum256([]byte(key))
	return filepath.Join(s.dir, hex.EncodeToString(hash[:])+".json")
}
