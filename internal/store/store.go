// Package store persists verification submissions and requester profiles
package store

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"

	"github.com/ppiankov/verifyhub/internal/model"
)

// ErrNotFound is returned by Delete when the key does not exist
var ErrNotFound = errors.New("store: key not found")

// Store is a flat key/value store for JSON-encoded records
type Store interface {
	Get(key string) ([]byte, bool)
	Put(key string, value []byte) error
	Delete(key string) error
	Clear() error
}

// Key builds a namespaced key from its parts
func Key(namespace string, parts ...string) string {
	return "verifyhub:v1:" + namespace + ":" + strings.Join(parts, ":")
}

// HashKey builds a namespaced key whose tail is the SHA-256 of parts, for
// index entries built from arbitrary user input such as URLs.
func HashKey(namespace string, parts ...string) string {
	hash := sha256.Sum256([]byte(strings.Join(parts, "\x00")))
	return Key(namespace, hex.EncodeToString(hash[:]))
}

// New opens the store described by cfg
func New(cfg model.StoreConfig) Store {
	if cfg.MemoryOnly || cfg.Dir == "" {
		return NewMemoryStore()
	}
	return NewLayeredStore(cfg.Dir)
}
