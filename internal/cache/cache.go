// Package cache stores fetched input documents between runs.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/ppiankov/entagg/internal/model"
)

// Cache defines the interface for caching
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key generates a cache key for a document URL
func Key(url string) string {
	hash := sha256.Sum256([]byte(url))
	return "entagg-doc-v1-" + hex.EncodeToString(hash[:])
}

// New builds the configured cache: memory in front of disk.
// It returns nil when caching is disabled.
func New(cfg model.CacheConfig) Cache {
	if !cfg.Enabled {
		return nil
	}
	return NewLayeredCache(cfg.MemoryTTL, cfg.Dir, cfg.DiskTTL)
}
