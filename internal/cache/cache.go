package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/ppiankov/weitblick/internal/model"
)

// Cache defines the interface for caching provider responses
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// keyPrefix versions the key layout so stale entries are never misread
const keyPrefix = "weitblick:v1:"

// cleanupInterval is how often expired memory entries are evicted
const cleanupInterval = 10 * time.Minute

// CacheKey derives a key from everything that determines a response.
// Credentials are deliberately not part of it.
func CacheKey(provider model.ProviderID, modelName, prompt string) string {
	h := sha256.New()
	h.Write([]byte(provider))
	h.Write([]byte{0})
	h.Write([]byte(modelName))
	h.Write([]byte{0})
	h.Write([]byte(prompt))
	return keyPrefix + hex.EncodeToString(h.Sum(nil))
}

// New builds the cache described by the configuration. It returns nil when
// caching is disabled.
func New(cfg model.CacheConfig) Cache {
	if !cfg.Enabled {
		return nil
	}
	if cfg.Disk {
		return NewLayeredCache(cfg.TTL, cfg.Dir, cfg.TTL)
	}
	return NewMemoryCache(cfg.TTL, cleanupInterval)
}
