package secrets

import (
	"sync"
	"time"

	"github.com/kevin07696/authorizenet-gateway/internal/adapters/ports"
	"github.com/kevin07696/authorizenet-gateway/pkg/timeutil"
)

// secretCache keeps resolved transaction keys in memory for ttl
type secretCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	enabled bool
	ttl     time.Duration
}

type cacheEntry struct {
	secret    *ports.Secret
	expiresAt time.Time
}

func newSecretCache(enabled bool, ttl time.Duration) *secretCache {
	return &secretCache{
		entries: make(map[string]cacheEntry),
		enabled: enabled && ttl > 0,
		ttl:     ttl,
	}
}

func (c *secretCache) get(key string) *ports.Secret {
	if !c.enabled {
		return nil
	}

	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil
	}

	if timeutil.Now().After(entry.expiresAt) {
		c.invalidate(key)
		return nil
	}
	return entry.secret
}

func (c *secretCache) set(key string, secret *ports.Secret) {
	if !c.enabled {
		return
	}

	c.mu.Lock()
	c.entries[key] = cacheEntry{secret: secret, expiresAt: timeutil.Now().Add(c.ttl)}
	c.mu.Unlock()
}

func (c *secretCache) invalidate(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}
