// Package cache deduplicates uploads by file identity. The identity is the
// lowercased file name rather than the full path, so the same media re-used
// from another folder is recognized as already uploaded.
package cache

import (
	"strings"
	"sync"
)

// Persister writes the cache entries to durable storage. The config store
// implements it by saving the settings document.
type Persister interface {
	PersistCache(entries map[string]string) error
}

// Key derives the upload identity for a file name.
func Key(fileName string) string {
	return strings.ToLower(fileName)
}

// Cache maps upload identities to public URLs. Put persists before returning,
// so a crash between upload and persistence costs a re-upload, never a stale
// entry.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]string
	persist Persister
}

// New builds a Cache seeded with previously persisted entries.
func New(entries map[string]string, persist Persister) *Cache {
	c := &Cache{
		entries: make(map[string]string, len(entries)),
		persist: persist,
	}
	for k, v := range entries {
		c.entries[k] = v
	}
	return c
}

// Get returns the recorded URL for an identity, if any.
func (c *Cache) Get(identity string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	url, ok := c.entries[identity]
	return url, ok
}

// Put records a successful upload and persists the cache.
func (c *Cache) Put(identity, url string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[identity] = url
	return c.persist.PersistCache(c.entries)
}

// Entries returns a copy of all recorded entries.
func (c *Cache) Entries() map[string]string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]string, len(c.entries))
	for k, v := range c.entries {
		out[k] = v
	}
	return out
}

// Clear removes every entry. It only runs on an explicit user action; nothing
// in the upload paths invalidates entries.
func (c *Cache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = map[string]string{}
	return c.persist.PersistCache(c.entries)
}
