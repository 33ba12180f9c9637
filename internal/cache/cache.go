// Package cache provides a TTL cache for GitHub API listings, kept in
// memory and optionally mirrored to files.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const (
	dataExt = ".json"
	metaExt = ".meta"
)

var errExpired = errors.New("cache entry expired")

// Cache stores byte payloads under string keys until their TTL elapses.
type Cache struct {
	dir    string
	ttl    time.Duration
	now    func() time.Time
	mu     sync.RWMutex
	memory map[string]*entry
}

type entry struct {
	data      []byte
	expiresAt time.Time
}

type meta struct {
	ExpiresAt time.Time `json:"expiresAt"`
}

// Config configures the cache behavior.
type Config struct {
	// Dir is the directory for file-based cache. If empty, uses
	// $TMPDIR/issueconductor-cache unless MemoryOnly is set.
	Dir string

	// TTL is the time-to-live for cached entries. Default is 1 hour.
	TTL time.Duration

	// MemoryOnly disables file-based caching.
	MemoryOnly bool
}

// New creates a cache with the given configuration.
func New(cfg Config) (*Cache, error) {
	if cfg.TTL <= 0 {
		cfg.TTL = time.Hour
	}

	dir := cfg.Dir
	if cfg.MemoryOnly {
		dir = ""
	} else if dir == "" {
		dir = filepath.Join(os.TempDir(), "issueconductor-cache")
	}

	if dir != "" {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("failed to create cache directory: %w", err)
		}
	}

	return &Cache{
		dir:    dir,
		ttl:    cfg.TTL,
		now:    time.Now,
		memory: make(map[string]*entry),
	}, nil
}

// Dir returns the file cache directory, or "" for a memory-only cache.
func (c *Cache) Dir() string {
	return c.dir
}

// Get retrieves a cached value by key.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool) {
	hash := hashKey(key)
	now := c.now()

	c.mu.RLock()
	e, ok := c.memory[hash]
	c.mu.RUnlock()
	if ok {
		if now.Before(e.expiresAt) {
			return e.data, true
		}
		c.mu.Lock()
		delete(c.memory, hash)
		c.mu.Unlock()
	}

	if c.dir == "" {
		return nil, false
	}

	data, expiresAt, err := c.readFile(hash, now)
	if err != nil {
		return nil, false
	}

	c.mu.Lock()
	c.memory[hash] = &entry{data: data, expiresAt: expiresAt}
	c.mu.Unlock()
	return data, true
}

// Set stores a value in the cache.
func (c *Cache) Set(ctx context.Context, key string, data []byte) error {
	hash := hashKey(key)
	expiresAt := c.now().Add(c.ttl)

	c.mu.Lock()
	c.memory[hash] = &entry{data: data, expiresAt: expiresAt}
	c.mu.Unlock()

	if c.dir == "" {
		return nil
	}
	return c.writeFile(hash, data, expiresAt)
}

// Delete removes a value from the cache.
func (c *Cache) Delete(ctx context.Context, key string) error {
	hash := hashKey(key)

	c.mu.Lock()
	delete(c.memory, hash)
	c.mu.Unlock()

	if c.dir != "" {
		c.removeFiles(hash)
	}
	return nil
}

// Clear removes all entries from the cache.
func (c *Cache) Clear(ctx context.Context) error {
	c.mu.Lock()
	c.memory = make(map[string]*entry)
	c.mu.Unlock()

	if c.dir == "" {
		return nil
	}

	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		name := e.Name()
		if strings.HasSuffix(name, dataExt) || strings.HasSuffix(name, metaExt) {
			_ = os.Remove(filepath.Join(c.dir, name))
		}
	}
	return nil
}

// Stats provides statistics about cache usage.
type Stats struct {
	Dir           string `json:"dir,omitempty"`
	MemoryEntries int    `json:"memoryEntries"`
	FileEntries   int    `json:"fileEntries"`
	TotalSizeKB   int64  `json:"totalSizeKB"`
}

// Stats returns cache statistics.
func (c *Cache) Stats(ctx context.Context) Stats {
	c.mu.RLock()
	stats := Stats{Dir: c.dir, MemoryEntries: len(c.memory)}
	c.mu.RUnlock()

	if c.dir == "" {
		return stats
	}

	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return stats
	}
	var total int64
	for _, e := range entries {
		if !strings.HasSuffix(e.Name(), dataExt) {
			continue
		}
		stats.FileEntries++
		if info, err := e.Info(); err == nil {
			total += info.Size()
		}
	}
	stats.TotalSizeKB = total / 1024
	return stats
}

// Prune removes expired entries and returns how many were removed.
func (c *Cache) Prune(ctx context.Context) (int, error) {
	pruned := 0
	now := c.now()

	c.mu.Lock()
	for hash, e := range c.memory {
		if !now.Before(e.expiresAt) {
			delete(c.memory, hash)
			pruned++
		}
	}
	c.mu.Unlock()

	if c.dir == "" {
		return pruned, nil
	}

	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return pruned, err
	}
	for _, e := range entries {
		if !strings.HasSuffix(e.Name(), metaExt) {
			continue
		}
		hash := strings.TrimSuffix(e.Name(), metaExt)
		m, err := c.readMeta(hash)
		if err != nil {
			continue
		}
		if !now.Before(m.ExpiresAt) {
			c.removeFiles(hash)
			pruned++
		}
	}
	return pruned, nil
}

func (c *Cache) readMeta(hash string) (meta, error) {
	var m meta
	raw, err := os.ReadFile(filepath.Join(c.dir, hash+metaExt))
	if err != nil {
		return m, err
	}
	err = json.Unmarshal(raw, &m)
	return m, err
}

func (c *Cache) readFile(hash string, now time.Time) ([]byte, time.Time, error) {
	m, err := c.readMeta(hash)
	if err != nil {
		return nil, time.Time{}, err
	}
	if !now.Before(m.ExpiresAt) {
		c.removeFiles(hash)
		return nil, time.Time{}, errExpired
	}
	data, err := os.ReadFile(filepath.Join(c.dir, hash+dataExt))
	if err != nil {
		return nil, time.Time{}, err
	}
	return data, m.ExpiresAt, nil
}

func (c *Cache) writeFile(hash string, data []byte, expiresAt time.Time) error {
	raw, err := json.Marshal(meta{ExpiresAt: expiresAt})
	if err != nil {
		return err
	}
	// Data first so a reader never sees metadata without its payload.
	if err := os.WriteFile(filepath.Join(c.dir, hash+dataExt), data, 0600); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(c.dir, hash+metaExt), raw, 0600)
}

func (c *Cache) removeFiles(hash string) {
	_ = os.Remove(filepath.Join(c.dir, hash+dataExt))
	_ = os.Remove(filepath.Join(c.dir, hash+metaExt))
}

// hashKey creates a hash of the cache key.
func hashKey(key string) string {
	h := sha256.Sum256([]byte(key))
	return hex.EncodeToString(h[:16])
}

// WithCache returns the cached value for key, or calls fetch and caches its
// result. A nil cache always fetches.
func WithCache[T any](ctx context.Context, c *Cache, key string, fetch func() (T, error)) (T, error) {
	if c != nil {
		if data, ok := c.Get(ctx, key); ok {
			var cached T
			if err := json.Unmarshal(data, &cached); err == nil {
				return cached, nil
			}
		}
	}

	result, err := fetch()
	if err != nil {
		var zero T
		return zero, err
	}

	if c != nil {
		if data, err := json.Marshal(result); err == nil {
			_ = c.Set(ctx, key, data)
		}
	}
	return result, nil
}
