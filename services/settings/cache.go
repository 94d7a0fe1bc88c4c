package settings

import (
	"container/list"
	"sync"
	"time"

	"github.com/ZubbsZubbs/LAUTECH-sub002/models"
)

// Cache defaults for the public settings reads
const (
	DefaultCacheSize = 128
	DefaultCacheTTL  = 30 * time.Second
)

type cacheEntry struct {
	setting    models.Setting
	insertedAt time.Time
	element    *list.Element
}

// Cache is an in-memory LRU cache with TTL for settings. It keeps single
// settings by key and, separately, the snapshot returned by All.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*cacheEntry
	lruList *list.List
	maxSize int
	ttl     time.Duration
	hits    uint64
	misses  uint64
	now     func() time.Time

	snapshot   map[string]string
	snapshotAt time.Time
}

// CacheStats represents cache statistics
type CacheStats struct {
	Size    int     `json:"size"`
	MaxSize int     `json:"max_size"`
	Hits    uint64  `json:"hits"`
	Misses  uint64  `json:"misses"`
	HitRate float64 `json:"hit_rate"`
}

// NewCache creates a Cache. A non-positive size or ttl gets the default.
func NewCache(maxSize int, ttl time.Duration) *Cache {
	if maxSize <= 0 {
		maxSize = DefaultCacheSize
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Cache{
		entries: make(map[string]*cacheEntry),
		lruList: list.New(),
		maxSize: maxSize,
		ttl:     ttl,
		now:     time.Now,
	}
}

func (c *Cache) expired(at time.Time) bool {
	return c.now().Sub(at) > c.ttl
}

// Get returns a copy of the cached setting, or nil on a miss or expiry
func (c *Cache) Get(key string) *models.Setting {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok || c.expired(entry.insertedAt) {
		c.misses++
		if ok {
			c.removeEntry(key)
		}
		return nil
	}

	c.lruList.MoveToFront(entry.element)
	c.hits++
	setting := entry.setting
	return &setting
}

// Set stores a copy of setting
func (c *Cache) Set(setting *models.Setting) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, ok := c.entries[setting.Key]; ok {
		entry.setting = *setting
		entry.insertedAt = c.now()
		c.lruList.MoveToFront(entry.element)
		return
	}

	if c.lruList.Len() >= c.maxSize {
		c.evictLRU()
	}

	entry := &cacheEntry{setting: *setting, insertedAt: c.now()}
	entry.element = c.lruList.PushFront(setting.Key)
	c.entries[setting.Key] = entry
}

// Snapshot returns a copy of the cached All result
func (c *Cache) Snapshot() (map[string]string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.snapshot == nil || c.expired(c.snapshotAt) {
		c.misses++
		c.snapshot = nil
		return nil, false
	}

	c.hits++
	return copyMap(c.snapshot), true
}

// SetSnapshot stores a copy of an All result
func (c *Cache) SetSnapshot(all map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.snapshot = copyMap(all)
	c.snapshotAt = c.now()
}

// Invalidate drops key and the snapshot that contains it
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.removeEntry(key)
	c.snapshot = nil
}

// Clear removes all entries from the cache
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*cacheEntry)
	c.lruList.Init()
	c.snapshot = nil
}

// Stats returns cache statistics
func (c *Cache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	var hitRate float64
	if total := c.hits + c.misses; total > 0 {
		hitRate = float64(c.hits) / float64(total)
	}
	return CacheStats{
		Size:    c.lruList.Len(),
		MaxSize: c.maxSize,
		Hits:    c.hits,
		Misses:  c.misses,
		HitRate: hitRate,
	}
}

// removeEntry must be called with the lock held
func (c *Cache) removeEntry(key string) {
	if entry, ok := c.entries[key]; ok {
		c.lruList.Remove(entry.element)
		delete(c.entries, key)
	}
}

// evictLRU must be called with the lock held
func (c *Cache) evictLRU() {
	back := c.lruList.Back()
	if back == nil {
		return
	}
	key := back.Value.(string)
	c.lruList.Remove(back)
	delete(c.entries, key)
}

func copyMap(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
