package factors

import (
	"fmt"
	"sync"
	"time"

	"RiskSentinel/internal/artifacts"
	"RiskSentinel/internal/model"
)

// CacheFileName is where the cache persists between runs.
const CacheFileName = "factor_cache.json"

// CacheEntry is a stored outcome valid only for the inputs it was built from.
type CacheEntry struct {
	Fingerprint string         `json:"fingerprint"`
	Score       float64        `json:"score"`
	Details     []model.Detail `json:"details"`
	AsOf        time.Time      `json:"as_of_utc"`
	StoredAt    time.Time      `json:"stored_at"`
}

type cacheFile struct {
	Entries map[string]CacheEntry `json:"entries"`
	Meta    map[string]string     `json:"meta"`
}

// Cache holds factor outcomes keyed by factor and input fingerprint, plus
// small string metadata. Safe for concurrent use.
type Cache struct {
	mu      sync.Mutex
	path    string
	entries map[string]CacheEntry
	meta    map[string]string
}

// NewCache returns an empty cache persisted at path. An empty path keeps
// the cache in memory only.
func NewCache(path string) *Cache {
	return &Cache{path: path, entries: map[string]CacheEntry{}, meta: map[string]string{}}
}

// LoadCache reads the cache at path. A missing or unreadable file starts empty.
func LoadCache(path string) (*Cache, error) {
	c := NewCache(path)
	var f cacheFile
	if _, err := artifacts.ReadJSON(path, &f); err != nil {
		return c, fmt.Errorf("load factor cache: %w", err)
	}
	if f.Entries != nil {
		c.entries = f.Entries
	}
	if f.Meta != nil {
		c.meta = f.Meta
	}
	return c, nil
}

// Get returns the entry for key only if it was built from the same inputs.
func (c *Cache) Get(key, fingerprint string) (CacheEntry, bool) {
	if c == nil {
		return CacheEntry{}, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok || e.Fingerprint != fingerprint {
		return CacheEntry{}, false
	}
	return e, true
}

// Put stores an entry for key.
func (c *Cache) Put(key string, e CacheEntry) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = e
}

// Meta returns a metadata value.
func (c *Cache) Meta(key string) string {
	if c == nil {
		return ""
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.meta[key]
}

// SetMeta stores a metadata value.
func (c *Cache) SetMeta(key, value string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.meta[key] = value
}

// Save writes the cache atomically. In-memory caches are a no-op.
func (c *Cache) Save() error {
	if c == nil || c.path == "" {
		return nil
	}
	c.mu.Lock()
	f := cacheFile{Entries: c.entries, Meta: c.meta}
	err := artifacts.WriteJSON(c.path, f)
	c.mu.Unlock()
	if err != nil {
		return fmt.Errorf("save factor cache: %w", err)
	}
	return nil
}

// Fingerprint identifies a series by its length and newest datapoint.
func Fingerprint(date time.Time, value float64, n int) string {
	return fmt.Sprintf("%s|%.6f|%d", date.UTC().Format("2006-01-02"), value, n)
}
