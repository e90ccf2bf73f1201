package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"eunomia-hq/eunomia/pkg/eerrors"
)

// CacheEntry describes one cached bundle's metadata. The bundle bytes
// themselves live on disk at the path the cache computes internally.
type CacheEntry struct {
	Service   string
	Version   string
	Checksum  string
	CachedAt  time.Time
	ExpiresAt time.Time
	Size      int64
}

// MetricsRecorder receives cache hit/miss/eviction/size observations.
// pkg/telemetry/metrics.Collector satisfies this directly.
type MetricsRecorder interface {
	RecordCacheHit(cacheName string)
	RecordCacheMiss(cacheName string)
	RecordCacheEviction(cacheName string)
	UpdateCacheSize(cacheName string, size int)
}

// FileCache is a bytes-budgeted, TTL- and LRU-evicting on-disk cache of
// fetched bundle archives, keyed by service+version. Eviction discipline:
// expiry first, then least-recently-used, both subject to a total bytes
// budget.
type FileCache struct {
	dir     string
	budget  int64
	used    int64
	index   *lru.Cache[string, *CacheEntry]
	sealer  *sealer
	metrics MetricsRecorder

	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64
}

// Stats returns cumulative hit/miss/eviction counts and the current
// entry count, independent of whatever Prometheus recorder is wired —
// this is what feeds the cache_metrics snapshot table so history
// survives a process restart even without a live scrape.
func (c *FileCache) Stats() (hits, misses, evictions int64, entries int) {
	return c.hits.Load(), c.misses.Load(), c.evictions.Load(), c.index.Len()
}

// cacheMetricsName labels every Prometheus/persisted cache metric this
// package emits; there is exactly one FileCache instance per process.
const cacheMetricsName = "bundle"

// SetMetricsRecorder wires a recorder that observes every hit, miss,
// eviction, and size change from this point forward.
func (c *FileCache) SetMetricsRecorder(m MetricsRecorder) {
	c.metrics = m
}

// NewFileCache opens (creating if necessary) a file cache rooted at dir
// with a total byte budget.
func NewFileCache(dir string, budget int64, maxEntries int) (*FileCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &eerrors.CacheError{Reason: "create cache directory", Cause: err}
	}
	index, err := lru.New[string, *CacheEntry](maxEntries)
	if err != nil {
		return nil, &eerrors.CacheError{Reason: "create LRU index", Cause: err}
	}
	return &FileCache{dir: dir, budget: budget, index: index}, nil
}

// SetEncryptionKey enables envelope encryption of bundle bytes at rest.
// Once set, every subsequent Put seals data before writing it and every
// Get opens it after reading; entries written before this call was made
// are unreadable (Get evicts them as corrupt, same as any other
// authentication failure).
func (c *FileCache) SetEncryptionKey(key [32]byte) {
	c.sealer = &sealer{key: key}
}

func cacheKey(service, version string) string {
	return service + "@" + version
}

func (c *FileCache) path(key string) string {
	return filepath.Join(c.dir, key+".bundle")
}

// Get returns the cached bundle bytes for service+version, or ok=false on
// a miss (absent, expired, or corrupt — corruption evicts the entry
// rather than propagating a fatal error).
func (c *FileCache) Get(service, version string) (data []byte, entry CacheEntry, ok bool) {
	key := cacheKey(service, version)
	e, found := c.index.Get(key)
	if !found {
		c.recordMiss()
		return nil, CacheEntry{}, false
	}
	if time.Now().After(e.ExpiresAt) {
		c.evict(key)
		c.recordMiss()
		return nil, CacheEntry{}, false
	}

	raw, err := os.ReadFile(c.path(key))
	if err != nil {
		c.evict(key)
		c.recordMiss()
		return nil, CacheEntry{}, false
	}
	if c.sealer != nil {
		plain, err := c.sealer.open(raw)
		if err != nil {
			c.evict(key)
			c.recordMiss()
			return nil, CacheEntry{}, false
		}
		raw = plain
	}
	c.recordHit()
	return raw, *e, true
}

func (c *FileCache) recordHit() {
	c.hits.Add(1)
	if c.metrics != nil {
		c.metrics.RecordCacheHit(cacheMetricsName)
	}
}

func (c *FileCache) recordMiss() {
	c.misses.Add(1)
	if c.metrics != nil {
		c.metrics.RecordCacheMiss(cacheMetricsName)
	}
}

// Put stores data under service+version, evicting by expiry then LRU
// until the write fits within budget. Writes are atomic: data lands in a
// temp file in the same directory, then is renamed into place.
func (c *FileCache) Put(service, version string, data []byte, checksum string, ttl time.Duration) error {
	key := cacheKey(service, version)

	if c.sealer != nil {
		sealed, err := c.sealer.seal(data)
		if err != nil {
			return &eerrors.CacheError{Key: key, Reason: "seal cache entry", Cause: err}
		}
		data = sealed
	}
	size := int64(len(data))

	if c.used+size > c.budget {
		c.evictExpired()
	}
	for c.used+size > c.budget && c.index.Len() > 0 {
		oldest, _, ok := c.index.GetOldest()
		if !ok {
			break
		}
		c.evict(oldest)
	}
	if size > c.budget {
		return &eerrors.CacheError{Key: key, Reason: fmt.Sprintf("entry of %d bytes exceeds cache budget of %d bytes", size, c.budget)}
	}

	tmp, err := os.CreateTemp(c.dir, "tmp-*.bundle")
	if err != nil {
		return &eerrors.CacheError{Key: key, Reason: "create temp file", Cause: err}
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return &eerrors.CacheError{Key: key, Reason: "write temp file", Cause: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return &eerrors.CacheError{Key: key, Reason: "close temp file", Cause: err}
	}
	if err := os.Rename(tmpPath, c.path(key)); err != nil {
		os.Remove(tmpPath)
		return &eerrors.CacheError{Key: key, Reason: "rename into place", Cause: err}
	}

	now := time.Now()
	c.index.Add(key, &CacheEntry{
		Service:   service,
		Version:   version,
		Checksum:  checksum,
		CachedAt:  now,
		ExpiresAt: now.Add(ttl),
		Size:      size,
	})
	c.used += size
	if c.metrics != nil {
		c.metrics.UpdateCacheSize(cacheMetricsName, c.index.Len())
	}
	return nil
}

func (c *FileCache) evict(key string) {
	if e, ok := c.index.Peek(key); ok {
		c.used -= e.Size
	}
	c.index.Remove(key)
	os.Remove(c.path(key))
	c.evictions.Add(1)
	if c.metrics != nil {
		c.metrics.RecordCacheEviction(cacheMetricsName)
		c.metrics.UpdateCacheSize(cacheMetricsName, c.index.Len())
	}
}

func (c *FileCache) evictExpired() {
	now := time.Now()
	for _, key := range c.index.Keys() {
		e, ok := c.index.Peek(key)
		if ok && now.After(e.ExpiresAt) {
			c.evict(key)
		}
	}
}

// Prune removes every expired entry and reports how many were removed.
// Intended to be called periodically (e.g. by a cron sweep).
func (c *FileCache) Prune() int {
	before := c.index.Len()
	c.evictExpired()
	return before - c.index.Len()
}
