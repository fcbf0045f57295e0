package search

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math"
	"sort"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultResultCacheSize bounds how many distinct (library, query, k,
// filter) searches are kept ready to answer without re-running the index.
const DefaultResultCacheSize = 256

// resultCache memoizes search results keyed by everything that can change
// the answer. It is invalidated wholesale whenever a library's index is
// invalidated, since cached entries reference scores computed against a
// chunk set that may no longer exist.
type resultCache struct {
	mu       sync.Mutex
	cache    *lru.Cache[string, []Result]
	lastHit  time.Time
	lastMiss time.Time
}

func newResultCache(size int) *resultCache {
	if size <= 0 {
		size = DefaultResultCacheSize
	}
	c, _ := lru.New[string, []Result](size)
	return &resultCache{cache: c}
}

func (c *resultCache) get(key string) ([]Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	results, ok := c.cache.Get(key)
	if ok {
		c.lastHit = time.Now()
	} else {
		c.lastMiss = time.Now()
	}
	return results, ok
}

func (c *resultCache) put(key string, results []Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache.Add(key, results)
}

// invalidateLibrary drops every cached entry for libraryID. The cache key
// embeds the library id as its first component so this is a linear scan
// over current keys, acceptable since entries are capped at cache size.
func (c *resultCache) invalidateLibrary(libraryID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	prefix := libraryID + "\x00"
	for _, key := range c.cache.Keys() {
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			c.cache.Remove(key)
		}
	}
}

// reset drops every cached entry regardless of library id, for a snapshot
// restore: the entire in-memory state underneath every key is replaced at
// once, so no library's prefix scan is narrow enough.
func (c *resultCache) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache.Purge()
}

func (c *resultCache) stats(maxSize int) CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return CacheStats{
		Len:      c.cache.Len(),
		MaxSize:  maxSize,
		LastHit:  c.lastHit,
		LastMiss: c.lastMiss,
	}
}

// cacheKey folds the library id in as a plain prefix (so invalidation can
// match on it cheaply) and hashes the rest of the query shape.
func cacheKey(libraryID string, query []float32, k int, filter Filter) string {
	h := sha256.New()

	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, uint32(k))
	h.Write(buf)

	for _, v := range query {
		binary.LittleEndian.PutUint32(buf, math.Float32bits(v))
		h.Write(buf)
	}

	keys := make([]string, 0, len(filter))
	for k := range filter {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		h.Write([]byte(k))
		h.Write([]byte{0})
		h.Write([]byte(filter[k]))
		h.Write([]byte{0})
	}

	return libraryID + "\x00" + hex.EncodeToString(h.Sum(nil))
}
