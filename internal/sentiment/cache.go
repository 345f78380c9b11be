package sentiment

import (
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/hashicorp/golang-lru/v2/simplelru"
	"github.com/pscheid92/moodpulse/internal/domain"
)

const (
	DefaultCacheCapacity = 100
	cacheTrimRatio       = 0.8
)

// ResultCache memoizes final scores, and the source they were based on, by a
// stable hash of the raw text.
//
// Eviction is batched: once an insert pushes the cache over capacity, the least
// recently used entries are dropped until 80% of capacity remains. Entries never
// expire; a hit returns whatever was stored, regardless of how per-user state has
// drifted since.
type ResultCache struct {
	mu       sync.Mutex
	lru      *simplelru.LRU[uint64, cachedScore]
	capacity int
	trimTo   int
}

type cachedScore struct {
	score  float64
	source domain.ConfidenceSource
}

func NewResultCache(capacity int) *ResultCache {
	if capacity <= 0 {
		capacity = DefaultCacheCapacity
	}
	// One slot of headroom so the overflowing insert lands before the batch trim.
	lru, err := simplelru.NewLRU[uint64, cachedScore](capacity+1, nil)
	if err != nil {
		panic(err) // only fails for non-positive sizes
	}
	return &ResultCache{
		lru:      lru,
		capacity: capacity,
		trimTo:   int(float64(capacity) * cacheTrimRatio),
	}
}

// Get returns the cached score for text and marks it recently used.
func (c *ResultCache) Get(text string) (float64, domain.ConfidenceSource, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.lru.Get(cacheKey(text))
	return v.score, v.source, ok
}

// Put stores score for text and returns how many entries were evicted.
func (c *ResultCache) Put(text string, score float64, source domain.ConfidenceSource) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lru.Add(cacheKey(text), cachedScore{score: score, source: source})
	if c.lru.Len() <= c.capacity {
		return 0
	}

	evicted := 0
	for c.lru.Len() > c.trimTo {
		if _, _, ok := c.lru.RemoveOldest(); !ok {
			break
		}
		evicted++
	}
	return evicted
}

// Contains reports whether text is cached without touching recency.
func (c *ResultCache) Contains(text string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Contains(cacheKey(text))
}

func (c *ResultCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

func (c *ResultCache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Purge()
}

func cacheKey(text string) uint64 {
	return xxhash.Sum64String(text)
}
