package availability

import (
	"sync"
	"time"

	"github.com/linkfolio/profile-service/internal/domain"
)

const (
	defaultEntryTTL   = 5 * time.Minute
	defaultMaxEntries = 1000
)

type cacheEntry struct {
	available bool
	storedAt  time.Time
	ttl       time.Duration
}

func (e cacheEntry) validAt(now time.Time) bool {
	return now.Sub(e.storedAt) < e.ttl
}

// CacheStats is a snapshot of the username cache for diagnostics.
type CacheStats struct {
	Entries        int
	Hits           uint64
	Misses         uint64
	Evictions      uint64
	BloomFillRatio float64
}

// Cache remembers recent availability results per username and maintains a
// bloom filter of names observed taken. A name observed taken is never
// removed from the filter; expired map entries only force a re-check.
type Cache struct {
	mu         sync.Mutex
	entries    map[string]cacheEntry
	taken      *BloomFilter
	maxEntries int
	entryTTL   time.Duration
	nowFn      func() time.Time

	hits      uint64
	misses    uint64
	evictions uint64
}

func NewCache(maxEntries int, entryTTL time.Duration) *Cache {
	if maxEntries <= 0 {
		maxEntries = defaultMaxEntries
	}
	if entryTTL <= 0 {
		entryTTL = defaultEntryTTL
	}
	return &Cache{
		entries:    make(map[string]cacheEntry),
		taken:      NewBloomFilter(defaultBloomSize, defaultBloomHashCount),
		maxEntries: maxEntries,
		entryTTL:   entryTTL,
		nowFn:      time.Now,
	}
}

// ShouldQuery reports whether a remote availability check is needed. It is
// false only when a non-expired cached result exists. A bloom-filter miss
// never skips a check: the filter tracks taken names, not availability
// proofs, so its negative answer is a hint, not a verdict.
func (c *Cache) ShouldQuery(username string) bool {
	username = domain.NormalizeUsername(username)
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[username]
	if ok && entry.validAt(c.nowFn()) {
		return false
	}
	return true
}

// ProbablyTaken reports the bloom-filter hint: true means the name was
// possibly observed taken before and a confirming check is worthwhile,
// false means it was definitely never observed taken.
func (c *Cache) ProbablyTaken(username string) bool {
	return c.taken.MightContain(domain.NormalizeUsername(username))
}

// CacheResult stores an availability result. Taken names are also added to
// the bloom filter. Expired entries are purged on every call, and the
// oldest entries are evicted once the map exceeds its bound.
func (c *Cache) CacheResult(username string, available bool, ttl time.Duration) {
	username = domain.NormalizeUsername(username)
	if ttl <= 0 {
		ttl = c.entryTTL
	}
	if !available {
		c.taken.Add(username)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[username] = cacheEntry{available: available, storedAt: c.nowFn(), ttl: ttl}
	c.cleanupLocked()
}

// CachedResult returns the cached availability value when a valid entry
// exists. ok=false means unknown: the caller must check remotely.
func (c *Cache) CachedResult(username string) (available bool, ok bool) {
	username = domain.NormalizeUsername(username)
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, found := c.entries[username]
	if !found || !entry.validAt(c.nowFn()) {
		c.misses++
		return false, false
	}
	c.hits++
	return entry.available, true
}

// InvalidateUsername drops a single cached entry. Used when the local user
// edits their own current username so a stale self-collision result is not
// served.
func (c *Cache) InvalidateUsername(username string) {
	username = domain.NormalizeUsername(username)
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, username)
}

func (c *Cache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]cacheEntry)
	c.mu.Unlock()
	c.taken.Clear()
}

func (c *Cache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return CacheStats{
		Entries:        len(c.entries),
		Hits:           c.hits,
		Misses:         c.misses,
		Evictions:      c.evictions,
		BloomFillRatio: c.taken.FillRatio(),
	}
}

// cleanupLocked purges expired entries, then trims oldest-first down to the
// bound. Caller holds c.mu.
func (c *Cache) cleanupLocked() {
	now := c.nowFn()
	for name, entry := range c.entries {
		if !entry.validAt(now) {
			delete(c.entries, name)
		}
	}
	for len(c.entries) > c.maxEntries {
		oldestName := ""
		var oldestAt time.Time
		for name, entry := range c.entries {
			if oldestName == "" || entry.storedAt.Before(oldestAt) {
				oldestName = name
				oldestAt = entry.storedAt
			}
		}
		delete(c.entries, oldestName)
		c.evictions++
	}
}
