// Package session caches a resolved LaunchPlan per server URL for a short
// wall-clock TTL, so repeated launches against the same server within a
// session skip re-resolving and re-verifying every artifact, matching
// the reference implementation's WebStartCache.
package session

import (
	"sync"
	"time"

	"github.com/kayyagari/ballista"
)

// TTL is how long a resolved LaunchPlan stays eligible for reuse.
const TTL = 120 * time.Second

type entry struct {
	plan     ballista.LaunchPlan
	loadedAt time.Time
}

// Cache is a TTL'd map from a server URL, matched as the exact string the
// caller passes, to its last resolved LaunchPlan.
type Cache struct {
	mu    sync.Mutex
	byURL map[string]entry
	now   func() time.Time
}

// New returns an empty Cache.
func New() *Cache {
	return &Cache{byURL: make(map[string]entry), now: time.Now}
}

// Get returns the cached LaunchPlan for url if it was stored within the
// last TTL, and reports whether it found one.
func (c *Cache) Get(url string) (ballista.LaunchPlan, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.byURL[url]
	if !ok {
		return ballista.LaunchPlan{}, false
	}
	if c.now().Sub(e.loadedAt) >= TTL {
		delete(c.byURL, url)
		return ballista.LaunchPlan{}, false
	}
	return e.plan, true
}

// Put stores plan as the current resolution for url, timestamped now.
func (c *Cache) Put(url string, plan ballista.LaunchPlan) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byURL[url] = entry{plan: plan, loadedAt: c.now()}
}

// Invalidate drops any cached plan for url, forcing the next launch to
// re-resolve (the "don't use the cache" launch mode, spec.md §4.5).
func (c *Cache) Invalidate(url string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.byURL, url)
}
