// Package vaccine drives the vaccination view and its client-side cache.
package vaccine

import (
	"strings"
	"sync"
	"time"

	"github.com/wonny/covidwatch/internal/covid"
)

// DefaultTTL is how long a vaccination lookup stays fresh
const DefaultTTL = time.Hour

type entry struct {
	data covid.Vaccination
	ts   time.Time
}

// Cache keeps combined vaccination records per country.
// An entry is fresh while now - ts < TTL.
type Cache struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]entry
}

// NewCache creates an empty cache; ttl <= 0 means DefaultTTL
func NewCache(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]entry),
	}
}

// WithClock replaces the time source
func (c *Cache) WithClock(now func() time.Time) *Cache {
	c.now = now
	return c
}

func cacheKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Get returns a fresh entry
func (c *Cache) Get(name string) (covid.Vaccination, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[cacheKey(name)]
	if !ok || c.now().Sub(e.ts) >= c.ttl {
		return covid.Vaccination{}, false
	}
	return e.data, true
}

// Put stores v stamped with the current time
func (c *Cache) Put(name string, v covid.Vaccination) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[cacheKey(name)] = entry{data: v, ts: c.now()}
}

// Len returns the number of entries, stale ones included
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
