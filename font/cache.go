package font

import (
	"sync"

	"github.com/tsawler/folio/core"
)

// Cache shares loaded fonts between pages of one document. Fonts are
// keyed by object number; direct font dictionaries are not cached.
type Cache struct {
	mu      sync.Mutex
	entries map[int]*cacheEntry
}

type cacheEntry struct {
	once sync.Once
	font *Font
	err  error
}

// NewCache creates an empty font cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[int]*cacheEntry)}
}

// Load returns the font for obj, loading it at most once per object.
// A nil Cache loads without caching.
func (c *Cache) Load(obj core.Object, r Resolver) (*Font, error) {
	ref, ok := obj.(core.IndirectRef)
	if c == nil || !ok {
		return Load(obj, r)
	}

	c.mu.Lock()
	e, ok := c.entries[ref.Number]
	if !ok {
		e = &cacheEntry{}
		c.entries[ref.Number] = e
	}
	c.mu.Unlock()

	e.once.Do(func() {
		e.font, e.err = Load(obj, r)
	})
	return e.font, e.err
}

// Len returns the number of cached fonts.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
