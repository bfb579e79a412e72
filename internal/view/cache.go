package view

import (
	"sync"

	"github.com/fpp-modeler/backend/internal/models"
)

// Key identifies one cached view.
type Key struct {
	Kind        models.ViewKind
	Name        string
	FilterPorts bool
}

// StyleKey is the name the view's style file is stored under. It does not
// depend on port filtering so both variants share saved positions.
func (k Key) StyleKey() string {
	return string(k.Kind) + "_" + k.Name
}

// Cache holds built descriptors until the model changes. Every
// invalidation bumps the generation; a descriptor built against an older
// generation is not stored.
type Cache struct {
	mu      sync.RWMutex
	gen     uint64
	entries map[Key]*Descriptor
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[Key]*Descriptor)}
}

// Get returns the cached descriptor for k.
func (c *Cache) Get(k Key) (*Descriptor, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	d, ok := c.entries[k]
	return d, ok
}

// Generation returns the current invalidation generation. Read it before
// querying the model and pass it to Put.
func (c *Cache) Generation() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.gen
}

// Put stores d under k unless the cache was invalidated after gen was read.
func (c *Cache) Put(k Key, d *Descriptor, gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return false
	}
	c.entries[k] = d
	return true
}

// InvalidateView drops every entry of the named view.
func (c *Cache) InvalidateView(kind models.ViewKind, name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	for k := range c.entries {
		if k.Kind == kind && k.Name == name {
			delete(c.entries, k)
		}
	}
}

// InvalidateAll empties the cache.
func (c *Cache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	clear(c.entries)
}

// Len returns the number of cached descriptors.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
