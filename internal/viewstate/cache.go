package viewstate

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/ppiankov/runlens/internal/tree"
)

// CacheKey identifies one computed view. Event count covers file
// growth, revision covers collapse toggles, so a hit is always fresh.
type CacheKey struct {
	Log      string
	Events   int
	Revision int
	View     string
}

// Cache memoizes flattened views so repeated requests against an
// unchanged log do not rebuild the tree.
type Cache struct {
	lru *lru.Cache[CacheKey, []*tree.Node]
}

// NewCache creates a Cache holding up to size entries.
func NewCache(size int) (*Cache, error) {
	c, err := lru.New[CacheKey, []*tree.Node](size)
	if err != nil {
		return nil, err
	}
	return &Cache{lru: c}, nil
}

// Get returns the cached rows for key, if present.
func (c *Cache) Get(key CacheKey) ([]*tree.Node, bool) {
	return c.lru.Get(key)
}

// Put stores rows under key.
func (c *Cache) Put(key CacheKey, rows []*tree.Node) {
	c.lru.Add(key, rows)
}
