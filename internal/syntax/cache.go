package syntax

import (
	"os"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/morozRed/flowdoc/internal/fileutil"
)

// DefaultCacheSize is the number of parsed trees kept between passes.
const DefaultCacheSize = 256

// Cache keeps parsed trees keyed by path and content hash so the database
// pass and the diagram pass parse each file once. Evicted trees are closed.
type Cache struct {
	registry *Registry
	trees    *lru.Cache[string, Tree]
}

// NewCache creates a tree cache in front of registry.
func NewCache(registry *Registry, size int) (*Cache, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	trees, err := lru.NewWithEvict[string, Tree](size, func(_ string, t Tree) {
		t.Close()
	})
	if err != nil {
		return nil, err
	}
	return &Cache{registry: registry, trees: trees}, nil
}

// Get returns the tree of path, parsing it when the content changed or was
// never seen.
func (c *Cache) Get(path string) (Tree, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	key := path + "#" + fileutil.HashBytes(content)
	if t, ok := c.trees.Get(key); ok {
		return t, nil
	}

	t, err := c.registry.Parse(path, content)
	if err != nil {
		return nil, err
	}
	c.trees.Add(key, t)
	return t, nil
}

// Len returns the number of cached trees.
func (c *Cache) Len() int {
	return c.trees.Len()
}

// Purge closes and drops every cached tree.
func (c *Cache) Purge() {
	c.trees.Purge()
}
