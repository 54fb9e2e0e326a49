// Package cache provides the content-addressed parse cache: lowering and
// manifest results keyed by their input digest, so a rewrite that restores
// previous contents skips parsing entirely.
package cache

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultSize is used when a non-positive size is requested.
const DefaultSize = 512

// Parse is a typed LRU keyed by content digest.
type Parse[V any] struct {
	entries *lru.Cache[string, V]
}

// NewParse creates a parse cache holding up to size entries.
func NewParse[V any](size int) *Parse[V] {
	if size <= 0 {
		size = DefaultSize
	}
	// lru.New errors only on non-positive size, which is handled above.
	entries, err := lru.New[string, V](size)
	if err != nil {
		panic(err)
	}
	return &Parse[V]{entries: entries}
}

// GetOrCompute returns the cached value for digest, computing and storing
// it on a miss.
func (c *Parse[V]) GetOrCompute(digest string, compute func() V) V {
	if v, ok := c.entries.Get(digest); ok {
		return v
	}
	v := compute()
	c.entries.Add(digest, v)
	return v
}

// Len returns the number of cached entries, for diagnostics.
func (c *Parse[V]) Len() int { return c.entries.Len() }
