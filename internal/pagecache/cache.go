// Package pagecache keeps recently rendered pages and cover thumbnails in
// memory so the decode libraries are not re-invoked for pages the user is
// flipping between.
//
// Entries are always reconstructible from the store and the content layer;
// losing the cache only costs recompute time.
package pagecache

import (
	"fmt"
	"image"

	lru "github.com/hashicorp/golang-lru/v2"
)

// CoverPage is the page index used to key cover thumbnails.
const CoverPage = -1

// DefaultCapacity bounds the cache when no capacity is configured.
const DefaultCapacity = 64

// Key identifies a rendered asset. Generation is the viewport generation
// the render was produced under; bumping it on viewport change makes stale
// EPUB layouts unreachable without an explicit sweep.
type Key struct {
	BookID     uint
	Page       int
	Generation uint64
}

// CoverKey returns the cache key for a book's cover thumbnail. Covers do
// not depend on the viewport, so they live in generation 0.
func CoverKey(bookID uint) Key {
	return Key{BookID: bookID, Page: CoverPage}
}

// Cache is a bounded, thread-safe LRU of rendered images. Concurrent use
// from render workers and request handlers is safe.
type Cache struct {
	lru *lru.Cache[Key, image.Image]
}

// New creates a cache holding at most capacity entries, evicting the least
// recently used entry first.
func New(capacity int) (*Cache, error) {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	inner, err := lru.New[Key, image.Image](capacity)
	if err != nil {
		return nil, fmt.Errorf("create page cache: %w", err)
	}
	return &Cache{lru: inner}, nil
}

// Get returns the cached image for key, if present. Absence is not an
// error.
func (c *Cache) Get(key Key) (image.Image, bool) {
	return c.lru.Get(key)
}

// Put stores a rendered image, evicting the least recently used entry if
// the cache is full.
func (c *Cache) Put(key Key, img image.Image) {
	c.lru.Add(key, img)
}

// InvalidateBook drops every entry for a book, across all pages and
// generations. Called on book removal and viewport change.
func (c *Cache) InvalidateBook(bookID uint) {
	for _, key := range c.lru.Keys() {
		if key.BookID == bookID {
			c.lru.Remove(key)
		}
	}
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	return c.lru.Len()
}

// Purge empties the cache.
func (c *Cache) Purge() {
	c.lru.Purge()
}
