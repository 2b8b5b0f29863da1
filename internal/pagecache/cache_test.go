package pagecache

import (
	"fmt"
	"image"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testImage() image.Image {
	return image.NewRGBA(image.Rect(0, 0, 2, 2))
}

func TestCache_GetPut(t *testing.T) {
	cache, err := New(4)
	require.NoError(t, err)

	key := Key{BookID: 1, Page: 0}
	_, ok := cache.Get(key)
	assert.False(t, ok, "empty cache should miss")

	img := testImage()
	cache.Put(key, img)

	got, ok := cache.Get(key)
	require.True(t, ok)
	assert.Equal(t, img, got)
}

func TestCache_EvictsLeastRecentlyUsed(t *testing.T) {
	const capacity = 4

	cache, err := New(capacity)
	require.NoError(t, err)

	for page := 0; page < capacity; page++ {
		cache.Put(Key{BookID: 1, Page: page}, testImage())
	}

	// Touch everything except page 1, making it the LRU entry.
	for _, page := range []int{0, 2, 3} {
		_, ok := cache.Get(Key{BookID: 1, Page: page})
		require.True(t, ok)
	}

	// One more insert evicts exactly page 1.
	cache.Put(Key{BookID: 1, Page: capacity}, testImage())

	_, ok := cache.Get(Key{BookID: 1, Page: 1})
	assert.False(t, ok, "least recently used page should be evicted")

	for _, page := range []int{0, 2, 3, capacity} {
		_, ok := cache.Get(Key{BookID: 1, Page: page})
		assert.True(t, ok, "page %d should survive", page)
	}
}

func TestCache_InvalidateBook(t *testing.T) {
	cache, err := New(16)
	require.NoError(t, err)

	cache.Put(Key{BookID: 1, Page: 0}, testImage())
	cache.Put(Key{BookID: 1, Page: 5, Generation: 2}, testImage())
	cache.Put(CoverKey(1), testImage())
	cache.Put(Key{BookID: 2, Page: 0}, testImage())

	cache.InvalidateBook(1)

	assert.Equal(t, 1, cache.Len())
	_, ok := cache.Get(Key{BookID: 2, Page: 0})
	assert.True(t, ok, "entries for other books should survive")
}

func TestCache_GenerationsAreDistinctKeys(t *testing.T) {
	cache, err := New(16)
	require.NoError(t, err)

	cache.Put(Key{BookID: 1, Page: 3, Generation: 1}, testImage())

	_, ok := cache.Get(Key{BookID: 1, Page: 3, Generation: 2})
	assert.False(t, ok, "a new viewport generation must not see old renders")
}

func TestCache_ConcurrentAccess(t *testing.T) {
	cache, err := New(8)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for worker := 0; worker < 4; worker++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				key := Key{BookID: uint(worker), Page: i % 10}
				cache.Put(key, testImage())
				cache.Get(key)
				if i%25 == 0 {
					cache.InvalidateBook(uint(worker))
				}
			}
		}(worker)
	}
	wg.Wait()

	assert.LessOrEqual(t, cache.Len(), 8, fmt.Sprintf("capacity exceeded: %d", cache.Len()))
}
