// Package covers keeps extracted book cover images on disk so covers
// survive restarts without re-opening the book files.
package covers

import (
	"crypto/sha256"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
)

// Cache handles local storage of extracted book cover images.
type Cache struct {
	cacheDir string
}

// NewCache creates a new cover cache at the specified directory.
func NewCache(cacheDir string) (*Cache, error) {
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &Cache{cacheDir: cacheDir}, nil
}

// Store writes a cover image for a book and returns the cached file path.
// The write is atomic: data lands in a temp file first and is renamed into
// place.
func (c *Cache) Store(bookID uint, data []byte) (string, error) {
	if len(data) == 0 {
		return "", nil
	}

	cachePath := filepath.Join(c.cacheDir, c.coverFilename(bookID, data))

	if _, err := os.Stat(cachePath); err == nil {
		return cachePath, nil
	}

	tmpFile, err := os.CreateTemp(c.cacheDir, "cover_tmp_")
	if err != nil {
		return "", err
	}
	tmpPath := tmpFile.Name()
	defer func() {
		tmpFile.Close()
		os.Remove(tmpPath) // Clean up if we didn't rename
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return "", err
	}
	tmpFile.Close()

	// A replaced cover must not leave the old file behind
	if err := c.Invalidate(bookID); err != nil {
		return "", err
	}

	if err := os.Rename(tmpPath, cachePath); err != nil {
		return "", err
	}
	return cachePath, nil
}

// Path returns the cached cover path for a book, if one exists.
func (c *Cache) Path(bookID uint) (string, bool) {
	pattern := filepath.Join(c.cacheDir, fmt.Sprintf("cover_%d_*", bookID))
	matches, err := filepath.Glob(pattern)
	if err != nil || len(matches) == 0 {
		return "", false
	}
	return matches[0], true
}

// Invalidate removes the cached cover for a book.
func (c *Cache) Invalidate(bookID uint) error {
	pattern := filepath.Join(c.cacheDir, fmt.Sprintf("cover_%d_*", bookID))
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return err
	}

	for _, match := range matches {
		if err := os.Remove(match); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}

// coverFilename generates a unique filename based on book ID and a content
// hash, with an extension matching the sniffed image type.
func (c *Cache) coverFilename(bookID uint, data []byte) string {
	hash := sha256.Sum256(data)

	ext := ".jpg"
	switch http.DetectContentType(data) {
	case "image/png":
		ext = ".png"
	case "image/gif":
		ext = ".gif"
	}

	return fmt.Sprintf("cover_%d_%x%s", bookID, hash[:8], ext)
}

// CacheDir returns the cache directory path.
func (c *Cache) CacheDir() string {
	return c.cacheDir
}
