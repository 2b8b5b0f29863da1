package http

import (
	"errors"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/shelf/internal/covers"
	"github.com/mrlokans/shelf/internal/database"
	"github.com/mrlokans/shelf/internal/entities"
)

// CoverBookGetter provides the catalog lookup the covers controller needs.
type CoverBookGetter interface {
	GetBookByID(id uint) (*entities.Book, error)
}

// CoversController serves extracted cover images from the disk cache.
type CoversController struct {
	cache *covers.Cache
	books CoverBookGetter
}

func NewCoversController(cache *covers.Cache, books CoverBookGetter) *CoversController {
	return &CoversController{cache: cache, books: books}
}

// GetCover serves a book's cover image.
// GET /api/books/:id/cover
func (cc *CoversController) GetCover(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	book, err := cc.books.GetBookByID(id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondNotFound(c, "book")
			return
		}
		respondInternalError(c, err, "get book")
		return
	}

	// The recorded path is authoritative; fall back to a cache lookup for
	// covers stored before the path was recorded.
	path := book.CoverPath
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			path = ""
		}
	}
	if path == "" {
		cached, found := cc.cache.Path(id)
		if !found {
			respondNotFound(c, "cover")
			return
		}
		path = cached
	}

	c.Header("Cache-Control", "public, max-age=86400")
	c.File(path)
}
