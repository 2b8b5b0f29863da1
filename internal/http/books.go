package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/shelf/internal/content"
	"github.com/mrlokans/shelf/internal/database"
	"github.com/mrlokans/shelf/internal/database/books"
	"github.com/mrlokans/shelf/internal/entities"
)

// BookStore defines the catalog operations the books controller needs.
type BookStore interface {
	GetBookByID(id uint) (*entities.Book, error)
	ListBooks(filter books.Filter) ([]entities.Book, int64, error)
	RecentlyAdded(limit int) ([]entities.Book, error)
	RemoveBook(id uint) error
}

// BookImporter catalogs a book file. *importer.Importer implements it.
type BookImporter interface {
	Import(path string) (*entities.Book, error)
}

// PositionGetter reads last-known reading positions.
type PositionGetter interface {
	GetReadingPosition(bookID uint) (*entities.ReadingPosition, error)
	RecentlyRead(limit int) ([]entities.Book, error)
}

// SessionCloser tears down reader state when a book is removed.
// *reader.Manager implements it.
type SessionCloser interface {
	Close(bookID uint) error
	InvalidateBook(bookID uint)
}

// CoverRemover drops a stored cover image. May be nil.
type CoverRemover interface {
	Invalidate(bookID uint) error
}

type BooksController struct {
	store     BookStore
	importer  BookImporter
	positions PositionGetter
	sessions  SessionCloser
	covers    CoverRemover
}

func NewBooksController(store BookStore, importer BookImporter, positions PositionGetter, sessions SessionCloser, covers CoverRemover) *BooksController {
	return &BooksController{
		store:     store,
		importer:  importer,
		positions: positions,
		sessions:  sessions,
		covers:    covers,
	}
}

type importRequest struct {
	Path string `json:"path" binding:"required"`
}

// ImportBook catalogs the book file at the given path.
// POST /api/books/import
func (bc *BooksController) ImportBook(c *gin.Context) {
	var req importRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "path is required")
		return
	}

	book, err := bc.importer.Import(req.Path)
	if err != nil {
		switch {
		case errors.Is(err, database.ErrDuplicateBook):
			respondError(c, http.StatusConflict, "book already in library")
		case errors.Is(err, content.ErrUnsupportedFormat):
			respondBadRequest(c, "unsupported file format")
		case errors.Is(err, content.ErrFileNotFound):
			respondNotFound(c, "file")
		case errors.Is(err, content.ErrCorruptFile):
			respondError(c, http.StatusUnprocessableEntity, "file could not be parsed")
		default:
			respondInternalError(c, err, "import book")
		}
		return
	}

	respondCreated(c, book)
}

// ListBooks returns books matching the query parameters.
// GET /api/books?collection=&q=&sort=&limit=&offset=
func (bc *BooksController) ListBooks(c *gin.Context) {
	filter := books.Filter{
		Collection: c.Query("collection"),
		Query:      c.Query("q"),
		Sort:       c.Query("sort"),
		Limit:      parseIntQuery(c, "limit", 50),
		Offset:     parseIntQuery(c, "offset", 0),
	}

	results, total, err := bc.store.ListBooks(filter)
	if err != nil {
		respondInternalError(c, err, "list books")
		return
	}

	c.IndentedJSON(http.StatusOK, PaginatedResponse{
		Data:    results,
		Total:   total,
		Limit:   filter.Limit,
		Offset:  filter.Offset,
		HasMore: int64(filter.Offset+len(results)) < total,
	})
}

// GetBook returns a single book with its reading position.
// GET /api/books/:id
func (bc *BooksController) GetBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	book, err := bc.store.GetBookByID(id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondNotFound(c, "book")
			return
		}
		respondInternalError(c, err, "get book")
		return
	}

	position, err := bc.positions.GetReadingPosition(id)
	if err != nil {
		respondInternalError(c, err, "get reading position")
		return
	}

	response := gin.H{"book": book}
	if position != nil {
		response["position"] = position
		response["progress"] = position.Progress()
	}
	c.IndentedJSON(http.StatusOK, response)
}

// RecentlyRead returns books ordered by last reading activity.
// GET /api/books/recent
func (bc *BooksController) RecentlyRead(c *gin.Context) {
	limit := parseIntQuery(c, "limit", 10)

	results, err := bc.positions.RecentlyRead(limit)
	if err != nil {
		respondInternalError(c, err, "recently read")
		return
	}
	c.IndentedJSON(http.StatusOK, gin.H{"books": results, "count": len(results)})
}

// RecentlyAdded returns the most recently cataloged books.
// GET /api/books/added
func (bc *BooksController) RecentlyAdded(c *gin.Context) {
	limit := parseIntQuery(c, "limit", 10)

	results, err := bc.store.RecentlyAdded(limit)
	if err != nil {
		respondInternalError(c, err, "recently added")
		return
	}
	c.IndentedJSON(http.StatusOK, gin.H{"books": results, "count": len(results)})
}

// DeleteBook removes a book from the library. Any open reading session is
// closed first and cached renders and the stored cover are dropped. The
// file on disk is never touched.
// DELETE /api/books/:id
func (bc *BooksController) DeleteBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if _, err := bc.store.GetBookByID(id); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondNotFound(c, "book")
			return
		}
		respondInternalError(c, err, "get book")
		return
	}

	if bc.sessions != nil {
		if err := bc.sessions.Close(id); err != nil {
			respondInternalError(c, err, "close session")
			return
		}
		bc.sessions.InvalidateBook(id)
	}

	if bc.covers != nil {
		if err := bc.covers.Invalidate(id); err != nil {
			respondInternalError(c, err, "remove cover")
			return
		}
	}

	if err := bc.store.RemoveBook(id); err != nil {
		respondInternalError(c, err, "remove book")
		return
	}

	respondSuccess(c, "book removed")
}
