package http

import (
	"encoding/json"
	"fmt"
	"image"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/shelf/internal/content"
	"github.com/mrlokans/shelf/internal/database"
	"github.com/mrlokans/shelf/internal/database/books"
	"github.com/mrlokans/shelf/internal/database/progress"
	"github.com/mrlokans/shelf/internal/entities"
	"github.com/mrlokans/shelf/internal/pagecache"
	"github.com/mrlokans/shelf/internal/reader"
	"github.com/mrlokans/shelf/internal/render"
)

type stubHandle struct {
	pages int
}

func (h *stubHandle) Format() entities.BookFormat { return entities.FormatPDF }
func (h *stubHandle) PageCount() int              { return h.pages }
func (h *stubHandle) Metadata() content.Metadata  { return content.Metadata{} }
func (h *stubHandle) Cover() ([]byte, error)      { return nil, nil }
func (h *stubHandle) Close() error                { return nil }

func (h *stubHandle) RenderPage(index int) (image.Image, error) {
	if index < 0 || index >= h.pages {
		return nil, fmt.Errorf("%w: %d", content.ErrPageOutOfRange, index)
	}
	return image.NewRGBA(image.Rect(0, 0, 1, 1)), nil
}

type stubOpener struct {
	pages int
}

func (o *stubOpener) Open(path string) (content.Handle, error) {
	return &stubHandle{pages: o.pages}, nil
}

func (o *stubOpener) Viewport() content.Viewport { return content.DefaultViewport }

func setupReaderTest(t *testing.T) (*books.Repository, *gin.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.NewDatabase(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	bookRepo := books.NewRepository(db.DB)
	progressRepo := progress.NewRepository(db.DB)

	cache, err := pagecache.New(pagecache.DefaultCapacity)
	require.NoError(t, err)

	renders := render.NewService(1, 8)
	manager := reader.NewManager(bookRepo, progressRepo, &stubOpener{pages: 10}, renders, cache, reader.DefaultSaveDelay)
	t.Cleanup(manager.CloseAll)

	controller := NewReaderController(manager)
	router := gin.New()
	router.POST("/api/books/:id/open", controller.OpenBook)
	router.GET("/api/books/:id/page/:index", controller.GetPage)
	router.PUT("/api/books/:id/position", controller.UpdatePosition)
	router.POST("/api/books/:id/close", controller.CloseBook)
	return bookRepo, router
}

func TestReaderController_OpenBook(t *testing.T) {
	t.Run("returns 404 for unknown book", func(t *testing.T) {
		_, router := setupReaderTest(t)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/books/9999/open", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("opens at page zero with page count", func(t *testing.T) {
		repo, router := setupReaderTest(t)
		addBook(t, repo, "Dune", "/library/dune.epub")

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/books/1/open", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var response sessionResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, 0, response.PageIndex)
		assert.Equal(t, 10, response.PageCount)
	})
}

func TestReaderController_GetPage(t *testing.T) {
	t.Run("returns PNG for an open book", func(t *testing.T) {
		repo, router := setupReaderTest(t)
		addBook(t, repo, "Dune", "/library/dune.epub")

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/books/1/open", nil)
		router.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)

		w = httptest.NewRecorder()
		req, _ = http.NewRequest("GET", "/api/books/1/page/3", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
		assert.NotEmpty(t, w.Body.Bytes())
	})

	t.Run("returns 400 for out of range pages", func(t *testing.T) {
		repo, router := setupReaderTest(t)
		addBook(t, repo, "Dune", "/library/dune.epub")

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/books/1/open", nil)
		router.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)

		w = httptest.NewRecorder()
		req, _ = http.NewRequest("GET", "/api/books/1/page/99", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("returns 409 when the book is not open", func(t *testing.T) {
		repo, router := setupReaderTest(t)
		addBook(t, repo, "Dune", "/library/dune.epub")

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/books/1/page/0", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusConflict, w.Code)
	})
}

func TestReaderController_UpdatePosition(t *testing.T) {
	repo, router := setupReaderTest(t)
	addBook(t, repo, "Dune", "/library/dune.epub")

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/books/1/open", nil)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	req, _ = http.NewRequest("PUT", "/api/books/1/position", strings.NewReader(`{"page_index":7}`))
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response sessionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, 7, response.PageIndex)

	// Past-the-end positions are clamped to the last page
	w = httptest.NewRecorder()
	req, _ = http.NewRequest("PUT", "/api/books/1/position", strings.NewReader(`{"page_index":500}`))
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, 9, response.PageIndex)
}

func TestReaderController_CloseBook(t *testing.T) {
	repo, router := setupReaderTest(t)
	addBook(t, repo, "Dune", "/library/dune.epub")

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/books/1/open", nil)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	req, _ = http.NewRequest("POST", "/api/books/1/close", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	// Closing an already closed book still succeeds
	w = httptest.NewRecorder()
	req, _ = http.NewRequest("POST", "/api/books/1/close", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	// Pages are no longer served
	w = httptest.NewRecorder()
	req, _ = http.NewRequest("GET", "/api/books/1/page/0", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusConflict, w.Code)
}
