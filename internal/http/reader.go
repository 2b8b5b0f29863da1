package http

import (
	"bytes"
	"errors"
	"image/png"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/shelf/internal/content"
	"github.com/mrlokans/shelf/internal/database"
	"github.com/mrlokans/shelf/internal/reader"
)

// ReaderController exposes reading sessions: opening books, serving
// rendered pages and tracking the reading position.
type ReaderController struct {
	manager *reader.Manager
}

func NewReaderController(manager *reader.Manager) *ReaderController {
	return &ReaderController{manager: manager}
}

type sessionResponse struct {
	BookID    uint    `json:"book_id"`
	PageIndex int     `json:"page_index"`
	PageCount int     `json:"page_count"`
	Progress  float64 `json:"progress"`
}

func newSessionResponse(session *reader.Session) sessionResponse {
	resp := sessionResponse{
		BookID:    session.BookID(),
		PageIndex: session.PageIndex(),
		PageCount: session.PageCount(),
	}
	if resp.PageCount > 0 {
		resp.Progress = float64(resp.PageIndex+1) / float64(resp.PageCount)
	}
	return resp
}

// OpenBook starts (or resumes) a reading session, restoring the last
// reading position. Opening an already open book is a no-op.
// POST /api/books/:id/open
func (rc *ReaderController) OpenBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	session, err := rc.manager.Open(id)
	if err != nil {
		switch {
		case errors.Is(err, database.ErrNotFound):
			respondNotFound(c, "book")
		case errors.Is(err, content.ErrFileNotFound):
			respondError(c, http.StatusConflict, "book file is missing from disk")
		case errors.Is(err, content.ErrCorruptFile):
			respondError(c, http.StatusUnprocessableEntity, "book file could not be parsed")
		default:
			respondInternalError(c, err, "open book")
		}
		return
	}

	c.IndentedJSON(http.StatusOK, newSessionResponse(session))
}

// GetPage renders one page of an open book as PNG.
// GET /api/books/:id/page/:index
func (rc *ReaderController) GetPage(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	index, ok := parseIndexParam(c)
	if !ok {
		return
	}

	session, open := rc.manager.Get(id)
	if !open {
		respondError(c, http.StatusConflict, "book is not open")
		return
	}

	img, err := session.Page(index)
	if err != nil {
		if errors.Is(err, content.ErrPageOutOfRange) {
			respondBadRequest(c, "page index out of range")
			return
		}
		respondInternalError(c, err, "render page")
		return
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		respondInternalError(c, err, "encode page")
		return
	}
	c.Data(http.StatusOK, "image/png", buf.Bytes())
}

type positionRequest struct {
	PageIndex int `json:"page_index"`
}

// UpdatePosition moves the reading position. Out-of-range indexes are
// clamped rather than rejected; the landed-on page is returned.
// PUT /api/books/:id/position
func (rc *ReaderController) UpdatePosition(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req positionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "page_index is required")
		return
	}

	session, open := rc.manager.Get(id)
	if !open {
		respondError(c, http.StatusConflict, "book is not open")
		return
	}

	session.GoToPage(req.PageIndex)
	c.IndentedJSON(http.StatusOK, newSessionResponse(session))
}

// CloseBook ends a reading session, flushing the position. Closing a book
// that is not open succeeds.
// POST /api/books/:id/close
func (rc *ReaderController) CloseBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := rc.manager.Close(id); err != nil {
		respondInternalError(c, err, "close book")
		return
	}
	respondSuccess(c, "book closed")
}

type viewportRequest struct {
	Width  int `json:"width" binding:"required"`
	Height int `json:"height" binding:"required"`
}

// SetViewport changes the render viewport. Open books are re-laid-out and
// their cached pages invalidated.
// PUT /api/viewport
func (rc *ReaderController) SetViewport(c *gin.Context) {
	var req viewportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "width and height are required")
		return
	}
	if req.Width <= 0 || req.Height <= 0 {
		respondBadRequest(c, "width and height must be positive")
		return
	}

	opener := content.NewOpener(content.Viewport{Width: req.Width, Height: req.Height})
	if err := rc.manager.SetViewport(opener); err != nil {
		respondInternalError(c, err, "set viewport")
		return
	}
	respondSuccess(c, "viewport updated")
}

// parseIndexParam extracts the page index from URL parameters. Negative
// indexes are rejected here; upper-bound checks happen in the session.
func parseIndexParam(c *gin.Context) (int, bool) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil || index < 0 {
		respondBadRequest(c, "invalid index")
		return 0, false
	}
	return index, true
}
