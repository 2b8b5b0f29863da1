// Package content opens book files and turns them into renderable pages.
//
// The decoding itself is delegated: MuPDF (via go-fitz) rasterizes both PDF
// and EPUB layouts, and simp-lee/epub reads EPUB metadata and cover images.
// Callers pick a format-specific Handle once at Open time and use the
// uniform contract from then on.
package content

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/mrlokans/shelf/internal/entities"
)

var (
	// ErrUnsupportedFormat is returned for files that are neither EPUB nor PDF.
	ErrUnsupportedFormat = errors.New("unsupported book format")

	// ErrCorruptFile is returned when the underlying library cannot parse the file.
	ErrCorruptFile = errors.New("file could not be parsed")

	// ErrFileNotFound is returned when the path is unreadable.
	ErrFileNotFound = errors.New("book file not found")

	// ErrPageOutOfRange is returned for page indexes outside [0, PageCount).
	ErrPageOutOfRange = errors.New("page index out of range")
)

// Viewport describes the target raster size for rendered pages. EPUB
// pagination depends on it: page count and page content are only stable
// for a fixed viewport.
type Viewport struct {
	Width  int
	Height int
}

// DefaultViewport is a reasonable two-page-spread panel size.
var DefaultViewport = Viewport{Width: 900, Height: 1200}

// Metadata is the subset of file metadata the catalog cares about.
type Metadata struct {
	Title  string
	Author string
}

// Handle exposes a book's pages for rendering. Handles are not safe for
// concurrent use; the render service serializes access per handle.
type Handle interface {
	Format() entities.BookFormat

	// PageCount returns the number of renderable pages for the current
	// viewport. For EPUB this is a layout property, not a file property.
	PageCount() int

	// RenderPage rasterizes a page sized for the viewport.
	RenderPage(index int) (image.Image, error)

	// Cover returns the encoded cover image, or (nil, nil) if the book
	// has none.
	Cover() ([]byte, error)

	// Metadata returns title/author information from the file.
	Metadata() Metadata

	Close() error
}

// Opener creates content handles for a fixed viewport.
type Opener struct {
	viewport Viewport
}

// NewOpener creates an Opener rendering at the given viewport. A zero
// viewport falls back to DefaultViewport.
func NewOpener(viewport Viewport) *Opener {
	if viewport.Width <= 0 || viewport.Height <= 0 {
		viewport = DefaultViewport
	}
	return &Opener{viewport: viewport}
}

// Viewport returns the viewport handles will render at.
func (o *Opener) Viewport() Viewport {
	return o.viewport
}

// FormatForPath determines the book format from the file extension.
func FormatForPath(path string) (entities.BookFormat, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".epub":
		return entities.FormatEPUB, nil
	case ".pdf":
		return entities.FormatPDF, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// Open opens the book at path, confirming the format by parsing it.
func (o *Opener) Open(path string) (Handle, error) {
	format, err := FormatForPath(path)
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
	}

	switch format {
	case entities.FormatEPUB:
		return openEPUB(path, o.viewport)
	default:
		return openPDF(path, o.viewport)
	}
}

// fitScale computes the zoom factor that fits a page of the given bounds
// into the viewport, preserving aspect ratio. Capped at 2x so small pages
// are not blown up past legibility.
func fitScale(bounds image.Rectangle, viewport Viewport) float64 {
	pageW := float64(bounds.Dx())
	pageH := float64(bounds.Dy())
	if pageW <= 0 || pageH <= 0 {
		return 1.0
	}

	scale := float64(viewport.Width) / pageW
	if s := float64(viewport.Height) / pageH; s < scale {
		scale = s
	}
	if scale > 2.0 {
		scale = 2.0
	}
	return scale
}
