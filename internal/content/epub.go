package content

import (
	"errors"
	"fmt"
	"image"

	"github.com/gen2brain/go-fitz"
	"github.com/simp-lee/epub"

	"github.com/mrlokans/shelf/internal/entities"
)

// epubHandle renders reflowable EPUB content. MuPDF lays the book out for
// the viewport and rasterizes pages; simp-lee/epub reads the package
// metadata and the declared cover image, which MuPDF does not expose.
type epubHandle struct {
	doc      *fitz.Document
	book     *epub.Book
	viewport Viewport
	meta     Metadata
}

func openEPUB(path string, viewport Viewport) (Handle, error) {
	book, err := epub.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptFile, err)
	}

	doc, err := fitz.New(path)
	if err != nil {
		book.Close()
		return nil, fmt.Errorf("%w: %v", ErrCorruptFile, err)
	}

	md := book.Metadata()
	meta := Metadata{}
	if len(md.Titles) > 0 {
		meta.Title = md.Titles[0]
	}
	if len(md.Authors) > 0 {
		meta.Author = md.Authors[0].Name
	}

	return &epubHandle{
		doc:      doc,
		book:     book,
		viewport: viewport,
		meta:     meta,
	}, nil
}

func (h *epubHandle) Format() entities.BookFormat {
	return entities.FormatEPUB
}

// PageCount reports the page count for the layout MuPDF produced. The
// value is approximate and changes with the viewport.
func (h *epubHandle) PageCount() int {
	return h.doc.NumPage()
}

func (h *epubHandle) RenderPage(index int) (image.Image, error) {
	if index < 0 || index >= h.doc.NumPage() {
		return nil, fmt.Errorf("%w: %d", ErrPageOutOfRange, index)
	}

	bounds, err := h.doc.Bound(index)
	if err != nil {
		return nil, fmt.Errorf("page bounds: %w", err)
	}

	img, err := h.doc.ImageDPI(index, 72*fitScale(bounds, h.viewport))
	if err != nil {
		return nil, fmt.Errorf("render page %d: %w", index, err)
	}
	return img, nil
}

func (h *epubHandle) Cover() ([]byte, error) {
	cover, err := h.book.Cover()
	if errors.Is(err, epub.ErrNoCover) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("extract cover: %w", err)
	}
	return cover.Data, nil
}

func (h *epubHandle) Metadata() Metadata {
	return h.meta
}

func (h *epubHandle) Close() error {
	h.book.Close()
	return h.doc.Close()
}
