package content

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"github.com/gen2brain/go-fitz"

	"github.com/mrlokans/shelf/internal/entities"
)

// coverDPI is the resolution used when rasterizing a PDF's first page as
// its cover thumbnail.
const coverDPI = 96

// pdfHandle renders fixed-layout PDF pages through MuPDF.
type pdfHandle struct {
	doc      *fitz.Document
	viewport Viewport
	meta     Metadata
}

func openPDF(path string, viewport Viewport) (Handle, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptFile, err)
	}

	meta := doc.Metadata()
	return &pdfHandle{
		doc:      doc,
		viewport: viewport,
		meta: Metadata{
			Title:  meta["title"],
			Author: meta["author"],
		},
	}, nil
}

func (h *pdfHandle) Format() entities.BookFormat {
	return entities.FormatPDF
}

func (h *pdfHandle) PageCount() int {
	return h.doc.NumPage()
}

func (h *pdfHandle) RenderPage(index int) (image.Image, error) {
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

// Cover rasterizes the first page. PDFs have no separate cover resource.
func (h *pdfHandle) Cover() ([]byte, error) {
	if h.doc.NumPage() == 0 {
		return nil, nil
	}

	img, err := h.doc.ImageDPI(0, coverDPI)
	if err != nil {
		return nil, fmt.Errorf("render cover: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode cover: %w", err)
	}
	return buf.Bytes(), nil
}

func (h *pdfHandle) Metadata() Metadata {
	return h.meta
}

func (h *pdfHandle) Close() error {
	return h.doc.Close()
}
