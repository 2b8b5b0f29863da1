// Package importer catalogs book files: it confirms the file parses,
// pulls metadata out of it and records the catalog entry.
package importer

import (
	"fmt"
	"log"
	"path/filepath"

	"github.com/mrlokans/shelf/internal/content"
	"github.com/mrlokans/shelf/internal/entities"
	"github.com/mrlokans/shelf/internal/utils"
)

// BookStore is the catalog write access the importer needs.
type BookStore interface {
	AddBook(book entities.Book) (*entities.Book, error)
}

// Opener confirms and reads book files. *content.Opener implements it.
type Opener interface {
	Open(path string) (content.Handle, error)
}

// ScanEnqueuer schedules background post-import work (cover extraction).
// May be nil when the task queue is disabled.
type ScanEnqueuer interface {
	EnqueueScan(bookID uint) error
}

// Importer adds book files to the library.
type Importer struct {
	store  BookStore
	opener Opener
	scans  ScanEnqueuer
}

// New creates an importer. scans may be nil; covers are then extracted on
// the next scheduled rescan instead.
func New(store BookStore, opener Opener, scans ScanEnqueuer) *Importer {
	return &Importer{store: store, opener: opener, scans: scans}
}

// Import catalogs the book at path. The format is determined by extension
// and confirmed by a successful parse; a file that does not parse is
// reported once and not retried. Returns database.ErrDuplicateBook for
// already cataloged paths and content open errors unchanged.
func (i *Importer) Import(path string) (*entities.Book, error) {
	format, err := content.FormatForPath(path)
	if err != nil {
		return nil, err
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve path: %w", err)
	}

	handle, err := i.opener.Open(absPath)
	if err != nil {
		return nil, err
	}
	defer handle.Close()

	meta := handle.Metadata()
	title := meta.Title
	if title == "" {
		title = utils.TitleFromFilename(absPath)
	}

	book, err := i.store.AddBook(entities.Book{
		Title:      title,
		Author:     meta.Author,
		FilePath:   absPath,
		Format:     format,
		TotalPages: handle.PageCount(),
	})
	if err != nil {
		return nil, err
	}

	log.Printf("Imported %q (%s, %d pages) as book %d", book.Title, book.Format, book.TotalPages, book.ID)

	if i.scans != nil {
		if err := i.scans.EnqueueScan(book.ID); err != nil {
			log.Printf("Failed to enqueue scan for book %d: %v", book.ID, err)
		}
	}

	return book, nil
}
