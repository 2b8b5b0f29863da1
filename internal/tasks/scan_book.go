package tasks

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/mrlokans/shelf/internal/content"
	"github.com/mrlokans/shelf/internal/database"
	"github.com/mrlokans/shelf/internal/entities"
)

// BookStore is the catalog access scan tasks need.
type BookStore interface {
	GetBookByID(id uint) (*entities.Book, error)
	UpdatePageCount(bookID uint, pages int) error
	SetCoverPath(bookID uint, path string) error
	MarkScanned(bookID uint) error
	BooksMissingScan() ([]entities.Book, error)
}

// Opener reads book files. *content.Opener implements it.
type Opener interface {
	Open(path string) (content.Handle, error)
}

// CoverCache persists extracted cover images to disk.
type CoverCache interface {
	Store(bookID uint, data []byte) (string, error)
}

// Scanner holds the dependencies shared by the scan task processors.
type Scanner struct {
	Books  BookStore
	Opener Opener
	Covers CoverCache
	Client *Client
}

// ScanBookTask records a single book's page count and extracts its cover.
type ScanBookTask struct {
	BookID uint `json:"book_id"`
}

// Config returns the queue configuration for single-book scan tasks.
func (t ScanBookTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "scan_book",
		MaxAttempts: 3,
		Backoff:     30 * time.Second,
		Timeout:     2 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// ScanBookProcessor creates a processor function for ScanBookTask.
func ScanBookProcessor(s *Scanner) backlite.QueueProcessor[ScanBookTask] {
	return func(ctx context.Context, task ScanBookTask) error {
		book, err := s.Books.GetBookByID(task.BookID)
		if err != nil {
			if errors.Is(err, database.ErrNotFound) {
				// Removed between enqueue and execution, nothing to do.
				log.Printf("[TASK] Book %d no longer in catalog, skipping scan", task.BookID)
				return nil
			}
			return fmt.Errorf("load book %d: %w", task.BookID, err)
		}

		if err := s.scanBook(book); err != nil {
			return fmt.Errorf("scan book %d (%s): %w", book.ID, book.Title, err)
		}
		return nil
	}
}

// scanBook opens the file, records the page count and stores the cover.
// A book whose file no longer exists or no longer parses is left as-is.
func (s *Scanner) scanBook(book *entities.Book) error {
	handle, err := s.Opener.Open(book.FilePath)
	if err != nil {
		return err
	}
	defer handle.Close()

	if pages := handle.PageCount(); pages != book.TotalPages {
		if err := s.Books.UpdatePageCount(book.ID, pages); err != nil {
			return fmt.Errorf("update page count: %w", err)
		}
		log.Printf("[TASK] Book %d (%s): %d pages", book.ID, book.Title, pages)
	}

	// Without a cover cache the scan is incomplete: leave the book
	// unmarked so a later sweep can finish the job.
	if s.Covers == nil {
		return nil
	}

	cover, err := handle.Cover()
	if err != nil {
		return fmt.Errorf("extract cover: %w", err)
	}
	if cover != nil {
		path, err := s.Covers.Store(book.ID, cover)
		if err != nil {
			return fmt.Errorf("store cover: %w", err)
		}
		if err := s.Books.SetCoverPath(book.ID, path); err != nil {
			return fmt.Errorf("record cover path: %w", err)
		}
	}

	return s.Books.MarkScanned(book.ID)
}

// NewScanBookQueue creates a backlite queue for single-book scan tasks.
func NewScanBookQueue(s *Scanner) backlite.Queue {
	return backlite.NewQueue(ScanBookProcessor(s))
}
