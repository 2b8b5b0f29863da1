package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"
)

// ScanAllBooksTask fans out scan tasks for every book that is still
// missing a page count or a cover. Enqueued by the rescan scheduler and
// by the manual rescan endpoint.
type ScanAllBooksTask struct{}

// Config returns the queue configuration for bulk scan tasks.
func (t ScanAllBooksTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "scan_all_books",
		MaxAttempts: 1,
		Backoff:     time.Minute,
		Timeout:     5 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// ScanAllBooksProcessor creates a processor function for ScanAllBooksTask.
// The per-book work runs in separate scan_book tasks so a single corrupt
// file cannot fail the whole sweep.
func ScanAllBooksProcessor(s *Scanner) backlite.QueueProcessor[ScanAllBooksTask] {
	return func(ctx context.Context, task ScanAllBooksTask) error {
		books, err := s.Books.BooksMissingScan()
		if err != nil {
			return fmt.Errorf("list books needing scan: %w", err)
		}
		if len(books) == 0 {
			log.Println("[TASK] Rescan: catalog is up to date")
			return nil
		}

		queued := 0
		for _, book := range books {
			if _, err := s.Client.Add(ScanBookTask{BookID: book.ID}).Save(); err != nil {
				return fmt.Errorf("enqueue scan for book %d: %w", book.ID, err)
			}
			queued++
		}
		log.Printf("[TASK] Rescan: queued %d of %d books", queued, len(books))
		return nil
	}
}

// NewScanAllBooksQueue creates a backlite queue for bulk scan tasks.
func NewScanAllBooksQueue(s *Scanner) backlite.Queue {
	return backlite.NewQueue(ScanAllBooksProcessor(s))
}
