// Package scheduler runs periodic library maintenance on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/mrlokans/shelf/internal/database/books"
	"github.com/mrlokans/shelf/internal/entities"
	"github.com/robfig/cron/v3"
)

// Enqueuer hands rescan work to the task queue. *tasks.Client implements it.
type Enqueuer interface {
	EnqueueRescan() error
}

// BookLister is the catalog read access the missing-file sweep needs.
type BookLister interface {
	ListBooks(filter books.Filter) ([]entities.Book, int64, error)
}

// RescanScheduler periodically re-examines the catalog: it queues scans
// for books still missing a page count or cover and flags books whose
// files have disappeared from disk.
type RescanScheduler struct {
	enqueuer Enqueuer
	books    BookLister
	schedule string

	cron       *cron.Cron
	entryID    cron.EntryID
	mu         sync.RWMutex
	isRunning  bool
	isScanning bool
	cancelFunc context.CancelFunc
}

// NewRescanScheduler creates a scheduler that fires on the given five-field
// cron schedule.
func NewRescanScheduler(enqueuer Enqueuer, lister BookLister, schedule string) *RescanScheduler {
	return &RescanScheduler{
		enqueuer: enqueuer,
		books:    lister,
		schedule: schedule,
		cron:     cron.New(cron.WithParser(cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow))),
	}
}

// Start begins the scheduler.
func (s *RescanScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	entryID, err := s.cron.AddFunc(s.schedule, func() {
		s.runRescan()
	})
	if err != nil {
		return fmt.Errorf("invalid rescan schedule '%s': %w", s.schedule, err)
	}
	s.entryID = entryID

	var cancelCtx context.Context
	cancelCtx, s.cancelFunc = context.WithCancel(ctx)

	s.cron.Start()
	s.isRunning = true

	log.Printf("Rescan scheduler: started with schedule '%s'", s.schedule)

	go func() {
		<-cancelCtx.Done()
		s.Stop()
	}()

	return nil
}

// Stop gracefully stops the scheduler.
func (s *RescanScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	// Stop accepting new jobs and wait for running jobs to complete
	ctx := s.cron.Stop()
	<-ctx.Done()

	s.isRunning = false
	s.cancelFunc = nil

	log.Printf("Rescan scheduler: stopped")
}

// RunNow triggers an immediate rescan.
func (s *RescanScheduler) RunNow() error {
	go s.runRescan()
	return nil
}

// IsRunning returns whether the scheduler is active.
func (s *RescanScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// GetNextRunTime returns when the next rescan will occur.
func (s *RescanScheduler) GetNextRunTime() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return nil
	}

	for _, entry := range s.cron.Entries() {
		if entry.ID == s.entryID {
			t := entry.Next
			return &t
		}
	}
	return nil
}

// runRescan performs a single sweep.
func (s *RescanScheduler) runRescan() {
	s.mu.Lock()
	if s.isScanning {
		s.mu.Unlock()
		log.Printf("Rescan: skipped (already running)")
		return
	}
	s.isScanning = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.isScanning = false
		s.mu.Unlock()
	}()

	log.Printf("Rescan: starting library sweep")
	start := time.Now()

	s.reportMissingFiles()

	if err := s.enqueuer.EnqueueRescan(); err != nil {
		log.Printf("Rescan: failed to enqueue scan tasks: %v", err)
		return
	}

	log.Printf("Rescan: sweep queued in %v", time.Since(start).Round(time.Millisecond))
}

// reportMissingFiles logs every cataloged book whose file is gone from
// disk. Entries are kept; the user may have unplugged external storage.
func (s *RescanScheduler) reportMissingFiles() {
	all, _, err := s.books.ListBooks(books.Filter{})
	if err != nil {
		log.Printf("Rescan: failed to list catalog: %v", err)
		return
	}

	missing := 0
	for _, book := range all {
		if _, err := os.Stat(book.FilePath); os.IsNotExist(err) {
			log.Printf("Rescan: file missing for book %d (%s): %s", book.ID, book.Title, book.FilePath)
			missing++
		}
	}
	if missing > 0 {
		log.Printf("Rescan: %d of %d books have missing files", missing, len(all))
	}
}
