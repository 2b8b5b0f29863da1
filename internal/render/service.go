// Package render runs page rasterization off the interaction path.
//
// Requests are served by a small worker pool. For any one book only the
// most recently requested page matters: when the user pages quickly,
// superseded requests are skipped before rendering where possible and
// their results dropped otherwise, never delivered out of order.
package render

import (
	"context"
	"image"
	"log"
	"sync"
)

// RenderFunc produces the raster for a request. It is executed on a worker
// goroutine and must be safe to call from there.
type RenderFunc func() (image.Image, error)

// Result is the completion record delivered for the newest request of a
// book. Consumers drain Results from a single goroutine.
type Result struct {
	BookID     uint
	Page       int
	Generation uint64
	Image      image.Image
	Err        error
}

type request struct {
	bookID     uint
	page       int
	generation uint64
	seq        uint64
	render     RenderFunc
}

// Service is the background render worker pool.
type Service struct {
	workers  int
	requests chan request
	results  chan Result

	mu     sync.Mutex
	latest map[uint]uint64 // book id -> newest issued sequence
	seq    uint64

	started bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewService creates a render service with the given worker count and
// request queue depth.
func NewService(workers, queueDepth int) *Service {
	if workers <= 0 {
		workers = 1
	}
	if queueDepth <= 0 {
		queueDepth = 16
	}
	return &Service{
		workers:  workers,
		requests: make(chan request, queueDepth),
		results:  make(chan Result, queueDepth),
		latest:   make(map[uint]uint64),
	}
}

// Start launches the workers. Calling Start twice is a no-op.
func (s *Service) Start(ctx context.Context) {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return
	}
	s.started = true
	ctx, s.cancel = context.WithCancel(ctx)
	s.mu.Unlock()

	for i := 0; i < s.workers; i++ {
		s.wg.Add(1)
		go s.worker(ctx)
	}
	log.Printf("Render service started with %d workers", s.workers)
}

// Stop cancels outstanding work and waits for the workers to exit.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	cancel := s.cancel
	s.mu.Unlock()

	cancel()
	s.wg.Wait()
	log.Printf("Render service stopped")
}

// Results returns the completion queue. Stale completions are filtered out
// before delivery.
func (s *Service) Results() <-chan Result {
	return s.results
}

// Submit queues a render for the given page. It never blocks the caller:
// a full queue is compacted by dropping queued requests that have already
// been superseded for their book; only when every queued request is still
// current does the oldest one go.
func (s *Service) Submit(bookID uint, page int, generation uint64, render RenderFunc) {
	s.mu.Lock()
	s.seq++
	req := request{
		bookID:     bookID,
		page:       page,
		generation: generation,
		seq:        s.seq,
		render:     render,
	}
	s.latest[bookID] = req.seq
	s.mu.Unlock()

	for {
		select {
		case s.requests <- req:
			return
		default:
		}
		s.compact()
	}
}

// compact drains the queue and requeues only requests that are still the
// newest for their book. When all of them are, the oldest is dropped to
// make room.
func (s *Service) compact() {
	pending := make([]request, 0, cap(s.requests))
	for {
		select {
		case old := <-s.requests:
			if s.isLatest(old) {
				pending = append(pending, old)
			}
			continue
		default:
		}
		break
	}

	if len(pending) == cap(s.requests) {
		log.Printf("Render queue full, dropping request for book %d page %d", pending[0].bookID, pending[0].page)
		pending = pending[1:]
	}

	for _, old := range pending {
		select {
		case s.requests <- old:
		default:
			return
		}
	}
}

// Forget drops the pending-request bookkeeping for a book. Any in-flight
// render for it becomes stale and will not be delivered.
func (s *Service) Forget(bookID uint) {
	s.mu.Lock()
	delete(s.latest, bookID)
	s.mu.Unlock()
}

func (s *Service) isLatest(req request) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest[req.bookID] == req.seq
}

func (s *Service) worker(ctx context.Context) {
	defer s.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case req := <-s.requests:
			// Skip work the user has already paged past.
			if !s.isLatest(req) {
				continue
			}

			img, err := req.render()

			// The request may have gone stale while rendering; drop the
			// result rather than deliver out of order.
			if !s.isLatest(req) {
				continue
			}

			result := Result{
				BookID:     req.bookID,
				Page:       req.page,
				Generation: req.generation,
				Image:      img,
				Err:        err,
			}
			select {
			case s.results <- result:
			case <-ctx.Done():
				return
			}
		}
	}
}
