// Package reader tracks the currently open books: their content handles,
// the page the user is on, and persisting that position back to the store.
package reader

import (
	"context"
	"fmt"
	"image"
	"log"
	"sync"
	"time"

	"github.com/mrlokans/shelf/internal/content"
	"github.com/mrlokans/shelf/internal/entities"
	"github.com/mrlokans/shelf/internal/pagecache"
	"github.com/mrlokans/shelf/internal/render"
)

// DefaultSaveDelay is how long a position change may sit in memory before
// it is flushed. Close always flushes synchronously.
const DefaultSaveDelay = 500 * time.Millisecond

// BookStore is the catalog access the reader needs.
type BookStore interface {
	GetBookByID(id uint) (*entities.Book, error)
	UpdatePageCount(id uint, totalPages int) error
}

// PositionStore persists reading positions.
type PositionStore interface {
	GetReadingPosition(bookID uint) (*entities.ReadingPosition, error)
	SaveReadingPosition(bookID uint, pageIndex, totalPages int) error
}

// Opener opens book files at a fixed viewport. *content.Opener implements
// it.
type Opener interface {
	Open(path string) (content.Handle, error)
	Viewport() content.Viewport
}

// Manager owns the open sessions and the shared render/cache plumbing.
// One session exists per open book; opening an already open book returns
// the existing session.
type Manager struct {
	books     BookStore
	positions PositionStore
	opener    Opener
	renders   *render.Service
	cache     *pagecache.Cache
	saveDelay time.Duration

	mu         sync.Mutex
	sessions   map[uint]*Session
	generation uint64 // viewport generation, bumped on viewport change
}

// NewManager wires the reading session layer together.
func NewManager(books BookStore, positions PositionStore, opener Opener, renders *render.Service, cache *pagecache.Cache, saveDelay time.Duration) *Manager {
	if saveDelay <= 0 {
		saveDelay = DefaultSaveDelay
	}
	return &Manager{
		books:     books,
		positions: positions,
		opener:    opener,
		renders:   renders,
		cache:     cache,
		saveDelay: saveDelay,
		sessions:  make(map[uint]*Session),
	}
}

// Run drains completed renders into the page cache until ctx is cancelled.
// Call it from its own goroutine.
func (m *Manager) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case result := <-m.renders.Results():
			if result.Err != nil {
				log.Printf("Render failed for book %d page %d: %v", result.BookID, result.Page, result.Err)
				continue
			}
			m.cache.Put(pagecache.Key{
				BookID:     result.BookID,
				Page:       result.Page,
				Generation: result.Generation,
			}, result.Image)
		}
	}
}

// Open loads the last reading position for a book (page 0 if it was never
// opened) and returns its session. Returns database.ErrNotFound (via the
// store) for unknown ids and content open errors unchanged.
func (m *Manager) Open(bookID uint) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if session, ok := m.sessions[bookID]; ok {
		return session, nil
	}

	book, err := m.books.GetBookByID(bookID)
	if err != nil {
		return nil, err
	}

	handle, err := m.opener.Open(book.FilePath)
	if err != nil {
		return nil, err
	}

	pageCount := handle.PageCount()
	if book.TotalPages != pageCount {
		// Page count settles on first open; EPUB counts also drift with
		// the layout.
		if err := m.books.UpdatePageCount(bookID, pageCount); err != nil {
			log.Printf("Failed to record page count for book %d: %v", bookID, err)
		}
	}

	pageIndex := 0
	position, err := m.positions.GetReadingPosition(bookID)
	if err != nil {
		handle.Close()
		return nil, err
	}
	if position != nil {
		pageIndex = clamp(position.PageIndex, pageCount)
	}

	session := &Session{
		manager:   m,
		bookID:    bookID,
		handle:    handle,
		pageCount: pageCount,
		pageIndex: pageIndex,
	}
	m.sessions[bookID] = session
	return session, nil
}

// Get returns the session for a book if it is open.
func (m *Manager) Get(bookID uint) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.sessions[bookID]
	return session, ok
}

// Close flushes and closes the session for a book. Closing a book that is
// not open is a no-op.
func (m *Manager) Close(bookID uint) error {
	m.mu.Lock()
	session, ok := m.sessions[bookID]
	delete(m.sessions, bookID)
	m.mu.Unlock()

	if !ok {
		return nil
	}
	return session.Close()
}

// CloseAll flushes and closes every open session. Used at shutdown.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, session := range m.sessions {
		sessions = append(sessions, session)
	}
	m.sessions = make(map[uint]*Session)
	m.mu.Unlock()

	for _, session := range sessions {
		if err := session.Close(); err != nil {
			log.Printf("Error closing session for book %d: %v", session.bookID, err)
		}
	}
}

// SetViewport swaps in an opener for a new viewport. Open sessions are
// re-opened at the new layout and every cached render for them becomes
// unreachable via a new cache generation.
func (m *Manager) SetViewport(opener Opener) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.opener = opener
	m.generation++

	for bookID, session := range m.sessions {
		m.cache.InvalidateBook(bookID)
		// Queued renders still hold the old handle; mark them stale before
		// relayout closes it so workers skip them.
		m.renders.Forget(bookID)
		if err := session.relayout(m.opener); err != nil {
			return fmt.Errorf("relayout book %d: %w", bookID, err)
		}
	}
	return nil
}

// Generation returns the current viewport generation.
func (m *Manager) Generation() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.generation
}

// InvalidateBook drops cached renders and in-flight requests for a book.
// Called when a book is removed from the library.
func (m *Manager) InvalidateBook(bookID uint) {
	m.cache.InvalidateBook(bookID)
	m.renders.Forget(bookID)
}

// Session is one open book. State machine: Closed -> Open -> Closed, with
// GoToPage a self-transition on Open.
type Session struct {
	manager *Manager
	bookID  uint

	mu        sync.Mutex
	handle    content.Handle
	pageCount int
	pageIndex int
	dirty     bool
	saveTimer *time.Timer
	closed    bool

	renderMu sync.Mutex // serializes handle access between workers and Page
}

// BookID returns the book this session reads.
func (s *Session) BookID() uint {
	return s.bookID
}

// PageIndex returns the current page.
func (s *Session) PageIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pageIndex
}

// PageCount returns the page count for the current layout.
func (s *Session) PageCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pageCount
}

// GoToPage moves to the given page, clamped to the valid range. The render
// happens on a background worker and a position write is scheduled; writes
// are throttled so fast page flipping does not hammer the store. Returns
// the page actually landed on.
func (s *Session) GoToPage(index int) int {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return 0
	}

	index = clamp(index, s.pageCount)
	s.pageIndex = index
	s.dirty = true

	if s.saveTimer == nil {
		s.saveTimer = time.AfterFunc(s.manager.saveDelay, s.flush)
	} else {
		s.saveTimer.Reset(s.manager.saveDelay)
	}

	handle := s.handle
	s.mu.Unlock()

	// Read the generation outside the session lock; SetViewport locks the
	// manager first and then each session.
	generation := s.manager.Generation()

	key := pagecache.Key{BookID: s.bookID, Page: index, Generation: generation}
	if _, ok := s.manager.cache.Get(key); ok {
		return index
	}

	s.manager.renders.Submit(s.bookID, index, generation, func() (image.Image, error) {
		s.renderMu.Lock()
		defer s.renderMu.Unlock()
		return handle.RenderPage(index)
	})
	return index
}

// Page renders a page immediately, through the cache. Unlike GoToPage it
// does not clamp: out-of-range indexes fail with content.ErrPageOutOfRange.
func (s *Session) Page(index int) (image.Image, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, fmt.Errorf("session closed")
	}
	handle := s.handle
	s.mu.Unlock()

	generation := s.manager.Generation()

	key := pagecache.Key{BookID: s.bookID, Page: index, Generation: generation}
	if img, ok := s.manager.cache.Get(key); ok {
		return img, nil
	}

	s.renderMu.Lock()
	img, err := handle.RenderPage(index)
	s.renderMu.Unlock()
	if err != nil {
		return nil, err
	}

	s.manager.cache.Put(key, img)
	return img, nil
}

// Cover returns the book's encoded cover image bytes, or nil if it has
// none.
func (s *Session) Cover() ([]byte, error) {
	s.renderMu.Lock()
	defer s.renderMu.Unlock()
	return s.handle.Cover()
}

// Close flushes any pending position write synchronously and releases the
// content handle. A closed session stays closed.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	if s.saveTimer != nil {
		s.saveTimer.Stop()
	}
	handle := s.handle
	s.mu.Unlock()

	s.flush()
	s.manager.renders.Forget(s.bookID)

	s.renderMu.Lock()
	defer s.renderMu.Unlock()
	return handle.Close()
}

// flush writes the position if it changed since the last save.
func (s *Session) flush() {
	s.mu.Lock()
	if !s.dirty {
		s.mu.Unlock()
		return
	}
	s.dirty = false
	pageIndex := s.pageIndex
	pageCount := s.pageCount
	s.mu.Unlock()

	if err := s.manager.positions.SaveReadingPosition(s.bookID, pageIndex, pageCount); err != nil {
		log.Printf("Failed to save reading position for book %d: %v", s.bookID, err)
	}
}

// relayout swaps the handle for one laid out at the new viewport, keeping
// the reading position proportionally close to where the user was.
func (s *Session) relayout(opener Opener) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	book, err := s.manager.books.GetBookByID(s.bookID)
	if err != nil {
		return err
	}

	handle, err := opener.Open(book.FilePath)
	if err != nil {
		return err
	}

	oldCount := s.pageCount
	oldIndex := s.pageIndex

	s.renderMu.Lock()
	s.handle.Close()
	s.handle = handle
	s.renderMu.Unlock()

	s.pageCount = handle.PageCount()
	if oldCount > 0 && s.pageCount != oldCount {
		s.pageIndex = clamp(oldIndex*s.pageCount/oldCount, s.pageCount)
	} else {
		s.pageIndex = clamp(oldIndex, s.pageCount)
	}
	return nil
}

// clamp limits index to [0, pageCount-1]; an unknown page count pins the
// index to 0.
func clamp(index, pageCount int) int {
	if pageCount <= 0 || index < 0 {
		return 0
	}
	if index >= pageCount {
		return pageCount - 1
	}
	return index
}
