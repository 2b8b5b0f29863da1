// Package books provides database operations for the book catalog.
//
// This package implements the BookStore interface defined in internal/http/books.go.
//
// # Interface Implementation
//
//	var _ http.BookStore = (*Repository)(nil)
//
// # Usage
//
//	repo := books.NewRepository(db)
//	book, err := repo.AddBook(entities.Book{Title: "...", FilePath: "..."})
package books

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/shelf/internal/database"
	"github.com/mrlokans/shelf/internal/entities"
)

// Sort orders supported by ListBooks.
const (
	SortAdded  = "added" // insertion order, oldest first (default)
	SortTitle  = "title"
	SortNewest = "newest" // most recently added first
)

// Filter restricts the books returned by ListBooks. The zero value matches
// everything.
type Filter struct {
	Collection string // restrict to members of this collection
	Query      string // case-insensitive substring over title/author
	Sort       string // one of the Sort* constants
	Limit      int
	Offset     int
}

// Repository handles all book catalog database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new books repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// AddBook inserts a new catalog entry and returns it with its identifier
// set. Returns database.ErrDuplicateBook if the file path is already
// cataloged.
func (r *Repository) AddBook(book entities.Book) (*entities.Book, error) {
	var existing entities.Book
	result := r.db.Where("file_path = ?", book.FilePath).First(&existing)
	if result.Error == nil {
		return nil, database.ErrDuplicateBook
	}
	if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, result.Error
	}

	if book.Author == "" {
		book.Author = "Unknown"
	}

	if err := r.db.Create(&book).Error; err != nil {
		return nil, fmt.Errorf("create book: %w", err)
	}
	return &book, nil
}

// GetBookByID returns a single book with its collection memberships.
// Returns database.ErrNotFound if the id is unknown.
func (r *Repository) GetBookByID(id uint) (*entities.Book, error) {
	var book entities.Book
	err := r.db.Preload("Memberships").First(&book, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, database.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// GetBookByPath returns the book cataloged under the given file path.
// Returns database.ErrNotFound if the path is unknown.
func (r *Repository) GetBookByPath(path string) (*entities.Book, error) {
	var book entities.Book
	err := r.db.Where("file_path = ?", path).First(&book).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, database.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// ListBooks returns books matching the filter. Insertion order unless the
// filter requests otherwise.
func (r *Repository) ListBooks(filter Filter) ([]entities.Book, int64, error) {
	query := r.db.Model(&entities.Book{})

	if filter.Collection != "" {
		query = query.Joins(
			"JOIN collection_memberships ON collection_memberships.book_id = books.id AND collection_memberships.collection = ?",
			filter.Collection,
		)
	}

	if filter.Query != "" {
		pattern := "%" + filter.Query + "%"
		query = query.Where("LOWER(title) LIKE LOWER(?) OR LOWER(author) LIKE LOWER(?)", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	switch filter.Sort {
	case SortTitle:
		query = query.Order("title COLLATE NOCASE ASC")
	case SortNewest:
		query = query.Order("books.id DESC")
	default:
		query = query.Order("books.id ASC")
	}

	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var books []entities.Book
	err := query.Preload("Memberships").Find(&books).Error
	return books, total, err
}

// RecentlyAdded returns the most recently cataloged books.
func (r *Repository) RecentlyAdded(limit int) ([]entities.Book, error) {
	var books []entities.Book
	err := r.db.Order("id DESC").Limit(limit).Find(&books).Error
	return books, err
}

// UpdatePageCount records the page count discovered by a scan.
func (r *Repository) UpdatePageCount(id uint, totalPages int) error {
	return r.db.Model(&entities.Book{}).
		Where("id = ?", id).
		Update("total_pages", totalPages).Error
}

// SetCoverPath records the location of the extracted cover image.
func (r *Repository) SetCoverPath(id uint, coverPath string) error {
	return r.db.Model(&entities.Book{}).
		Where("id = ?", id).
		Update("cover_path", coverPath).Error
}

// MarkScanned records that a background scan completed for the book, so
// rescan sweeps stop reopening it. Books that genuinely have no cover stay
// marked rather than being rescanned forever.
func (r *Repository) MarkScanned(id uint) error {
	return r.db.Model(&entities.Book{}).
		Where("id = ?", id).
		Update("scanned_at", time.Now()).Error
}

// BooksMissingScan returns books whose page count is still unknown or that
// no completed scan has covered yet.
func (r *Repository) BooksMissingScan() ([]entities.Book, error) {
	var books []entities.Book
	err := r.db.Where("total_pages = 0 OR scanned_at IS NULL").Find(&books).Error
	return books, err
}

// RemoveBook deletes a book, its collection memberships and its reading
// position in one transaction. Removing an unknown id is a no-op.
func (r *Repository) RemoveBook(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("book_id = ?", id).Delete(&entities.CollectionMembership{}).Error; err != nil {
			return err
		}
		if err := tx.Where("book_id = ?", id).Delete(&entities.ReadingPosition{}).Error; err != nil {
			return err
		}
		return tx.Delete(&entities.Book{}, id).Error
	})
}

// CountBooks returns the total number of cataloged books.
func (r *Repository) CountBooks() (int64, error) {
	var count int64
	err := r.db.Model(&entities.Book{}).Count(&count).Error
	return count, err
}
