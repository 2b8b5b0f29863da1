// Package progress provides database operations for per-book reading
// positions.
//
// This package implements the PositionStore interface defined in
// internal/reader/session.go.
package progress

import (
	"errors"

	"gorm.io/gorm"

	"github.com/mrlokans/shelf/internal/database"
	"github.com/mrlokans/shelf/internal/entities"
)

// Repository handles all reading position database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new progress repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// GetReadingPosition returns the last-known position for a book, or nil if
// the book has never been opened.
func (r *Repository) GetReadingPosition(bookID uint) (*entities.ReadingPosition, error) {
	var position entities.ReadingPosition
	err := r.db.Where("book_id = ?", bookID).First(&position).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &position, nil
}

// SaveReadingPosition upserts the position for a book. Returns
// database.ErrNotFound if the book id is unknown.
func (r *Repository) SaveReadingPosition(bookID uint, pageIndex, totalPages int) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var book entities.Book
		if err := tx.First(&book, bookID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return database.ErrNotFound
			}
			return err
		}

		var position entities.ReadingPosition
		result := tx.Where("book_id = ?", bookID).First(&position)
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return tx.Create(&entities.ReadingPosition{
				BookID:     bookID,
				PageIndex:  pageIndex,
				TotalPages: totalPages,
			}).Error
		}
		if result.Error != nil {
			return result.Error
		}

		position.PageIndex = pageIndex
		position.TotalPages = totalPages
		return tx.Save(&position).Error
	})
}

// RecentlyRead returns books ordered by last position update, newest first.
// Books that have never been opened are not included.
func (r *Repository) RecentlyRead(limit int) ([]entities.Book, error) {
	var books []entities.Book
	query := r.db.Model(&entities.Book{}).
		Joins("JOIN reading_positions ON reading_positions.book_id = books.id").
		Order("reading_positions.updated_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&books).Error
	return books, err
}
