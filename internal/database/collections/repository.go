// Package collections provides database operations for collection
// membership management.
//
// This package implements the CollectionStore interface defined in
// internal/http/collections.go.
package collections

import (
	"errors"

	"gorm.io/gorm"

	"github.com/mrlokans/shelf/internal/database"
	"github.com/mrlokans/shelf/internal/entities"
)

// Repository handles all collection membership database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new collections repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ToggleMembership adds the book to the collection if absent, removes it if
// present. Returns the resulting membership state. Returns
// database.ErrNotFound if the book id is unknown.
func (r *Repository) ToggleMembership(bookID uint, collection string) (bool, error) {
	var member bool
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var book entities.Book
		if err := tx.First(&book, bookID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return database.ErrNotFound
			}
			return err
		}

		var existing entities.CollectionMembership
		result := tx.Where("book_id = ? AND collection = ?", bookID, collection).First(&existing)
		if result.Error == nil {
			member = false
			return tx.Delete(&existing).Error
		}
		if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return result.Error
		}

		member = true
		return tx.Create(&entities.CollectionMembership{
			BookID:     bookID,
			Collection: collection,
		}).Error
	})
	return member, err
}

// CollectionsForBook returns the collection names the book belongs to, in
// assignment order.
func (r *Repository) CollectionsForBook(bookID uint) ([]string, error) {
	var memberships []entities.CollectionMembership
	err := r.db.Where("book_id = ?", bookID).Order("id ASC").Find(&memberships).Error
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(memberships))
	for _, m := range memberships {
		names = append(names, m.Collection)
	}
	return names, nil
}

// IsMember reports whether the book belongs to the collection.
func (r *Repository) IsMember(bookID uint, collection string) (bool, error) {
	var count int64
	err := r.db.Model(&entities.CollectionMembership{}).
		Where("book_id = ? AND collection = ?", bookID, collection).
		Count(&count).Error
	return count > 0, err
}

// MembershipCounts returns the number of books in each collection, keyed by
// collection name. Collections with no members are omitted.
func (r *Repository) MembershipCounts() (map[string]int64, error) {
	type row struct {
		Collection string
		Count      int64
	}
	var rows []row
	err := r.db.Model(&entities.CollectionMembership{}).
		Select("collection, COUNT(*) as count").
		Group("collection").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.Collection] = r.Count
	}
	return counts, nil
}
