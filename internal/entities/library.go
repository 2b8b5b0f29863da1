package entities

import (
	"time"
)

type BookFormat string

const (
	FormatEPUB BookFormat = "epub"
	FormatPDF  BookFormat = "pdf"
)

// Collection names seeded on first run. Collections are plain tags:
// a book may belong to any number of them at once.
const (
	CollectionFavorites        = "favorites"
	CollectionWantToRead       = "want-to-read"
	CollectionCurrentlyReading = "currently-reading"
	CollectionFinished         = "finished"
)

// DefaultCollections lists the collections every library starts with.
var DefaultCollections = []Collection{
	{Name: CollectionFavorites, DisplayName: "Favorites"},
	{Name: CollectionWantToRead, DisplayName: "Want to Read"},
	{Name: CollectionCurrentlyReading, DisplayName: "Currently Reading"},
	{Name: CollectionFinished, DisplayName: "Finished"},
}

type Collection struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"uniqueIndex;size:50" json:"name"`
	DisplayName string    `gorm:"size:100" json:"display_name"`
	CreatedAt   time.Time `json:"created_at"`
}

type Book struct {
	ID     uint       `gorm:"primaryKey" json:"id"`
	Title  string     `gorm:"index;size:512" json:"title"`
	Author string     `gorm:"index;size:256;default:'Unknown'" json:"author"`
	// FilePath is the sole addressing key used to reopen content.
	FilePath  string     `gorm:"uniqueIndex;size:1024" json:"file_path"`
	Format    BookFormat `gorm:"size:10" json:"format"`
	CoverPath string     `gorm:"size:1024" json:"cover_path,omitempty"`
	// TotalPages is 0 until the book has been opened or scanned once.
	// For EPUB the value is layout-dependent and approximate.
	TotalPages int `json:"total_pages"`
	// ScannedAt is set when a background scan completed; books without it
	// are picked up by the next rescan sweep. A book can legitimately have
	// no cover, so an empty CoverPath alone does not mean unscanned.
	ScannedAt *time.Time `json:"scanned_at,omitempty"`

	Memberships []CollectionMembership `gorm:"foreignKey:BookID" json:"memberships,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CollectionMembership joins a book to a named collection.
type CollectionMembership struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	BookID     uint      `gorm:"uniqueIndex:idx_membership_book_collection;index" json:"book_id"`
	Collection string    `gorm:"uniqueIndex:idx_membership_book_collection;size:50" json:"collection"`
	CreatedAt  time.Time `json:"created_at"`
}

// ReadingPosition is the last-known progress for a book. At most one row
// per book.
type ReadingPosition struct {
	ID        uint `gorm:"primaryKey" json:"id"`
	BookID    uint `gorm:"uniqueIndex" json:"book_id"`
	PageIndex int  `json:"page_index"`
	// TotalPages records the page count at the time of the last save, so
	// progress percentages stay meaningful if the layout changes later.
	TotalPages int       `json:"total_pages"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Progress returns the reading progress as a fraction in [0, 1].
func (p ReadingPosition) Progress() float64 {
	if p.TotalPages <= 0 {
		return 0
	}
	return float64(p.PageIndex+1) / float64(p.TotalPages)
}

func (Book) TableName() string {
	return "books"
}

func (Collection) TableName() string {
	return "collections"
}

func (CollectionMembership) TableName() string {
	return "collection_memberships"
}

func (ReadingPosition) TableName() string {
	return "reading_positions"
}
