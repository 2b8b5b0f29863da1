package progress

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/shelf/internal/database"
	"github.com/mrlokans/shelf/internal/entities"
)

func setupTestDB(t *testing.T) (*gorm.DB, *Repository) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&entities.Book{},
		&entities.ReadingPosition{},
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})

	return db, NewRepository(db)
}

func createTestBook(t *testing.T, db *gorm.DB, title, path string) *entities.Book {
	book := &entities.Book{
		Title:    title,
		Author:   "Test Author",
		FilePath: path,
		Format:   entities.FormatPDF,
	}
	require.NoError(t, db.Create(book).Error)
	return book
}

func TestRepository_GetReadingPosition_NeverOpened(t *testing.T) {
	db, repo := setupTestDB(t)

	book := createTestBook(t, db, "Dune", "/library/dune.pdf")

	position, err := repo.GetReadingPosition(book.ID)
	require.NoError(t, err)
	assert.Nil(t, position)
}

func TestRepository_SaveReadingPosition_Upserts(t *testing.T) {
	db, repo := setupTestDB(t)

	book := createTestBook(t, db, "Dune", "/library/dune.pdf")

	require.NoError(t, repo.SaveReadingPosition(book.ID, 10, 400))

	position, err := repo.GetReadingPosition(book.ID)
	require.NoError(t, err)
	require.NotNil(t, position)
	assert.Equal(t, 10, position.PageIndex)
	assert.Equal(t, 400, position.TotalPages)

	// Second save updates the same row
	require.NoError(t, repo.SaveReadingPosition(book.ID, 25, 400))

	position, err = repo.GetReadingPosition(book.ID)
	require.NoError(t, err)
	require.NotNil(t, position)
	assert.Equal(t, 25, position.PageIndex)

	var count int64
	db.Model(&entities.ReadingPosition{}).Where("book_id = ?", book.ID).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestRepository_SaveReadingPosition_UnknownBook(t *testing.T) {
	_, repo := setupTestDB(t)

	err := repo.SaveReadingPosition(9999, 10, 400)
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestReadingPosition_Progress(t *testing.T) {
	assert.Equal(t, 0.0, entities.ReadingPosition{PageIndex: 5}.Progress(), "unknown page count")
	assert.InDelta(t, 0.5, entities.ReadingPosition{PageIndex: 199, TotalPages: 400}.Progress(), 0.001)
	assert.InDelta(t, 1.0, entities.ReadingPosition{PageIndex: 399, TotalPages: 400}.Progress(), 0.001)
}

func TestRepository_RecentlyRead(t *testing.T) {
	db, repo := setupTestDB(t)

	first := createTestBook(t, db, "Dune", "/library/dune.pdf")
	second := createTestBook(t, db, "Hyperion", "/library/hyperion.pdf")
	createTestBook(t, db, "Never Opened", "/library/unopened.pdf")

	require.NoError(t, repo.SaveReadingPosition(first.ID, 10, 400))
	time.Sleep(10 * time.Millisecond)
	require.NoError(t, repo.SaveReadingPosition(second.ID, 5, 300))

	books, err := repo.RecentlyRead(10)
	require.NoError(t, err)
	require.Len(t, books, 2, "never-opened books are excluded")
	assert.Equal(t, "Hyperion", books[0].Title)
	assert.Equal(t, "Dune", books[1].Title)

	// Reading the first book again moves it to the front
	time.Sleep(10 * time.Millisecond)
	require.NoError(t, repo.SaveReadingPosition(first.ID, 11, 400))

	books, err = repo.RecentlyRead(1)
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, "Dune", books[0].Title)
}
