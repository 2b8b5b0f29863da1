package database

import (
	"fmt"
	"log"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/shelf/internal/entities"
)

type Database struct {
	DB *gorm.DB
}

// NewDatabase opens (creating if necessary) the library database at dbPath,
// runs migrations and seeds the default collections.
func NewDatabase(dbPath string) (*Database, error) {
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	err = db.AutoMigrate(
		&entities.Collection{},
		&entities.Book{},
		&entities.CollectionMembership{},
		&entities.ReadingPosition{},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	database := &Database{DB: db}

	if err := database.seedCollections(); err != nil {
		return nil, fmt.Errorf("failed to seed collections: %w", err)
	}

	log.Printf("Database initialized successfully at %s", dbPath)

	return database, nil
}

func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (d *Database) seedCollections() error {
	for _, collection := range entities.DefaultCollections {
		var existing entities.Collection
		result := d.DB.Where("name = ?", collection.Name).First(&existing)
		if result.Error == gorm.ErrRecordNotFound {
			if err := d.DB.Create(&collection).Error; err != nil {
				return fmt.Errorf("failed to create collection %s: %w", collection.Name, err)
			}
			log.Printf("Created collection: %s", collection.DisplayName)
		}
	}
	return nil
}

// GetCollections returns all collections in creation order.
func (d *Database) GetCollections() ([]entities.Collection, error) {
	var collections []entities.Collection
	err := d.DB.Order("id ASC").Find(&collections).Error
	return collections, err
}

// IsKnownCollection reports whether name is one of the seeded collections.
func (d *Database) IsKnownCollection(name string) (bool, error) {
	var count int64
	err := d.DB.Model(&entities.Collection{}).Where("name = ?", name).Count(&count).Error
	return count > 0, err
}
