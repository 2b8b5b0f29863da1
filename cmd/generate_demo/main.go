// Command generate_demo creates a demo library database with a catalog of
// public domain books, collection memberships and reading positions. The
// file paths point nowhere; the demo is for browsing the catalog API, not
// for rendering pages.
// Usage: go run cmd/generate_demo/main.go [-db path/to/demo.db]
package main

import (
	"flag"
	"log"
	"os"

	"github.com/mrlokans/shelf/internal/database"
	"github.com/mrlokans/shelf/internal/database/books"
	"github.com/mrlokans/shelf/internal/database/collections"
	"github.com/mrlokans/shelf/internal/database/progress"
	"github.com/mrlokans/shelf/internal/entities"
)

const defaultDemoDatabasePath = "./demo/demo.db"

func main() {
	dbPath := flag.String("db", defaultDemoDatabasePath, "path to the demo database file")
	flag.Parse()

	log.Printf("Generating demo database at %s...", *dbPath)

	// Delete existing demo database to start fresh
	if err := os.Remove(*dbPath); err != nil && !os.IsNotExist(err) {
		log.Fatalf("Failed to remove existing demo database: %v", err)
	}

	db, err := database.NewDatabase(*dbPath)
	if err != nil {
		log.Fatalf("Failed to create database: %v", err)
	}
	defer db.Close()

	bookRepo := books.NewRepository(db.DB)
	collectionRepo := collections.NewRepository(db.DB)
	progressRepo := progress.NewRepository(db.DB)

	for _, cfg := range demoBooks() {
		book, err := bookRepo.AddBook(cfg.Book)
		if err != nil {
			log.Printf("Failed to save book %s: %v", cfg.Book.Title, err)
			continue
		}
		log.Printf("Saved: %s by %s", book.Title, book.Author)

		for _, name := range cfg.Collections {
			if _, err := collectionRepo.ToggleMembership(book.ID, name); err != nil {
				log.Printf("Failed to add %s to %s: %v", book.Title, name, err)
			}
		}

		if cfg.PageIndex > 0 {
			if err := progressRepo.SaveReadingPosition(book.ID, cfg.PageIndex, book.TotalPages); err != nil {
				log.Printf("Failed to save position for %s: %v", book.Title, err)
			}
		}
	}

	log.Println("Demo database generated successfully!")
}

// BookConfig holds a book with its collection names and reading position.
type BookConfig struct {
	Book        entities.Book
	Collections []string
	PageIndex   int
}

func demoBooks() []BookConfig {
	return []BookConfig{
		{
			Book: entities.Book{
				Title:      "Meditations",
				Author:     "Marcus Aurelius",
				FilePath:   "/demo/library/meditations.epub",
				Format:     entities.FormatEPUB,
				TotalPages: 254,
			},
			Collections: []string{entities.CollectionFavorites, entities.CollectionFinished},
			PageIndex:   253,
		},
		{
			Book: entities.Book{
				Title:      "The Time Machine",
				Author:     "H. G. Wells",
				FilePath:   "/demo/library/the-time-machine.epub",
				Format:     entities.FormatEPUB,
				TotalPages: 118,
			},
			Collections: []string{entities.CollectionCurrentlyReading},
			PageIndex:   37,
		},
		{
			Book: entities.Book{
				Title:      "Frankenstein; or, The Modern Prometheus",
				Author:     "Mary Shelley",
				FilePath:   "/demo/library/frankenstein.epub",
				Format:     entities.FormatEPUB,
				TotalPages: 312,
			},
			Collections: []string{entities.CollectionCurrentlyReading, entities.CollectionFavorites},
			PageIndex:   145,
		},
		{
			Book: entities.Book{
				Title:      "On the Origin of Species",
				Author:     "Charles Darwin",
				FilePath:   "/demo/library/origin-of-species.pdf",
				Format:     entities.FormatPDF,
				TotalPages: 502,
			},
			Collections: []string{entities.CollectionWantToRead},
		},
		{
			Book: entities.Book{
				Title:    "The Adventures of Sherlock Holmes",
				Author:   "Arthur Conan Doyle",
				FilePath: "/demo/library/sherlock-holmes.epub",
				Format:   entities.FormatEPUB,
				// Never opened; the page count settles on first open
			},
			Collections: []string{entities.CollectionWantToRead},
		},
		{
			Book: entities.Book{
				Title:      "Relativity: The Special and General Theory",
				Author:     "Albert Einstein",
				FilePath:   "/demo/library/relativity.pdf",
				Format:     entities.FormatPDF,
				TotalPages: 168,
			},
			Collections: []string{entities.CollectionFinished},
			PageIndex:   167,
		},
	}
}
