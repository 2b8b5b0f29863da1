package cli

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/mrlokans/shelf/internal/config"
	"github.com/mrlokans/shelf/internal/content"
	"github.com/mrlokans/shelf/internal/database"
	"github.com/mrlokans/shelf/internal/database/books"
	"github.com/mrlokans/shelf/internal/importer"
)

// ImportBooksCommand bulk-imports book files into the library.
type ImportBooksCommand struct {
	Dir          string
	DatabasePath string
	Verbose      bool
}

// NewImportBooksCommand creates a new ImportBooksCommand
func NewImportBooksCommand() *ImportBooksCommand {
	return &ImportBooksCommand{}
}

// ParseFlags parses command line flags
func (cmd *ImportBooksCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("import", flag.ExitOnError)

	fs.StringVar(&cmd.Dir, "dir", ".", "Directory to scan for EPUB and PDF files")
	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the library database file")
	fs.BoolVar(&cmd.Verbose, "verbose", false, "Enable verbose logging")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s import [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Scan a directory recursively and catalog every EPUB and PDF found.\n")
		fmt.Fprintf(os.Stderr, "Files already in the library and files that do not parse are skipped.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s import -dir ~/Books\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s import -dir ~/Downloads -db ~/shelf/shelf.db -verbose\n", os.Args[0])
	}

	return fs.Parse(args)
}

// Run executes the import command
func (cmd *ImportBooksCommand) Run() error {
	fmt.Println("📚 Shelf Import")
	fmt.Println("===============")

	absDir, err := filepath.Abs(cmd.Dir)
	if err != nil {
		return fmt.Errorf("failed to get absolute path for directory: %w", err)
	}
	cmd.Dir = absDir

	if info, err := os.Stat(cmd.Dir); err != nil || !info.IsDir() {
		return fmt.Errorf("%s is not a directory", cmd.Dir)
	}

	db, err := database.NewDatabase(cmd.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	fmt.Printf("📁 Database: %s\n", cmd.DatabasePath)
	fmt.Printf("📁 Scanning: %s\n", cmd.Dir)

	opener := content.NewOpener(content.DefaultViewport)
	imp := importer.New(books.NewRepository(db.DB), opener, nil)

	var added, skipped, failed int
	err = filepath.WalkDir(cmd.Dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if _, err := content.FormatForPath(path); err != nil {
			return nil
		}

		book, err := imp.Import(path)
		switch {
		case errors.Is(err, database.ErrDuplicateBook):
			skipped++
			if cmd.Verbose {
				fmt.Printf("⏭️  Already cataloged: %s\n", path)
			}
		case err != nil:
			failed++
			fmt.Printf("⚠️  Failed to import %s: %v\n", path, err)
		default:
			added++
			if cmd.Verbose {
				fmt.Printf("➕ %s — %s (%d pages)\n", book.Title, book.Author, book.TotalPages)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	fmt.Printf("\n✅ Import complete: %d added, %d already cataloged, %d failed\n", added, skipped, failed)
	return nil
}
