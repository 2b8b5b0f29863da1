package http

import (
	"github.com/mrlokans/shelf/internal/covers"
	"github.com/mrlokans/shelf/internal/database"
	"github.com/mrlokans/shelf/internal/reader"
	"github.com/mrlokans/shelf/internal/tasks"
)

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router. This replaces the long parameter list
// in NewRouter for better maintainability.
type RouterConfig struct {
	// Core dependencies
	Database        *database.Database
	BookStore       BookStore
	Importer        BookImporter
	Positions       PositionGetter
	CollectionStore CollectionStore

	// Reading sessions
	ReaderManager *reader.Manager

	// Cover caching
	CoverCache *covers.Cache

	// Task queue client (optional; nil disables the task endpoints)
	TaskClient *tasks.Client

	// Application info
	Version string
}
