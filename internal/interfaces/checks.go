package interfaces

// This file contains compile-time interface implementation checks.
// These ensure that concrete types satisfy their interfaces at compile time,
// catching missing methods before runtime.
//
// To verify all checks pass: go build ./internal/interfaces/...

import (
	"github.com/mrlokans/shelf/internal/content"
	"github.com/mrlokans/shelf/internal/covers"
	"github.com/mrlokans/shelf/internal/database"
	"github.com/mrlokans/shelf/internal/database/books"
	"github.com/mrlokans/shelf/internal/database/collections"
	"github.com/mrlokans/shelf/internal/database/progress"
	"github.com/mrlokans/shelf/internal/http"
	"github.com/mrlokans/shelf/internal/importer"
	"github.com/mrlokans/shelf/internal/reader"
	"github.com/mrlokans/shelf/internal/scheduler"
	"github.com/mrlokans/shelf/internal/tasks"
)

// =============================================================================
// Data Access Layer
// =============================================================================

// BookStore implementations
var _ http.BookStore = (*books.Repository)(nil)
var _ importer.BookStore = (*books.Repository)(nil)
var _ reader.BookStore = (*books.Repository)(nil)
var _ tasks.BookStore = (*books.Repository)(nil)
var _ scheduler.BookLister = (*books.Repository)(nil)

// CollectionStore implementations
var _ http.CollectionStore = (*collections.Repository)(nil)
var _ http.CollectionCatalog = (*database.Database)(nil)

// Position store implementations
var _ http.PositionGetter = (*progress.Repository)(nil)
var _ reader.PositionStore = (*progress.Repository)(nil)

// =============================================================================
// Content Access
// =============================================================================

// Opener implementations
var _ importer.Opener = (*content.Opener)(nil)
var _ reader.Opener = (*content.Opener)(nil)
var _ tasks.Opener = (*content.Opener)(nil)

// =============================================================================
// Reading Sessions
// =============================================================================

var _ http.SessionCloser = (*reader.Manager)(nil)
var _ http.CoverRemover = (*covers.Cache)(nil)
var _ tasks.CoverCache = (*covers.Cache)(nil)

// =============================================================================
// Background Work
// =============================================================================

var _ importer.ScanEnqueuer = (*tasks.Client)(nil)
var _ scheduler.Enqueuer = (*tasks.Client)(nil)
var _ http.RescanEnqueuer = (*tasks.Client)(nil)
