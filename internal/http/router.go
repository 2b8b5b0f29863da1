package http

import (
	"github.com/gin-gonic/gin"
)

// NewRouter creates and configures the HTTP router with all endpoints.
// Uses RouterConfig to receive all dependencies, improving testability
// and reducing parameter count.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	// Typed nils must not leak into the optional interfaces
	var sessions SessionCloser
	if cfg.ReaderManager != nil {
		sessions = cfg.ReaderManager
	}
	var coverRemover CoverRemover
	if cfg.CoverCache != nil {
		coverRemover = cfg.CoverCache
	}

	// Create controllers with appropriate interfaces
	health := NewHealthController(cfg.Database, cfg.Version)
	booksController := NewBooksController(cfg.BookStore, cfg.Importer, cfg.Positions, sessions, coverRemover)
	collectionsController := NewCollectionsController(cfg.CollectionStore, cfg.Database)
	var readerController *ReaderController
	if cfg.ReaderManager != nil {
		readerController = NewReaderController(cfg.ReaderManager)
	}
	var coversController *CoversController
	if cfg.CoverCache != nil {
		coversController = NewCoversController(cfg.CoverCache, cfg.BookStore)
	}

	// Health endpoints
	router.GET("/health", health.Status)
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	// Catalog endpoints
	router.POST("/api/books/import", booksController.ImportBook)
	router.GET("/api/books", booksController.ListBooks)
	router.GET("/api/books/recent", booksController.RecentlyRead)
	router.GET("/api/books/added", booksController.RecentlyAdded)
	router.GET("/api/books/:id", booksController.GetBook)
	router.DELETE("/api/books/:id", booksController.DeleteBook)

	// Collection endpoints
	router.GET("/api/collections", collectionsController.ListCollections)
	router.GET("/api/books/:id/collections", collectionsController.BookCollections)
	router.POST("/api/books/:id/collections/:name", collectionsController.ToggleMembership)

	// Reading session endpoints
	if readerController != nil {
		router.POST("/api/books/:id/open", readerController.OpenBook)
		router.GET("/api/books/:id/page/:index", readerController.GetPage)
		router.PUT("/api/books/:id/position", readerController.UpdatePosition)
		router.POST("/api/books/:id/close", readerController.CloseBook)
		router.PUT("/api/viewport", readerController.SetViewport)
	}

	// Cover endpoint
	if coversController != nil {
		router.GET("/api/books/:id/cover", coversController.GetCover)
	}

	// Task management endpoints
	if cfg.TaskClient != nil {
		tasksController := NewTasksController(cfg.TaskClient, cfg.TaskClient)
		router.POST("/api/tasks/scan", tasksController.TriggerRescan)
		router.POST("/api/tasks/scan/:id", tasksController.TriggerBookScan)
		router.GET("/api/tasks/:id", tasksController.GetTaskStatus)
	}

	return router
}
