package entrypoint

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mrlokans/shelf/internal/config"
	"github.com/mrlokans/shelf/internal/content"
	"github.com/mrlokans/shelf/internal/covers"
	"github.com/mrlokans/shelf/internal/database"
	"github.com/mrlokans/shelf/internal/database/books"
	"github.com/mrlokans/shelf/internal/database/collections"
	"github.com/mrlokans/shelf/internal/database/progress"
	http_controllers "github.com/mrlokans/shelf/internal/http"
	"github.com/mrlokans/shelf/internal/importer"
	"github.com/mrlokans/shelf/internal/pagecache"
	"github.com/mrlokans/shelf/internal/reader"
	"github.com/mrlokans/shelf/internal/render"
	"github.com/mrlokans/shelf/internal/scheduler"
	"github.com/mrlokans/shelf/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler: router,
	}

	go func() {
		fmt.Printf("Starting server at %s:%d\n", cfg.HTTP.Host, cfg.HTTP.Port)
		// service connections
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown Server, waiting %v before killing\n", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Flush sessions and stop workers before cutting off the listener
	if onShutdown != nil {
		onShutdown(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server Shutdown:", err)
	}

	log.Println("Server exiting")
}

func Run(cfg *config.Config, version string) {
	log.Printf("Starting Shelf v%s", version)

	// Initialize database
	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	bookRepo := books.NewRepository(db.DB)
	collectionRepo := collections.NewRepository(db.DB)
	progressRepo := progress.NewRepository(db.DB)

	// Cover cache for extracted cover images
	coverCacheDir := cfg.Cache.CoversDir
	if coverCacheDir == "" {
		coverCacheDir = filepath.Join(filepath.Dir(cfg.Database.Path), config.DefaultCoversDirName)
	}
	coverCache, err := covers.NewCache(coverCacheDir)
	if err != nil {
		log.Printf("WARNING: Failed to initialize cover cache: %v", err)
		coverCache = nil
	} else {
		log.Printf("Cover cache initialized at %s", coverCacheDir)
	}

	// In-memory cache for rendered pages
	pageCache, err := pagecache.New(cfg.Cache.PageCacheSize)
	if err != nil {
		log.Fatalf("Failed to initialize page cache: %v", err)
	}

	// Content opener at the configured viewport
	opener := content.NewOpener(content.Viewport{
		Width:  cfg.Viewport.Width,
		Height: cfg.Viewport.Height,
	})

	// Background page rendering
	renders := render.NewService(cfg.Render.Workers, cfg.Render.QueueDepth)
	renderCtx, renderCancel := context.WithCancel(context.Background())
	renders.Start(renderCtx)

	// Reading sessions
	manager := reader.NewManager(bookRepo, progressRepo, opener, renders, pageCache, cfg.Render.SaveDelay)
	go manager.Run(renderCtx)

	// Initialize task queue if enabled
	var taskClient *tasks.Client
	var taskCtxCancel context.CancelFunc
	if cfg.Tasks.Enabled {
		taskCfg := tasks.Config{
			Workers:         cfg.Tasks.Workers,
			ReleaseAfter:    cfg.Tasks.ReleaseAfter,
			CleanupInterval: cfg.Tasks.CleanupInterval,
		}

		taskClient, err = tasks.NewClient(cfg.Database.Path, taskCfg)
		if err != nil {
			log.Fatalf("Failed to initialize task queue: %v", err)
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				log.Printf("Error closing task client: %v", err)
			}
		}()

		scanner := &tasks.Scanner{
			Books:  bookRepo,
			Opener: opener,
			Client: taskClient,
		}
		if coverCache != nil {
			scanner.Covers = coverCache
		}
		taskClient.Register(
			tasks.NewScanBookQueue(scanner),
			tasks.NewScanAllBooksQueue(scanner),
		)

		var taskCtx context.Context
		taskCtx, taskCtxCancel = context.WithCancel(context.Background())
		go taskClient.Start(taskCtx)
	}

	// Importer; scans are queued only when the task queue is running
	var scans importer.ScanEnqueuer
	if taskClient != nil {
		scans = taskClient
	}
	bookImporter := importer.New(bookRepo, opener, scans)

	// Periodic rescans
	var rescan *scheduler.RescanScheduler
	if cfg.Rescan.Enabled && taskClient != nil {
		rescan = scheduler.NewRescanScheduler(taskClient, bookRepo, cfg.Rescan.Schedule)
		if err := rescan.Start(context.Background()); err != nil {
			log.Fatalf("Failed to start rescan scheduler: %v", err)
		}
	}

	// Build router configuration with all dependencies
	routerCfg := http_controllers.RouterConfig{
		Database:        db,
		BookStore:       bookRepo,
		Importer:        bookImporter,
		Positions:       progressRepo,
		CollectionStore: collectionRepo,
		ReaderManager:   manager,
		CoverCache:      coverCache,
		TaskClient:      taskClient,
		Version:         version,
	}

	router := http_controllers.NewRouter(routerCfg)

	// Shutdown callback for graceful cleanup. Sessions flush their reading
	// positions before the database goes away.
	onShutdown := func(ctx context.Context) {
		if rescan != nil {
			rescan.Stop()
		}
		manager.CloseAll()
		renderCancel()
		renders.Stop()
		if taskClient != nil && taskCtxCancel != nil {
			taskClient.Stop(ctx)
			taskCtxCancel()
		}
	}

	Serve(router, cfg, onShutdown)
}
