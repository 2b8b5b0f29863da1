package config

import (
	"time"

	"github.com/spf13/viper"
)

type (
	Config struct {
		HTTP
		Database
		Cache
		Render
		Viewport
		Tasks
		Rescan
		Global
	}

	HTTP struct {
		Port int32
		Host string
	}
	Database struct {
		Path string
	}
	Cache struct {
		// PageCacheSize bounds the in-memory rendered page cache
		// (entry count).
		PageCacheSize int
		// CoversDir stores extracted cover images; defaults to a
		// "covers" directory next to the database file.
		CoversDir string
	}
	Render struct {
		Workers    int
		QueueDepth int
		// SaveDelay throttles reading position writes during fast
		// page flipping.
		SaveDelay time.Duration
	}
	Viewport struct {
		Width  int
		Height int
	}
	Tasks struct {
		Enabled         bool
		Workers         int
		ReleaseAfter    time.Duration
		CleanupInterval time.Duration
	}
	Rescan struct {
		Enabled  bool
		Schedule string // Cron format: "0 * * * *" = hourly
	}
	Global struct {
		ShutdownTimeoutInSeconds int
	}
)

func NewConfig() *Config {
	v := viper.New()
	v.SetEnvPrefix("shelf")
	v.AutomaticEnv()
	v.SetDefault("port", 8288)
	v.SetDefault("host", "127.0.0.1")
	v.SetDefault("shutdown_timeout_in_seconds", 2)
	v.SetDefault("database_path", DefaultDatabasePath)
	v.SetDefault("covers_dir", "")

	// Page cache defaults
	v.SetDefault("page_cache_size", 64)

	// Render defaults
	v.SetDefault("render_workers", 2)
	v.SetDefault("render_queue_depth", 16)
	v.SetDefault("position_save_delay", "500ms")

	// Viewport defaults (a two-page-spread panel)
	v.SetDefault("viewport_width", 900)
	v.SetDefault("viewport_height", 1200)

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 2)
	v.SetDefault("task_release_after", "10m")
	v.SetDefault("task_cleanup_interval", "1h")

	// Rescan defaults
	v.SetDefault("rescan_enabled", true)
	v.SetDefault("rescan_schedule", "0 * * * *") // Hourly at :00

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("port"),
			Host: v.GetString("host"),
		},
		Database: Database{
			Path: v.GetString("database_path"),
		},
		Cache: Cache{
			PageCacheSize: v.GetInt("page_cache_size"),
			CoversDir:     v.GetString("covers_dir"),
		},
		Render: Render{
			Workers:    v.GetInt("render_workers"),
			QueueDepth: v.GetInt("render_queue_depth"),
			SaveDelay:  v.GetDuration("position_save_delay"),
		},
		Viewport: Viewport{
			Width:  v.GetInt("viewport_width"),
			Height: v.GetInt("viewport_height"),
		},
		Tasks: Tasks{
			Enabled:         v.GetBool("tasks_enabled"),
			Workers:         v.GetInt("task_workers"),
			ReleaseAfter:    v.GetDuration("task_release_after"),
			CleanupInterval: v.GetDuration("task_cleanup_interval"),
		},
		Rescan: Rescan{
			Enabled:  v.GetBool("rescan_enabled"),
			Schedule: v.GetString("rescan_schedule"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("shutdown_timeout_in_seconds"),
		},
	}
}
