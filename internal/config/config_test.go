package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewConfig_Defaults(t *testing.T) {
	cfg := NewConfig()

	assert.Equal(t, int32(8288), cfg.HTTP.Port)
	assert.Equal(t, "127.0.0.1", cfg.HTTP.Host)
	assert.Equal(t, DefaultDatabasePath, cfg.Database.Path)
	assert.Equal(t, 64, cfg.Cache.PageCacheSize)
	assert.Equal(t, 2, cfg.Render.Workers)
	assert.Equal(t, 500*time.Millisecond, cfg.Render.SaveDelay)
	assert.Equal(t, 900, cfg.Viewport.Width)
	assert.Equal(t, 1200, cfg.Viewport.Height)
	assert.True(t, cfg.Tasks.Enabled)
	assert.True(t, cfg.Rescan.Enabled)
	assert.Equal(t, "0 * * * *", cfg.Rescan.Schedule)
}

func TestNewConfig_EnvironmentOverrides(t *testing.T) {
	t.Setenv("SHELF_PORT", "9100")
	t.Setenv("SHELF_DATABASE_PATH", "/data/library.db")
	t.Setenv("SHELF_PAGE_CACHE_SIZE", "128")
	t.Setenv("SHELF_TASKS_ENABLED", "false")

	cfg := NewConfig()

	assert.Equal(t, int32(9100), cfg.HTTP.Port)
	assert.Equal(t, "/data/library.db", cfg.Database.Path)
	assert.Equal(t, 128, cfg.Cache.PageCacheSize)
	assert.False(t, cfg.Tasks.Enabled)
}
