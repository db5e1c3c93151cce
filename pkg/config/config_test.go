package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/kardex-api/pkg/config"
)

func TestLoad_ValoresPorDefecto(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := config.Load()

	require.NoError(t, err)
	assert.Equal(t, "development", cfg.App.Env)
	assert.Equal(t, 5432, cfg.DB.Port)
	assert.Equal(t, -5, cfg.Report.UTCOffsetHours)
	assert.Equal(t, 5*time.Minute, cfg.Redis.TTL)
	assert.False(t, cfg.Redis.Enabled())
	assert.Equal(t, 4, cfg.Reconcile.Concurrency)
	assert.Equal(t, config.StoragePostgres, cfg.App.Storage)
}

func TestLoad_DesdeEntorno(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("REPORT_UTC_OFFSET_HOURS", "-3")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("DB_MAX_CONNS", "10")
	t.Setenv("DB_AUTO_MIGRATE", "false")
	t.Setenv("APP_STORAGE", "Memory")

	cfg, err := config.Load()

	require.NoError(t, err)
	assert.Equal(t, -3, cfg.Report.UTCOffsetHours)
	assert.True(t, cfg.Redis.Enabled())
	assert.Equal(t, 10, cfg.DB.MaxConns)
	assert.False(t, cfg.DB.AutoMigrate)
	assert.Equal(t, config.StorageMemory, cfg.App.Storage)
}

func TestLoad_StorageInvalido(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("APP_STORAGE", "sqlite")

	_, err := config.Load()
	assert.Error(t, err)
}

func TestLoad_DesfaseInvalido(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("REPORT_UTC_OFFSET_HOURS", "20")

	_, err := config.Load()
	assert.Error(t, err)
}

func TestDBConfig_DSN(t *testing.T) {
	c := config.DBConfig{Host: "db", Port: 5432, User: "app", Password: "p@ss", DBName: "kardex", SSLMode: "disable"}
	assert.Equal(t, "postgres://app:p%40ss@db:5432/kardex?sslmode=disable", c.ConnectionString())

	c.DatabaseURL = "postgres://x"
	assert.Equal(t, "postgres://x", c.ConnectionString())
}
