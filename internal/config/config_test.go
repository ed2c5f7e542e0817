package config

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := LoadConfig(context.Background())
		require.NoError(t, err)

		assert.Equal(t, 8080, cfg.ServerPort)
		assert.Equal(t, "postgres", cfg.DB.Driver)
		assert.Equal(t, 25, cfg.DB.MaxOpenConns)
		assert.Equal(t, 30*time.Minute, cfg.DB.ConnMaxLifetime)
		assert.False(t, cfg.MinIO.Enabled)
		assert.Equal(t, []string{"Nottingham", "Malta", "Alsace", "Vienna", "Athens"}, cfg.ProgramNames())
	})

	t.Run("environment overrides", func(t *testing.T) {
		t.Setenv("SERVER_PORT", "9090")
		t.Setenv("DB_DRIVER", "sqlite3")
		t.Setenv("PROGRAMS", "Japan; Spain;;")
		t.Setenv("HASH_WORKERS", "2")

		cfg, err := LoadConfig(context.Background())
		require.NoError(t, err)

		assert.Equal(t, 9090, cfg.ServerPort)
		assert.Equal(t, "sqlite3", cfg.DB.Driver)
		assert.Equal(t, []string{"Japan", "Spain"}, cfg.ProgramNames())
		assert.Equal(t, 2, cfg.Security.HashWorkers)
	})

	t.Run("invalid value", func(t *testing.T) {
		t.Setenv("SERVER_PORT", "not-a-port")

		_, err := LoadConfig(context.Background())
		assert.Error(t, err)
	})
}

func TestDataSourceName(t *testing.T) {
	assert.Equal(t, "file:reviews.db?_foreign_keys=on", DB{Driver: "sqlite3", Name: "reviews"}.DataSourceName())
	assert.Equal(t, "custom", DB{Driver: "postgres", DSN: "custom"}.DataSourceName())
	assert.Equal(t,
		"host=h port=1 user=u password=p dbname=n sslmode=disable",
		DB{Driver: "postgres", Host: "h", Port: "1", User: "u", Password: "p", Name: "n", SSLMode: "disable"}.DataSourceName(),
	)
}
