package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWithoutFile(t *testing.T) {
	cfg, err := Load(viper.New(), t.TempDir())
	require.NoError(t, err)

	require.Equal(t, "development", cfg.AppEnv)
	require.Equal(t, "sqlite", cfg.Database.Type)
	require.Equal(t, "UTC", cfg.Recurrence.DefaultTimezone)
	require.Equal(t, int64(1), cfg.Snowflake.NodeID)
	require.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	require.False(t, cfg.Recurrence.PublishEvents)
}

func TestLoadFileAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	content := []byte(`
APP_ENV: production
DATABASE:
  TYPE: postgres
  HOST: db.internal
  DBNAME: todo
RECURRENCE:
  DEFAULT_TIMEZONE: Asia/Tokyo
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), content, 0o600))

	t.Setenv("DATABASE_HOST", "db.override")
	t.Setenv("RECURRENCE_PUBLISH_EVENTS", "true")

	cfg, err := Load(viper.New(), dir)
	require.NoError(t, err)

	require.Equal(t, "production", cfg.AppEnv)
	require.Equal(t, "postgres", cfg.Database.Type)
	require.Equal(t, "db.override", cfg.Database.Host)
	require.Equal(t, "todo", cfg.Database.DBNAME)
	require.Equal(t, "Asia/Tokyo", cfg.Recurrence.DefaultTimezone)
	require.True(t, cfg.Recurrence.PublishEvents)
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("DATABASE: [unterminated"), 0o600))

	_, err := Load(viper.New(), dir)
	require.Error(t, err)
}
