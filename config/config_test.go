package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/farmlink/config"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, "site.db", cfg.DatabaseURL)
	assert.Equal(t, 10, cfg.ItemsPerPage)
	assert.Equal(t, 30*time.Minute, cfg.TokenTTL)
	assert.Equal(t, 587, cfg.Mail.Port)
	assert.True(t, cfg.Mail.UseTLS)
	assert.Equal(t, "local", cfg.Storage.Disk)
	assert.True(t, cfg.InsecureSecret())
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, "http://localhost:8080", cfg.AppURL)
}

func TestLoadFromEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	body := "ITEMS_PER_PAGE=25\nDB_DRIVER=Postgres\nFARMLINK_TEST_ONLY=1\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("ITEMS_PER_PAGE")
		os.Unsetenv("DB_DRIVER")
		os.Unsetenv("FARMLINK_TEST_ONLY")
	})

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, 25, cfg.ItemsPerPage)
	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Contains(t, cfg.DatabaseURL, "dbname=farmlink")
}

func TestLoadMissingEnvFileIsFine(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "absent.env"))
	require.NoError(t, err)
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	t.Setenv("DB_DRIVER", "oracle")

	_, err := config.Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "oracle")
}

func TestSQLiteURLPrefixStripped(t *testing.T) {
	t.Setenv("DATABASE_URL", "sqlite:///farm.db")

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, "farm.db", cfg.DatabaseURL)
}

func TestProductionDetection(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("SECRET_KEY", "real-secret")

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
	assert.False(t, cfg.InsecureSecret())
}
