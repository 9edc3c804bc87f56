package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("PORT", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 15*time.Minute, cfg.JWTAccessExpiry)
	assert.Equal(t, 168*time.Hour, cfg.JWTRefreshExpiry)
	assert.Equal(t, 5, cfg.LoginRateLimit.Max)
	assert.Equal(t, 15*time.Minute, cfg.LoginRateLimit.Window)
	assert.Equal(t, 3, cfg.ResetRateLimit.Max)
	assert.Equal(t, time.Hour, cfg.ResetRateLimit.Window)
	assert.True(t, cfg.RequireEmailVerification)
}

func TestLoad_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
port: "9000"
jwt_access_expiry: 5m
db:
  host: db.internal
  name: planner
redis:
  addr: redis:6379
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("PORT", "")
	t.Setenv("DB_NAME", "planner_override")
	t.Setenv("REQUIRE_EMAIL_VERIFICATION", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, 5*time.Minute, cfg.JWTAccessExpiry)
	assert.Equal(t, "db.internal", cfg.DB.Host)
	assert.Equal(t, "planner_override", cfg.DB.Name)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.False(t, cfg.RequireEmailVerification)
}

func TestLoad_MissingFile(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "nope.yaml"))
	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_ProductionNeedsRealSecret(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")

	t.Setenv("JWT_SECRET", DefaultJWTSecret)
	_, err = Load()
	require.Error(t, err)

	t.Setenv("JWT_SECRET", "a-long-random-production-secret")
	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
}

func TestDSN(t *testing.T) {
	cfg := defaults()
	assert.Equal(t, "host=localhost port=5432 user=postgres password= dbname=zuzuplan sslmode=disable", cfg.DSN())

	cfg.DatabaseURL = "postgres://u:p@h/db"
	assert.Equal(t, "postgres://u:p@h/db", cfg.DSN())
}
