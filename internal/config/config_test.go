package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, "development", cfg.App.Environment)
	assert.Equal(t, "local", cfg.Storage.Provider)
	assert.Equal(t, 30*time.Minute, cfg.AccessTokenTTL())
	assert.False(t, cfg.IsProduction())
	assert.False(t, cfg.MailEnabled())
	assert.Equal(t, "0.0.0.0:8000", cfg.GetServerAddress())
	assert.Contains(t, cfg.GetDatabaseDSN(), "dbname=gst_billing")
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/billing")
	t.Setenv("CACHE_TTL_MINUTES", "3")
	t.Setenv("DEBUG", "true")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("SMTP_HOST", "smtp.example")
	t.Setenv("SMTP_FROM", "billing@example.com")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "postgres://u:p@db:5432/billing", cfg.GetDatabaseDSN())
	assert.Equal(t, 3*time.Minute, cfg.CacheTTL())
	assert.True(t, cfg.App.Debug)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSAllowedOrigins)
	assert.True(t, cfg.MailEnabled())
}

func TestLoad_InvalidIntFallsBackToDefault(t *testing.T) {
	t.Setenv("PORT", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8000, cfg.Server.Port)
}

func TestLoad_ProductionRequiresSecretKey(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")

	_, err := Load()
	require.Error(t, err)

	t.Setenv("SECRET_KEY", "a-real-secret")
	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
	assert.True(t, cfg.Auth.CookieSecure)
}

func TestLoad_S3RequiresBucket(t *testing.T) {
	t.Setenv("STORAGE_PROVIDER", "s3")

	_, err := Load()
	require.Error(t, err)

	t.Setenv("S3_BUCKET", "uploads")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "s3", cfg.Storage.Provider)
}

func TestLoad_RejectsUnknownStorageProvider(t *testing.T) {
	t.Setenv("STORAGE_PROVIDER", "ftp")

	_, err := Load()
	assert.Error(t, err)
}
