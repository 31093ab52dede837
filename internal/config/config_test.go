package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable Load reads so the host environment cannot leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"HTTP_ADDR", "DATABASE_URL", "SESSION_SECRET", "SESSION_COOKIE", "AUTH_HEADER_FALLBACK",
		"CORS_ALLOWED_ORIGINS", "CORS_ALLOW_CREDENTIALS", "LOG_LEVEL", "LOG_FORMAT",
		"DB_MAX_OPEN_CONNS", "DB_MAX_IDLE_CONNS", "DB_CONN_MAX_LIFETIME",
		"MIGRATE_ON_START", "SHUTDOWN_TIMEOUT",
	} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "postgres://localhost/voicenotes")
	t.Setenv("SESSION_SECRET", "s3cret")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "__session", cfg.SessionCookie)
	assert.True(t, cfg.AuthHeaderFallback)
	assert.True(t, cfg.MigrateOnStart)
	assert.False(t, cfg.CORSAllowCredentials)
	assert.Empty(t, cfg.CORSAllowedOrigins)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10, cfg.DBMaxOpenConns)
	assert.Equal(t, 5, cfg.DBMaxIdleConns)
	assert.Equal(t, 30*time.Minute, cfg.DBConnMaxLifetime)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "postgres://db/voicenotes")
	t.Setenv("SESSION_SECRET", "s3cret")
	t.Setenv("AUTH_HEADER_FALLBACK", "false")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.test, ,http://b.test")
	t.Setenv("LOG_FORMAT", "TEXT")
	t.Setenv("SHUTDOWN_TIMEOUT", "3s")

	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.AuthHeaderFallback)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 3*time.Second, cfg.ShutdownTimeout)
}

func TestLoad_ReportsAllProblems(t *testing.T) {
	clearEnv(t)
	t.Setenv("DB_MAX_OPEN_CONNS", "many")
	t.Setenv("LOG_FORMAT", "xml")

	_, err := Load()
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "missing env: DATABASE_URL")
	assert.Contains(t, msg, "missing env: SESSION_SECRET")
	assert.Contains(t, msg, "DB_MAX_OPEN_CONNS")
	assert.Contains(t, msg, "LOG_FORMAT")
}
