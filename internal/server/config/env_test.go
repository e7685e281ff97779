package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEnv(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9999")
	t.Setenv("SECRET_KEY", "env-secret")
	t.Setenv("EMBEDDING_TIMEOUT", "3s")
	t.Setenv("CACHE_TTL", "not-a-duration")
	t.Setenv("REDIS_HOST", "")
	t.Setenv("LOG_LEVEL", "debug")

	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg)

	assert.Equal(t, ":9999", cfg.EndpointAddrHTTP)
	assert.Equal(t, "env-secret", cfg.SecretKey)
	assert.Equal(t, 3*time.Second, cfg.EmbeddingTimeout)
	assert.Equal(t, 60*time.Second, cfg.CacheTTL, "invalid durations are ignored")
	assert.Empty(t, cfg.RedisAddr, "explicit empty REDIS_HOST disables redis")
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
}

func TestParseEnv_DotEnvFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("EMBEDDING_URL=http://dotenv:8001\n"), 0o600))

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() {
		_ = os.Chdir(wd)
		_ = os.Unsetenv("EMBEDDING_URL")
	})

	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg)

	assert.Equal(t, "http://dotenv:8001", cfg.EmbeddingURL)
}
