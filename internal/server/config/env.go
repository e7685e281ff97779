package config

import (
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// parseEnv overlays values from the process environment. A .env file in the
// working directory is loaded first; it never overrides variables that are
// already set, and its absence is not an error.
//
// Recognised variables:
//
//	HTTP_ADDR, DATABASE_DSN, SECRET_KEY,
//	ACCESS_TOKEN_TTL, REFRESH_TOKEN_TTL   (Go durations, e.g. "15m")
//	EMBEDDING_URL, EMBEDDING_GRPC_URL, EMBEDDING_TIMEOUT,
//	REDIS_HOST, CACHE_TTL, LOG_LEVEL      (debug|info|warn|error)
func parseEnv(config *Config) {
	_ = godotenv.Load()

	setString(&config.EndpointAddrHTTP, os.Getenv("HTTP_ADDR"))
	setString(&config.DatabaseDSN, os.Getenv("DATABASE_DSN"))
	setString(&config.SecretKey, os.Getenv("SECRET_KEY"))
	setString(&config.EmbeddingURL, os.Getenv("EMBEDDING_URL"))

	// empty values are meaningful here: they switch the feature off
	if v, ok := os.LookupEnv("EMBEDDING_GRPC_URL"); ok {
		config.EmbeddingGRPCAddr = v
	}
	if v, ok := os.LookupEnv("REDIS_HOST"); ok {
		config.RedisAddr = v
	}

	envDuration(&config.AccessTokenValidityDuration, "ACCESS_TOKEN_TTL")
	envDuration(&config.RefreshTokenValidityDuration, "REFRESH_TOKEN_TTL")
	envDuration(&config.EmbeddingTimeout, "EMBEDDING_TIMEOUT")
	envDuration(&config.CacheTTL, "CACHE_TTL")

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		var lvl slog.Level
		if err := lvl.UnmarshalText([]byte(strings.ToUpper(v))); err == nil {
			config.LogLevel = lvl
		}
	}
}

func envDuration(dst *time.Duration, key string) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	if d, err := time.ParseDuration(v); err == nil {
		*dst = d
	}
}
