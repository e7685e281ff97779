package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/userembed/internal/flagx"
	"github.com/dmitrijs2005/userembed/internal/timex"
)

// JsonConfig is the on-disk shape of the configuration file. Durations use
// timex.Duration so both "30s" and integer nanoseconds are accepted.
// Zero values are treated as "not set" and leave the current value alone.
type JsonConfig struct {
	EndpointAddrHTTP             string         `json:"endpoint_addr_http"`
	DatabaseDSN                  string         `json:"database_dsn"`
	SecretKey                    string         `json:"secret_key"`
	AccessTokenValidityDuration  timex.Duration `json:"access_token_validity_duration"`
	RefreshTokenValidityDuration timex.Duration `json:"refresh_token_validity_duration"`
	EmbeddingURL                 string         `json:"embedding_url"`
	EmbeddingGRPCAddr            string         `json:"embedding_grpc_addr"`
	EmbeddingTimeout             timex.Duration `json:"embedding_timeout"`
	RedisAddr                    string         `json:"redis_addr"`
	CacheTTL                     timex.Duration `json:"cache_ttl"`
	ReadTimeout                  timex.Duration `json:"read_timeout"`
	WriteTimeout                 timex.Duration `json:"write_timeout"`
}

// parseJson loads the file named by -c/-config (if any) into config.
// An unreadable file or invalid JSON panics: a misconfigured server
// must not start.
func parseJson(config *Config) {
	jsonConfigFile := flagx.ConfigFile(os.Args[1:])
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.EmbeddingURL, c.EmbeddingURL)
	setString(&config.EmbeddingGRPCAddr, c.EmbeddingGRPCAddr)
	setString(&config.RedisAddr, c.RedisAddr)

	setDuration(&config.AccessTokenValidityDuration, c.AccessTokenValidityDuration)
	setDuration(&config.RefreshTokenValidityDuration, c.RefreshTokenValidityDuration)
	setDuration(&config.EmbeddingTimeout, c.EmbeddingTimeout)
	setDuration(&config.CacheTTL, c.CacheTTL)
	setDuration(&config.ReadTimeout, c.ReadTimeout)
	setDuration(&config.WriteTimeout, c.WriteTimeout)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v timex.Duration) {
	if v.Duration != 0 {
		*dst = v.Duration
	}
}
