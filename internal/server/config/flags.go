package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/userembed/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8000")
//	-d string   PostgreSQL DSN
//	-s string   JWT HMAC secret key
//	-t int      access token validity, minutes
//	-r int      refresh token validity, minutes
//	-e string   embedding provider base URL
//	-g string   embedding provider gRPC address ("" disables grpc)
//	-w int      embedding call timeout, seconds
//	-k string   redis address ("" selects the in-process cache)
//	-l int      cache TTL, seconds
//
// os.Args is filtered with flagx.FilterArgs first so that -c/-config and
// test runner flags do not trip the parser.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-s", "-t", "-r", "-e", "-g", "-w", "-k", "-l"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	accessTokenValidityDuration := fs.Int("t", int(config.AccessTokenValidityDuration.Minutes()), "access_token_validity_duration (in minutes)")
	refreshTokenValidityDuration := fs.Int("r", int(config.RefreshTokenValidityDuration.Minutes()), "refresh_token_validity_duration (in minutes)")

	fs.StringVar(&config.EmbeddingURL, "e", config.EmbeddingURL, "embedding provider base URL")
	fs.StringVar(&config.EmbeddingGRPCAddr, "g", config.EmbeddingGRPCAddr, "embedding provider gRPC address")
	embeddingTimeout := fs.Int("w", int(config.EmbeddingTimeout.Seconds()), "embedding call timeout (in seconds)")

	fs.StringVar(&config.RedisAddr, "k", config.RedisAddr, "redis address")
	cacheTTL := fs.Int("l", int(config.CacheTTL.Seconds()), "cache ttl (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.AccessTokenValidityDuration = time.Duration(*accessTokenValidityDuration) * time.Minute
	config.RefreshTokenValidityDuration = time.Duration(*refreshTokenValidityDuration) * time.Minute
	config.EmbeddingTimeout = time.Duration(*embeddingTimeout) * time.Second
	config.CacheTTL = time.Duration(*cacheTTL) * time.Second
}
