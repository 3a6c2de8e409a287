package config

import (
	"os"
	"strings"
	"time"

	stringsutil "structwhois/pkg/platform/strings"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr        string
	AdminToken  string
	PreloadTLDs []string
	PostgresDSN string
	RedisURL    string
	CacheTTL    time.Duration
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	addr := os.Getenv("STRUCTWHOIS_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	adminToken := os.Getenv("STRUCTWHOIS_ADMIN_TOKEN")

	var preload []string
	if raw := os.Getenv("STRUCTWHOIS_PRELOAD_TLDS"); raw != "" {
		preload = stringsutil.DedupeAndTrimLower(strings.Split(raw, ","))
	}

	cacheTTL := 15 * time.Minute
	if raw := os.Getenv("STRUCTWHOIS_CACHE_TTL"); raw != "" {
		if parsed, err := time.ParseDuration(raw); err == nil {
			cacheTTL = parsed
		}
	}

	return Server{
		Addr:        addr,
		AdminToken:  adminToken,
		PreloadTLDs: preload,
		PostgresDSN: os.Getenv("STRUCTWHOIS_POSTGRES_DSN"),
		RedisURL:    os.Getenv("STRUCTWHOIS_REDIS_URL"),
		CacheTTL:    cacheTTL,
	}
}
