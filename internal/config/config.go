// Package config loads the service configuration from environment variables.
// Every setting has a default except where noted; Load validates the result
// and reports all problems at once so misconfiguration fails fast.
package config

import (
	"strconv"
	"time"
)

// Catalog source kinds.
const (
	SourceFile     = "file"
	SourceHTTP     = "http"
	SourcePostgres = "postgres"
)

// Config holds all application configuration.
type Config struct {
	Server      ServerConfig
	Catalog     CatalogConfig
	Recommender RecommenderConfig
	Rate        RateLimitConfig
	Security    SecurityConfig
	Logging     LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	ReadTimeout  time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"30s"`
	IdleTimeout  time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout bounds graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// CatalogConfig selects where the recipe CSV comes from and how it is ingested.
type CatalogConfig struct {
	// Source is one of: file, http, postgres (default: file)
	Source string `env:"CATALOG_SOURCE" default:"file"`

	// Path is the CSV file for the file source
	Path string `env:"CATALOG_PATH" default:"data/recipes.csv"`

	// URL is fetched with GET for the http source
	URL string `env:"CATALOG_URL"`

	// DatabaseURL is the PostgreSQL connection string for the postgres source
	DatabaseURL string `env:"CATALOG_DATABASE_URL" envAlt:"DATABASE_URL"`

	// Query is the SELECT exported with COPY ... TO STDOUT for the postgres source
	Query string `env:"CATALOG_QUERY" default:"SELECT recipe_name, ingredients_list, cuisine, cook_time_minutes, timing, calories, servings, rating, url, img_src, directions FROM recipes ORDER BY id"`

	// MaxRows caps recipes per ingestion; 0 disables the cap (default: 500)
	MaxRows int `env:"CATALOG_MAX_ROWS" default:"500"`

	// MaxBytes rejects catalog payloads larger than this (default: 64MB)
	MaxBytes int64 `env:"CATALOG_MAX_BYTES" default:"67108864"`

	// FetchTimeout bounds one fetch of the raw text (default: 30s)
	FetchTimeout time.Duration `env:"CATALOG_FETCH_TIMEOUT" default:"30s"`

	// ReloadInterval re-fetches the catalog periodically; 0 disables (default: 0)
	ReloadInterval time.Duration `env:"CATALOG_RELOAD_INTERVAL" default:"0s"`
}

// RecommenderConfig configures the external recommendation service client.
type RecommenderConfig struct {
	// URL is the service base URL; empty means local fallback only
	URL string `env:"RECOMMENDER_URL"`

	Timeout time.Duration `env:"RECOMMENDER_TIMEOUT" default:"10s"`

	// FailureThreshold is consecutive failures before the breaker opens (default: 5)
	FailureThreshold int `env:"RECOMMENDER_FAILURE_THRESHOLD" default:"5"`

	// OpenTimeout is how long the breaker stays open (default: 30s)
	OpenTimeout time.Duration `env:"RECOMMENDER_OPEN_TIMEOUT" default:"30s"`

	// MaxConcurrent caps in-flight calls to the service (default: 10)
	MaxConcurrent int `env:"RECOMMENDER_MAX_CONCURRENT" default:"10"`

	// QueueWait is how long a request waits for a free call slot before
	// using the fallback (default: 2s)
	QueueWait time.Duration `env:"RECOMMENDER_QUEUE_WAIT" default:"2s"`

	// ResultLimit caps fallback results (default: 12)
	ResultLimit int `env:"RECOMMENDER_RESULT_LIMIT" default:"12"`
}

// RateLimitConfig holds per-IP rate limiting settings.
type RateLimitConfig struct {
	Enabled           bool `env:"RATE_LIMIT_ENABLED" default:"true"`
	RequestsPerMinute int  `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"100"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// RequireAPIKey protects admin endpoints with X-API-Key (default: false)
	RequireAPIKey bool `env:"REQUIRE_API_KEY" default:"false"`

	// APIKeys is a comma-separated list of accepted admin keys
	APIKeys []string `env:"API_KEYS"`

	// TokenSecret verifies HS256 bearer tokens issued by the auth service
	TokenSecret string `env:"TOKEN_SECRET" envAlt:"SECRET_KEY"`

	// AllowedOrigins is the CORS allow-list for the web client
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" default:"http://localhost:5173"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}
