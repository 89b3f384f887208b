// Package config provides centralized configuration management for the event map service.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"strconv"
	"time"
)

// Source drivers.
const (
	DriverCSV      = "csv"
	DriverXLSX     = "xlsx"
	DriverHTTP     = "http"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverS3       = "s3"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server   ServerConfig
	Source   SourceConfig
	Filter   FilterConfig
	Schema   SchemaConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading request body (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is the maximum duration for writing response (default: 0 for SSE)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"0s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for non-streaming requests (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// SourceConfig selects where raw sheets are read from.
type SourceConfig struct {
	// Driver is one of csv, xlsx, http, postgres, sqlite, s3 (default: csv)
	Driver string `env:"SOURCE_DRIVER" default:"csv"`

	// Dir is the directory holding <Sheet>.csv files for the csv driver (default: data)
	Dir string `env:"SOURCE_DIR" default:"data"`

	// Workbook is the .xlsx file for the xlsx driver
	Workbook string `env:"SOURCE_WORKBOOK"`

	// URL is the sheet endpoint for the http driver
	URL string `env:"SOURCE_URL"`

	// HTTPTimeout bounds a single sheet request for the http driver (default: 30s)
	HTTPTimeout time.Duration `env:"SOURCE_HTTP_TIMEOUT" default:"30s"`

	// DatabaseURL is the PostgreSQL connection string for the postgres driver
	// Supports both DATABASE_URL and DB_URL env vars for compatibility
	DatabaseURL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	// DBSchema is the PostgreSQL schema holding one table per sheet (default: public)
	DBSchema string `env:"SOURCE_DB_SCHEMA" default:"public"`

	// MaxConns is the maximum number of connections in the pool (default: 4)
	MaxConns int `env:"DB_MAX_CONNS" default:"4"`

	// SQLitePath is the database file for the sqlite driver
	SQLitePath string `env:"SQLITE_PATH"`

	// S3Bucket holds <prefix><Sheet>.csv objects for the s3 driver
	S3Bucket string `env:"S3_BUCKET"`

	// S3Prefix is prepended to every object key
	S3Prefix string `env:"S3_PREFIX"`

	// S3Region is the bucket region (default: us-east-1)
	S3Region string `env:"S3_REGION" default:"us-east-1"`

	// S3Endpoint overrides the service endpoint, e.g. for MinIO
	S3Endpoint string `env:"S3_ENDPOINT"`

	// S3PathStyle forces path-style addressing (default: false)
	S3PathStyle bool `env:"S3_PATH_STYLE" default:"false"`

	// S3AccessKey and S3SecretKey are static credentials; empty uses the default chain
	S3AccessKey string `env:"S3_ACCESS_KEY_ID" envAlt:"AWS_ACCESS_KEY_ID"`
	S3SecretKey string `env:"S3_SECRET_ACCESS_KEY" envAlt:"AWS_SECRET_ACCESS_KEY"`

	// LoadTimeout bounds a full reload of every sheet (default: 2m)
	LoadTimeout time.Duration `env:"SOURCE_LOAD_TIMEOUT" default:"2m"`

	// ReloadInterval is how often to reload all sheets; 0 disables (default: 0s)
	ReloadInterval time.Duration `env:"SOURCE_RELOAD_INTERVAL" default:"0s"`

	// Watch refreshes single sheets when files in Dir change (csv driver only)
	Watch bool `env:"SOURCE_WATCH" default:"false"`

	// WatchDebounce coalesces bursts of file events (default: 500ms)
	WatchDebounce time.Duration `env:"SOURCE_WATCH_DEBOUNCE" default:"500ms"`
}

// FilterConfig holds the filter applied at startup and after a reset.
type FilterConfig struct {
	ShowComposers    bool `env:"FILTER_SHOW_COMPOSERS" default:"true"`
	ShowMusicians    bool `env:"FILTER_SHOW_MUSICIANS" default:"true"`
	ShowNonMusicians bool `env:"FILTER_SHOW_NONMUSICIANS" default:"true"`

	// RangeMin and RangeMax bound the default date range (default: 1400-1590)
	RangeMin int `env:"FILTER_RANGE_MIN" default:"1400"`
	RangeMax int `env:"FILTER_RANGE_MAX" default:"1590"`

	// ShowCertainty restricts to high-certainty events (default: false)
	ShowCertainty bool `env:"FILTER_SHOW_CERTAINTY" default:"false"`

	// HistogramStart, HistogramEnd and HistogramStep shape the decade chart
	HistogramStart int `env:"HISTOGRAM_START" default:"1400"`
	HistogramEnd   int `env:"HISTOGRAM_END" default:"1600"`
	HistogramStep  int `env:"HISTOGRAM_STEP" default:"10"`
}

// SchemaConfig holds schema override settings.
type SchemaConfig struct {
	// AliasFile is an optional YAML file extending the built-in alias and key tables
	AliasFile string `env:"SCHEMA_ALIAS_FILE"`
}

// RateLimitConfig holds rate limiting settings per time window.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the default rate limit per IP (default: 300)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"300"`

	// Burst is the number of requests allowed at once (default: 50)
	Burst int `env:"RATE_LIMIT_BURST" default:"50"`

	// ReloadLimit is requests per minute for reload endpoints (default: 6)
	ReloadLimit int `env:"RATE_LIMIT_RELOAD" default:"6"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// RequireAPIKey guards reload and filter-write endpoints with X-API-Key (default: false)
	RequireAPIKey bool `env:"REQUIRE_API_KEY" default:"false"`

	// APIKeys is a comma-separated list of accepted keys
	APIKeys []string `env:"API_KEYS"`
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
