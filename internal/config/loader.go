package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/JonMunkholm/eventmap/internal/core"
)

// LookupFunc returns the value of a named setting, or "" when unset.
type LookupFunc func(key string) string

// Load reads configuration from environment variables.
// It applies defaults for unset values and validates the result.
// Returns an error if required values are missing or validation fails.
func Load() (*Config, error) {
	return LoadFrom(os.Getenv)
}

// LoadFrom is Load with an explicit value source.
func LoadFrom(lookup LookupFunc) (*Config, error) {
	cfg := &Config{}

	if err := loadStruct(reflect.ValueOf(cfg).Elem(), lookup); err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration and panics on error.
// Use this only in main() where early termination is desired.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return cfg
}

// loadStruct recursively populates struct fields from the lookup.
func loadStruct(v reflect.Value, lookup LookupFunc) error {
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		fieldVal := v.Field(i)

		if !fieldVal.CanSet() {
			continue
		}

		if field.Type.Kind() == reflect.Struct && field.Type != reflect.TypeOf(time.Time{}) {
			if err := loadStruct(fieldVal, lookup); err != nil {
				return err
			}
			continue
		}

		envName := field.Tag.Get("env")
		if envName == "" {
			continue
		}

		value := lookup(envName)
		if alt := field.Tag.Get("envAlt"); value == "" && alt != "" {
			value = lookup(alt)
		}

		if value == "" {
			if field.Tag.Get("required") == "true" {
				return fmt.Errorf("required environment variable %s is not set", envName)
			}
			value = field.Tag.Get("default")
		}

		if value == "" {
			continue
		}

		if err := setField(fieldVal, value); err != nil {
			return fmt.Errorf("invalid value for %s=%q: %w", envName, value, err)
		}
	}

	return nil
}

// setField sets a reflect.Value from a string based on its type.
func setField(field reflect.Value, value string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(strings.TrimSpace(value))

	case reflect.Int, reflect.Int64:
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(value)
			if err != nil {
				return fmt.Errorf("invalid duration: %w", err)
			}
			field.Set(reflect.ValueOf(d))
			return nil
		}
		i, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
		if err != nil {
			return fmt.Errorf("invalid integer: %w", err)
		}
		field.SetInt(i)

	case reflect.Bool:
		b, err := strconv.ParseBool(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("invalid boolean: %w", err)
		}
		field.SetBool(b)

	case reflect.Slice:
		if field.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("unsupported slice type: %s", field.Type().Elem().Kind())
		}
		parts := strings.Split(value, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				result = append(result, p)
			}
		}
		field.Set(reflect.ValueOf(result))

	default:
		return fmt.Errorf("unsupported field type: %s", field.Kind())
	}

	return nil
}

// Validate checks that the configuration is valid.
// Returns an error describing all validation failures.
func (c *Config) Validate() error {
	var errs []string

	// Server validation
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("SERVER_PORT (%d) must be 1-65535", c.Server.Port))
	}
	if c.Server.ReadTimeout < 0 {
		errs = append(errs, "SERVER_READ_TIMEOUT must be non-negative")
	}
	if c.Server.ShutdownTimeout <= 0 {
		errs = append(errs, "SERVER_SHUTDOWN_TIMEOUT must be positive")
	}

	errs = append(errs, c.Source.validate()...)

	// Filter validation
	if c.Filter.RangeMin > c.Filter.RangeMax {
		errs = append(errs, fmt.Sprintf("FILTER_RANGE_MIN (%d) must be <= FILTER_RANGE_MAX (%d)",
			c.Filter.RangeMin, c.Filter.RangeMax))
	}
	if c.Filter.HistogramStart > c.Filter.HistogramEnd {
		errs = append(errs, fmt.Sprintf("HISTOGRAM_START (%d) must be <= HISTOGRAM_END (%d)",
			c.Filter.HistogramStart, c.Filter.HistogramEnd))
	}
	if c.Filter.HistogramStep <= 0 {
		errs = append(errs, "HISTOGRAM_STEP must be positive")
	}

	// Rate limit validation
	if c.Rate.Enabled && c.Rate.RequestsPerMinute <= 0 {
		errs = append(errs, "RATE_LIMIT_REQUESTS_PER_MINUTE must be positive when rate limiting is enabled")
	}
	if c.Rate.Enabled && c.Rate.Burst <= 0 {
		errs = append(errs, "RATE_LIMIT_BURST must be positive when rate limiting is enabled")
	}

	// Security validation
	if c.Security.RequireAPIKey && len(c.Security.APIKeys) == 0 {
		errs = append(errs, "REQUIRE_API_KEY is true but API_KEYS is empty; configure at least one API key or disable auth")
	}

	// Logging validation
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Sprintf("LOG_LEVEL (%q) must be one of: debug, info, warn, error", c.Logging.Level))
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		errs = append(errs, fmt.Sprintf("LOG_FORMAT (%q) must be one of: text, json", c.Logging.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

func (s *SourceConfig) validate() []string {
	var errs []string

	switch strings.ToLower(s.Driver) {
	case DriverCSV:
		if s.Dir == "" {
			errs = append(errs, "SOURCE_DIR is required for the csv driver")
		}
	case DriverXLSX:
		if s.Workbook == "" {
			errs = append(errs, "SOURCE_WORKBOOK is required for the xlsx driver")
		}
	case DriverHTTP:
		if s.URL == "" {
			errs = append(errs, "SOURCE_URL is required for the http driver")
		}
		if s.HTTPTimeout <= 0 {
			errs = append(errs, "SOURCE_HTTP_TIMEOUT must be positive")
		}
	case DriverPostgres:
		if s.DatabaseURL == "" {
			errs = append(errs, "DATABASE_URL is required for the postgres driver")
		}
		if s.MaxConns <= 0 {
			errs = append(errs, "DB_MAX_CONNS must be positive")
		}
	case DriverSQLite:
		if s.SQLitePath == "" {
			errs = append(errs, "SQLITE_PATH is required for the sqlite driver")
		}
	case DriverS3:
		if s.S3Bucket == "" {
			errs = append(errs, "S3_BUCKET is required for the s3 driver")
		}
		if (s.S3AccessKey == "") != (s.S3SecretKey == "") {
			errs = append(errs, "S3_ACCESS_KEY_ID and S3_SECRET_ACCESS_KEY must be set together")
		}
	default:
		errs = append(errs, fmt.Sprintf("SOURCE_DRIVER (%q) must be one of: csv, xlsx, http, postgres, sqlite, s3", s.Driver))
	}

	if s.LoadTimeout <= 0 {
		errs = append(errs, "SOURCE_LOAD_TIMEOUT must be positive")
	}
	if s.ReloadInterval < 0 {
		errs = append(errs, "SOURCE_RELOAD_INTERVAL must be non-negative")
	}
	if s.Watch && strings.ToLower(s.Driver) != DriverCSV {
		errs = append(errs, "SOURCE_WATCH is only supported by the csv driver")
	}
	if s.Watch && s.WatchDebounce <= 0 {
		errs = append(errs, "SOURCE_WATCH_DEBOUNCE must be positive")
	}

	return errs
}

// DefaultFilter returns the configured startup filter.
func (f FilterConfig) DefaultFilter() core.FilterConfig {
	cfg := core.DefaultFilterConfig()
	cfg.ShowComposers = f.ShowComposers
	cfg.ShowMusicians = f.ShowMusicians
	cfg.ShowNonMusicians = f.ShowNonMusicians
	cfg.DateRange = core.DateRange{Min: f.RangeMin, Max: f.RangeMax}
	cfg.ShowCertainty = f.ShowCertainty
	return cfg
}

// ComputeOptions returns the derived-chain options for the given schema.
func (f FilterConfig) ComputeOptions(schema core.Schema) core.ComputeOptions {
	return core.ComputeOptions{
		Schema:         schema,
		HistogramStart: f.HistogramStart,
		HistogramEnd:   f.HistogramEnd,
		HistogramStep:  f.HistogramStep,
	}
}

// String returns a safe string representation of the config for logging.
// Sensitive values like database URLs and keys are masked.
func (c *Config) String() string {
	var b strings.Builder
	b.WriteString("Config{")
	b.WriteString(fmt.Sprintf("Server: {Host: %q, Port: %d}, ", c.Server.Host, c.Server.Port))
	b.WriteString(fmt.Sprintf("Source: {Driver: %q, Dir: %q, Workbook: %q, URL: %q, DatabaseURL: %s, SQLitePath: %q, S3Bucket: %q, S3Secret: %s, ReloadInterval: %s, Watch: %v}, ",
		c.Source.Driver, c.Source.Dir, c.Source.Workbook, c.Source.URL, mask(c.Source.DatabaseURL),
		c.Source.SQLitePath, c.Source.S3Bucket, mask(c.Source.S3SecretKey), c.Source.ReloadInterval, c.Source.Watch))
	b.WriteString(fmt.Sprintf("Filter: {Range: %d-%d, Histogram: %d-%d/%d}, ",
		c.Filter.RangeMin, c.Filter.RangeMax, c.Filter.HistogramStart, c.Filter.HistogramEnd, c.Filter.HistogramStep))
	b.WriteString(fmt.Sprintf("Rate: {Enabled: %v, RequestsPerMinute: %d}, ",
		c.Rate.Enabled, c.Rate.RequestsPerMinute))
	b.WriteString(fmt.Sprintf("Security: {RequireAPIKey: %v, APIKeys: %d}, ",
		c.Security.RequireAPIKey, len(c.Security.APIKeys)))
	b.WriteString(fmt.Sprintf("Logging: {Level: %q, Format: %q}",
		c.Logging.Level, c.Logging.Format))
	b.WriteString("}")
	return b.String()
}

func mask(s string) string {
	if s == "" {
		return "[EMPTY]"
	}
	return "[MASKED]"
}
