package config

import (
	"fmt"
	"net/url"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// LookupFunc resolves one environment variable.
type LookupFunc func(key string) (string, bool)

var durationType = reflect.TypeOf(time.Duration(0))

// Load reads configuration from the process environment, applies defaults
// for unset values and validates the result.
func Load() (*Config, error) {
	return LoadFrom(os.LookupEnv)
}

// LoadFrom is Load with a custom variable source.
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

// loadStruct walks the struct and fills every field tagged with `env`.
// Nested structs are walked recursively.
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

		value := lookupTrimmed(lookup, envName)
		if value == "" {
			if alt := field.Tag.Get("envAlt"); alt != "" {
				value = lookupTrimmed(lookup, alt)
			}
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

func lookupTrimmed(lookup LookupFunc, key string) string {
	v, ok := lookup(key)
	if !ok {
		return ""
	}
	return strings.TrimSpace(v)
}

// setField converts value to the field's kind and stores it.
func setField(field reflect.Value, value string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int64:
		if field.Type() == durationType {
			d, err := time.ParseDuration(value)
			if err != nil {
				return fmt.Errorf("invalid duration: %w", err)
			}
			field.SetInt(int64(d))
			return nil
		}
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid integer: %w", err)
		}
		field.SetInt(n)

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean: %w", err)
		}
		field.SetBool(b)

	case reflect.Slice:
		if field.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("unsupported slice type: %s", field.Type().Elem().Kind())
		}
		field.Set(reflect.ValueOf(splitList(value)))

	default:
		return fmt.Errorf("unsupported field type: %s", field.Kind())
	}

	return nil
}

// splitList splits a comma-separated value, dropping blank entries.
func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate checks the configuration and returns every problem found.
func (c *Config) Validate() error {
	var errs []string

	// Server
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("SERVER_PORT (%d) must be 1-65535", c.Server.Port))
	}
	if c.Server.ReadTimeout < 0 {
		errs = append(errs, "SERVER_READ_TIMEOUT must be non-negative")
	}
	if c.Server.ShutdownTimeout <= 0 {
		errs = append(errs, "SERVER_SHUTDOWN_TIMEOUT must be positive")
	}
	if c.Server.RequestTimeout <= 0 {
		errs = append(errs, "SERVER_REQUEST_TIMEOUT must be positive")
	}

	// Catalog
	switch strings.ToLower(c.Catalog.Source) {
	case SourceFile:
		if c.Catalog.Path == "" {
			errs = append(errs, "CATALOG_PATH is required when CATALOG_SOURCE=file")
		}
	case SourceHTTP:
		if !isHTTPURL(c.Catalog.URL) {
			errs = append(errs, fmt.Sprintf("CATALOG_URL (%q) must be an http(s) URL when CATALOG_SOURCE=http", c.Catalog.URL))
		}
	case SourcePostgres:
		if c.Catalog.DatabaseURL == "" {
			errs = append(errs, "CATALOG_DATABASE_URL is required when CATALOG_SOURCE=postgres")
		}
		if strings.TrimSpace(c.Catalog.Query) == "" {
			errs = append(errs, "CATALOG_QUERY must not be empty when CATALOG_SOURCE=postgres")
		}
	default:
		errs = append(errs, fmt.Sprintf("CATALOG_SOURCE (%q) must be one of: file, http, postgres", c.Catalog.Source))
	}
	if c.Catalog.MaxRows < 0 {
		errs = append(errs, "CATALOG_MAX_ROWS must be non-negative")
	}
	if c.Catalog.MaxBytes <= 0 {
		errs = append(errs, "CATALOG_MAX_BYTES must be positive")
	}
	if c.Catalog.FetchTimeout <= 0 {
		errs = append(errs, "CATALOG_FETCH_TIMEOUT must be positive")
	}
	if c.Catalog.ReloadInterval < 0 {
		errs = append(errs, "CATALOG_RELOAD_INTERVAL must be non-negative")
	}

	// Recommender
	if c.Recommender.URL != "" && !isHTTPURL(c.Recommender.URL) {
		errs = append(errs, fmt.Sprintf("RECOMMENDER_URL (%q) must be an http(s) URL", c.Recommender.URL))
	}
	if c.Recommender.Timeout <= 0 {
		errs = append(errs, "RECOMMENDER_TIMEOUT must be positive")
	}
	if c.Recommender.FailureThreshold <= 0 {
		errs = append(errs, "RECOMMENDER_FAILURE_THRESHOLD must be positive")
	}
	if c.Recommender.OpenTimeout <= 0 {
		errs = append(errs, "RECOMMENDER_OPEN_TIMEOUT must be positive")
	}
	if c.Recommender.MaxConcurrent <= 0 {
		errs = append(errs, "RECOMMENDER_MAX_CONCURRENT must be positive")
	}
	if c.Recommender.QueueWait < 0 {
		errs = append(errs, "RECOMMENDER_QUEUE_WAIT must be non-negative")
	}
	if c.Recommender.ResultLimit <= 0 {
		errs = append(errs, "RECOMMENDER_RESULT_LIMIT must be positive")
	}

	// Rate limit
	if c.Rate.Enabled && c.Rate.RequestsPerMinute <= 0 {
		errs = append(errs, "RATE_LIMIT_REQUESTS_PER_MINUTE must be positive when rate limiting is enabled")
	}

	// Security
	if c.Security.RequireAPIKey && len(c.Security.APIKeys) == 0 {
		errs = append(errs, "REQUIRE_API_KEY is true but API_KEYS is empty; configure at least one API key or disable auth")
	}

	// Logging
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

func isHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// String returns a log-safe summary. Credentials are masked.
func (c *Config) String() string {
	var b strings.Builder
	b.WriteString("Config{")
	fmt.Fprintf(&b, "Server: {Host: %q, Port: %d}, ", c.Server.Host, c.Server.Port)
	fmt.Fprintf(&b, "Catalog: {Source: %q, Path: %q, URL: %q, DatabaseURL: %s, MaxRows: %d}, ",
		c.Catalog.Source, c.Catalog.Path, c.Catalog.URL, mask(c.Catalog.DatabaseURL), c.Catalog.MaxRows)
	fmt.Fprintf(&b, "Recommender: {URL: %q, Timeout: %s}, ", c.Recommender.URL, c.Recommender.Timeout)
	fmt.Fprintf(&b, "Rate: {Enabled: %v, RequestsPerMinute: %d}, ", c.Rate.Enabled, c.Rate.RequestsPerMinute)
	fmt.Fprintf(&b, "Security: {RequireAPIKey: %v, APIKeys: %d, TokenSecret: %s}, ",
		c.Security.RequireAPIKey, len(c.Security.APIKeys), mask(c.Security.TokenSecret))
	fmt.Fprintf(&b, "Logging: {Level: %q, Format: %q}", c.Logging.Level, c.Logging.Format)
	b.WriteString("}")
	return b.String()
}

func mask(s string) string {
	if s == "" {
		return "[UNSET]"
	}
	return "[MASKED]"
}
