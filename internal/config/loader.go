package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ConfigFileEnv names the environment variable pointing at a YAML config file.
const ConfigFileEnv = "NEM12_CONFIG"

// Load reads configuration from the environment, the config file named by
// NEM12_CONFIG (or ./config.yaml when present) and tag defaults, in that
// order of precedence. It validates the result.
func Load() (*Config, error) {
	return LoadFile(os.Getenv(ConfigFileEnv))
}

// LoadFile is Load with an explicit config file path. An empty path looks
// for an optional config.yaml in the working directory.
func LoadFile(path string) (*Config, error) {
	src, err := newSource(path)
	if err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}

	cfg := &Config{}
	if err := loadStruct(reflect.ValueOf(cfg).Elem(), src); err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// source resolves a setting from the environment first, then the config file.
type source struct {
	file *viper.Viper
}

func newSource(path string) (*source, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	if path == "" {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config.yaml: %w", err)
			}
		}
		return &source{file: v}, nil
	}

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config file %s: %w", path, err)
	}
	return &source{file: v}, nil
}

func (s *source) lookup(envName, envAlt, fileKey string) string {
	if value := os.Getenv(envName); value != "" {
		return value
	}
	if envAlt != "" {
		if value := os.Getenv(envAlt); value != "" {
			return value
		}
	}
	if fileKey == "" || !s.file.IsSet(fileKey) {
		return ""
	}

	// YAML lists become comma-separated, matching the env var form.
	if raw, ok := s.file.Get(fileKey).([]any); ok {
		parts := make([]string, 0, len(raw))
		for _, item := range raw {
			parts = append(parts, fmt.Sprint(item))
		}
		return strings.Join(parts, ",")
	}
	return s.file.GetString(fileKey)
}

// loadStruct recursively populates struct fields from the source.
func loadStruct(v reflect.Value, src *source) error {
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		fieldVal := v.Field(i)

		// Skip unexported fields
		if !fieldVal.CanSet() {
			continue
		}

		// Recurse into nested structs
		if field.Type.Kind() == reflect.Struct && field.Type != reflect.TypeOf(time.Time{}) {
			if err := loadStruct(fieldVal, src); err != nil {
				return err
			}
			continue
		}

		envName := field.Tag.Get("env")
		if envName == "" {
			continue
		}
		defaultVal := field.Tag.Get("default")
		required := field.Tag.Get("required") == "true"

		value := src.lookup(envName, field.Tag.Get("envAlt"), field.Tag.Get("file"))

		// Apply default if not set
		if value == "" {
			if required {
				return fmt.Errorf("required environment variable %s is not set", envName)
			}
			value = defaultVal
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
		field.SetString(value)

	case reflect.Int, reflect.Int64:
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(value)
			if err != nil {
				return fmt.Errorf("invalid duration: %w", err)
			}
			field.Set(reflect.ValueOf(d))
		} else {
			i, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer: %w", err)
			}
			field.SetInt(i)
		}

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
		parts := strings.Split(value, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
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

	if c.Database.MaxConns <= 0 {
		errs = append(errs, "DB_MAX_CONNS must be positive")
	}
	if c.Database.MinConns < 0 {
		errs = append(errs, "DB_MIN_CONNS must be non-negative")
	}
	if c.Database.MaxConns < c.Database.MinConns {
		errs = append(errs, fmt.Sprintf("DB_MAX_CONNS (%d) must be >= DB_MIN_CONNS (%d)",
			c.Database.MaxConns, c.Database.MinConns))
	}

	if c.Parser.Delimiter == "" {
		errs = append(errs, "NEM12_DELIMITER must not be empty")
	}
	if c.Parser.MaxLineBytes <= 0 {
		errs = append(errs, "NEM12_MAX_LINE_BYTES must be positive")
	}
	if layout := c.Parser.DateLayout; layout != "" {
		probe := time.Date(2025, 9, 12, 0, 0, 0, 0, time.UTC)
		if _, err := time.Parse(layout, probe.Format(layout)); err != nil {
			errs = append(errs, fmt.Sprintf("NEM12_DATE_LAYOUT (%q) is not a usable time layout", layout))
		}
	}

	if c.Ingest.BatchSize <= 0 {
		errs = append(errs, "INGEST_BATCH_SIZE must be positive")
	}
	if c.Ingest.MaxConcurrent <= 0 {
		errs = append(errs, "INGEST_MAX_CONCURRENT must be positive")
	}
	if c.Ingest.MaxWaitTime <= 0 {
		errs = append(errs, "INGEST_MAX_WAIT_TIME must be positive")
	}
	if c.Ingest.Timeout <= 0 {
		errs = append(errs, "INGEST_TIMEOUT must be positive")
	}
	if c.Ingest.MaxFileSize <= 0 {
		errs = append(errs, "INGEST_MAX_FILE_SIZE must be positive")
	}
	if c.Ingest.InboxDir != "" && c.Ingest.PollInterval <= 0 {
		errs = append(errs, "INGEST_POLL_INTERVAL must be positive when INGEST_INBOX_DIR is set")
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("SERVER_PORT (%d) must be 1-65535", c.Server.Port))
	}
	if c.Server.RateLimit < 0 {
		errs = append(errs, fmt.Sprintf("SERVER_RATE_LIMIT (%d) must not be negative", c.Server.RateLimit))
	}
	if c.Server.ShutdownTimeout <= 0 {
		errs = append(errs, "SERVER_SHUTDOWN_TIMEOUT must be positive")
	}

	if c.Security.RequireAPIKey && len(c.Security.APIKeys) == 0 {
		errs = append(errs, "REQUIRE_API_KEY is true but API_KEYS is empty; configure at least one API key or disable auth")
	}

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

// RequireDatabase reports an error when no database URL is configured.
// Commands that never touch the database skip this check.
func (c *Config) RequireDatabase() error {
	if c.Database.URL == "" {
		return errors.New("DATABASE_URL is required")
	}
	return nil
}

// String returns a safe string representation of the config for logging.
// Sensitive values like database URLs are masked.
func (c *Config) String() string {
	var b strings.Builder
	b.WriteString("Config{")
	fmt.Fprintf(&b, "Database: {URL: [MASKED], MaxConns: %d, MinConns: %d}, ",
		c.Database.MaxConns, c.Database.MinConns)
	fmt.Fprintf(&b, "Parser: {Delimiter: %q, DateLayout: %q}, ",
		c.Parser.Delimiter, c.Parser.DateLayout)
	fmt.Fprintf(&b, "Ingest: {BatchSize: %d, MaxConcurrent: %d, InboxDir: %q}, ",
		c.Ingest.BatchSize, c.Ingest.MaxConcurrent, c.Ingest.InboxDir)
	fmt.Fprintf(&b, "Server: {Host: %q, Port: %d}, ", c.Server.Host, c.Server.Port)
	fmt.Fprintf(&b, "Logging: {Level: %q, Format: %q}",
		c.Logging.Level, c.Logging.Format)
	b.WriteString("}")
	return b.String()
}
