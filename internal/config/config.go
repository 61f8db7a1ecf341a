// Package config provides centralized configuration management for the application.
// It loads configuration from environment variables, an optional YAML file and
// tag defaults, and validates all settings on startup to fail fast on
// misconfiguration.
package config

import (
	"path/filepath"
	"strconv"
	"time"
)

// Config holds all application configuration.
// Every setting can be configured via environment variables.
type Config struct {
	Database DatabaseConfig
	Parser   ParserConfig
	Ingest   IngestConfig
	Server   ServerConfig
	Security SecurityConfig
	Logging  LoggingConfig
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string.
	// Supports both DATABASE_URL and DB_URL env vars for compatibility.
	URL string `env:"DATABASE_URL" envAlt:"DB_URL" file:"database.url"`

	// MaxConns is the maximum number of connections in the pool (default: 10)
	MaxConns int `env:"DB_MAX_CONNS" file:"database.max_conns" default:"10"`

	// MinConns is the minimum number of connections to keep open (default: 1)
	MinConns int `env:"DB_MIN_CONNS" file:"database.min_conns" default:"1"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" file:"database.max_conn_lifetime" default:"1h"`

	// MaxConnIdleTime is the maximum idle time before a connection is closed (default: 30m)
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" file:"database.max_conn_idle_time" default:"30m"`
}

// ParserConfig holds NEM12 parsing settings.
type ParserConfig struct {
	// Delimiter separates record fields (default: ",")
	Delimiter string `env:"NEM12_DELIMITER" file:"parser.delimiter" default:","`

	// DateLayout is the Go time layout of interval dates (default: 2006-01-02)
	DateLayout string `env:"NEM12_DATE_LAYOUT" file:"parser.date_layout" default:"2006-01-02"`

	// MaxLineBytes bounds a single record line (default: 1MB)
	MaxLineBytes int `env:"NEM12_MAX_LINE_BYTES" file:"parser.max_line_bytes" default:"1048576"`
}

// IngestConfig holds file ingestion settings.
type IngestConfig struct {
	// BatchSize is the number of readings per database insert batch (default: 500)
	BatchSize int `env:"INGEST_BATCH_SIZE" file:"ingest.batch_size" default:"500"`

	// MaxConcurrent is the maximum number of files ingested in parallel (default: 4)
	MaxConcurrent int `env:"INGEST_MAX_CONCURRENT" file:"ingest.max_concurrent" default:"4"`

	// MaxWaitTime is how long to wait for an ingest slot (default: 30s)
	MaxWaitTime time.Duration `env:"INGEST_MAX_WAIT_TIME" file:"ingest.max_wait_time" default:"30s"`

	// Timeout is the maximum duration of a single file ingest (default: 10m)
	Timeout time.Duration `env:"INGEST_TIMEOUT" file:"ingest.timeout" default:"10m"`

	// MaxFileSize is the maximum accepted upload size in bytes (default: 100MB)
	MaxFileSize int64 `env:"INGEST_MAX_FILE_SIZE" file:"ingest.max_file_size" default:"104857600"`

	// InboxDir is polled for new files when set
	InboxDir string `env:"INGEST_INBOX_DIR" file:"ingest.inbox_dir"`

	// ProcessedDir receives files after a successful ingest (default: <inbox>/processed)
	ProcessedDir string `env:"INGEST_PROCESSED_DIR" file:"ingest.processed_dir"`

	// PollInterval is how often InboxDir is scanned (default: 1m)
	PollInterval time.Duration `env:"INGEST_POLL_INTERVAL" file:"ingest.poll_interval" default:"1m"`

	// ErrorLog is the append-only CSV file receiving every error event (default: error_log.csv)
	ErrorLog string `env:"INGEST_ERROR_LOG" file:"ingest.error_log" default:"error_log.csv"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" file:"server.host" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" file:"server.port" default:"8080"`

	// ReadTimeout is the maximum duration for reading request body (default: 60s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" file:"server.read_timeout" default:"60s"`

	// WriteTimeout is the maximum duration for writing a response (default: 60s)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" file:"server.write_timeout" default:"60s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" file:"server.idle_timeout" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" file:"server.shutdown_timeout" default:"30s"`

	// RateLimit is the number of requests per minute allowed per client IP; 0 disables (default: 100)
	RateLimit int `env:"SERVER_RATE_LIMIT" file:"server.rate_limit" default:"100"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// RequireAPIKey enables X-API-Key checks on /api routes (default: false)
	RequireAPIKey bool `env:"REQUIRE_API_KEY" file:"security.require_api_key" default:"false"`

	// APIKeys is a comma-separated list of accepted API keys
	APIKeys []string `env:"API_KEYS" file:"security.api_keys"`

	// CORSAllowedOrigins is a comma-separated list of origins allowed by CORS
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" file:"security.cors_allowed_origins"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" file:"logging.level" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" file:"logging.format" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}

// ProcessedPath returns the directory successfully ingested inbox files are
// moved to.
func (c *IngestConfig) ProcessedPath() string {
	if c.ProcessedDir != "" {
		return c.ProcessedDir
	}
	if c.InboxDir == "" {
		return ""
	}
	return filepath.Join(c.InboxDir, "processed")
}
