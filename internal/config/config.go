// Package config provides centralized configuration management for the application.
// It loads configuration from environment variables with sensible defaults and
// validates the process-level settings on startup to fail fast on misconfiguration.
//
// Store credentials are grouped under Targets. They are checked lazily by the
// sink that needs them, because a deployment usually talks to one store only.
package config

import (
	"strconv"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server   ServerConfig
	Upload   UploadConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Logging  LoggingConfig
	Targets  Targets
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading request body (default: 30s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"30s"`

	// WriteTimeout is the maximum duration for writing a response (default: 0, bounded by RequestTimeout)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"0s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 10m)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"10m"`
}

// UploadConfig holds ingestion settings.
type UploadConfig struct {
	// MaxFileSize is the maximum accepted file size in bytes (default: 32MB)
	MaxFileSize int64 `env:"UPLOAD_MAX_FILE_SIZE" default:"33554432"`

	// MaxConcurrent is the maximum number of parallel ingests (default: 4)
	MaxConcurrent int `env:"UPLOAD_MAX_CONCURRENT" default:"4"`

	// MaxWaitTime is how long to wait for an ingest slot (default: 30s)
	MaxWaitTime time.Duration `env:"UPLOAD_MAX_WAIT_TIME" default:"30s"`

	// Timeout bounds a single ingest end to end (default: 10m)
	Timeout time.Duration `env:"UPLOAD_TIMEOUT" default:"10m"`
}

// RateLimitConfig holds rate limiting settings per time window.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the default rate limit per IP (default: 100)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"100"`

	// UploadLimit is requests per minute for upload endpoints (default: 10)
	UploadLimit int `env:"RATE_LIMIT_UPLOAD" default:"10"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Targets groups the connection settings of every supported store.
// It is passed by value into the sink dispatcher.
type Targets struct {
	Relational RelationalConfig
	KeyValue   KeyValueConfig
	Document   DocumentConfig
	Graph      GraphConfig
}

// RelationalConfig holds SQL database settings.
type RelationalConfig struct {
	// Driver is one of postgres, mysql, sqlite, sqlserver (default: mysql)
	Driver string `env:"RELATIONAL_DRIVER" default:"mysql"`

	Host     string `env:"RELATIONAL_HOST" envAlt:"MYSQL_HOST"`
	Port     int    `env:"RELATIONAL_PORT"`
	User     string `env:"RELATIONAL_USER" envAlt:"MYSQL_USER"`
	Password string `env:"RELATIONAL_PASSWORD" envAlt:"MYSQL_PASSWORD" secret:"true"`

	// Database is the schema name, or the file path for sqlite
	Database string `env:"RELATIONAL_DATABASE" envAlt:"MYSQL_DATABASE"`

	// DSN overrides every other field when set
	DSN string `env:"RELATIONAL_DSN" secret:"true"`
}

// KeyValueConfig holds DynamoDB settings. Credentials come from the
// standard AWS chain.
type KeyValueConfig struct {
	Region string `env:"AWS_REGION" envAlt:"AWS_DEFAULT_REGION"`

	// Endpoint overrides the service endpoint (e.g. DynamoDB Local)
	Endpoint string `env:"DYNAMODB_ENDPOINT"`

	// Static keys replace the default credential chain when both are set
	AccessKeyID     string `env:"DYNAMODB_ACCESS_KEY_ID"`
	SecretAccessKey string `env:"DYNAMODB_SECRET_ACCESS_KEY" secret:"true"`

	// TableWait bounds the wait for a new table to become active (default: 2m)
	TableWait time.Duration `env:"KEYVALUE_TABLE_WAIT" default:"2m"`

	// VerifyDelay is the pause before the read-back count (default: 5s)
	VerifyDelay time.Duration `env:"KEYVALUE_VERIFY_DELAY" default:"5s"`

	// WriteConcurrency is the number of batch requests in flight (default: 4)
	WriteConcurrency int `env:"KEYVALUE_WRITE_CONCURRENCY" default:"4"`
}

// DocumentConfig holds DocumentDB / MongoDB settings.
type DocumentConfig struct {
	URI      string `env:"DOCUMENTDB_URI" envAlt:"MONGODB_URI" secret:"true"`
	Database string `env:"DOCUMENTDB_DATABASE" envAlt:"MONGODB_DATABASE"`

	// Timeout bounds connect and ping (default: 10s)
	Timeout time.Duration `env:"DOCUMENTDB_TIMEOUT" default:"10s"`
}

// GraphConfig holds Neptune / Gremlin Server settings.
type GraphConfig struct {
	Endpoint string `env:"NEPTUNE_ENDPOINT" envAlt:"GREMLIN_ENDPOINT"`
	Port     int    `env:"NEPTUNE_PORT" default:"8182"`

	// TLS selects wss:// over ws:// (default: true)
	TLS bool `env:"NEPTUNE_TLS" default:"true"`

	// TraversalSource is the server-side traversal alias (default: g)
	TraversalSource string `env:"GRAPH_TRAVERSAL_SOURCE" default:"g"`

	// UseBindings sends values as script bindings instead of escaped
	// literals. Neptune rejects bindings, Gremlin Server accepts them.
	UseBindings bool `env:"GRAPH_USE_BINDINGS" default:"false"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}

// URL returns the Gremlin websocket URL for the configured endpoint.
func (c GraphConfig) URL() string {
	scheme := "ws"
	if c.TLS {
		scheme = "wss"
	}
	return scheme + "://" + c.Endpoint + ":" + strconv.Itoa(c.Port) + "/gremlin"
}
