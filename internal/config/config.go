// Package config loads the unfold service settings from the environment.
// Every field has a default, so the CLI runs with no configuration at all;
// the serve and query commands read the same structure.
package config

import (
	"net"
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Unfold   UnfoldConfig
	Logging  LoggingConfig
	Security SecurityConfig
}

// ServerConfig holds HTTP server settings for the serve command.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT" default:"30s"`
	IdleTimeout     time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`
}

// DatabaseConfig holds PostgreSQL settings for the query command.
type DatabaseConfig struct {
	// URL is only needed by the query command, which reports its absence.
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	MaxConns int `env:"DB_MAX_CONNS" default:"4"`
	MinConns int `env:"DB_MIN_CONNS" default:"0"`

	// QueryTimeout bounds a single unfold query (default: 5m)
	QueryTimeout time.Duration `env:"DB_QUERY_TIMEOUT" default:"5m"`
}

// UnfoldConfig holds limits applied to HTTP unfold jobs.
type UnfoldConfig struct {
	// MaxUploadSize caps the request body in bytes (default: 50MB)
	MaxUploadSize int64 `env:"UNFOLD_MAX_UPLOAD_SIZE" default:"52428800"`

	// MaxConcurrent is the number of jobs that may run at once (default: 4)
	MaxConcurrent int `env:"UNFOLD_MAX_CONCURRENT" default:"4"`

	// MaxWaitTime is how long a job waits for a free slot (default: 10s)
	MaxWaitTime time.Duration `env:"UNFOLD_MAX_WAIT_TIME" default:"10s"`

	// Timeout bounds a whole request, upload included (default: 2m)
	Timeout time.Duration `env:"UNFOLD_TIMEOUT" default:"2m"`

	// Filler pads short pivot groups. An empty variable keeps the default.
	Filler string `env:"UNFOLD_FILLER" default:"0"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of proxy CIDRs whose
	// forwarding headers are believed.
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// RequireAPIKey guards the /api routes with an X-API-Key check.
	RequireAPIKey bool `env:"REQUIRE_API_KEY" default:"false"`

	// APIKeys is a comma-separated list of accepted keys.
	APIKeys []string `env:"API_KEYS"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
