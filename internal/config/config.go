// Package config provides centralized configuration management for the exporter.
// It loads configuration from environment variables with defaults, lets
// command-line flags override them, and validates the result to fail fast
// on misconfiguration.
package config

import (
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Database DatabaseConfig
	Export   ExportConfig
	Server   ServerConfig
	Logging  LoggingConfig
}

// DatabaseConfig holds source database connection settings.
type DatabaseConfig struct {
	// Driver selects the SQL driver: mysql or postgres (default: mysql)
	Driver string `env:"DB_DRIVER" default:"mysql"`

	// Host is the database host; it may embed a port as host:port (default: localhost)
	Host string `env:"DB_HOST" default:"localhost"`

	// Port is used when Host has no port (default: 3306)
	Port int `env:"DB_PORT" default:"3306"`

	// User is the database user (default: openemr)
	User string `env:"DB_USER" default:"openemr"`

	// Password is the database password (default: openemr)
	Password string `env:"DB_PASSWORD" envAlt:"DB_PASS" default:"openemr"`

	// Name is the database name (default: openemr)
	Name string `env:"DB_NAME" envAlt:"DB_DATABASE" default:"openemr"`

	// ConnectTimeout bounds opening and pinging the connection (default: 10s)
	ConnectTimeout time.Duration `env:"DB_CONNECT_TIMEOUT" default:"10s"`
}

// ExportConfig holds workbook output settings.
type ExportConfig struct {
	// OutputDir is where workbooks are written (default: exports)
	OutputDir string `env:"EXPORT_OUTPUT_DIR" default:"exports"`

	// ReferenceTable holds coded value titles (default: list_options)
	ReferenceTable string `env:"EXPORT_REFERENCE_TABLE" default:"list_options"`
}

// ServerConfig holds settings for the optional HTTP trigger.
type ServerConfig struct {
	// Host is the interface to bind to (default: 127.0.0.1)
	Host string `env:"SERVER_HOST" default:"127.0.0.1"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading a request (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout bounds writing a response; 0 disables it (default: 0s)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"0s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// APIKeys is a comma-separated list of keys accepted in X-API-Key.
	// Empty disables authentication.
	APIKeys []string `env:"SERVER_API_KEYS"`

	// TrustedProxies is a comma-separated list of proxy CIDRs whose
	// X-Real-IP and X-Forwarded-For headers are honored
	TrustedProxies []string `env:"SERVER_TRUSTED_PROXIES"`
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
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Address returns host:port for the database. A port embedded in Host
// takes precedence over Port.
func (c *DatabaseConfig) Address() string {
	if _, _, err := net.SplitHostPort(c.Host); err == nil {
		return c.Host
	}
	if c.Port == 0 {
		return c.Host
	}
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// ConnString returns the connection string in the form
// <driver>://<user>:<password>@<host>[:<port>]/<database>.
func (c *DatabaseConfig) ConnString() string {
	return c.connURL().String()
}

// Redacted returns the connection string with the password masked.
func (c *DatabaseConfig) Redacted() string {
	return c.connURL().Redacted()
}

func (c *DatabaseConfig) connURL() *url.URL {
	return &url.URL{
		Scheme: strings.ToLower(c.Driver),
		User:   url.UserPassword(c.User, c.Password),
		Host:   c.Address(),
		Path:   "/" + c.Name,
	}
}
