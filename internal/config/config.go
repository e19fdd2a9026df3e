// Package config provides centralized configuration management for the application.
// Settings come from built-in defaults, an optional YAML file, environment
// variables and command line flags, in increasing order of precedence. The
// result is validated on startup to fail fast on misconfiguration.
package config

import (
	"net"
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig    `koanf:"server"`
	Upload   UploadConfig    `koanf:"upload"`
	Rate     RateLimitConfig `koanf:"rate"`
	Security SecurityConfig  `koanf:"security"`
	Logging  LoggingConfig   `koanf:"logging"`
	Presets  PresetsConfig   `koanf:"presets"`
	LIFT     LIFTConfig      `koanf:"lift"`
	Session  SessionConfig   `koanf:"session"`
	Convert  ConvertConfig   `koanf:"convert"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 127.0.0.1)
	Host string `koanf:"host"`

	// Port is the port to listen on (default: 8080)
	Port int `koanf:"port"`

	// ReadTimeout is the maximum duration for reading request body (default: 15s)
	ReadTimeout time.Duration `koanf:"read_timeout"`

	// WriteTimeout is the maximum duration for writing response (default: 60s)
	WriteTimeout time.Duration `koanf:"write_timeout"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `koanf:"idle_timeout"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	// RequestTimeout is the middleware timeout for requests (default: 60s)
	RequestTimeout time.Duration `koanf:"request_timeout"`
}

// UploadConfig holds file upload settings.
type UploadConfig struct {
	// MaxFileSize is the maximum allowed file size in bytes (default: 100MB)
	MaxFileSize int64 `koanf:"max_file_size"`

	// MaxConcurrent is the maximum number of files parsed at once (default: 5)
	MaxConcurrent int `koanf:"max_concurrent"`

	// MaxWaitTime is how long to wait for a parse slot (default: 30s)
	MaxWaitTime time.Duration `koanf:"max_wait_time"`
}

// RateLimitConfig holds rate limiting settings per time window.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `koanf:"enabled"`

	// RequestsPerMinute is the default rate limit per IP (default: 100)
	RequestsPerMinute int `koanf:"requests_per_minute"`

	// UploadLimit is requests per minute for upload endpoints (default: 10)
	UploadLimit int `koanf:"upload_limit"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `koanf:"trusted_proxies"`

	// EnableCSP enables Content-Security-Policy headers (default: true)
	EnableCSP bool `koanf:"enable_csp"`

	// RequireAPIKey protects /api routes with X-API-Key (default: false)
	RequireAPIKey bool `koanf:"require_api_key"`

	// APIKeys is a comma-separated list of accepted API keys
	APIKeys []string `koanf:"api_keys"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `koanf:"level"`

	// Format is the log format: text or json (default: text)
	Format string `koanf:"format"`
}

// PresetsConfig selects where saved mapping presets live.
type PresetsConfig struct {
	// Driver is memory, sqlite or postgres (default: sqlite)
	Driver string `koanf:"driver"`

	// Path is the SQLite database file (default: lexconv.db)
	Path string `koanf:"path"`

	// DatabaseURL is the PostgreSQL connection string (postgres driver only)
	DatabaseURL string `koanf:"database_url"`
}

// LIFTConfig holds the language tags written to LIFT output.
type LIFTConfig struct {
	// HeadwordLang tags lexical-unit forms (default: th)
	HeadwordLang string `koanf:"headword_lang"`

	// GlossLang tags sense glosses (default: en)
	GlossLang string `koanf:"gloss_lang"`

	// Producer is written to the lift root element (default: lexconv)
	Producer string `koanf:"producer"`
}

// SessionConfig holds browser session settings.
type SessionConfig struct {
	// Secret signs the session cookie. A random key is generated when empty,
	// which logs every user out on restart.
	Secret string `koanf:"secret"`

	// TTL is how long an idle session is kept (default: 2h)
	TTL time.Duration `koanf:"ttl"`

	// CookieName is the session cookie name (default: lexconv_session)
	CookieName string `koanf:"cookie_name"`

	// Secure marks the cookie HTTPS-only (default: false)
	Secure bool `koanf:"secure"`
}

// ConvertConfig holds input decoding settings.
type ConvertConfig struct {
	// Encoding of CSV and SFM input; empty means UTF-8
	Encoding string `koanf:"encoding"`

	// NormalizeNFC composes decomposed characters on input (default: false)
	NormalizeNFC bool `koanf:"normalize_nfc"`

	// AllColumns lists markers from every SFM entry, not only the first (default: false)
	AllColumns bool `koanf:"all_columns"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
