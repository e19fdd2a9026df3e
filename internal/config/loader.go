package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"reflect"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// DefaultFile is read from the working directory when no file is given.
const DefaultFile = "lexconv.yaml"

// defaults are the built-in values, keyed like the YAML file.
var defaults = map[string]any{
	"server.host":             "127.0.0.1",
	"server.port":             8080,
	"server.read_timeout":     "15s",
	"server.write_timeout":    "60s",
	"server.idle_timeout":     "60s",
	"server.shutdown_timeout": "30s",
	"server.request_timeout":  "60s",

	"upload.max_file_size":  104857600,
	"upload.max_concurrent": 5,
	"upload.max_wait_time":  "30s",

	"rate.enabled":             true,
	"rate.requests_per_minute": 100,
	"rate.upload_limit":        10,

	"security.trusted_proxies": "",
	"security.enable_csp":      true,
	"security.require_api_key": false,
	"security.api_keys":        "",

	"logging.level":  "info",
	"logging.format": "text",

	"presets.driver": "sqlite",
	"presets.path":   "lexconv.db",

	"lift.headword_lang": "th",
	"lift.gloss_lang":    "en",
	"lift.producer":      "lexconv",

	"session.ttl":         "2h",
	"session.cookie_name": "lexconv_session",
	"session.secure":      false,

	"convert.normalize_nfc": false,
	"convert.all_columns":   false,
}

// envKeys maps environment variables to config keys.
var envKeys = map[string]string{
	"SERVER_HOST":             "server.host",
	"SERVER_PORT":             "server.port",
	"SERVER_READ_TIMEOUT":     "server.read_timeout",
	"SERVER_WRITE_TIMEOUT":    "server.write_timeout",
	"SERVER_IDLE_TIMEOUT":     "server.idle_timeout",
	"SERVER_SHUTDOWN_TIMEOUT": "server.shutdown_timeout",
	"SERVER_REQUEST_TIMEOUT":  "server.request_timeout",

	"UPLOAD_MAX_FILE_SIZE":  "upload.max_file_size",
	"UPLOAD_MAX_CONCURRENT": "upload.max_concurrent",
	"UPLOAD_MAX_WAIT_TIME":  "upload.max_wait_time",

	"RATE_LIMIT_ENABLED":             "rate.enabled",
	"RATE_LIMIT_REQUESTS_PER_MINUTE": "rate.requests_per_minute",
	"RATE_LIMIT_UPLOAD":              "rate.upload_limit",

	"TRUSTED_PROXIES":     "security.trusted_proxies",
	"SECURITY_ENABLE_CSP": "security.enable_csp",
	"REQUIRE_API_KEY":     "security.require_api_key",
	"API_KEYS":            "security.api_keys",

	"LOG_LEVEL":  "logging.level",
	"LOG_FORMAT": "logging.format",

	"PRESETS_DRIVER": "presets.driver",
	"PRESETS_PATH":   "presets.path",
	"DATABASE_URL":   "presets.database_url",
	"DB_URL":         "presets.database_url",

	"LIFT_HEADWORD_LANG": "lift.headword_lang",
	"LIFT_GLOSS_LANG":    "lift.gloss_lang",
	"LIFT_PRODUCER":      "lift.producer",

	"SESSION_SECRET":      "session.secret",
	"SESSION_TTL":         "session.ttl",
	"SESSION_COOKIE_NAME": "session.cookie_name",
	"SESSION_SECURE":      "session.secure",

	"INPUT_ENCODING":  "convert.encoding",
	"INPUT_NFC":       "convert.normalize_nfc",
	"SFM_ALL_COLUMNS": "convert.all_columns",
}

// flagKeys maps command line flags to config keys.
var flagKeys = map[string]string{
	"host":           "server.host",
	"port":           "server.port",
	"log-level":      "logging.level",
	"log-format":     "logging.format",
	"presets-driver": "presets.driver",
	"presets-path":   "presets.path",
	"database-url":   "presets.database_url",
	"headword-lang":  "lift.headword_lang",
	"gloss-lang":     "lift.gloss_lang",
	"encoding":       "convert.encoding",
	"nfc":            "convert.normalize_nfc",
	"all-columns":    "convert.all_columns",
}

// LoadOptions tells Load where to look beyond defaults and the environment.
type LoadOptions struct {
	// File is an explicit YAML file. When empty, DefaultFile is used if it
	// exists.
	File string

	// Flags are the parsed command line flags. Only flags the user changed
	// override other sources.
	Flags *pflag.FlagSet
}

// Load reads configuration from all sources and validates the result.
func Load(opts LoadOptions) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults, "."), nil); err != nil {
		return nil, fmt.Errorf("config load: defaults: %w", err)
	}

	path, explicit := opts.File, opts.File != ""
	if !explicit {
		path = DefaultFile
	}
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config load: %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", func(s string) string {
		// DB_URL is only a fallback for DATABASE_URL.
		if s == "DB_URL" && os.Getenv("DATABASE_URL") != "" {
			return ""
		}
		return envKeys[s]
	}), nil); err != nil {
		return nil, fmt.Errorf("config load: environment: %w", err)
	}

	if opts.Flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(opts.Flags, ".", k, func(f *pflag.Flag) (string, any) {
			key, ok := flagKeys[f.Name]
			if !ok || !f.Changed {
				return "", nil
			}
			return key, posflag.FlagVal(opts.Flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("config load: flags: %w", err)
		}
	}

	cfg := &Config{}
	err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				commaList,
			),
			Result:           cfg,
			WeaklyTypedInput: true,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

// commaList splits comma-separated strings into trimmed, non-empty items.
func commaList(from, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.String || to.Kind() != reflect.Slice {
		return data, nil
	}
	parts := strings.Split(data.(string), ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out, nil
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

	// Upload validation
	if c.Upload.MaxFileSize <= 0 {
		errs = append(errs, "UPLOAD_MAX_FILE_SIZE must be positive")
	}
	if c.Upload.MaxConcurrent <= 0 {
		errs = append(errs, "UPLOAD_MAX_CONCURRENT must be positive")
	}
	if c.Upload.MaxWaitTime <= 0 {
		errs = append(errs, "UPLOAD_MAX_WAIT_TIME must be positive")
	}

	// Rate limit validation
	if c.Rate.Enabled && c.Rate.RequestsPerMinute <= 0 {
		errs = append(errs, "RATE_LIMIT_REQUESTS_PER_MINUTE must be positive when rate limiting is enabled")
	}

	// Security validation
	if c.Security.RequireAPIKey && len(c.Security.APIKeys) == 0 {
		errs = append(errs, "REQUIRE_API_KEY is true but API_KEYS is empty; configure at least one API key or disable auth")
	}

	// Presets validation
	switch strings.ToLower(c.Presets.Driver) {
	case "memory":
	case "sqlite":
		if c.Presets.Path == "" {
			errs = append(errs, "PRESETS_PATH is required for the sqlite driver")
		}
	case "postgres":
		if c.Presets.DatabaseURL == "" {
			errs = append(errs, "DATABASE_URL is required for the postgres driver")
		}
	default:
		errs = append(errs, fmt.Sprintf("PRESETS_DRIVER (%q) must be one of: memory, sqlite, postgres", c.Presets.Driver))
	}

	// LIFT validation
	if c.LIFT.HeadwordLang == "" || c.LIFT.GlossLang == "" {
		errs = append(errs, "LIFT_HEADWORD_LANG and LIFT_GLOSS_LANG must not be empty")
	}

	// Session validation
	if c.Session.TTL <= 0 {
		errs = append(errs, "SESSION_TTL must be positive")
	}
	if n := len(c.Session.Secret); n > 0 && n < 32 {
		errs = append(errs, fmt.Sprintf("SESSION_SECRET must be at least 32 bytes (got %d)", n))
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

// String returns a safe string representation of the config for logging.
// Secrets and database URLs are masked.
func (c *Config) String() string {
	var b strings.Builder
	b.WriteString("Config{")
	fmt.Fprintf(&b, "Server: {Host: %q, Port: %d}, ", c.Server.Host, c.Server.Port)
	fmt.Fprintf(&b, "Upload: {MaxFileSize: %d, MaxConcurrent: %d}, ",
		c.Upload.MaxFileSize, c.Upload.MaxConcurrent)
	fmt.Fprintf(&b, "Rate: {Enabled: %v, RequestsPerMinute: %d}, ",
		c.Rate.Enabled, c.Rate.RequestsPerMinute)
	fmt.Fprintf(&b, "Presets: {Driver: %q, Path: %q, DatabaseURL: %s}, ",
		c.Presets.Driver, c.Presets.Path, mask(c.Presets.DatabaseURL))
	fmt.Fprintf(&b, "Session: {Secret: %s, TTL: %s}, ", mask(c.Session.Secret), c.Session.TTL)
	fmt.Fprintf(&b, "Logging: {Level: %q, Format: %q}",
		c.Logging.Level, c.Logging.Format)
	b.WriteString("}")
	return b.String()
}

func mask(s string) string {
	if s == "" {
		return `""`
	}
	return "[MASKED]"
}
