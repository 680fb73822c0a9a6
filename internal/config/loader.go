package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
)

var durationType = reflect.TypeOf(time.Duration(0))

// Load reads configuration from environment variables, applying defaults
// for unset values, and validates the result. Every malformed variable is
// reported, not just the first.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := loadStruct(reflect.ValueOf(cfg).Elem()); err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// envVar is the parsed set of struct tags for one field.
type envVar struct {
	name     string
	alt      string
	fallback string
	required bool
}

func envVarFor(f reflect.StructField) (envVar, bool) {
	name := f.Tag.Get("env")
	if name == "" {
		return envVar{}, false
	}
	return envVar{
		name:     name,
		alt:      f.Tag.Get("envAlt"),
		fallback: f.Tag.Get("default"),
		required: f.Tag.Get("required") == "true",
	}, true
}

// resolve returns the effective raw value: primary variable, then the
// alternate name, then the default.
func (s envVar) resolve() (string, error) {
	if v := os.Getenv(s.name); v != "" {
		return v, nil
	}
	if s.alt != "" {
		if v := os.Getenv(s.alt); v != "" {
			return v, nil
		}
	}
	if s.required {
		return "", fmt.Errorf("required environment variable %s is not set", s.name)
	}
	return s.fallback, nil
}

// loadStruct walks the nested sections and fills tagged fields.
func loadStruct(v reflect.Value) error {
	var errs []error
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		fv := v.Field(i)
		if !fv.CanSet() {
			continue
		}

		if field.Type.Kind() == reflect.Struct {
			if err := loadStruct(fv); err != nil {
				errs = append(errs, err)
			}
			continue
		}

		ev, ok := envVarFor(field)
		if !ok {
			continue
		}
		raw, err := ev.resolve()
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if raw == "" {
			continue
		}
		if err := setField(fv, raw); err != nil {
			errs = append(errs, fmt.Errorf("invalid value for %s=%q: %w", ev.name, raw, err))
		}
	}

	return errors.Join(errs...)
}

// setField parses raw into the field according to its type.
func setField(field reflect.Value, raw string) error {
	if field.Type() == durationType {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("invalid duration: %w", err)
		}
		field.SetInt(int64(d))
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(raw)
	case reflect.Int, reflect.Int64:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid integer: %w", err)
		}
		field.SetInt(n)
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("invalid boolean: %w", err)
		}
		field.SetBool(b)
	case reflect.Slice:
		if field.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("unsupported slice type: %s", field.Type().Elem().Kind())
		}
		field.Set(reflect.ValueOf(splitList(raw)))
	default:
		return fmt.Errorf("unsupported field type: %s", field.Kind())
	}
	return nil
}

// splitList splits a comma-separated value, dropping blanks.
func splitList(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate checks that the configuration is usable.
// Returns an error describing all validation failures.
func (c *Config) Validate() error {
	var errs []string
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Sprintf(format, args...))
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		fail("SERVER_PORT (%d) must be 1-65535", c.Server.Port)
	}
	if c.Server.ReadTimeout < 0 {
		fail("SERVER_READ_TIMEOUT must be non-negative")
	}
	if c.Server.ShutdownTimeout <= 0 {
		fail("SERVER_SHUTDOWN_TIMEOUT must be positive")
	}

	if c.Database.MaxConns <= 0 {
		fail("DB_MAX_CONNS must be positive")
	}
	if c.Database.MinConns < 0 {
		fail("DB_MIN_CONNS must be non-negative")
	}
	if c.Database.MaxConns < c.Database.MinConns {
		fail("DB_MAX_CONNS (%d) must be >= DB_MIN_CONNS (%d)", c.Database.MaxConns, c.Database.MinConns)
	}
	if c.Database.QueryTimeout <= 0 {
		fail("DB_QUERY_TIMEOUT must be positive")
	}

	if c.Unfold.MaxUploadSize <= 0 {
		fail("UNFOLD_MAX_UPLOAD_SIZE must be positive")
	}
	if c.Unfold.MaxConcurrent <= 0 {
		fail("UNFOLD_MAX_CONCURRENT must be positive")
	}
	if c.Unfold.MaxWaitTime <= 0 {
		fail("UNFOLD_MAX_WAIT_TIME must be positive")
	}
	if c.Unfold.Timeout <= 0 {
		fail("UNFOLD_TIMEOUT must be positive")
	}

	for _, cidr := range c.Security.TrustedProxies {
		if net.ParseIP(cidr) != nil {
			continue
		}
		if _, _, err := net.ParseCIDR(cidr); err != nil {
			fail("TRUSTED_PROXIES entry %q is neither an IP nor a CIDR", cidr)
		}
	}

	if c.Security.RequireAPIKey && len(c.Security.APIKeys) == 0 {
		fail("REQUIRE_API_KEY is true but API_KEYS is empty")
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		fail("LOG_LEVEL (%q) must be one of: debug, info, warn, error", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		fail("LOG_FORMAT (%q) must be one of: text, json", c.Logging.Format)
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// String returns a representation safe for logging; the database URL is masked.
func (c *Config) String() string {
	dbURL := ""
	if c.Database.URL != "" {
		dbURL = "[MASKED]"
	}
	return fmt.Sprintf("Config{Server: {Addr: %q}, Database: {URL: %q, MaxConns: %d}, "+
		"Unfold: {MaxUploadSize: %d, MaxConcurrent: %d, Timeout: %s, Filler: %q}, "+
		"Logging: {Level: %q, Format: %q}}",
		c.Server.Addr(), dbURL, c.Database.MaxConns,
		c.Unfold.MaxUploadSize, c.Unfold.MaxConcurrent, c.Unfold.Timeout, c.Unfold.Filler,
		c.Logging.Level, c.Logging.Format)
}
