package config

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultEnvFile        = ".env"
	defaultPort           = "8080"
	defaultBackendBaseURL = "http://localhost:8080"
	defaultBackendTimeout = 10 * time.Second
	defaultTTSSpeaker     = "7"
	defaultListPageSize   = 8
	defaultLang           = "ko"
	defaultTemplatesDir   = "templates"
	defaultPublicDir      = "public"
	defaultLocalesDir     = "locales"
	defaultContentDir     = "content"
	defaultFormRate       = 10
	defaultFormBurst      = 5
	defaultReadTimeout    = 15 * time.Second
	defaultWriteTimeout   = 30 * time.Second
	defaultIdleTimeout    = 60 * time.Second
)

// Config captures all runtime configuration organised by concern.
type Config struct {
	Server    ServerConfig
	Backend   BackendConfig
	Paths     PathConfig
	Session   SessionConfig
	Site      SiteConfig
	RateLimit RateLimitConfig
}

// ServerConfig configures HTTP server parameters.
type ServerConfig struct {
	Port         string
	Env          string
	Dev          bool
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// Addr returns the listen address derived from Port.
func (s ServerConfig) Addr() string {
	if strings.HasPrefix(s.Port, ":") {
		return s.Port
	}
	return ":" + s.Port
}

// Production reports whether the server runs with production settings.
func (s ServerConfig) Production() bool {
	return strings.EqualFold(s.Env, "prod")
}

// BackendConfig points at the newsletter backend API.
type BackendConfig struct {
	BaseURL    string
	Timeout    time.Duration
	TTSSpeaker string
	PageSize   int
}

// PathConfig lists on-disk resources loaded at startup.
type PathConfig struct {
	Templates string
	Public    string
	Locales   string
	Content   string
}

// SessionConfig controls the signed session cookie.
type SessionConfig struct {
	SigningKey string
}

// SiteConfig carries presentation-level settings surfaced to templates.
type SiteConfig struct {
	DefaultLang      string
	GA4MeasurementID string
}

// RateLimitConfig throttles form submissions per client IP.
type RateLimitConfig struct {
	FormPerMinute int
	FormBurst     int
}

// ValidationError is returned when required configuration fields are missing or invalid.
type ValidationError struct {
	fields []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed: missing or invalid fields [%s]", strings.Join(e.fields, ", "))
}

// Fields returns a copy of the missing/invalid field list.
func (e *ValidationError) Fields() []string {
	out := make([]string, len(e.fields))
	copy(out, e.fields)
	return out
}

// Option customises Load behaviour.
type Option func(*loaderOptions)

type loaderOptions struct {
	envFile      string
	envMap       map[string]string
	useSystemEnv bool
}

// WithEnvFile overrides the .env file path used for local overrides.
func WithEnvFile(path string) Option {
	return func(o *loaderOptions) {
		o.envFile = path
	}
}

// WithEnvMap injects an explicit key/value map for environment lookups. Values in the map
// take precedence over system environment variables.
func WithEnvMap(values map[string]string) Option {
	return func(o *loaderOptions) {
		o.envMap = values
	}
}

// WithoutSystemEnv disables reading from os.Getenv, relying only on provided maps and .env files.
func WithoutSystemEnv() Option {
	return func(o *loaderOptions) {
		o.useSystemEnv = false
	}
}

// Load assembles the application configuration by combining defaults, .env overrides,
// and environment variables.
func Load(_ context.Context, opts ...Option) (Config, error) {
	options := loaderOptions{
		envFile:      defaultEnvFile,
		useSystemEnv: true,
	}
	for _, opt := range opts {
		opt(&options)
	}

	dotEnvValues, err := loadDotEnv(options.envFile)
	if err != nil {
		return Config{}, err
	}

	lookup := func(key string) (string, bool) {
		if options.envMap != nil {
			if value, ok := options.envMap[key]; ok {
				return value, true
			}
		}
		if options.useSystemEnv {
			if value, ok := os.LookupEnv(key); ok {
				return value, true
			}
		}
		if dotEnvValues != nil {
			if value, ok := dotEnvValues[key]; ok {
				return value, true
			}
		}
		return "", false
	}

	// Port resolution: prefer NIHONGO_WEB_PORT, then Cloud Run's PORT.
	port := stringWithDefault(lookup, "NIHONGO_WEB_PORT", stringWithDefault(lookup, "PORT", defaultPort))

	cfg := Config{
		Server: ServerConfig{
			Port:         port,
			Env:          strings.ToLower(stringWithDefault(lookup, "NIHONGO_WEB_ENV", "local")),
			Dev:          boolWithDefault(lookup, "NIHONGO_WEB_DEV", boolWithDefault(lookup, "DEV", false)),
			ReadTimeout:  durationWithDefault(lookup, "NIHONGO_WEB_READ_TIMEOUT", defaultReadTimeout),
			WriteTimeout: durationWithDefault(lookup, "NIHONGO_WEB_WRITE_TIMEOUT", defaultWriteTimeout),
			IdleTimeout:  durationWithDefault(lookup, "NIHONGO_WEB_IDLE_TIMEOUT", defaultIdleTimeout),
		},
		Backend: BackendConfig{
			BaseURL:    strings.TrimRight(stringWithDefault(lookup, "NIHONGO_WEB_BACKEND_BASE_URL", defaultBackendBaseURL), "/"),
			Timeout:    durationWithDefault(lookup, "NIHONGO_WEB_BACKEND_TIMEOUT", defaultBackendTimeout),
			TTSSpeaker: stringWithDefault(lookup, "NIHONGO_WEB_TTS_SPEAKER", defaultTTSSpeaker),
			PageSize:   intWithDefault(lookup, "NIHONGO_WEB_LIST_PAGE_SIZE", defaultListPageSize),
		},
		Paths: PathConfig{
			Templates: stringWithDefault(lookup, "NIHONGO_WEB_TEMPLATES_DIR", defaultTemplatesDir),
			Public:    stringWithDefault(lookup, "NIHONGO_WEB_PUBLIC_DIR", defaultPublicDir),
			Locales:   stringWithDefault(lookup, "NIHONGO_WEB_LOCALES_DIR", defaultLocalesDir),
			Content:   stringWithDefault(lookup, "NIHONGO_WEB_CONTENT_DIR", defaultContentDir),
		},
		Session: SessionConfig{
			SigningKey: stringWithDefault(lookup, "NIHONGO_WEB_SESSION_SIGNING_KEY", ""),
		},
		Site: SiteConfig{
			DefaultLang:      strings.ToLower(stringWithDefault(lookup, "NIHONGO_WEB_DEFAULT_LANG", defaultLang)),
			GA4MeasurementID: stringWithDefault(lookup, "NIHONGO_WEB_GA_MEASUREMENT_ID", ""),
		},
		RateLimit: RateLimitConfig{
			FormPerMinute: intWithDefault(lookup, "NIHONGO_WEB_FORM_RATE_PER_MINUTE", defaultFormRate),
			FormBurst:     intWithDefault(lookup, "NIHONGO_WEB_FORM_RATE_BURST", defaultFormBurst),
		},
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func validateConfig(cfg Config) error {
	var missing []string

	if strings.TrimSpace(cfg.Server.Port) == "" {
		missing = append(missing, "Server.Port")
	}
	if u, err := url.Parse(cfg.Backend.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		missing = append(missing, "Backend.BaseURL")
	}
	if cfg.Backend.Timeout <= 0 {
		missing = append(missing, "Backend.Timeout")
	}
	if strings.TrimSpace(cfg.Backend.TTSSpeaker) == "" {
		missing = append(missing, "Backend.TTSSpeaker")
	}
	if cfg.Backend.PageSize <= 0 {
		missing = append(missing, "Backend.PageSize")
	}
	if cfg.Server.Production() && strings.TrimSpace(cfg.Session.SigningKey) == "" {
		missing = append(missing, "Session.SigningKey")
	}
	if cfg.RateLimit.FormPerMinute <= 0 {
		missing = append(missing, "RateLimit.FormPerMinute")
	}
	if cfg.RateLimit.FormBurst <= 0 {
		missing = append(missing, "RateLimit.FormBurst")
	}

	if len(missing) > 0 {
		return &ValidationError{fields: missing}
	}
	return nil
}

func loadDotEnv(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = path
	}

	values, err := godotenv.Read(absPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: failed parsing %s: %w", absPath, err)
	}
	return values, nil
}

func stringWithDefault(lookup func(string) (string, bool), key, fallback string) string {
	if value, ok := lookup(key); ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}

func durationWithDefault(lookup func(string) (string, bool), key string, fallback time.Duration) time.Duration {
	if value, ok := lookup(key); ok && value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func intWithDefault(lookup func(string) (string, bool), key string, fallback int) int {
	if value, ok := lookup(key); ok && value != "" {
		if parsed, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return parsed
		}
	}
	return fallback
}

func boolWithDefault(lookup func(string) (string, bool), key string, fallback bool) bool {
	if value, ok := lookup(key); ok && value != "" {
		switch strings.ToLower(strings.TrimSpace(value)) {
		case "true", "1", "yes", "on":
			return true
		case "false", "0", "no", "off":
			return false
		}
	}
	return fallback
}
