// Package config loads and validates gateway and crawler service configuration via Viper.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/aifixr/feed-gateway/internal/api"
)

// DefaultUserAgent is sent by the outbound fetchers unless overridden.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Gateway  GatewayConfig  `mapstructure:"gateway"`
	CORS     CORSConfig     `mapstructure:"cors"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Headless HeadlessConfig `mapstructure:"headless"`
	Sources  SourcesConfig  `mapstructure:"sources"`
	Shutdown ShutdownConfig `mapstructure:"shutdown"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Tracing  TracingConfig  `mapstructure:"tracing"`
}

// ServerConfig controls the standalone crawler service listener.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// GatewayConfig controls the aggregation gateway.
type GatewayConfig struct {
	Port    int               `mapstructure:"port"`
	Message string            `mapstructure:"message"`
	Mounts  map[string]string `mapstructure:"mounts"`
}

// CORSConfig is the cross-origin policy applied by the gateway.
type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAgeSeconds    int      `mapstructure:"max_age_seconds"`
}

// AllowsAnyOrigin reports whether the policy admits every origin.
func (c CORSConfig) AllowsAnyOrigin() bool {
	for _, o := range c.AllowedOrigins {
		if o == "*" {
			return true
		}
	}
	return false
}

// HTTPConfig configures the outbound fetch client.
type HTTPConfig struct {
	UserAgent      string `mapstructure:"user_agent"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// HeadlessConfig configures the headless rendering subsystem.
type HeadlessConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxParallel   int  `mapstructure:"max_parallel"`
	NavTimeoutSec int  `mapstructure:"nav_timeout_seconds"`

	// AutoPromote re-fetches plain responses that look client-rendered
	// through the headless browser.
	AutoPromote bool `mapstructure:"auto_promote"`
}

// SourcesConfig points each provider at its upstream page.
type SourcesConfig struct {
	Bugs   SourceConfig `mapstructure:"bugs"`
	Danawa SourceConfig `mapstructure:"danawa"`
}

// SourceConfig describes one upstream page.
type SourceConfig struct {
	URL      string `mapstructure:"url"`
	Headless bool   `mapstructure:"headless"`
}

// ShutdownConfig bounds graceful shutdown.
type ShutdownConfig struct {
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// TracingConfig selects the OpenTelemetry span exporter.
type TracingConfig struct {
	Exporter string `mapstructure:"exporter"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("FEED")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	if err := bindEnv(v); err != nil {
		return Config{}, err
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 9001)
	v.SetDefault("gateway.port", 9000)
	v.SetDefault("gateway.message", "Gateway API service")
	v.SetDefault("gateway.mounts", map[string]string{"crawler": "/crawler"})
	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{"*"})
	v.SetDefault("cors.allow_credentials", false)
	v.SetDefault("cors.max_age_seconds", 300)
	v.SetDefault("http.user_agent", DefaultUserAgent)
	v.SetDefault("http.timeout_seconds", 15)
	v.SetDefault("headless.enabled", true)
	v.SetDefault("headless.max_parallel", 2)
	v.SetDefault("headless.nav_timeout_seconds", 30)
	v.SetDefault("headless.auto_promote", false)
	v.SetDefault("sources.bugs.url", "https://music.bugs.co.kr/chart")
	v.SetDefault("sources.bugs.headless", false)
	v.SetDefault("sources.danawa.url", "https://prod.danawa.com/list/?cate=112758")
	v.SetDefault("sources.danawa.headless", true)
	v.SetDefault("shutdown.timeout_seconds", 10)
	v.SetDefault("logging.development", false)
	v.SetDefault("tracing.exporter", "none")
}

// bindEnv lets the platform-provided PORT drive whichever listener runs.
func bindEnv(v *viper.Viper) error {
	if err := v.BindEnv("server.port", "FEED_SERVER_PORT", "PORT"); err != nil {
		return fmt.Errorf("bind server.port: %w", err)
	}
	if err := v.BindEnv("gateway.port", "FEED_GATEWAY_PORT", "PORT"); err != nil {
		return fmt.Errorf("bind gateway.port: %w", err)
	}
	return nil
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in 1..65535")
	}
	if c.Gateway.Port <= 0 || c.Gateway.Port > 65535 {
		return fmt.Errorf("gateway.port must be in 1..65535")
	}
	if err := validateMounts(c.Gateway.Mounts); err != nil {
		return err
	}
	if c.CORS.MaxAgeSeconds < 0 {
		return fmt.Errorf("cors.max_age_seconds must be >= 0")
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		return fmt.Errorf("http.timeout_seconds must be > 0")
	}
	if c.Headless.Enabled && c.Headless.MaxParallel <= 0 {
		return fmt.Errorf("headless.max_parallel must be > 0 when headless is enabled")
	}
	if c.Headless.Enabled && c.Headless.NavTimeoutSec <= 0 {
		return fmt.Errorf("headless.nav_timeout_seconds must be > 0 when headless is enabled")
	}
	if err := validateSource("sources.bugs.url", c.Sources.Bugs.URL); err != nil {
		return err
	}
	if err := validateSource("sources.danawa.url", c.Sources.Danawa.URL); err != nil {
		return err
	}
	if c.Shutdown.TimeoutSeconds <= 0 {
		return fmt.Errorf("shutdown.timeout_seconds must be > 0")
	}
	switch c.Tracing.Exporter {
	case "", "none", "stdout":
	default:
		return fmt.Errorf("tracing.exporter must be none or stdout, got %q", c.Tracing.Exporter)
	}
	return nil
}

func validateMounts(mounts map[string]string) error {
	seen := make(map[string]string, len(mounts))
	for name, prefix := range mounts {
		if !strings.HasPrefix(prefix, "/") || prefix == "/" {
			return fmt.Errorf("gateway.mounts.%s: prefix %q must start with / and not be the root", name, prefix)
		}
		if api.IsReservedPath(strings.TrimSuffix(prefix, "/")) {
			return fmt.Errorf("gateway.mounts.%s: prefix %q is an operational endpoint", name, prefix)
		}
		if other, ok := seen[prefix]; ok {
			return fmt.Errorf("gateway.mounts: prefix %q used by both %s and %s", prefix, other, name)
		}
		seen[prefix] = name
	}
	return nil
}

func validateSource(key, raw string) error {
	if raw == "" {
		return fmt.Errorf("%s must be set", key)
	}
	u, err := url.ParseRequestURI(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.New(key + " must be an http(s) URL")
	}
	return nil
}

// HTTPTimeout converts the outbound request timeout into a duration.
func (c Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}

// NavTimeout converts the headless navigation timeout into a duration.
func (c Config) NavTimeout() time.Duration {
	return time.Duration(c.Headless.NavTimeoutSec) * time.Second
}

// ShutdownTimeout converts the graceful shutdown budget into a duration.
func (c Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.Shutdown.TimeoutSeconds) * time.Second
}
