// Package config handles CLI, dotenv and TOML configuration loading and validation.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"

	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"
	"go.uber.org/multierr"
)

// DefaultBaseURL is the ActiveSG tRPC endpoint all routes are built on.
const DefaultBaseURL = "https://activesg.gov.sg/api/trpc"

// configSearchPaths lists paths checked in order when no explicit config is given.
var configSearchPaths = []string{
	"/etc/activesg-proxy/config.toml",
	"configs/config.toml",
}

// reservedPaths are routes served by the proxy that metrics.path must not shadow.
var reservedPaths = []string{"/api", "/healthz", "/proxy/status"}

// CLI holds command-line arguments parsed by Kong.
type CLI struct {
	Config   string `kong:"short='c',help='Path to TOML config file.',env='CONFIG_PATH'"`
	EnvFile  string `kong:"help='Path to a dotenv file loaded before flags are parsed.',env='ENV_FILE_PATH'"`
	Host     string `kong:"help='Listen host (overrides config).',env='HOST'"`
	Port     int    `kong:"short='p',help='Listen port (overrides config).',env='PORT'"`
	LogLevel string `kong:"help='Log level: debug|info|warn|error (overrides config).',env='LOG_LEVEL'"`
}

// Config is the top-level application configuration.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Upstream UpstreamConfig `toml:"upstream"`
	Log      LogConfig      `toml:"log"`
	Metrics  MetricsConfig  `toml:"metrics"`

	filePath string // resolved config file path (unexported)
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host         string     `toml:"host"`
	Port         int        `toml:"port"` // 0 means "use default" (5000)
	BodyMaxBytes int64      `toml:"body_max_bytes"`
	CORS         CORSConfig `toml:"cors"`
}

// CORSConfig controls which browser origins may call the proxy.
type CORSConfig struct {
	AllowOrigins []string `toml:"allow_origins"`
}

// UpstreamConfig holds upstream connection settings.
type UpstreamConfig struct {
	BaseURL         string `toml:"base_url"`
	TimeoutSeconds  int    `toml:"timeout_seconds"` // 0 disables the client-side timeout
	IdleConnections int    `toml:"idle_connections"`
	TLSFingerprint  string `toml:"tls_fingerprint"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// MetricsConfig holds Prometheus metrics settings.
type MetricsConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// LoadEnvFile loads KEY=value pairs from a dotenv file into the process
// environment. Variables already set are left untouched. An empty path is a no-op.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("config: load env file %s: %w", path, err)
	}
	return nil
}

// Load reads the TOML config file, if any, and applies CLI overrides.
// When no explicit path is given (via --config or CONFIG_PATH), it searches
// /etc/activesg-proxy/config.toml then configs/config.toml. Finding no file is
// not an error: the proxy runs on defaults plus CLI/env overrides.
func Load(cli *CLI) (*Config, error) {
	path := cli.Config
	if path == "" {
		path = findConfig()
	}

	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
		cfg.filePath = path
	}

	cfg.applyCLI(cli)
	cfg.setDefaults()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}

	return &cfg, nil
}

// applyCLI overrides config values with non-zero CLI flags.
func (c *Config) applyCLI(cli *CLI) {
	if cli.Host != "" {
		c.Server.Host = cli.Host
	}
	if cli.Port != 0 {
		c.Server.Port = cli.Port
	}
	if cli.LogLevel != "" {
		c.Log.Level = cli.LogLevel
	}
}

// validate reports every problem at once rather than stopping at the first.
func (c *Config) validate() error {
	var errs error

	u, err := url.Parse(c.Upstream.BaseURL)
	switch {
	case err != nil:
		errs = multierr.Append(errs, fmt.Errorf("upstream.base_url is not a valid URL: %w", err))
	case u.Scheme != "https":
		errs = multierr.Append(errs, fmt.Errorf("upstream.base_url must use HTTPS; got %q", c.Upstream.BaseURL))
	case u.Host == "":
		errs = multierr.Append(errs, fmt.Errorf("upstream.base_url has no host; got %q", c.Upstream.BaseURL))
	}

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = multierr.Append(errs, fmt.Errorf("server.port must be 0–65535; got %d", c.Server.Port))
	}
	if c.Server.BodyMaxBytes < 0 {
		errs = multierr.Append(errs, fmt.Errorf("server.body_max_bytes must be non-negative; got %d", c.Server.BodyMaxBytes))
	}
	for _, origin := range c.Server.CORS.AllowOrigins {
		if strings.TrimSpace(origin) == "" {
			errs = multierr.Append(errs, errors.New("server.cors.allow_origins must not contain empty entries"))
			break
		}
	}
	if c.Upstream.TimeoutSeconds < 0 {
		errs = multierr.Append(errs, fmt.Errorf("upstream.timeout_seconds must be non-negative; got %d", c.Upstream.TimeoutSeconds))
	}
	if c.Upstream.IdleConnections < 0 {
		errs = multierr.Append(errs, fmt.Errorf("upstream.idle_connections must be non-negative; got %d", c.Upstream.IdleConnections))
	}
	switch strings.ToLower(c.Upstream.TLSFingerprint) {
	case "firefox", "chrome", "go":
	default:
		errs = multierr.Append(errs, fmt.Errorf("upstream.tls_fingerprint must be one of: firefox, chrome, go; got %q", c.Upstream.TLSFingerprint))
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = multierr.Append(errs, fmt.Errorf("log.level must be one of: debug, info, warn, error; got %q", c.Log.Level))
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "text":
	default:
		errs = multierr.Append(errs, fmt.Errorf("log.format must be one of: json, text; got %q", c.Log.Format))
	}

	if c.Metrics.Enabled {
		errs = multierr.Append(errs, validateMetricsPath(c.Metrics.Path))
	}

	return errs
}

func validateMetricsPath(p string) error {
	if p == "/" || p[0] != '/' {
		return fmt.Errorf("metrics.path must start with '/' and name a sub-path; got %q", p)
	}
	for _, reserved := range reservedPaths {
		if p == reserved || strings.HasPrefix(p, reserved+"/") {
			return fmt.Errorf("metrics.path %q conflicts with reserved route %q", p, reserved)
		}
	}
	return nil
}

// setDefaults fills zero-valued fields with defaults.
// TOML cannot distinguish an explicit 0 from an omitted key, so port=0 in the
// config file results in the default port (5000).
func (c *Config) setDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 5000
	}
	if c.Server.BodyMaxBytes == 0 {
		c.Server.BodyMaxBytes = 1 << 20
	}
	if len(c.Server.CORS.AllowOrigins) == 0 {
		c.Server.CORS.AllowOrigins = []string{"*"}
	}
	if c.Upstream.BaseURL == "" {
		c.Upstream.BaseURL = DefaultBaseURL
	}
	c.Upstream.BaseURL = strings.TrimRight(c.Upstream.BaseURL, "/")
	if c.Upstream.IdleConnections == 0 {
		c.Upstream.IdleConnections = 100
	}
	if c.Upstream.TLSFingerprint == "" {
		c.Upstream.TLSFingerprint = "firefox"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
}

// findConfig returns the first config path that exists, or empty string.
func findConfig() string {
	return findConfigInPaths(configSearchPaths)
}

// findConfigInPaths returns the first path that exists on disk, or empty string.
func findConfigInPaths(paths []string) string {
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// Addr returns the server listen address as host:port.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// WarnPermissions logs a warning if the config file is readable by group or others.
func (c *Config) WarnPermissions(logger *slog.Logger) {
	if c.filePath == "" {
		return
	}
	info, err := os.Stat(c.filePath)
	if err != nil {
		return
	}
	if perm := info.Mode().Perm(); perm&0o077 != 0 {
		logger.Warn("config file is readable by group/others; consider chmod 600",
			"path", c.filePath,
			"mode", fmt.Sprintf("%04o", perm),
		)
	}
}
