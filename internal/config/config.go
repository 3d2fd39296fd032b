package config

import (
	"encoding/json"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/vango-dev/vmirror/internal/errors"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "vmirror.json"

	// DefaultIDPrefix is the default element id prefix.
	DefaultIDPrefix = "bh"

	// DefaultFrameInterval is the default delay between frame callbacks.
	DefaultFrameInterval = "16ms"

	// DefaultPort is the default live server port.
	DefaultPort = 7070

	// DefaultHost is the default live server host.
	DefaultHost = "localhost"

	// DefaultNamespace is the default Prometheus namespace.
	DefaultNamespace = "vmirror"

	// DefaultLogLevel is the default log level.
	DefaultLogLevel = "info"
)

// Config represents the complete vmirror.json configuration.
type Config struct {
	// IDPrefix prefixes the numeric ids given to committed elements.
	IDPrefix string `json:"idPrefix,omitempty"`

	// FrameInterval is the delay between a flush request and its frame
	// callback, as a Go duration string.
	FrameInterval string `json:"frameInterval,omitempty"`

	// Server contains live server configuration.
	Server ServerConfig `json:"server,omitempty"`

	// Metrics contains Prometheus configuration.
	Metrics MetricsConfig `json:"metrics,omitempty"`

	// Snapshot contains markup snapshot storage configuration.
	Snapshot SnapshotConfig `json:"snapshot,omitempty"`

	// Log contains logging configuration.
	Log LogConfig `json:"log,omitempty"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// ServerConfig contains live server settings.
type ServerConfig struct {
	// Host is the host to bind to.
	Host string `json:"host,omitempty"`

	// Port is the port to listen on.
	Port int `json:"port,omitempty"`

	// Title is the page title served at /.
	Title string `json:"title,omitempty"`
}

// MetricsConfig contains Prometheus settings.
type MetricsConfig struct {
	// Enabled registers engine metrics and serves /metrics. A nil value
	// means enabled.
	Enabled *bool `json:"enabled,omitempty"`

	// Namespace is the metric namespace.
	Namespace string `json:"namespace,omitempty"`
}

// SnapshotConfig selects where committed markup snapshots are stored.
// Bucket takes precedence over Dir; with neither set snapshots are off.
type SnapshotConfig struct {
	// Bucket is the S3 bucket name.
	Bucket string `json:"bucket,omitempty"`

	// Prefix is prepended to S3 object keys.
	Prefix string `json:"prefix,omitempty"`

	// Region is the S3 region.
	Region string `json:"region,omitempty"`

	// Dir is a local directory for snapshots.
	Dir string `json:"dir,omitempty"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	// Level is one of debug, info, warn or error.
	Level string `json:"level,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	enabled := true
	return &Config{
		IDPrefix:      DefaultIDPrefix,
		FrameInterval: DefaultFrameInterval,
		Server: ServerConfig{
			Host: DefaultHost,
			Port: DefaultPort,
		},
		Metrics: MetricsConfig{
			Enabled:   &enabled,
			Namespace: DefaultNamespace,
		},
		Log: LogConfig{
			Level: DefaultLogLevel,
		},
	}
}

// Load reads configuration from the specified directory.
// It looks for vmirror.json in the directory.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadFile reads configuration from the specified file path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("C141").
				WithDetail("No vmirror.json found in " + filepath.Dir(path)).
				WithSuggestion("Create vmirror.json or run without --config to use defaults")
		}
		return nil, errors.New("C120").Wrap(err)
	}

	cfg := New()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.New("C120").
			WithDetail("Failed to parse vmirror.json: " + err.Error()).
			WithSuggestion("Check that vmirror.json is valid JSON")
	}

	cfg.configPath = path
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.New("C120").Wrap(err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("C120").Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.IDPrefix == "" {
		c.IDPrefix = DefaultIDPrefix
	}
	if c.FrameInterval == "" {
		c.FrameInterval = DefaultFrameInterval
	}
	if c.Server.Host == "" {
		c.Server.Host = DefaultHost
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	if c.Metrics.Enabled == nil {
		enabled := true
		c.Metrics.Enabled = &enabled
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = DefaultNamespace
	}
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return errors.New("C122").
			WithDetail("server.port must be between 0 and 65535")
	}
	if strings.ContainsAny(c.IDPrefix, " \t\n\"'<>&") {
		return errors.New("C122").
			WithDetailf("idPrefix %q contains characters not allowed in an id", c.IDPrefix)
	}
	if d, err := time.ParseDuration(c.FrameInterval); err != nil || d <= 0 {
		return errors.New("C122").
			WithDetailf("frameInterval %q is not a positive duration", c.FrameInterval)
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}

// Interval returns the parsed frame interval, falling back to the default.
func (c *Config) Interval() time.Duration {
	if d, err := time.ParseDuration(c.FrameInterval); err == nil && d > 0 {
		return d
	}
	d, _ := time.ParseDuration(DefaultFrameInterval)
	return d
}

// MetricsEnabled reports whether metrics are on.
func (c *Config) MetricsEnabled() bool {
	return c.Metrics.Enabled == nil || *c.Metrics.Enabled
}

// Address returns the host:port the live server listens on.
func (c *Config) Address() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

// URL returns the live server URL.
func (c *Config) URL() string {
	return "http://" + c.Address()
}

// SnapshotDir returns the snapshot directory resolved against the config
// file's directory.
func (c *Config) SnapshotDir() string {
	dir := c.Snapshot.Dir
	if dir == "" || filepath.IsAbs(dir) || c.configPath == "" {
		return dir
	}
	return filepath.Join(filepath.Dir(c.configPath), dir)
}

// ParseLevel maps a level name to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, errors.New("C122").
		WithDetailf("unknown log level %q", s).
		WithSuggestion("Use debug, info, warn or error")
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ConfigFileName))
	return err == nil
}
