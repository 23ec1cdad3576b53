package config

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/vango-dev/resume/internal/errors"
)

const (
	// FileName is the name of the JSON configuration file.
	FileName = "resume.json"

	// TOMLFileName is the name of the TOML configuration file. It takes
	// precedence over FileName when both exist.
	TOMLFileName = "resume.toml"

	// DefaultAddress is the default listen address.
	DefaultAddress = "localhost:3000"

	// DefaultSnapshotTTL is how long a snapshot stays resumable.
	DefaultSnapshotTTL = 30 * time.Minute
)

// Snapshot backends.
const (
	BackendMemory = "memory"
	BackendS3     = "s3"
)

// Duration is a time.Duration written as a string ("30s") in both
// formats.
type Duration struct {
	time.Duration
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// Config represents the complete configuration file.
type Config struct {
	// Server contains HTTP server configuration.
	Server ServerConfig `json:"server" toml:"server"`

	// Snapshot contains snapshot persistence configuration.
	Snapshot SnapshotConfig `json:"snapshot" toml:"snapshot"`

	// Log contains logging configuration.
	Log LogConfig `json:"log" toml:"log"`

	// Metrics contains Prometheus configuration.
	Metrics MetricsConfig `json:"metrics" toml:"metrics"`

	// Tracing contains OpenTelemetry configuration.
	Tracing TracingConfig `json:"tracing" toml:"tracing"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	// Address is the listen address.
	Address string `json:"address,omitempty" toml:"address,omitempty"`

	ReadTimeout  Duration `json:"readTimeout" toml:"readTimeout"`
	WriteTimeout Duration `json:"writeTimeout" toml:"writeTimeout"`
	IdleTimeout  Duration `json:"idleTimeout" toml:"idleTimeout"`

	// SettleTimeout bounds how long a request waits for renders.
	SettleTimeout Duration `json:"settleTimeout" toml:"settleTimeout"`

	// MaxBodyBytes limits dispatch request bodies.
	MaxBodyBytes int64 `json:"maxBodyBytes,omitempty" toml:"maxBodyBytes,omitempty"`
}

// SnapshotConfig selects and configures the snapshot store.
type SnapshotConfig struct {
	// Backend is "memory" or "s3".
	Backend string `json:"backend,omitempty" toml:"backend,omitempty"`

	// TTL is how long a snapshot can be resumed.
	TTL Duration `json:"ttl" toml:"ttl"`

	// CleanupInterval is how often the memory backend drops expired
	// snapshots.
	CleanupInterval Duration `json:"cleanupInterval" toml:"cleanupInterval"`

	Bucket   string `json:"bucket,omitempty" toml:"bucket,omitempty"`
	Prefix   string `json:"prefix,omitempty" toml:"prefix,omitempty"`
	Region   string `json:"region,omitempty" toml:"region,omitempty"`
	Endpoint string `json:"endpoint,omitempty" toml:"endpoint,omitempty"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	// Level is debug, info, warn or error.
	Level string `json:"level,omitempty" toml:"level,omitempty"`

	// Format is text or json.
	Format string `json:"format,omitempty" toml:"format,omitempty"`
}

// MetricsConfig contains Prometheus settings.
type MetricsConfig struct {
	Enabled   bool   `json:"enabled" toml:"enabled"`
	Namespace string `json:"namespace,omitempty" toml:"namespace,omitempty"`
	Path      string `json:"path,omitempty" toml:"path,omitempty"`
}

// TracingConfig contains OpenTelemetry settings.
type TracingConfig struct {
	Enabled bool   `json:"enabled" toml:"enabled"`
	Tracer  string `json:"tracer,omitempty" toml:"tracer,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// LoadFromDir reads the configuration file of dir, preferring
// resume.toml over resume.json.
func LoadFromDir(dir string) (*Config, error) {
	for _, name := range []string{TOMLFileName, FileName} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}
	return nil, errors.New("R041").
		WithDetail("No %s or %s found in %s", TOMLFileName, FileName, dir)
}

// Load reads configuration from path. The extension selects the format.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("R041").WithDetail("%s", path)
		}
		return nil, errors.New("R040").Wrap(err)
	}

	cfg := &Config{}
	if isTOML(path) {
		_, err = toml.Decode(string(data), cfg)
	} else {
		err = json.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, errors.New("R040").
			WithDetail("Failed to parse %s: %v", filepath.Base(path), err).
			Wrap(err)
	}

	cfg.configPath = path
	cfg.applyDefaults()
	return cfg, nil
}

// Save writes the configuration to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.Newf(errors.CategoryConfig, "no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to path in the format its extension
// selects.
func (c *Config) SaveTo(path string) error {
	var buf bytes.Buffer
	if isTOML(path) {
		if err := toml.NewEncoder(&buf).Encode(c); err != nil {
			return errors.New("R040").Wrap(err)
		}
	} else {
		data, err := json.MarshalIndent(c, "", "  ")
		if err != nil {
			return errors.New("R040").Wrap(err)
		}
		buf.Write(data)
		buf.WriteByte('\n')
	}

	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return errors.New("R040").Wrap(err)
	}
	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory containing the config file.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return ""
	}
	return filepath.Dir(c.configPath)
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	// Server
	if c.Server.Address == "" {
		c.Server.Address = DefaultAddress
	}
	if c.Server.ReadTimeout.Duration == 0 {
		c.Server.ReadTimeout.Duration = 10 * time.Second
	}
	if c.Server.WriteTimeout.Duration == 0 {
		c.Server.WriteTimeout.Duration = 30 * time.Second
	}
	if c.Server.IdleTimeout.Duration == 0 {
		c.Server.IdleTimeout.Duration = 2 * time.Minute
	}
	if c.Server.SettleTimeout.Duration == 0 {
		c.Server.SettleTimeout.Duration = 5 * time.Second
	}
	if c.Server.MaxBodyBytes == 0 {
		c.Server.MaxBodyBytes = 1 << 20
	}

	// Snapshot
	if c.Snapshot.Backend == "" {
		c.Snapshot.Backend = BackendMemory
	}
	if c.Snapshot.TTL.Duration == 0 {
		c.Snapshot.TTL.Duration = DefaultSnapshotTTL
	}
	if c.Snapshot.CleanupInterval.Duration == 0 {
		c.Snapshot.CleanupInterval.Duration = time.Minute
	}
	if c.Snapshot.Prefix == "" {
		c.Snapshot.Prefix = "snapshots/"
	}

	// Log
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}

	// Metrics
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = "resume"
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}

	// Tracing
	if c.Tracing.Tracer == "" {
		c.Tracing.Tracer = "github.com/vango-dev/resume"
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	switch c.Snapshot.Backend {
	case BackendMemory:
	case BackendS3:
		if c.Snapshot.Bucket == "" {
			return errors.New("R040").WithDetail("snapshot.bucket is required for the s3 backend")
		}
	default:
		return errors.New("R040").WithDetail("unknown snapshot backend %q", c.Snapshot.Backend)
	}
	if _, ok := levels[strings.ToLower(c.Log.Level)]; !ok {
		return errors.New("R040").WithDetail("unknown log level %q", c.Log.Level)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return errors.New("R040").WithDetail("log.format must be text or json, got %q", c.Log.Format)
	}
	if c.Server.MaxBodyBytes < 0 {
		return errors.New("R040").WithDetail("server.maxBodyBytes must not be negative")
	}
	if !strings.HasPrefix(c.Metrics.Path, "/") {
		return errors.New("R040").WithDetail("metrics.path must start with /")
	}
	return nil
}

var levels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// Logger builds the logger described by the log section.
func (c *Config) Logger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: levels[strings.ToLower(c.Log.Level)]}
	if c.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	for _, name := range []string{TOMLFileName, FileName} {
		if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
			return true
		}
	}
	return false
}

// FindProjectRoot walks up directories to find the project root.
// Returns the directory containing a config file, or an error if not
// found.
func FindProjectRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		if Exists(dir) {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("R041").
				WithDetail("No configuration found in %s or any parent directory", startDir)
		}
		dir = parent
	}
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}
