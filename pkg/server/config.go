package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/vango-dev/resume/pkg/snapshot"
	"github.com/vango-dev/resume/pkg/symbol"
)

// Config configures a Server.
type Config struct {
	// Address is the listen address.
	// Default: "localhost:3000".
	Address string

	// HTTP server timeouts.
	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration

	// ShutdownTimeout bounds graceful shutdown.
	// Default: 30 seconds.
	ShutdownTimeout time.Duration

	// SettleTimeout bounds how long one request waits for renders to
	// settle. Default: 5 seconds.
	SettleTimeout time.Duration

	// MaxBodyBytes limits dispatch request bodies and live messages.
	// Default: 1MB.
	MaxBodyBytes int64

	// SnapshotTTL is how long a stored snapshot can be resumed.
	// Default: 30 minutes.
	SnapshotTTL time.Duration

	// Store persists snapshots. Default: an in-memory store.
	Store snapshot.Store

	// Importer resolves render hooks and handlers. Required.
	Importer symbol.Importer

	// Metrics enables Prometheus instrumentation when set.
	Metrics *Metrics

	// MetricsPath is where metrics are exposed.
	// Default: "/metrics".
	MetricsPath string

	// Tracing enables OpenTelemetry spans from the global tracer
	// provider, using TracerName.
	Tracing    bool
	TracerName string

	// CheckOrigin validates WebSocket origins. Default: same origin.
	CheckOrigin func(r *http.Request) bool

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Address:           "localhost:3000",
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
		ShutdownTimeout:   30 * time.Second,
		SettleTimeout:     5 * time.Second,
		MaxBodyBytes:      1 << 20,
		SnapshotTTL:       30 * time.Minute,
		MetricsPath:       "/metrics",
		TracerName:        "github.com/vango-dev/resume",
	}
}

// withDefaults fills unset fields from DefaultConfig.
func (c *Config) withDefaults() *Config {
	out := *c
	d := DefaultConfig()
	if out.Address == "" {
		out.Address = d.Address
	}
	if out.ReadHeaderTimeout == 0 {
		out.ReadHeaderTimeout = d.ReadHeaderTimeout
	}
	if out.ReadTimeout == 0 {
		out.ReadTimeout = d.ReadTimeout
	}
	if out.WriteTimeout == 0 {
		out.WriteTimeout = d.WriteTimeout
	}
	if out.IdleTimeout == 0 {
		out.IdleTimeout = d.IdleTimeout
	}
	if out.ShutdownTimeout == 0 {
		out.ShutdownTimeout = d.ShutdownTimeout
	}
	if out.SettleTimeout == 0 {
		out.SettleTimeout = d.SettleTimeout
	}
	if out.MaxBodyBytes == 0 {
		out.MaxBodyBytes = d.MaxBodyBytes
	}
	if out.SnapshotTTL == 0 {
		out.SnapshotTTL = d.SnapshotTTL
	}
	if out.MetricsPath == "" {
		out.MetricsPath = d.MetricsPath
	}
	if out.TracerName == "" {
		out.TracerName = d.TracerName
	}
	if out.Store == nil {
		out.Store = snapshot.NewMemoryStore()
	}
	if out.Importer == nil {
		out.Importer = symbol.NewRegistry()
	}
	if out.Logger == nil {
		out.Logger = slog.Default()
	}
	return &out
}
