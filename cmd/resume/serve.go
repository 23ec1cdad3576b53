package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vango-dev/resume/internal/config"
	"github.com/vango-dev/resume/internal/demo"
	rserrors "github.com/vango-dev/resume/internal/errors"
	"github.com/vango-dev/resume/pkg/server"
	"github.com/vango-dev/resume/pkg/snapshot"
	"github.com/vango-dev/resume/pkg/symbol"
)

func serveCmd() *cobra.Command {
	var (
		configPath string
		address    string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the server",
		Long: `Run the HTTP/WebSocket server with the demo pages.

Configuration is read from --config, or from resume.toml or resume.json
in the working directory. Without a file the defaults apply.

Examples:
  resume serve
  resume serve --config=deploy/resume.toml
  resume serve --address=:8080`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			if address != "" {
				cfg.Server.Address = address
			}
			return runServe(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Configuration file (.toml or .json)")
	cmd.Flags().StringVarP(&address, "address", "a", "", "Listen address (overrides the configuration)")
	return cmd
}

// loadConfig reads path, or the working directory's configuration file
// when path is empty.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	cfg, err := config.LoadFromDir(wd)
	if rserrors.HasCode(err, "R041") {
		return config.New(), nil
	}
	return cfg, err
}

func runServe(ctx context.Context, cfg *config.Config) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger := cfg.Logger(os.Stderr)

	store, err := newStore(cfg)
	if err != nil {
		return err
	}

	var metrics *server.Metrics
	if cfg.Metrics.Enabled {
		metrics = server.NewMetrics(server.WithNamespace(cfg.Metrics.Namespace))
	}

	srv := server.New(&server.Config{
		Address:       cfg.Server.Address,
		ReadTimeout:   cfg.Server.ReadTimeout.Duration,
		WriteTimeout:  cfg.Server.WriteTimeout.Duration,
		IdleTimeout:   cfg.Server.IdleTimeout.Duration,
		SettleTimeout: cfg.Server.SettleTimeout.Duration,
		MaxBodyBytes:  cfg.Server.MaxBodyBytes,
		SnapshotTTL:   cfg.Snapshot.TTL.Duration,
		Store:         store,
		Importer:      demo.Symbols(symbol.WithLogger(logger)),
		Metrics:       metrics,
		MetricsPath:   cfg.Metrics.Path,
		Tracing:       cfg.Tracing.Enabled,
		TracerName:    cfg.Tracing.Tracer,
		Logger:        logger,
	})
	for pattern, page := range demo.Pages() {
		srv.Handle(pattern, page)
	}

	success("Serving on http://%s (snapshots: %s)", cfg.Server.Address, cfg.Snapshot.Backend)
	if cfg.Metrics.Enabled {
		info("Metrics at %s", cfg.Metrics.Path)
	}
	return srv.Run(ctx)
}

// newStore builds the configured snapshot backend.
func newStore(cfg *config.Config) (snapshot.Store, error) {
	switch cfg.Snapshot.Backend {
	case config.BackendMemory:
		return snapshot.NewMemoryStore(
			snapshot.WithCleanupInterval(cfg.Snapshot.CleanupInterval.Duration),
		), nil
	case config.BackendS3:
		client := snapshot.NewS3Client(snapshot.S3Config{
			Region:   cfg.Snapshot.Region,
			Endpoint: cfg.Snapshot.Endpoint,
		})
		return snapshot.NewS3Store(client, cfg.Snapshot.Bucket, cfg.Snapshot.Prefix), nil
	default:
		return nil, fmt.Errorf("unknown snapshot backend %q", cfg.Snapshot.Backend)
	}
}
