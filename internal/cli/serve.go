package cli

import (
	"context"
	"fmt"
	"time"

	"resumescore/internal/config"
	"resumescore/internal/engine"
	"resumescore/internal/errors"
	"resumescore/internal/observability"
	"resumescore/internal/server"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the resume analysis HTTP server",
	Long: `Start an HTTP server that analyzes resumes and keeps their version history.

Available endpoints:
- POST /analyze: Analyze an uploaded resume (multipart field "file")
- POST /analyze/text: Analyze resume text ({"text": "..."})
- POST /users, POST|GET /users/{userID}/versions, GET|DELETE /versions/{versionID}:
  version history (requires database.enabled)
- GET /health: Health check endpoint
- GET /stats: Server, engine and rate limiting statistics

TLS Configuration:
- Use --tls-mode to set TLS mode: disabled, server, mutual
- Use --cert-file and --key-file for TLS certificates
- Use --ca-file for mutual TLS client certificate verification

When the configuration was read from a file, edits to the log level, the
rate limit and the engine cache capacity are applied without a restart.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringP("port", "p", "", "Port to listen on (default from config)")
	serveCmd.Flags().String("host", "", "Host to bind to (default from config)")
	serveCmd.Flags().String("tls-mode", "", "TLS mode: disabled, server, mutual (overrides config)")
	serveCmd.Flags().String("cert-file", "", "Server certificate file (PEM, overrides config)")
	serveCmd.Flags().String("key-file", "", "Server private key file (PEM, overrides config)")
	serveCmd.Flags().String("ca-file", "", "CA certificate file for client cert verification (PEM, overrides config)")
}

// applyServeFlags copies explicitly set flags over the loaded configuration.
func applyServeFlags(cmd *cobra.Command, cfg *config.Config) {
	overrides := []struct {
		flag   string
		target *string
	}{
		{"port", &cfg.Server.Port},
		{"host", &cfg.Server.Host},
		{"tls-mode", &cfg.Server.TLS.Mode},
		{"cert-file", &cfg.Server.TLS.CertFile},
		{"key-file", &cfg.Server.TLS.KeyFile},
		{"ca-file", &cfg.Server.TLS.CAFile},
	}
	for _, o := range overrides {
		if cmd.Flags().Changed(o.flag) {
			*o.target, _ = cmd.Flags().GetString(o.flag)
		}
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg, err := getConfigFromContext(ctx)
	if err != nil {
		return err
	}
	logger, err := getLoggerFromContext(ctx)
	if err != nil {
		return err
	}

	applyServeFlags(cmd, cfg)
	if err := cfg.ValidateTLSConfig(); err != nil {
		return fmt.Errorf("invalid TLS configuration: %w", err)
	}

	om, err := observability.NewObservabilityManager(observability.GetObservabilityConfig(cfg, Version), cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize observability: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := om.Shutdown(shutdownCtx); err != nil {
			logger.LogError(err, "Failed to shutdown observability")
		}
	}()
	metrics := om.GetMetrics()

	rt, err := newRuntime(ctx, cfg, logger, runtimeOptions{persistence: true, recorder: metrics})
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	defer rt.Close()

	if err := metrics.RegisterCacheStats(func() observability.CacheCounts {
		st := rt.engine.Stats()
		return observability.CacheCounts{Hits: st.Hits, Misses: st.Misses}
	}); err != nil {
		return err
	}

	srv := server.NewServer(cfg, server.ConfigFrom(cfg, Version), rt.dependencies(), om, logger)
	watchConfig(getLoaderFromContext(ctx), logger, srv, rt.engine)

	return srv.Start(ctx)
}

// watchConfig applies the reloadable settings whenever the config file changes.
func watchConfig(loader *config.Loader, logger *errors.Logger, srv *server.Server, eng *engine.Engine) {
	if loader == nil {
		return
	}

	watching := loader.Watch(func(next *config.Config) {
		if err := logger.SetLevel(next.App.LogLevel); err != nil {
			logger.LogError(err, "Ignoring reloaded log level")
		}
		if err := eng.SetCacheCapacity(next.Engine.CacheCapacity); err != nil {
			logger.LogError(err, "Ignoring reloaded cache capacity")
		}
		srv.UpdateRateLimit(next.Server.RateLimit)
		logger.Info("Configuration reloaded",
			"log_level", next.App.LogLevel,
			"cache_capacity", next.Engine.CacheCapacity)
	}, func(err error) {
		logger.LogError(err, "Rejected configuration change, keeping previous settings")
	})

	if watching {
		logger.Info("Watching configuration file for changes", "file", loader.ConfigFileUsed())
	}
}
