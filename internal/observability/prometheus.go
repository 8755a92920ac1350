package observability

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"resumescore/internal/config"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/sdk/metric"
)

// PrometheusConfig holds Prometheus-specific configuration
type PrometheusConfig struct {
	Enabled  bool
	Endpoint string
	Port     string
}

// SetupPrometheusExporter creates an exporter bound to its own registry and a
// mux serving that registry at config.Endpoint.
func SetupPrometheusExporter(config PrometheusConfig) (metric.Reader, *http.ServeMux, error) {
	if !config.Enabled {
		return nil, nil, nil
	}

	registry := promclient.NewRegistry()
	exporter, err := prometheus.New(prometheus.WithRegisterer(registry))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create Prometheus exporter: %w", err)
	}

	endpoint := config.Endpoint
	if endpoint == "" {
		endpoint = "/metrics"
	}
	mux := http.NewServeMux()
	mux.Handle(endpoint, promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	return exporter, mux, nil
}

// StartPrometheusServer serves mux on port in the background. The returned
// function stops the server.
func StartPrometheusServer(mux *http.ServeMux, port string) func(context.Context) error {
	if mux == nil {
		return func(context.Context) error { return nil }
	}

	addr := ":" + port
	fmt.Printf("Starting Prometheus metrics server on http://localhost%s\n", addr)

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Printf("Prometheus server error: %v\n", err)
		}
	}()

	return server.Shutdown
}

// GetPrometheusConfig creates Prometheus configuration from provided config
func GetPrometheusConfig(cfg *config.Config) PrometheusConfig {
	if cfg != nil {
		return PrometheusConfig{
			Enabled:  cfg.Observability.Prometheus.Enabled,
			Endpoint: cfg.Observability.Prometheus.Endpoint,
			Port:     cfg.Observability.Prometheus.Port,
		}
	}
	return PrometheusConfig{
		Enabled:  true,
		Endpoint: "/metrics",
		Port:     "9090",
	}
}
