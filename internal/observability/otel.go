package observability

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"resumescore/internal/config"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.34.0"
	oteltrace "go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// ObservabilityConfig holds configuration for observability
type ObservabilityConfig struct {
	ServiceName    string
	ServiceVersion string
	Enabled        bool
	ConsoleOutput  bool
	PrettyPrint    bool
	SampleRate     float64
	Prometheus     PrometheusConfig
}

// ObservabilityManager manages OpenTelemetry setup
type ObservabilityManager struct {
	config         ObservabilityConfig
	fullConfig     *config.Config
	resource       *resource.Resource
	tracerProvider *trace.TracerProvider
	meterProvider  *sdkmetric.MeterProvider
	manualReader   *sdkmetric.ManualReader
	metrics        *Metrics
	shutdownFuncs  []func(context.Context) error
}

// NewObservabilityManager creates a new observability manager
func NewObservabilityManager(obsConfig ObservabilityConfig, fullConfig *config.Config) (*ObservabilityManager, error) {
	om := &ObservabilityManager{config: obsConfig, fullConfig: fullConfig}
	if !obsConfig.Enabled {
		om.metrics = &Metrics{}
		return om, nil
	}

	if err := om.initResource(); err != nil {
		return nil, fmt.Errorf("failed to initialize resource: %w", err)
	}
	if err := om.initTracing(); err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}
	if err := om.initMetrics(); err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}

	return om, nil
}

func (om *ObservabilityManager) initResource() error {
	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(om.config.ServiceName),
			semconv.ServiceVersion(om.config.ServiceVersion),
			attribute.String("service.instance.id", om.getServiceInstanceID()),
		),
	)
	if err != nil {
		return fmt.Errorf("failed to create resource: %w", err)
	}
	om.resource = res
	return nil
}

func (om *ObservabilityManager) initTracing() error {
	var (
		exporter trace.SpanExporter
		err      error
	)
	switch {
	case om.config.ConsoleOutput:
		opts := []stdouttrace.Option{}
		if om.config.PrettyPrint {
			opts = append(opts, stdouttrace.WithPrettyPrint())
		}
		exporter, err = stdouttrace.New(opts...)
	case om.otlpEnabled():
		exporter, err = om.createOTLPExporter()
	}
	if err != nil {
		return fmt.Errorf("failed to create trace exporter: %w", err)
	}

	opts := []trace.TracerProviderOption{
		trace.WithResource(om.resource),
		trace.WithSampler(trace.ParentBased(trace.TraceIDRatioBased(om.config.SampleRate))),
	}
	if exporter != nil {
		opts = append(opts, trace.WithBatcher(exporter))
	}
	tp := trace.NewTracerProvider(opts...)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{}))

	om.tracerProvider = tp
	om.shutdownFuncs = append(om.shutdownFuncs, tp.Shutdown)
	return nil
}

func (om *ObservabilityManager) initMetrics() error {
	readers, err := om.setupMetricReaders()
	if err != nil {
		return err
	}

	opts := []sdkmetric.Option{sdkmetric.WithResource(om.resource)}
	for _, reader := range readers {
		opts = append(opts, sdkmetric.WithReader(reader))
	}
	mp := sdkmetric.NewMeterProvider(opts...)

	otel.SetMeterProvider(mp)
	om.meterProvider = mp
	om.shutdownFuncs = append(om.shutdownFuncs, mp.Shutdown)

	metrics, err := newMetrics(mp.Meter(om.config.ServiceName), om.customMetrics())
	if err != nil {
		return err
	}
	om.metrics = metrics
	return nil
}

// setupMetricReaders returns console, OTLP and Prometheus readers as configured,
// or a manual reader when none is.
func (om *ObservabilityManager) setupMetricReaders() ([]sdkmetric.Reader, error) {
	var readers []sdkmetric.Reader
	interval := om.getMetricsCollectionInterval()

	if om.config.ConsoleOutput {
		exporter, err := stdoutmetric.New()
		if err != nil {
			return nil, fmt.Errorf("failed to create console metric exporter: %w", err)
		}
		readers = append(readers, sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(interval)))
	}

	if om.otlpEnabled() {
		otlpReader, err := om.createOTLPMetricsReader(interval)
		if err != nil {
			return nil, fmt.Errorf("failed to create OTLP metrics reader: %w", err)
		}
		readers = append(readers, otlpReader)
	}

	if om.config.Prometheus.Enabled {
		promReader, mux, err := SetupPrometheusExporter(om.config.Prometheus)
		if err != nil {
			return nil, fmt.Errorf("failed to create Prometheus exporter: %w", err)
		}
		readers = append(readers, promReader)
		om.shutdownFuncs = append(om.shutdownFuncs, StartPrometheusServer(mux, om.config.Prometheus.Port))
	}

	if len(readers) == 0 {
		om.manualReader = sdkmetric.NewManualReader()
		readers = append(readers, om.manualReader)
	}
	return readers, nil
}

func (om *ObservabilityManager) otlpEnabled() bool {
	return om.fullConfig != nil && om.fullConfig.Observability.OTLP.Enabled
}

func (om *ObservabilityManager) customMetrics() config.CustomMetrics {
	if om.fullConfig == nil {
		return config.CustomMetrics{
			Analysis:       config.AnalysisMetrics{Enabled: true, TrackDuration: true, TrackScores: true},
			Business:       config.BusinessMetrics{Enabled: true},
			Infrastructure: config.InfrastructureMetrics{TrackRateLimits: true, TrackCache: true},
		}
	}
	return om.fullConfig.Observability.CustomMetrics
}

// GetMetrics returns the metrics instance. It is never nil.
func (om *ObservabilityManager) GetMetrics() *Metrics {
	if om == nil || om.metrics == nil {
		return &Metrics{}
	}
	return om.metrics
}

// HTTPMiddleware returns HTTP middleware with OpenTelemetry instrumentation
func (om *ObservabilityManager) HTTPMiddleware() func(http.Handler) http.Handler {
	if om == nil || !om.config.Enabled {
		return func(h http.Handler) http.Handler { return h }
	}
	return otelhttp.NewMiddleware(
		om.config.ServiceName,
		otelhttp.WithTracerProvider(om.tracerProvider),
		otelhttp.WithMeterProvider(om.meterProvider),
	)
}

// Tracer returns a tracer for the service
func (om *ObservabilityManager) Tracer(name string) oteltrace.Tracer {
	if om == nil || !om.config.Enabled {
		return noop.NewTracerProvider().Tracer(name)
	}
	return otel.Tracer(name)
}

// Shutdown flushes exporters and stops the Prometheus server
func (om *ObservabilityManager) Shutdown(ctx context.Context) error {
	if om == nil {
		return nil
	}
	var firstErr error
	for _, shutdown := range om.shutdownFuncs {
		if err := shutdown(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (om *ObservabilityManager) createOTLPExporter() (trace.SpanExporter, error) {
	otlpConfig := om.fullConfig.Observability.OTLP
	opts := []otlptracehttp.Option{otlptracehttp.WithEndpointURL(otlpConfig.Endpoint)}
	if otlpConfig.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	if len(otlpConfig.Headers) > 0 {
		opts = append(opts, otlptracehttp.WithHeaders(otlpConfig.Headers))
	}

	exporter, err := otlptracehttp.New(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP trace exporter: %w", err)
	}
	return exporter, nil
}

func (om *ObservabilityManager) createOTLPMetricsReader(interval time.Duration) (sdkmetric.Reader, error) {
	otlpConfig := om.fullConfig.Observability.OTLP
	opts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpointURL(otlpConfig.Endpoint)}
	if otlpConfig.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}
	if len(otlpConfig.Headers) > 0 {
		opts = append(opts, otlpmetrichttp.WithHeaders(otlpConfig.Headers))
	}

	exporter, err := otlpmetrichttp.New(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP metrics exporter: %w", err)
	}
	return sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(interval)), nil
}

func (om *ObservabilityManager) getServiceInstanceID() string {
	if om.fullConfig != nil && om.fullConfig.Observability.ServiceInstance != "" {
		return om.fullConfig.Observability.ServiceInstance
	}
	return om.config.ServiceName + "-1"
}

func (om *ObservabilityManager) getMetricsCollectionInterval() time.Duration {
	if om.fullConfig != nil && om.fullConfig.Observability.Metrics.CollectionInterval > 0 {
		return om.fullConfig.Observability.Metrics.CollectionInterval
	}
	return 15 * time.Second
}
