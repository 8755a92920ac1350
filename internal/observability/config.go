package observability

import (
	"resumescore/internal/config"
)

// GetObservabilityConfig derives the manager settings from the application config.
func GetObservabilityConfig(cfg *config.Config, version string) ObservabilityConfig {
	if cfg == nil {
		return ObservabilityConfig{
			ServiceName:    "resumescore",
			ServiceVersion: version,
			Enabled:        true,
			SampleRate:     1.0,
			Prometheus:     GetPrometheusConfig(nil),
		}
	}

	obs := cfg.Observability
	serviceVersion := obs.ServiceVersion
	if serviceVersion == "" {
		serviceVersion = version
	}

	return ObservabilityConfig{
		ServiceName:    obs.ServiceName,
		ServiceVersion: serviceVersion,
		Enabled:        obs.Enabled,
		ConsoleOutput:  obs.ConsoleOutput,
		PrettyPrint:    obs.Console.PrettyPrint,
		SampleRate:     obs.SampleRate,
		Prometheus:     GetPrometheusConfig(cfg),
	}
}
