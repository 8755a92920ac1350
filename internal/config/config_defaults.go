package config

import (
	"time"

	"github.com/spf13/viper"
)

// setDefaults registers every key so that environment overrides reach Unmarshal.
func setDefaults(v *viper.Viper) {
	// App
	v.SetDefault("app.logLevel", "info")
	v.SetDefault("app.defaultFormat", "json")
	v.SetDefault("app.supportedFormats", []string{"json", "text", "markdown"})
	v.SetDefault("app.maxFileSize", 10*1024*1024)

	// Engine
	v.SetDefault("engine.cacheCapacity", 256)
	v.SetDefault("engine.coalesce", true)
	v.SetDefault("engine.maxConcurrent", 8)

	// Extraction
	v.SetDefault("extraction.pdfProvider", "local")
	v.SetDefault("extraction.tika.url", "")
	v.SetDefault("extraction.tika.timeout", 30*time.Second)
	v.SetDefault("extraction.tika.circuitBreaker.enabled", true)
	v.SetDefault("extraction.tika.circuitBreaker.failureThreshold", 0.6)
	v.SetDefault("extraction.tika.circuitBreaker.minRequests", 3)
	v.SetDefault("extraction.tika.circuitBreaker.maxRequests", 3)
	v.SetDefault("extraction.tika.circuitBreaker.interval", 60*time.Second)
	v.SetDefault("extraction.tika.circuitBreaker.timeout", 60*time.Second)

	// Shared cache
	v.SetDefault("cache.redis.enabled", false)
	v.SetDefault("cache.redis.address", "localhost:6379")
	v.SetDefault("cache.redis.password", "")
	v.SetDefault("cache.redis.db", 0)
	v.SetDefault("cache.redis.poolSize", 10)
	v.SetDefault("cache.redis.dialTimeout", 5*time.Second)
	v.SetDefault("cache.redis.readTimeout", 3*time.Second)
	v.SetDefault("cache.redis.writeTimeout", 3*time.Second)
	v.SetDefault("cache.redis.keyPrefix", "resumescore:analysis:")
	v.SetDefault("cache.redis.ttl", 24*time.Hour)

	// Database
	v.SetDefault("database.enabled", false)
	v.SetDefault("database.url", "")
	v.SetDefault("database.maxConns", 10)
	v.SetDefault("database.connectTimeout", 10*time.Second)
	v.SetDefault("database.migrate", true)

	// Object storage
	v.SetDefault("storage.enabled", false)
	v.SetDefault("storage.endpoint", "")
	v.SetDefault("storage.accessKey", "")
	v.SetDefault("storage.secretKey", "")
	v.SetDefault("storage.bucket", "resumes")
	v.SetDefault("storage.region", "")
	v.SetDefault("storage.useSSL", true)

	// Server
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.readTimeout", 30*time.Second)
	v.SetDefault("server.writeTimeout", 30*time.Second)
	v.SetDefault("server.idleTimeout", 120*time.Second)
	v.SetDefault("server.requestTimeout", 30*time.Second)
	v.SetDefault("server.maxUploadSize", 10*1024*1024)
	v.SetDefault("server.apiKeys", []string{})

	v.SetDefault("server.tls.mode", "disabled")
	v.SetDefault("server.tls.certFile", "")
	v.SetDefault("server.tls.keyFile", "")
	v.SetDefault("server.tls.caFile", "")
	v.SetDefault("server.tls.minVersion", "1.2")
	v.SetDefault("server.tls.cipherSuites", []string{})
	v.SetDefault("server.tls.insecureSkipVerify", false)
	v.SetDefault("server.tls.clientAuthPolicy", "require")

	v.SetDefault("server.rateLimit.enabled", true)
	v.SetDefault("server.rateLimit.requestsPerMinute", 60)
	v.SetDefault("server.rateLimit.burstCapacity", 10)
	v.SetDefault("server.rateLimit.byIP", true)
	v.SetDefault("server.rateLimit.byAPIKey", false)
	v.SetDefault("server.rateLimit.window", time.Minute)

	// Vault
	v.SetDefault("vault.enabled", false)
	v.SetDefault("vault.address", "http://localhost:8200")
	v.SetDefault("vault.token", "")
	v.SetDefault("vault.tokenFile", "")
	v.SetDefault("vault.namespace", "")
	v.SetDefault("vault.secrets.apiKeys", "")
	v.SetDefault("vault.secrets.database", "")
	v.SetDefault("vault.secrets.redis", "")
	v.SetDefault("vault.secrets.storage", "")
	v.SetDefault("vault.secrets.tlsCerts", "")

	// Observability
	v.SetDefault("observability.enabled", false)
	v.SetDefault("observability.serviceName", "resumescore")
	v.SetDefault("observability.serviceVersion", "")
	v.SetDefault("observability.serviceInstance", "")
	v.SetDefault("observability.sampleRate", 1.0)
	v.SetDefault("observability.consoleOutput", false)
	v.SetDefault("observability.console.prettyPrint", false)
	v.SetDefault("observability.otlp.enabled", false)
	v.SetDefault("observability.otlp.endpoint", "http://localhost:4318")
	v.SetDefault("observability.otlp.insecure", true)
	v.SetDefault("observability.prometheus.enabled", true)
	v.SetDefault("observability.prometheus.endpoint", "/metrics")
	v.SetDefault("observability.prometheus.port", "9090")
	v.SetDefault("observability.metrics.collectionInterval", 15*time.Second)
	v.SetDefault("observability.customMetrics.analysis.enabled", true)
	v.SetDefault("observability.customMetrics.analysis.trackDuration", true)
	v.SetDefault("observability.customMetrics.analysis.trackScores", true)
	v.SetDefault("observability.customMetrics.business.enabled", true)
	v.SetDefault("observability.customMetrics.infrastructure.trackRateLimits", true)
	v.SetDefault("observability.customMetrics.infrastructure.trackCache", true)
}
