package config

import (
	"fmt"
	"log"
	"os"
	"strings"
)

// applyFallbacks fills values that depend on other settings or the host
func (c *Config) applyFallbacks() {
	c.applyServerAPIKeyFallbacks()
	c.applyTLSDefaults()
	c.applyObservabilityDefaults()
}

// applyServerAPIKeyFallbacks accepts a comma-separated key list from the environment
func (c *Config) applyServerAPIKeyFallbacks() {
	var keys []string
	for _, k := range c.Server.APIKeys {
		keys = append(keys, splitList(k)...)
	}
	c.Server.APIKeys = keys
	if len(c.Server.APIKeys) == 0 {
		if apiKeysEnv := os.Getenv(envPrefix + "_SERVER_APIKEYS"); apiKeysEnv != "" {
			c.Server.APIKeys = splitList(apiKeysEnv)
		}
	}
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (c *Config) applyTLSDefaults() {
	if c.Server.TLS.Mode == "mutual" && c.Server.TLS.ClientAuthPolicy == "" {
		c.Server.TLS.ClientAuthPolicy = "require"
	}
	if c.Server.TLS.MinVersion == "" && c.Server.TLS.Mode != "disabled" {
		c.Server.TLS.MinVersion = "1.2"
	}
}

func (c *Config) applyObservabilityDefaults() {
	if c.Observability.ServiceInstance == "" {
		c.Observability.ServiceInstance = generateServiceInstanceID(c.Observability.ServiceName)
	}
}

func generateServiceInstanceID(serviceName string) string {
	if hostname, err := os.Hostname(); err == nil {
		return fmt.Sprintf("%s-%s", serviceName, hostname)
	}
	return fmt.Sprintf("%s-1", serviceName)
}

// sensitiveEnv lists variables whose values are never logged.
var sensitiveEnv = map[string]bool{
	envPrefix + "_SERVER_APIKEYS":       true,
	envPrefix + "_DATABASE_URL":         true,
	envPrefix + "_CACHE_REDIS_PASSWORD": true,
	envPrefix + "_STORAGE_ACCESSKEY":    true,
	envPrefix + "_STORAGE_SECRETKEY":    true,
	envPrefix + "_VAULT_TOKEN":          true,
}

// logConfigurationSources logs a summary of configuration sources being used
func (c *Config) logConfigurationSources(configFileUsed string) {
	log.Println("[CONFIG] === Configuration Sources Summary ===")
	if configFileUsed != "" {
		log.Printf("[CONFIG] Config file: %s", configFileUsed)
	} else {
		log.Println("[CONFIG] Config file: None (using defaults)")
	}

	log.Println("[CONFIG] Environment variables:")
	hasEnvVars := false
	for _, kv := range os.Environ() {
		name, value, _ := strings.Cut(kv, "=")
		if !strings.HasPrefix(name, envPrefix+"_") {
			continue
		}
		hasEnvVars = true
		if sensitiveEnv[name] {
			log.Printf("[CONFIG]   %s=***MASKED***", name)
		} else {
			log.Printf("[CONFIG]   %s=%s", name, value)
		}
	}
	if !hasEnvVars {
		log.Println("[CONFIG]   None set")
	}

	log.Println("[CONFIG] === Key Configuration Values ===")
	log.Printf("[CONFIG] Server: %s:%s (TLS %s)", c.Server.Host, c.Server.Port, c.Server.TLS.Mode)
	log.Printf("[CONFIG] API keys configured: %d", len(c.Server.APIKeys))
	log.Printf("[CONFIG] Log Level: %s", c.App.LogLevel)
	log.Printf("[CONFIG] Engine cache capacity: %d, coalesce: %t", c.Engine.CacheCapacity, c.Engine.Coalesce)
	log.Printf("[CONFIG] PDF provider: %s", c.Extraction.PDFProvider)
	log.Printf("[CONFIG] Redis cache: %t, Database: %t, Object storage: %t",
		c.Cache.Redis.Enabled, c.Database.Enabled, c.Storage.Enabled)
	log.Printf("[CONFIG] Vault Enabled: %t", c.Vault.Enabled)
	log.Printf("[CONFIG] Observability Enabled: %t", c.Observability.Enabled)
	log.Println("[CONFIG] =====================================")
}
