package config

import (
	"fmt"
	"log"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const envPrefix = "RESUMESCORE"

// Config holds the application configuration
type Config struct {
	App           AppConfig           `mapstructure:"app"`
	Engine        EngineConfig        `mapstructure:"engine"`
	Extraction    ExtractionConfig    `mapstructure:"extraction"`
	Cache         CacheConfig         `mapstructure:"cache"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Storage       StorageConfig       `mapstructure:"storage"`
	Server        ServerConfig        `mapstructure:"server"`
	Vault         VaultConfig         `mapstructure:"vault"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

// AppConfig holds general application settings
type AppConfig struct {
	LogLevel         string   `mapstructure:"logLevel"`
	DefaultFormat    string   `mapstructure:"defaultFormat"`
	SupportedFormats []string `mapstructure:"supportedFormats"`
	MaxFileSize      int64    `mapstructure:"maxFileSize"`
}

// EngineConfig tunes the analysis engine
type EngineConfig struct {
	CacheCapacity int  `mapstructure:"cacheCapacity"`
	Coalesce      bool `mapstructure:"coalesce"`
	// MaxConcurrent bounds in-flight analyses in the HTTP server.
	MaxConcurrent int64 `mapstructure:"maxConcurrent"`
}

// ExtractionConfig selects how uploaded documents become text
type ExtractionConfig struct {
	// PDFProvider is "local" or "tika".
	PDFProvider string     `mapstructure:"pdfProvider"`
	Tika        TikaConfig `mapstructure:"tika"`
}

// TikaConfig configures the Apache Tika extraction server
type TikaConfig struct {
	URL            string               `mapstructure:"url"`
	Timeout        time.Duration        `mapstructure:"timeout"`
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuitBreaker"`
}

// CircuitBreakerConfig holds circuit breaker configuration
type CircuitBreakerConfig struct {
	Enabled          bool          `mapstructure:"enabled"`
	FailureThreshold float64       `mapstructure:"failureThreshold"`
	MinRequests      uint32        `mapstructure:"minRequests"`
	MaxRequests      uint32        `mapstructure:"maxRequests"`
	Interval         time.Duration `mapstructure:"interval"`
	Timeout          time.Duration `mapstructure:"timeout"`
}

// CacheConfig holds the shared result cache settings
type CacheConfig struct {
	Redis RedisConfig `mapstructure:"redis"`
}

// RedisConfig configures the Redis-backed second-level cache
type RedisConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Address      string        `mapstructure:"address"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"poolSize"`
	DialTimeout  time.Duration `mapstructure:"dialTimeout"`
	ReadTimeout  time.Duration `mapstructure:"readTimeout"`
	WriteTimeout time.Duration `mapstructure:"writeTimeout"`
	KeyPrefix    string        `mapstructure:"keyPrefix"`
	TTL          time.Duration `mapstructure:"ttl"`
}

// DatabaseConfig configures the PostgreSQL version store
type DatabaseConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	URL            string        `mapstructure:"url"`
	MaxConns       int32         `mapstructure:"maxConns"`
	ConnectTimeout time.Duration `mapstructure:"connectTimeout"`
	Migrate        bool          `mapstructure:"migrate"`
}

// StorageConfig configures the S3-compatible store for uploaded files
type StorageConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"accessKey"`
	SecretKey string `mapstructure:"secretKey"`
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	UseSSL    bool   `mapstructure:"useSSL"`
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Host           string          `mapstructure:"host"`
	Port           string          `mapstructure:"port"`
	ReadTimeout    time.Duration   `mapstructure:"readTimeout"`
	WriteTimeout   time.Duration   `mapstructure:"writeTimeout"`
	IdleTimeout    time.Duration   `mapstructure:"idleTimeout"`
	RequestTimeout time.Duration   `mapstructure:"requestTimeout"`
	MaxUploadSize  int64           `mapstructure:"maxUploadSize"`
	APIKeys        []string        `mapstructure:"apiKeys"`
	TLS            TLSConfig       `mapstructure:"tls"`
	RateLimit      RateLimitConfig `mapstructure:"rateLimit"`
}

// TLSConfig holds TLS configuration
type TLSConfig struct {
	Mode     string `mapstructure:"mode"` // disabled, server, mutual
	CertFile string `mapstructure:"certFile"`
	KeyFile  string `mapstructure:"keyFile"`
	CAFile   string `mapstructure:"caFile"`

	// Content is populated from Vault and takes the place of the file paths.
	CertContent string `mapstructure:"certContent"`
	KeyContent  string `mapstructure:"keyContent"`
	CAContent   string `mapstructure:"caContent"`

	MinVersion         string   `mapstructure:"minVersion"`
	CipherSuites       []string `mapstructure:"cipherSuites"`
	InsecureSkipVerify bool     `mapstructure:"insecureSkipVerify"`
	ClientAuthPolicy   string   `mapstructure:"clientAuthPolicy"` // require, request, verify
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	RequestsPerMin int           `mapstructure:"requestsPerMinute"`
	BurstCapacity  int           `mapstructure:"burstCapacity"`
	ByIP           bool          `mapstructure:"byIP"`
	ByAPIKey       bool          `mapstructure:"byAPIKey"`
	Window         time.Duration `mapstructure:"window"`
}

// ObservabilityConfig holds observability configuration
type ObservabilityConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	ServiceName     string        `mapstructure:"serviceName"`
	ServiceVersion  string        `mapstructure:"serviceVersion"`
	ServiceInstance string        `mapstructure:"serviceInstance"`
	SampleRate      float64       `mapstructure:"sampleRate"`
	ConsoleOutput   bool          `mapstructure:"consoleOutput"`
	Console         ConsoleConfig `mapstructure:"console"`
	OTLP            OTLPConfig    `mapstructure:"otlp"`
	Prometheus      PromConfig    `mapstructure:"prometheus"`
	Metrics         MetricsConfig `mapstructure:"metrics"`
	CustomMetrics   CustomMetrics `mapstructure:"customMetrics"`
}

type ConsoleConfig struct {
	PrettyPrint bool `mapstructure:"prettyPrint"`
}

// OTLPConfig holds OTLP exporter configuration
type OTLPConfig struct {
	Enabled  bool              `mapstructure:"enabled"`
	Endpoint string            `mapstructure:"endpoint"`
	Insecure bool              `mapstructure:"insecure"`
	Headers  map[string]string `mapstructure:"headers"`
}

// PromConfig holds Prometheus exporter configuration
type PromConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
	Port     string `mapstructure:"port"`
}

type MetricsConfig struct {
	CollectionInterval time.Duration `mapstructure:"collectionInterval"`
}

// CustomMetrics toggles groups of application metrics
type CustomMetrics struct {
	Analysis       AnalysisMetrics       `mapstructure:"analysis"`
	Business       BusinessMetrics       `mapstructure:"business"`
	Infrastructure InfrastructureMetrics `mapstructure:"infrastructure"`
}

type AnalysisMetrics struct {
	Enabled       bool `mapstructure:"enabled"`
	TrackDuration bool `mapstructure:"trackDuration"`
	TrackScores   bool `mapstructure:"trackScores"`
}

type BusinessMetrics struct {
	Enabled bool `mapstructure:"enabled"`
}

type InfrastructureMetrics struct {
	TrackRateLimits bool `mapstructure:"trackRateLimits"`
	TrackCache      bool `mapstructure:"trackCache"`
}

// Loader reads configuration from defaults, a config file and the environment.
// It keeps the underlying viper instance so the file can be watched.
type Loader struct {
	v    *viper.Viper
	used string
}

// NewLoader returns a loader that searches the standard config locations.
func NewLoader() *Loader {
	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/resumescore/")
	v.AddConfigPath("$HOME/.resumescore")
	v.AddConfigPath(".")
	log.Println("[CONFIG] Configured config file search paths: /etc/resumescore/, $HOME/.resumescore, .")
	return &Loader{v: v}
}

// NewFileLoader returns a loader bound to an explicit config file.
func NewFileLoader(path string) *Loader {
	v := newViper()
	v.SetConfigFile(path)
	return &Loader{v: v}
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the config file, if any, and returns the validated configuration.
func (l *Loader) Load() (*Config, error) {
	log.Println("[CONFIG] Starting configuration loading process")

	if err := l.v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		log.Println("[CONFIG] No config file found, using defaults and environment variables")
	} else {
		l.used = l.v.ConfigFileUsed()
		log.Printf("[CONFIG] Successfully loaded config file: %s", l.used)
	}

	config, err := l.decode()
	if err != nil {
		return nil, err
	}
	config.logConfigurationSources(l.used)

	log.Println("[CONFIG] Configuration loading completed successfully")
	return config, nil
}

// ConfigFileUsed returns the path of the file read by Load, or "".
func (l *Loader) ConfigFileUsed() string {
	return l.used
}

func (l *Loader) decode() (*Config, error) {
	var config Config
	if err := l.v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.applyFallbacks()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &config, nil
}

// LoadConfig loads configuration from the standard locations and the environment
func LoadConfig() (*Config, error) {
	return NewLoader().Load()
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.App.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", c.App.LogLevel)
	}

	if !slices.Contains(c.App.SupportedFormats, c.App.DefaultFormat) {
		return fmt.Errorf("default format %q is not one of the supported formats %v", c.App.DefaultFormat, c.App.SupportedFormats)
	}
	if c.Server.Port == "" {
		return fmt.Errorf("server.port is required")
	}

	if c.Engine.CacheCapacity <= 0 {
		return fmt.Errorf("engine.cacheCapacity must be positive, got %d", c.Engine.CacheCapacity)
	}
	if c.Engine.MaxConcurrent <= 0 {
		return fmt.Errorf("engine.maxConcurrent must be positive, got %d", c.Engine.MaxConcurrent)
	}

	switch c.Extraction.PDFProvider {
	case "local":
	case "tika":
		if c.Extraction.Tika.URL == "" {
			return fmt.Errorf("extraction.tika.url is required when pdfProvider is tika")
		}
	default:
		return fmt.Errorf("invalid pdf provider: %s (must be 'local' or 'tika')", c.Extraction.PDFProvider)
	}

	if c.Cache.Redis.Enabled && c.Cache.Redis.Address == "" {
		return fmt.Errorf("cache.redis.address is required when redis is enabled")
	}
	if c.Database.Enabled && c.Database.URL == "" {
		return fmt.Errorf("database.url is required when the database is enabled")
	}
	if c.Storage.Enabled {
		if c.Storage.Endpoint == "" || c.Storage.Bucket == "" {
			return fmt.Errorf("storage.endpoint and storage.bucket are required when storage is enabled")
		}
	}

	if c.Server.RateLimit.Enabled && c.Server.RateLimit.RequestsPerMin <= 0 {
		return fmt.Errorf("server.rateLimit.requestsPerMinute must be positive when rate limiting is enabled")
	}

	return c.ValidateTLSConfig()
}
