package server

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/semaphore"

	"resumescore/internal/config"
	"resumescore/internal/engine"
	apperrors "resumescore/internal/errors"
	"resumescore/internal/extract"
	"resumescore/internal/observability"
	"resumescore/internal/repository"
	"resumescore/internal/storage"
	"resumescore/internal/types"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// Analyzer scores resume text.
type Analyzer interface {
	Analyze(ctx context.Context, text string) (types.ResumeAnalysis, error)
	Stats() engine.Stats
}

// TextExtractor turns an uploaded document into text.
type TextExtractor interface {
	Extract(ctx context.Context, doc extract.Document) (string, error)
}

// Repository persists users and resume versions.
type Repository interface {
	CreateUser(ctx context.Context, email string) (*types.User, error)
	GetUser(ctx context.Context, id string) (*types.User, error)
	CreateVersion(ctx context.Context, in repository.NewVersion) (*types.ResumeVersion, error)
	GetVersion(ctx context.Context, id string) (*types.ResumeVersion, error)
	ListVersions(ctx context.Context, userID string) ([]types.ResumeVersion, error)
	DeleteVersion(ctx context.Context, id string) error
	Ping(ctx context.Context) error
}

// Pinger reports whether a backing service is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependencies are the collaborators the handlers call. Engine and Extractor
// are required; the rest are nil when the matching feature is disabled.
type Dependencies struct {
	Engine    Analyzer
	Extractor TextExtractor
	Store     Repository
	Documents storage.ObjectStore
	Cache     Pinger
}

// Server holds configuration for the HTTP server
type Server struct {
	Host    string
	Port    string
	Version string

	AppConfig *config.Config
	TLSConfig config.TLSConfig

	// API Authentication
	APIKeys map[string]bool

	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	RequestTimeout time.Duration

	MaxRequestSize int64

	RateLimit   *config.RateLimitConfig
	RateLimiter *RateLimiter

	Logger *apperrors.Logger

	deps     Dependencies
	om       *observability.ObservabilityManager
	metrics  *observability.Metrics
	slots    *semaphore.Weighted
	validate *validator.Validate
}

// ServerConfig holds configuration for creating a Server instance
type ServerConfig struct {
	Host           string
	Port           string
	Version        string
	TLSConfig      config.TLSConfig
	APIKeys        []string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	RequestTimeout time.Duration
	MaxRequestSize int64
	MaxConcurrent  int64
	RateLimit      *config.RateLimitConfig
}

// ConfigFrom builds a ServerConfig from the application configuration.
func ConfigFrom(cfg *config.Config, version string) ServerConfig {
	rl := cfg.Server.RateLimit
	return ServerConfig{
		Host:           cfg.Server.Host,
		Port:           cfg.Server.Port,
		Version:        version,
		TLSConfig:      cfg.Server.TLS,
		APIKeys:        cfg.Server.APIKeys,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		RequestTimeout: cfg.Server.RequestTimeout,
		MaxRequestSize: cfg.Server.MaxUploadSize,
		MaxConcurrent:  cfg.Engine.MaxConcurrent,
		RateLimit:      &rl,
	}
}

// NewServer creates a new Server instance from a ServerConfig struct
func NewServer(appCfg *config.Config, cfg ServerConfig, deps Dependencies, om *observability.ObservabilityManager, logger *apperrors.Logger) *Server {
	if logger == nil {
		logger = apperrors.Discard()
	}

	apiKeyMap := make(map[string]bool)
	for _, key := range cfg.APIKeys {
		if key != "" {
			apiKeyMap[key] = true
		}
	}

	var rateLimiter *RateLimiter
	if cfg.RateLimit != nil && cfg.RateLimit.Enabled {
		rateLimiter = NewRateLimiter(
			cfg.RateLimit.RequestsPerMin,
			cfg.RateLimit.BurstCapacity,
			logger,
		)
	}

	var slots *semaphore.Weighted
	if cfg.MaxConcurrent > 0 {
		slots = semaphore.NewWeighted(cfg.MaxConcurrent)
	}

	return &Server{
		Host:           cfg.Host,
		Port:           cfg.Port,
		Version:        cfg.Version,
		AppConfig:      appCfg,
		TLSConfig:      cfg.TLSConfig,
		APIKeys:        apiKeyMap,
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		IdleTimeout:    cfg.IdleTimeout,
		RequestTimeout: cfg.RequestTimeout,
		MaxRequestSize: cfg.MaxRequestSize,
		RateLimit:      cfg.RateLimit,
		RateLimiter:    rateLimiter,
		Logger:         logger,
		deps:           deps,
		om:             om,
		metrics:        om.GetMetrics(),
		slots:          slots,
		validate:       validator.New(validator.WithRequiredStructEnabled()),
	}
}

// UpdateRateLimit applies a reloaded rate limit to the running limiter.
// Enabling or disabling rate limiting takes effect on restart only.
func (s *Server) UpdateRateLimit(rl config.RateLimitConfig) {
	if s.RateLimiter == nil || !rl.Enabled {
		return
	}
	s.RateLimiter.SetRate(rl.RequestsPerMin, rl.BurstCapacity)
	s.Logger.Info("Rate limit updated",
		"requests_per_min", rl.RequestsPerMin,
		"burst_capacity", rl.BurstCapacity)
}
