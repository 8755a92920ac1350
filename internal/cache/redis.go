package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"

	"resumescore/internal/config"
	"resumescore/internal/errors"
	"resumescore/internal/types"
)

// Redis stores analyses as JSON under "<prefix><sha256(text)>".
type Redis struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedis connects to Redis and verifies the connection with a ping.
func NewRedis(ctx context.Context, cfg config.RedisConfig) (*Redis, error) {
	if cfg.Address == "" {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig, "redis address is required", nil)
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	if err := redisotel.InstrumentTracing(client); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to instrument redis tracing: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.NewNetworkError(errors.ErrCodeCache,
			fmt.Sprintf("failed to connect to redis at %s", cfg.Address), err)
	}

	return NewRedisWithClient(client, cfg.KeyPrefix, cfg.TTL), nil
}

// NewRedisWithClient wraps an existing client.
func NewRedisWithClient(client *redis.Client, prefix string, ttl time.Duration) *Redis {
	return &Redis{client: client, prefix: prefix, ttl: ttl}
}

// Key returns the redis key for text.
func (r *Redis) Key(text string) string {
	sum := sha256.Sum256([]byte(text))
	return r.prefix + hex.EncodeToString(sum[:])
}

func (r *Redis) Get(ctx context.Context, text string) (types.ResumeAnalysis, bool, error) {
	data, err := r.client.Get(ctx, r.Key(text)).Bytes()
	if stderrors.Is(err, redis.Nil) {
		return types.ResumeAnalysis{}, false, nil
	}
	if err != nil {
		return types.ResumeAnalysis{}, false, errors.NewNetworkError(errors.ErrCodeCache, "redis get failed", err)
	}

	var analysis types.ResumeAnalysis
	if err := json.Unmarshal(data, &analysis); err != nil {
		return types.ResumeAnalysis{}, false, errors.NewInternalError(errors.ErrCodeCache, "corrupt cached analysis", err)
	}
	return analysis, true, nil
}

func (r *Redis) Set(ctx context.Context, text string, analysis types.ResumeAnalysis) error {
	data, err := json.Marshal(analysis)
	if err != nil {
		return errors.NewInternalError(errors.ErrCodeCache, "failed to encode analysis", err)
	}
	if err := r.client.Set(ctx, r.Key(text), data, r.ttl).Err(); err != nil {
		return errors.NewNetworkError(errors.ErrCodeCache, "redis set failed", err)
	}
	return nil
}

// Ping checks connectivity for health reporting.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *Redis) Close() error {
	return r.client.Close()
}
