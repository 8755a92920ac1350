package cli

import (
	"context"
	"fmt"

	"resumescore/internal/cache"
	"resumescore/internal/config"
	"resumescore/internal/engine"
	"resumescore/internal/errors"
	"resumescore/internal/extract"
	"resumescore/internal/nlp"
	"resumescore/internal/repository"
	"resumescore/internal/server"
	"resumescore/internal/storage"
)

var _ server.Repository = (*repository.DB)(nil)

// runtime holds the collaborators built from configuration.
type runtime struct {
	engine    *engine.Engine
	extractor *extract.Service
	redis     *cache.Redis
	db        *repository.DB
	documents *storage.MinIO
	logger    *errors.Logger
}

type runtimeOptions struct {
	persistence bool
	recorder    extract.Recorder
}

// newRuntime builds the engine and extractor, plus the database and object
// store when persistence is requested. A Redis connection failure only
// disables the shared cache.
func newRuntime(ctx context.Context, cfg *config.Config, logger *errors.Logger, opts runtimeOptions) (*runtime, error) {
	rt := &runtime{logger: logger}

	if cfg.Cache.Redis.Enabled {
		r, err := cache.NewRedis(ctx, cfg.Cache.Redis)
		if err != nil {
			logger.LogError(err, "Shared result cache unavailable, continuing without it")
		} else {
			rt.redis = r
		}
	}

	engineOpts := []engine.Option{
		engine.WithCacheCapacity(cfg.Engine.CacheCapacity),
		engine.WithCoalescing(cfg.Engine.Coalesce),
		engine.WithLogger(logger),
	}
	if rt.redis != nil {
		engineOpts = append(engineOpts, engine.WithStore(rt.redis))
	}
	eng, err := engine.New(nlp.NewProseAnnotator(), engineOpts...)
	if err != nil {
		rt.Close()
		return nil, err
	}
	rt.engine = eng

	rt.extractor = newExtractor(cfg, logger)
	if opts.recorder != nil {
		rt.extractor.WithRecorder(opts.recorder)
	}

	if !opts.persistence {
		return rt, nil
	}

	if cfg.Database.Enabled {
		db, err := repository.Connect(ctx, cfg.Database)
		if err != nil {
			rt.Close()
			return nil, err
		}
		rt.db = db
		if cfg.Database.Migrate {
			if err := db.Migrate(ctx); err != nil {
				rt.Close()
				return nil, err
			}
			logger.Info("Database schema is up to date")
		}
	}

	if cfg.Storage.Enabled {
		docs, err := storage.NewMinIO(ctx, cfg.Storage, logger)
		if err != nil {
			rt.Close()
			return nil, err
		}
		rt.documents = docs
	}

	return rt, nil
}

func newExtractor(cfg *config.Config, logger *errors.Logger) *extract.Service {
	if cfg.Extraction.PDFProvider == extract.ProviderTika {
		return extract.NewService(extract.NewTikaExtractor(cfg.Extraction.Tika, logger), extract.ProviderTika, logger)
	}
	return extract.NewService(extract.PDFExtractor{}, extract.ProviderLocal, logger)
}

// dependencies exposes the runtime to the HTTP server. Disabled services stay
// nil interfaces.
func (rt *runtime) dependencies() server.Dependencies {
	deps := server.Dependencies{
		Engine:    rt.engine,
		Extractor: rt.extractor,
	}
	if rt.db != nil {
		deps.Store = rt.db
	}
	if rt.documents != nil {
		deps.Documents = rt.documents
	}
	if rt.redis != nil {
		deps.Cache = rt.redis
	}
	return deps
}

func (rt *runtime) Close() {
	if rt.db != nil {
		rt.db.Close()
	}
	if rt.redis != nil {
		if err := rt.redis.Close(); err != nil {
			rt.logger.LogError(fmt.Errorf("close redis: %w", err), "Failed to close shared cache")
		}
	}
}
