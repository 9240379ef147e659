package main

import (
	"context"
	"fmt"

	"github.com/okian/wardrobe/internal/adapters/cache"
	"github.com/okian/wardrobe/internal/adapters/catalog"
	"github.com/okian/wardrobe/internal/adapters/repository"
	app "github.com/okian/wardrobe/internal/app"
	"github.com/okian/wardrobe/internal/config"
	"github.com/okian/wardrobe/internal/domain/recommend"
	"github.com/okian/wardrobe/pkg/logger"
	"github.com/okian/wardrobe/pkg/metrics"
)

// components holds what main wires together.
type components struct {
	catalog *catalog.CSVProvider
	store   repository.Store
	cache   cache.Cache
	service *app.Service
}

// build constructs the catalog, store, cache and service from cfg.
// A catalog that fails to load leaves the service running on an empty catalog.
func build(ctx context.Context, cfg *config.Config, log logger.Logger) (*components, error) {
	cat := catalog.NewCSVProvider(cfg.CatalogPath,
		catalog.WithImagesDir(cfg.ImagesDir),
		catalog.WithFallbackImage(cfg.FallbackImage),
		catalog.WithLogger(log.Named("catalog")),
	)
	if err := cat.Reload(ctx); err != nil {
		log.Error(ctx, "catalog not loaded, serving an empty catalog",
			logger.String("path", cfg.CatalogPath), logger.Error(err))
	}

	store, err := repository.Open(ctx, cfg.StoreDriver, cfg.PostgresDSN,
		repository.WithLogger(log.Named("store")),
		repository.WithMaxConns(cfg.PostgresMaxConns),
	)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.StoreDriver, err)
	}

	var recCache cache.Cache = cache.Noop{}
	if cfg.RedisAddr != "" {
		rc := cache.NewRedis(cache.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}, cache.WithTTL(cfg.CacheTTL()), cache.WithLogger(log.Named("cache")))
		if err := rc.Ping(ctx); err != nil {
			log.Warn(ctx, "redis unreachable, recommendations will not be cached",
				logger.String("addr", cfg.RedisAddr), logger.Error(err))
			_ = rc.Close()
		} else {
			recCache = rc
		}
	}

	svc := app.New(cat, store,
		app.WithLogger(log.Named("service")),
		app.WithCache(recCache),
		app.WithEngine(recommend.NewEngine(recommend.WithLimit(cfg.RecommendationLimit))),
		app.WithWorkerCount(cfg.WorkerCount),
		app.WithQueueSize(cfg.QueueSize),
		app.WithDemoUsername(cfg.DemoUsername),
		app.WithPageLimits(cfg.DefaultPageLimit, cfg.MaxPageLimit),
	)

	return &components{catalog: cat, store: store, cache: recCache, service: svc}, nil
}

// metricsOptions maps the metrics settings of cfg onto manager options.
func metricsOptions(cfg *config.Config) []metrics.Option {
	return []metrics.Option{
		metrics.WithNamespace(cfg.MetricsNamespace),
		metrics.WithSubsystem(cfg.MetricsSubsystem),
		metrics.WithHistogramBuckets(cfg.MetricsLatencyBuckets),
		metrics.WithConstLabels(cfg.MetricsConstLabels),
	}
}
