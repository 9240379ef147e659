// Package service wires the catalog, the stores, the recommendation cache and
// the invalidation pipeline into the operations the HTTP API serves.
package service

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/wardrobe/internal/adapters/cache"
	"github.com/okian/wardrobe/internal/adapters/catalog"
	eventqueue "github.com/okian/wardrobe/internal/adapters/mq/queue"
	workerpool "github.com/okian/wardrobe/internal/adapters/mq/worker"
	"github.com/okian/wardrobe/internal/adapters/repository"
	"github.com/okian/wardrobe/internal/domain/dedupe"
	"github.com/okian/wardrobe/internal/domain/recommend"
	"github.com/okian/wardrobe/pkg/logger"
	"github.com/okian/wardrobe/pkg/metrics"
)

const (
	defaultDemoUsername     = "demo"
	defaultDefaultPageLimit = 12
	defaultMaxPageLimit     = 100
	defaultQueueSize        = 10000
	defaultDedupeSize       = 50000
	anonymousUsername       = "Anonymous"
)

// Service implements the API dependencies for the recommendation system.
type Service struct {
	mu sync.RWMutex

	// Core components
	catalog   catalog.Provider
	store     repository.Store
	cache     cache.Cache
	engine    *recommend.Engine
	coalescer dedupe.Coalescer
	queue     *eventqueue.InMemoryQueue
	pool      *workerpool.Pool

	// Configuration
	workerCount      int
	queueSize        int
	dedupeSize       int
	demoUsername     string
	defaultPageLimit int
	maxPageLimit     int
	newEventID       func() string

	// State
	started   bool
	startedAt time.Time

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithCache sets the recommendation cache. Defaults to cache.Noop.
func WithCache(c cache.Cache) Option {
	return func(s *Service) {
		if c != nil {
			s.cache = c
		}
	}
}

// WithEngine sets the recommendation engine.
func WithEngine(e *recommend.Engine) Option {
	return func(s *Service) {
		if e != nil {
			s.engine = e
		}
	}
}

// WithWorkerCount sets the number of invalidation workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the invalidation queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize bounds the number of users tracked as pending invalidation.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithDemoUsername sets the account used when a request names no user.
func WithDemoUsername(name string) Option {
	return func(s *Service) {
		if name != "" {
			s.demoUsername = name
		}
	}
}

// WithPageLimits sets the default and maximum page sizes.
func WithPageLimits(defaultLimit, maxLimit int) Option {
	return func(s *Service) {
		if defaultLimit > 0 {
			s.defaultPageLimit = defaultLimit
		}
		if maxLimit > 0 {
			s.maxPageLimit = maxLimit
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a Service over a catalog and a store.
func New(cat catalog.Provider, store repository.Store, opts ...Option) *Service {
	s := &Service{
		catalog:          cat,
		store:            store,
		cache:            cache.Noop{},
		workerCount:      runtime.NumCPU(),
		queueSize:        defaultQueueSize,
		dedupeSize:       defaultDedupeSize,
		demoUsername:     defaultDemoUsername,
		defaultPageLimit: defaultDefaultPageLimit,
		maxPageLimit:     defaultMaxPageLimit,
		newEventID:       uuid.NewString,
		logger:           logger.Nop(),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.engine == nil {
		s.engine = recommend.NewEngine()
	}
	if s.defaultPageLimit > s.maxPageLimit {
		s.defaultPageLimit = s.maxPageLimit
	}

	return s
}

// Start creates the invalidation queue and starts the worker pool.
// Before Start, recorded interactions invalidate the cache synchronously.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	s.logger.Info(ctx, "starting recommendation service...")

	s.coalescer = dedupe.NewInMemoryCoalescer(dedupe.WithMaxPending(s.dedupeSize))
	s.queue = eventqueue.NewInMemoryQueue(eventqueue.WithCapacity(s.queueSize))
	s.pool = workerpool.NewPool(s.workerCount, s.queue, s.cache,
		workerpool.WithCoalescer(s.coalescer),
		workerpool.WithLogger(s.logger),
	)
	s.pool.Start(ctx)

	if products, err := s.catalog.Products(ctx); err == nil {
		metrics.UpdateCatalogProducts(len(products))
	}

	s.started = true
	s.startedAt = time.Now()
	s.logger.Info(ctx, "recommendation service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
	)

	return nil
}

// Stop drains the invalidation queue and closes the store and cache.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}

	s.logger.Info(ctx, "stopping recommendation service...")

	var firstErr error
	if s.pool != nil {
		if err := s.pool.Shutdown(ctx); err != nil {
			firstErr = err
		}
	}
	if err := s.cache.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := s.store.Close(); err != nil && firstErr == nil {
		firstErr = err
	}

	s.started = false
	s.logger.Info(ctx, "recommendation service stopped")
	return firstErr
}

// Ping checks the store connection.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats(ctx context.Context) map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"dedupeSize":  s.dedupeSize,
	}

	if products, err := s.catalog.Products(ctx); err == nil {
		stats["catalogProducts"] = len(products)
		metrics.UpdateCatalogProducts(len(products))
	}

	if s.started {
		stats["queueLength"] = s.queue.Len(ctx)
		stats["pendingInvalidations"] = s.coalescer.Pending()
		stats["uptimeSeconds"] = int64(time.Since(s.startedAt).Seconds())
	}

	return stats
}
