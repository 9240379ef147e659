// Package cache stores rendered recommendation responses per user.
package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"github.com/okian/wardrobe/internal/domain/types"
	"github.com/okian/wardrobe/pkg/logger"
)

const (
	keyPrefix  = "wardrobe:recs:"
	epochKey   = keyPrefix + "epoch"
	defaultTTL = 5 * time.Minute
	// genTTL outlives any in-flight computation.
	genTTL   = 24 * time.Hour
	scanSize = 100
)

// setIfCurrent writes the entry only while neither the user's generation nor
// the catalog epoch moved since they were read.
var setIfCurrent = redis.NewScript(`
local user = redis.call('GET', KEYS[2]) or '0'
local epoch = redis.call('GET', KEYS[3]) or '0'
if user ~= ARGV[1] or epoch ~= ARGV[2] then
	return 0
end
redis.call('SET', KEYS[1], ARGV[3], 'PX', ARGV[4])
return 1
`)

// Generation identifies the state a response was computed from. Invalidate
// advances User, InvalidateAll advances Catalog.
type Generation struct {
	User    int64
	Catalog int64
}

// Cache holds the last recommendation response of each user.
type Cache interface {
	// Get returns ErrCacheMiss when nothing is cached.
	Get(ctx context.Context, userID int64) (types.RecommendationResponse, error)
	// Generation must be read before loading the data resp is built from.
	Generation(ctx context.Context, userID int64) (Generation, error)
	// Set returns ErrStale, storing nothing, when gen is outdated.
	Set(ctx context.Context, userID int64, gen Generation, resp types.RecommendationResponse) error
	Invalidate(ctx context.Context, userID int64) error
	// InvalidateAll drops every user's entry.
	InvalidateAll(ctx context.Context) error
	Close() error
}

// Key returns the redis key of a user's cached recommendations.
func Key(userID int64) string {
	return keyPrefix + strconv.FormatInt(userID, 10)
}

// GenerationKey returns the redis key of a user's generation counter.
func GenerationKey(userID int64) string {
	return Key(userID) + ":gen"
}

// Option configures a Redis cache.
type Option func(*Redis)

// WithTTL sets the entry lifetime.
func WithTTL(ttl time.Duration) Option {
	return func(r *Redis) {
		if ttl > 0 {
			r.ttl = ttl
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(r *Redis) {
		if l != nil {
			r.log = l
		}
	}
}

// Redis is a Cache backed by go-redis.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
	log    logger.Logger
}

// Config carries the redis connection settings.
type Config struct {
	Addr     string
	Password string
	DB       int
}

// NewRedis creates a client for cfg. It does not dial.
func NewRedis(cfg Config, opts ...Option) *Redis {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})
	return NewRedisFromClient(rdb, opts...)
}

// NewRedisFromClient wraps an existing client.
func NewRedisFromClient(client *redis.Client, opts ...Option) *Redis {
	r := &Redis{client: client, ttl: defaultTTL, log: logger.Nop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Ping tests the Redis connection.
func (r *Redis) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

// Get decodes the cached response of userID.
func (r *Redis) Get(ctx context.Context, userID int64) (types.RecommendationResponse, error) {
	var resp types.RecommendationResponse
	raw, err := r.client.Get(ctx, Key(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return resp, ErrCacheMiss
	}
	if err != nil {
		return resp, fmt.Errorf("redis get: %w", err)
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		r.log.Warn(ctx, "dropping undecodable cache entry", logger.Int64("user_id", userID), logger.Error(err))
		_ = r.client.Del(ctx, Key(userID)).Err()
		return types.RecommendationResponse{}, ErrCacheMiss
	}
	return resp, nil
}

// Generation reads the user's counter and the catalog epoch. Missing
// counters read as zero.
func (r *Redis) Generation(ctx context.Context, userID int64) (Generation, error) {
	vals, err := r.client.MGet(ctx, GenerationKey(userID), epochKey).Result()
	if err != nil {
		return Generation{}, fmt.Errorf("redis mget: %w", err)
	}
	user, err := parseCounter(vals[0])
	if err != nil {
		return Generation{}, err
	}
	epoch, err := parseCounter(vals[1])
	if err != nil {
		return Generation{}, err
	}
	return Generation{User: user, Catalog: epoch}, nil
}

func parseCounter(v interface{}) (int64, error) {
	if v == nil {
		return 0, nil
	}
	s, ok := v.(string)
	if !ok {
		return 0, fmt.Errorf("unexpected counter value %T", v)
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse counter: %w", err)
	}
	return n, nil
}

// Set stores resp for the configured TTL if gen is still current.
func (r *Redis) Set(ctx context.Context, userID int64, gen Generation, resp types.RecommendationResponse) error {
	raw, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("encode recommendations: %w", err)
	}
	stored, err := setIfCurrent.Run(ctx, r.client,
		[]string{Key(userID), GenerationKey(userID), epochKey},
		strconv.FormatInt(gen.User, 10),
		strconv.FormatInt(gen.Catalog, 10),
		raw,
		r.ttl.Milliseconds(),
	).Int()
	if err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	if stored == 0 {
		return ErrStale
	}
	return nil
}

// Invalidate drops the entry of userID and advances its generation so that
// responses computed before the call are never stored.
func (r *Redis) Invalidate(ctx context.Context, userID int64) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, GenerationKey(userID))
		pipe.Expire(ctx, GenerationKey(userID), genTTL)
		pipe.Del(ctx, Key(userID))
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis invalidate: %w", err)
	}
	return nil
}

// InvalidateAll advances the catalog epoch and deletes every cached entry.
// Generation counters are kept.
func (r *Redis) InvalidateAll(ctx context.Context) error {
	if err := r.client.Incr(ctx, epochKey).Err(); err != nil {
		return fmt.Errorf("redis incr epoch: %w", err)
	}
	var cursor uint64
	dropped := 0
	for {
		keys, next, err := r.client.Scan(ctx, cursor, keyPrefix+"*", scanSize).Result()
		if err != nil {
			return fmt.Errorf("redis scan: %w", err)
		}
		entries := keys[:0]
		for _, k := range keys {
			if _, err := strconv.ParseInt(strings.TrimPrefix(k, keyPrefix), 10, 64); err == nil {
				entries = append(entries, k)
			}
		}
		if len(entries) > 0 {
			if err := r.client.Del(ctx, entries...).Err(); err != nil {
				return fmt.Errorf("redis del: %w", err)
			}
			dropped += len(entries)
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	r.log.Info(ctx, "dropped cached recommendations", logger.Int("entries", dropped))
	return nil
}

// Close closes the client.
func (r *Redis) Close() error {
	return r.client.Close()
}

// Noop never stores anything.
type Noop struct{}

// Get always misses.
func (Noop) Get(context.Context, int64) (types.RecommendationResponse, error) {
	return types.RecommendationResponse{}, ErrCacheMiss
}

// Generation is always zero.
func (Noop) Generation(context.Context, int64) (Generation, error) { return Generation{}, nil }

// Set discards resp.
func (Noop) Set(context.Context, int64, Generation, types.RecommendationResponse) error { return nil }

// Invalidate does nothing.
func (Noop) Invalidate(context.Context, int64) error { return nil }

// InvalidateAll does nothing.
func (Noop) InvalidateAll(context.Context) error { return nil }

// Close does nothing.
func (Noop) Close() error { return nil }
