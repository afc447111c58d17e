// Package cache stores decoded evaluation records in Redis, keyed by the
// storage generation token they were loaded from. A changed bucket yields a
// new token, so a hit never serves records that differ from storage.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/okian/evalboard/internal/domain/model"
	"github.com/okian/evalboard/pkg/logger"
	"github.com/okian/evalboard/pkg/metrics"
)

const (
	keyPrefix  = "evalboard:snapshot:"
	defaultTTL = 30 * time.Second
)

// client is the subset of *redis.Client used here.
type client interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Ping(ctx context.Context) *redis.StatusCmd
	Close() error
}

// Cache is a Redis backed snapshot cache.
type Cache struct {
	client client
	ttl    time.Duration
	log    logger.Logger
}

// Options configures the Redis connection.
type Options struct {
	Address  string
	Password string
	DB       int
	TTL      time.Duration
	Logger   logger.Logger
}

// Option mutates Options.
type Option func(*Options)

// WithAddress sets the Redis address.
func WithAddress(addr string) Option {
	return func(o *Options) {
		o.Address = addr
	}
}

// WithPassword sets the Redis password.
func WithPassword(pass string) Option {
	return func(o *Options) {
		o.Password = pass
	}
}

// WithDB selects the Redis database.
func WithDB(db int) Option {
	return func(o *Options) {
		o.DB = db
	}
}

// WithTTL sets how long a snapshot stays cached.
func WithTTL(ttl time.Duration) Option {
	return func(o *Options) {
		if ttl > 0 {
			o.TTL = ttl
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(o *Options) {
		if l != nil {
			o.Logger = l
		}
	}
}

func defaultOptions() *Options {
	return &Options{
		Address: "localhost:6379",
		TTL:     defaultTTL,
		Logger:  logger.GetOrNop(),
	}
}

// New connects to Redis and verifies the connection.
func New(ctx context.Context, opts ...Option) (*Cache, error) {
	options := defaultOptions()
	for _, opt := range opts {
		opt(options)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     options.Address,
		Password: options.Password,
		DB:       options.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis %s: %w", options.Address, err)
	}
	return newWithClient(rdb, options), nil
}

func newWithClient(c client, options *Options) *Cache {
	return &Cache{client: c, ttl: options.TTL, log: options.Logger}
}

// Key returns the Redis key for a generation token.
func Key(generation string) string {
	return keyPrefix + generation
}

// Get returns the records cached for generation. Redis errors are logged
// and reported as a miss.
func (c *Cache) Get(ctx context.Context, generation string) ([]model.EvaluationRecord, bool) {
	val, err := c.client.Get(ctx, Key(generation)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn(ctx, "snapshot cache read failed", logger.Error(err))
		}
		metrics.RecordCacheMiss()
		return nil, false
	}

	var records []model.EvaluationRecord
	if err := json.Unmarshal([]byte(val), &records); err != nil {
		c.log.Warn(ctx, "discarding undecodable cached snapshot", logger.String("generation", generation), logger.Error(err))
		metrics.RecordCacheMiss()
		return nil, false
	}
	metrics.RecordCacheHit()
	return records, true
}

// Set stores records under generation for the configured TTL.
func (c *Cache) Set(ctx context.Context, generation string, records []model.EvaluationRecord) error {
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := c.client.Set(ctx, Key(generation), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

// Close releases the connection.
func (c *Cache) Close() error {
	return c.client.Close()
}
