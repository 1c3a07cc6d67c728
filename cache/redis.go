package cache

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
)

var cacheErrors = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "storefront_cache_errors_total",
		Help: "Cache operations that failed and were ignored",
	},
	[]string{"operation"},
)

type Redis struct {
	client *redis.Client
}

// NewRedis parses a redis:// URL. The connection is lazy; an unreachable
// server only shows up as logged errors.
func NewRedis(url string) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	opts.DialTimeout = 2 * time.Second
	opts.ReadTimeout = time.Second
	opts.WriteTimeout = time.Second
	return &Redis{client: redis.NewClient(opts)}, nil
}

func NewRedisFromClient(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *Redis) Close() error {
	return r.client.Close()
}

func logFailure(op, key string, err error) {
	cacheErrors.WithLabelValues(op).Inc()
	log.Printf("Redis %s error for key %s: %v", op, key, err)
}

func (r *Redis) Get(ctx context.Context, key string) (string, bool) {
	val, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logFailure("GET", key, err)
		}
		return "", false
	}
	return val, true
}

func (r *Redis) Set(ctx context.Context, key, value string, ttl time.Duration) {
	if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
		logFailure("SET", key, err)
	}
}

func (r *Redis) Del(ctx context.Context, keys ...string) {
	if len(keys) == 0 {
		return
	}
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		logFailure("DEL", keys[0], err)
	}
}

// Keys walks the keyspace with SCAN so large instances are not blocked.
func (r *Redis) Keys(ctx context.Context, pattern string) []string {
	var keys []string
	iter := r.client.Scan(ctx, 0, pattern, 200).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		logFailure("SCAN", pattern, err)
		return nil
	}
	return keys
}

func (r *Redis) DelPrefix(ctx context.Context, prefix string) {
	keys := r.Keys(ctx, prefix+"*")
	for start := 0; start < len(keys); start += 500 {
		end := min(start+500, len(keys))
		r.Del(ctx, keys[start:end]...)
	}
}

func (r *Redis) Incr(ctx context.Context, key string) (int64, error) {
	n, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		logFailure("INCR", key, err)
		return 0, err
	}
	return n, nil
}

func (r *Redis) Expire(ctx context.Context, key string, ttl time.Duration) {
	if err := r.client.Expire(ctx, key, ttl).Err(); err != nil {
		logFailure("EXPIRE", key, err)
	}
}
