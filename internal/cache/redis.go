package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker/v2"
)

// ErrCircuitOpen is returned while the Redis circuit breaker is open.
var ErrCircuitOpen = errors.New("cache: circuit breaker is open")

// RedisConfig holds configuration for the Redis store.
type RedisConfig struct {
	// URL is the redis:// connection string.
	URL string

	// OperationTimeout bounds individual commands. Default: 2s.
	OperationTimeout time.Duration
}

// RedisStore backs the cache role with Redis. All commands go through a
// circuit breaker so a dead Redis degrades to fast failures instead of
// piling up timeouts; callers fall back to their own defaults on error.
type RedisStore struct {
	client  *redis.Client
	breaker *gobreaker.CircuitBreaker[string]
	timeout time.Duration
}

// NewRedisStore creates a Redis-backed store.
func NewRedisStore(cfg RedisConfig) (*RedisStore, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	timeout := cfg.OperationTimeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}

	breaker := gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:        "redis-cache",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// A cache miss is a normal outcome, not a Redis failure.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrNotFound)
		},
	})

	return &RedisStore{
		client:  redis.NewClient(opts),
		breaker: breaker,
		timeout: timeout,
	}, nil
}

// Get returns the value for key, or ErrNotFound.
func (s *RedisStore) Get(ctx context.Context, key string) (string, error) {
	value, err := s.execute(func() (string, error) {
		opCtx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()

		value, err := s.client.Get(opCtx, key).Result()
		if errors.Is(err, redis.Nil) {
			return "", ErrNotFound
		}
		return value, err
	})
	if err != nil {
		return "", err
	}
	return value, nil
}

// Set stores the value under key. A zero ttl means no expiry.
func (s *RedisStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	_, err := s.execute(func() (string, error) {
		opCtx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()
		return "", s.client.Set(opCtx, key, value, ttl).Err()
	})
	return err
}

// Delete removes the key if present.
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	_, err := s.execute(func() (string, error) {
		opCtx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()
		return "", s.client.Del(opCtx, key).Err()
	})
	return err
}

// Ping verifies connectivity.
func (s *RedisStore) Ping(ctx context.Context) error {
	_, err := s.execute(func() (string, error) {
		opCtx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()
		return "", s.client.Ping(opCtx).Err()
	})
	return err
}

// Close releases the client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// State returns the circuit breaker state, for status reporting.
func (s *RedisStore) State() gobreaker.State {
	return s.breaker.State()
}

func (s *RedisStore) execute(op func() (string, error)) (string, error) {
	value, err := s.breaker.Execute(op)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return "", ErrCircuitOpen
	}
	return value, err
}
