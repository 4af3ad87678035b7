package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"
)

// BlogKeyPrefix namespaces every content-related cache key. Writes invalidate
// the whole namespace rather than individual keys: a higher post-write miss
// rate in exchange for never serving a stale record after a successful write.
const BlogKeyPrefix = "blog:"

// Service is a best-effort TTL cache over redis. Absence or failure of the
// backing store never fails a request, only slows it down. If the initial
// probe fails the cache stays disabled for the process lifetime; there is no
// periodic retry.
type Service struct {
	client     *redis.Client
	available  bool
	defaultTTL time.Duration
	logger     zerolog.Logger
}

// New probes the backing store once. An empty URL disables caching entirely
// and is not an error.
func New(url string, defaultTTL time.Duration, logger zerolog.Logger) *Service {
	s := &Service{
		defaultTTL: defaultTTL,
		logger:     logger.With().Str("component", "cache").Logger(),
	}

	if url == "" {
		s.logger.Warn().Msg("REDIS_URL not configured, caching disabled")
		return s
	}

	opts, err := redis.ParseURL(url)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Invalid REDIS_URL, running without cache")
		return s
	}
	opts.DialTimeout = 2 * time.Second

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("Redis unavailable, running without cache")
		return s
	}

	s.client = client
	s.available = true
	s.logger.Info().Msg("Redis cache initialized")
	return s
}

// Available reports whether the backing store answered the startup probe.
// Used by the health endpoint.
func (s *Service) Available() bool {
	return s.available
}

// Get decodes the cached value for key into dest. Returns false on miss or on
// any failure; failures never propagate.
func (s *Service) Get(ctx context.Context, key string, dest any) bool {
	if !s.available {
		return false
	}

	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			s.logger.Error().Err(err).Str("key", key).Msg("Cache get error")
		}
		return false
	}

	if err := json.Unmarshal(data, dest); err != nil {
		s.logger.Error().Err(err).Str("key", key).Msg("Cache decode error")
		return false
	}
	return true
}

// Set stores a JSON snapshot of value under key. A non-positive ttl falls
// back to the configured default. Failures are swallowed and reported as
// false.
func (s *Service) Set(ctx context.Context, key string, value any, ttl time.Duration) bool {
	if !s.available {
		return false
	}

	if ttl <= 0 {
		ttl = s.defaultTTL
	}

	data, err := json.Marshal(value)
	if err != nil {
		s.logger.Error().Err(err).Str("key", key).Msg("Cache encode error")
		return false
	}

	if err := s.client.Set(ctx, key, data, ttl).Err(); err != nil {
		s.logger.Error().Err(err).Str("key", key).Msg("Cache set error")
		return false
	}
	return true
}

// Invalidate removes all keys matching pattern.
func (s *Service) Invalidate(ctx context.Context, pattern string) bool {
	if !s.available {
		return false
	}

	keys, err := s.client.Keys(ctx, pattern).Result()
	if err != nil {
		s.logger.Error().Err(err).Str("pattern", pattern).Msg("Cache invalidate error")
		return false
	}
	if len(keys) == 0 {
		return true
	}

	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		s.logger.Error().Err(err).Str("pattern", pattern).Msg("Cache invalidate error")
		return false
	}
	return true
}

// InvalidateBlogCache drops the entire content-cache namespace.
func (s *Service) InvalidateBlogCache(ctx context.Context) {
	s.Invalidate(ctx, BlogKeyPrefix+"*")
	if s.available {
		s.logger.Info().Msg("Blog cache invalidated")
	}
}

// Close releases the redis client. Safe when caching is disabled.
func (s *Service) Close() {
	if s.client != nil {
		if err := s.client.Close(); err != nil {
			s.logger.Error().Err(err).Msg("Error closing redis client")
		}
	}
}
