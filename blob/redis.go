package blob

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps blobs in Redis, keyed by prefix + reference. Suitable
// when edits and their image payloads need to be visible across processes
// without a shared filesystem.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// RedisOption configures a RedisStore.
type RedisOption func(*RedisStore)

// WithPrefix overrides the default "reportpdf:blob:" key prefix.
func WithPrefix(prefix string) RedisOption {
	return func(s *RedisStore) { s.prefix = prefix }
}

// WithTTL expires blobs after ttl; zero keeps them forever.
func WithTTL(ttl time.Duration) RedisOption {
	return func(s *RedisStore) { s.ttl = ttl }
}

// NewRedisStore wraps an existing client; the caller owns its lifecycle.
func NewRedisStore(client *redis.Client, opts ...RedisOption) *RedisStore {
	s := &RedisStore{client: client, prefix: "reportpdf:blob:"}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStore) Upload(ctx context.Context, data []byte, mimeType string) (string, error) {
	ref := refFor(data, mimeType)
	if err := s.client.Set(ctx, s.prefix+ref, data, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("write blob %s: %w", ref, err)
	}
	return ref, nil
}

func (s *RedisStore) Fetch(ctx context.Context, ref string) ([]byte, error) {
	data, err := s.client.Get(ctx, s.prefix+ref).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("fetch blob %s: %w", ref, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("fetch blob %s: %w", ref, err)
	}
	return data, nil
}
