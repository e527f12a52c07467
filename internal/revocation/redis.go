// Package revocation keeps a per-user watermark in Redis so access tokens
// issued before a logout-everywhere or reuse detection stop being accepted
// before they expire.
package revocation

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "auth:revoked_before:"

// Store records and reads revocation watermarks.
type Store interface {
	// MarkRevoked makes every access token of userID issued before at invalid.
	MarkRevoked(ctx context.Context, userID string, at time.Time) error
	// RevokedBefore returns the watermark for userID, if one is set.
	RevokedBefore(ctx context.Context, userID string) (time.Time, bool, error)
}

// RedisStore implements Store. Watermarks expire after ttl, which should be
// the access token lifetime: by then every older token has expired anyway.
type RedisStore struct {
	cli *redis.Client
	ttl time.Duration
}

// NewRedisStore connects to url and verifies connectivity.
func NewRedisStore(ctx context.Context, url string, ttl time.Duration) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis parse url: %w", err)
	}
	cli := redis.NewClient(opts)
	if err := cli.Ping(ctx).Err(); err != nil {
		_ = cli.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &RedisStore{cli: cli, ttl: ttl}, nil
}

// NewRedisStoreWithClient wraps an existing client.
func NewRedisStoreWithClient(cli *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{cli: cli, ttl: ttl}
}

func (s *RedisStore) MarkRevoked(ctx context.Context, userID string, at time.Time) error {
	return s.cli.Set(ctx, keyPrefix+userID, strconv.FormatInt(at.Unix(), 10), s.ttl).Err()
}

func (s *RedisStore) RevokedBefore(ctx context.Context, userID string) (time.Time, bool, error) {
	val, err := s.cli.Get(ctx, keyPrefix+userID).Result()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	sec, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("revocation watermark %q: %w", val, err)
	}
	return time.Unix(sec, 0), true, nil
}

// Ping checks the connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.cli.Ping(ctx).Err()
}

func (s *RedisStore) Close() error {
	return s.cli.Close()
}

// IssuedBeforeWatermark reports whether a token issued at issuedAt predates
// the watermark. Both are compared at second precision, matching JWT iat.
func IssuedBeforeWatermark(issuedAt, watermark time.Time) bool {
	return issuedAt.Unix() < watermark.Unix()
}
