package coupon

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	redis "github.com/redis/go-redis/v9"
)

// DefaultUsageKeyPrefix is the redis key prefix settlement writes under.
const DefaultUsageKeyPrefix = "coupon:usage:"

// RedisUsage reads redemption counts maintained externally in Redis.
type RedisUsage struct {
	Client    *redis.Client
	KeyPrefix string
}

// Current returns the redemption count for the code; a missing key is zero.
func (u RedisUsage) Current(ctx context.Context, code string) (int64, error) {
	if u.Client == nil {
		return 0, errors.New("usage counter not configured")
	}
	prefix := u.KeyPrefix
	if prefix == "" {
		prefix = DefaultUsageKeyPrefix
	}
	raw, err := u.Client.Get(ctx, prefix+code).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read usage counter: %w", err)
	}
	count, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse usage counter for %s: %w", code, err)
	}
	return count, nil
}
