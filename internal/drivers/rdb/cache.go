package rdb

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// GetCachedData returns the value stored under cacheKey,
// or calls the callable on a miss and caches what it returns.
// Redis failures are logged and never fail the call.
// T needs to implement encoding.BinaryMarshaler/BinaryUnmarshaler
// unless it's a type go-redis scans natively.
func GetCachedData[T any](
	ctx context.Context,
	rdb *Service,
	cacheKey string,
	cacheTimeout time.Duration,
	callable func() (T, error),
) (T, error) {

	var zero, data T

	err := rdb.Client.Get(ctx, cacheKey).Scan(&data)
	if err == nil {
		return data, nil
	}

	if !errors.Is(err, redis.Nil) {
		log.Printf("Error getting data from Redis for key '%s': %v", cacheKey, err)
	}

	data, err = callable()
	if err != nil {
		return zero, err
	}

	if err = rdb.Client.Set(ctx, cacheKey, data, cacheTimeout).Err(); err != nil {
		log.Printf("Error setting cache in Redis for key '%s': %v", cacheKey, err)
	}

	return data, nil
}
