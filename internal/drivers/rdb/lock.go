package rdb

import (
	"context"
	"time"
)

// Lock is a best-effort exclusive marker on one resource,
// held until Unlock or until the ttl runs out.
type Lock struct {
	rdb   *Service
	key   string // unique to the resource being locked
	value string // unique to the holder
	ttl   time.Duration
}

func (s *Service) NewLock(key, value string, ttl time.Duration) *Lock {
	return &Lock{
		rdb:   s,
		key:   key,
		value: value,
		ttl:   ttl,
	}
}

// TryLock reports whether the lock was acquired, without waiting
func (l *Lock) TryLock(ctx context.Context) (bool, error) {
	return l.rdb.Client.SetNX(ctx, l.key, l.value, l.ttl).Result()
}

// Unlock releases the lock only if this holder still owns it
func (l *Lock) Unlock(ctx context.Context) error {
	script := `
        if redis.call("get", KEYS[1]) == ARGV[1] then
            return redis.call("del", KEYS[1])
        else
            return 0
        end
    `
	return l.rdb.Client.Eval(ctx, script, []string{l.key}, l.value).Err()
}
