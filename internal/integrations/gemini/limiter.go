package gemini

import (
	"context"
	"errors"
	"fmt"
	"time"

	_ "time/tzdata" // embed the timezone database into the binary

	"github.com/MarcinMove37ai/hps-app-sub002/internal/config"
	"github.com/MarcinMove37ai/hps-app-sub002/internal/drivers/rdb"
)

const (
	rpd = "gemini:rpd:"
	rpm = "gemini:rpm:"
)

var (
	ErrDailyLimitReached  = errors.New("gemini daily limit reached")
	ErrMinuteLimitReached = errors.New("gemini minute limit reached")
)

// Limiter keeps the Gemini calls of every instance
// within the daily and per minute quotas, counted in Redis.
type Limiter struct {
	rpd, rpm int64
	rdb      *rdb.Service
	loc      *time.Location
	now      func() time.Time
}

// NewLimiter creates new Gemini limiter
func NewLimiter(cfg *config.Config, rdb *rdb.Service) (*Limiter, error) {
	loc, err := time.LoadLocation(cfg.GeminiTimezone)
	if err != nil {
		return nil, err
	}

	return &Limiter{
		rpd: cfg.GeminiRPD,
		rpm: cfg.GeminiRPM,
		rdb: rdb,
		loc: loc,
		now: time.Now,
	}, nil
}

// AcquireQuota consumes one request from the daily and the minute bucket.
// The daily bucket resets at midnight in the quota's timezone.
func (l *Limiter) AcquireQuota(ctx context.Context) error {
	now := l.now().In(l.loc)

	nextMidnight := time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, l.loc)
	ttlDaily := nextMidnight.Sub(now)

	dailyKey := rpd + now.Format("2006-01-02")
	minuteKey := rpm + now.Format("2006-01-02-15-04")

	pipe := l.rdb.Client.Pipeline()
	dailyIncr := pipe.Incr(ctx, dailyKey)
	pipe.Expire(ctx, dailyKey, ttlDaily)

	minuteIncr := pipe.Incr(ctx, minuteKey)
	pipe.Expire(ctx, minuteKey, 65*time.Second) // slightly over a minute

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis failure: %w", err)
	}

	if dailyIncr.Val() > l.rpd {
		return fmt.Errorf("%w (%d RPD)", ErrDailyLimitReached, l.rpd)
	}

	if minuteIncr.Val() > l.rpm {
		return fmt.Errorf("%w (%d RPM)", ErrMinuteLimitReached, l.rpm)
	}

	return nil
}
