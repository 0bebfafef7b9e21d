package utils

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"math/rand"
	"time"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/status"
)

type RetryConfig struct {
	// Name shows up in the log line of every failed attempt
	Name       string
	MaxRetries int
	MaxJitter  time.Duration
	Delay      time.Duration

	// Permanent errors are returned at once, without further attempts
	Permanent func(error) bool
	// RetryAfter reads a server requested wait from the error.
	// Falls back to the gRPC RetryInfo detail when nil.
	RetryAfter func(error) (time.Duration, bool)
}

// Extract the retry delay from a gRPC status carrying RetryInfo
func extractRetryDelay(err error) (time.Duration, bool) {

	st, ok := status.FromError(err)
	if !ok {
		return 0, false
	}

	for _, detail := range st.Details() {
		if retryInfo, ok := detail.(*errdetails.RetryInfo); ok && retryInfo.RetryDelay != nil {
			return retryInfo.RetryDelay.AsDuration(), true
		}
	}

	return 0, false
}

// Retry calls callable until it succeeds, backing off exponentially with jitter.
// A server requested wait replaces the backoff unless it is longer,
// in which case retrying stops.
func Retry[T any](
	ctx context.Context,
	rc *RetryConfig,
	callable func() (T, error),
) (T, error) {

	var (
		zero      T
		lastError error
	)

	attempts := max(rc.MaxRetries, 1)
	retryAfter := rc.RetryAfter
	if retryAfter == nil {
		retryAfter = extractRetryDelay
	}

	for i := range attempts {

		data, err := callable()
		if err == nil {
			return data, nil
		}

		lastError = err
		if rc.Permanent != nil && rc.Permanent(err) {
			return zero, err
		}

		if rc.Name != "" {
			log.Printf("%s: attempt %d/%d failed: %v", rc.Name, i+1, attempts, err)
		}

		if i+1 == attempts {
			break
		}

		// Backoff of delay * 2^i plus up to MaxJitter
		jitter := time.Duration(rand.Float64() * float64(rc.MaxJitter)) // #nosec G404
		sleepTime := rc.Delay*time.Duration(math.Pow(2, float64(i))) + jitter

		if retryDelay, ok := retryAfter(err); ok {
			if retryDelay > sleepTime {
				return zero, fmt.Errorf("API requested excessive wait: %v; %w", retryDelay, err)
			}
			sleepTime = retryDelay
		}

		select {
		case <-ctx.Done():
			return zero, errors.Join(ctx.Err(), lastError)
		case <-time.After(sleepTime):
		}
	}

	return zero, fmt.Errorf("%d max retries error; %w", attempts, lastError)
}
