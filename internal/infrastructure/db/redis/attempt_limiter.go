package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const attemptKeyPrefix = "login_attempts:"

// recordFailureScript increments the counter and opens the window in one
// server-side step. A counter left without a TTL (PTTL -1) gets one too, so a
// key can never lock an identity out permanently.
var recordFailureScript = redis.NewScript(`
local n = redis.call("INCR", KEYS[1])
if redis.call("PTTL", KEYS[1]) < 0 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return n
`)

// AttemptLimiter counts failed logins per identity in Redis.
// Key format: login_attempts:<sha256(identity)>, so raw emails never reach Redis.
// The window starts at the first failure and is not extended by later ones.
type AttemptLimiter struct {
	client      *redis.Client
	maxAttempts int
	window      time.Duration
}

// NewAttemptLimiter locks an identity out after maxAttempts failures within window.
func NewAttemptLimiter(client *redis.Client, maxAttempts int, window time.Duration) (*AttemptLimiter, error) {
	if maxAttempts <= 0 {
		return nil, fmt.Errorf("attempt limiter: max attempts must be positive, got %d", maxAttempts)
	}
	if window <= 0 {
		return nil, fmt.Errorf("attempt limiter: window must be positive, got %s", window)
	}
	return &AttemptLimiter{client: client, maxAttempts: maxAttempts, window: window}, nil
}

// Allow reports whether another attempt may be made for key.
func (l *AttemptLimiter) Allow(ctx context.Context, key string) (bool, error) {
	n, err := l.client.Get(ctx, l.key(key)).Int()
	if errors.Is(err, redis.Nil) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("attempt limiter get: %w", err)
	}
	return n < l.maxAttempts, nil
}

// RecordFailure increments the failure counter, opening the window on the first failure.
func (l *AttemptLimiter) RecordFailure(ctx context.Context, key string) error {
	err := recordFailureScript.Run(ctx, l.client, []string{l.key(key)}, l.window.Milliseconds()).Err()
	if err != nil {
		return fmt.Errorf("attempt limiter record: %w", err)
	}
	return nil
}

// Reset clears the counter after a successful login.
func (l *AttemptLimiter) Reset(ctx context.Context, key string) error {
	if err := l.client.Del(ctx, l.key(key)).Err(); err != nil {
		return fmt.Errorf("attempt limiter reset: %w", err)
	}
	return nil
}

func (l *AttemptLimiter) key(identity string) string {
	sum := sha256.Sum256([]byte(identity))
	return attemptKeyPrefix + hex.EncodeToString(sum[:])
}
