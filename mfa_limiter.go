package adminauth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var errMFAAttemptLimited = errors.New("mfa attempt limited")

// mfaLimiter throttles code verification per principal across challenges,
// independent of the per-challenge attempt counter. Simple INCR with an
// EXPIRE on first touch.
type mfaLimiter struct {
	redis  *redis.Client
	limit  int
	window time.Duration
}

func newMFALimiter(redisClient *redis.Client, cfg MFAConfig) *mfaLimiter {
	return &mfaLimiter{
		redis:  redisClient,
		limit:  cfg.AttemptLimit,
		window: cfg.AttemptWindow,
	}
}

func (l *mfaLimiter) key(principalID string) string {
	return "att:" + principalID
}

func (l *mfaLimiter) Check(ctx context.Context, principalID string) error {
	count, err := l.redis.Get(ctx, l.key(principalID)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrMFAUnavailable, err)
	}
	if count >= int64(l.limit) {
		return errMFAAttemptLimited
	}
	return nil
}

func (l *mfaLimiter) RecordFailure(ctx context.Context, principalID string) error {
	count, err := l.redis.Incr(ctx, l.key(principalID)).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMFAUnavailable, err)
	}
	if count == 1 {
		if err := l.redis.Expire(ctx, l.key(principalID), l.window).Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrMFAUnavailable, err)
		}
	}
	if count >= int64(l.limit) {
		return errMFAAttemptLimited
	}
	return nil
}

func (l *mfaLimiter) Reset(ctx context.Context, principalID string) error {
	if err := l.redis.Del(ctx, l.key(principalID)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrMFAUnavailable, err)
	}
	return nil
}
