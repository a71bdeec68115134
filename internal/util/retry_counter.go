package util

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RetryCounter tracks how many times a stage has been resubmitted for a
// message, so a permanently failing row stops being rescheduled forever.
// Counts expire after ttl, giving a stuck row another chance later.
type RetryCounter struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRetryCounter(rdb *redis.Client, ttl time.Duration) *RetryCounter {
	return &RetryCounter{rdb: rdb, ttl: ttl}
}

// Bump increments the resubmission count for (stage, messageID) and returns
// the new value. Returns 1 on Redis failure so scheduling is never blocked
// by an unavailable counter.
func (r *RetryCounter) Bump(ctx context.Context, stage, messageID string) int64 {
	key := retryKey(stage, messageID)
	count, err := r.rdb.Incr(ctx, key).Result()
	if err != nil {
		return 1
	}
	if count == 1 {
		r.rdb.Expire(ctx, key, r.ttl)
	}
	return count
}

func retryKey(stage, messageID string) string {
	return fmt.Sprintf("retry:%s:%s", stage, messageID)
}
