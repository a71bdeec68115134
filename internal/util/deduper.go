package util

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Deduper prevents the same pipeline stage from being submitted twice for
// the same message while a previous submission is still in flight. Keys
// expire so a crashed worker never blocks a retry forever.
type Deduper struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewDeduper(rdb *redis.Client, ttl time.Duration) *Deduper {
	return &Deduper{rdb: rdb, ttl: ttl}
}

// AcquireOnce tries to acquire a dedup lock for a stage + message id.
// Returns true if this submission is the first one within the TTL window.
// When Redis is unreachable the lock is skipped rather than blocking the
// pipeline; a duplicate run is idempotent anyway.
func (d *Deduper) AcquireOnce(ctx context.Context, stage, messageID string) bool {
	key := fmt.Sprintf("dedup:%s:%s", stage, messageID)

	ok, err := d.rdb.SetNX(ctx, key, 1, d.ttl).Result()
	if err != nil {
		return true
	}
	return ok
}

// Release drops the lock early so a finished stage can be resubmitted
// without waiting for the TTL.
func (d *Deduper) Release(ctx context.Context, stage, messageID string) {
	key := fmt.Sprintf("dedup:%s:%s", stage, messageID)
	d.rdb.Del(ctx, key)
}
