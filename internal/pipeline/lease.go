package pipeline

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const leasePrefix = "ingest:lease:"

// Lease is a best-effort in-progress marker per document. It exists to keep
// duplicate triggers from running the same document twice at once; the TTL
// guarantees a crashed run never blocks retries forever. Correctness under
// duplicates still rests on the pipeline's idempotency, not on this.
type Lease struct {
	Redis *redis.Client
	TTL   time.Duration
}

func NewLease(rdb *redis.Client, ttl time.Duration) *Lease {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Lease{Redis: rdb, TTL: ttl}
}

// Acquire returns false when another run already holds the document.
func (l *Lease) Acquire(ctx context.Context, document string) (bool, error) {
	return l.Redis.SetNX(ctx, leasePrefix+document, "1", l.TTL).Result()
}

func (l *Lease) Release(ctx context.Context, document string) error {
	return l.Redis.Del(ctx, leasePrefix+document).Err()
}
