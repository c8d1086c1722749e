package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rvelasq/eval360/internal/aggregation"
)

// redisPingTimeout bounds the startup connectivity check.
const redisPingTimeout = 5 * time.Second

// InitializeStore creates the aggregation store for the worker. With a
// Redis address it returns the Redis-backed store after verifying
// connectivity; without one it falls back to the in-memory store, which is
// only suitable for local development since deduplication then stops at the
// process boundary.
func InitializeStore(redisAddr string) (aggregation.AggregationStore, error) {
	if redisAddr == "" {
		return aggregation.NewMemoryStore(), nil
	}

	client := redis.NewClient(&redis.Options{Addr: redisAddr})

	ctx, cancel := context.WithTimeout(context.Background(), redisPingTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", redisAddr, err)
	}

	return aggregation.NewRedisStore(client, 0), nil
}
