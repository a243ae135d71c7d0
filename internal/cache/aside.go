package cache

import (
	"context"
	"encoding/json"
	"time"

	"thoughtstream/internal/observability"

	"github.com/redis/go-redis/v9"
)

// Get loads a cached JSON value into dest. The second return is true on a
// hit. Misses and cache errors are both reported as not-found so callers
// always fall back to the store.
func Get(ctx context.Context, entity, key string, dest any) bool {
	if client == nil {
		return false
	}
	raw, err := client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			observability.RecordCacheLookup(entity, "miss")
		} else {
			observability.RecordCacheLookup(entity, "error")
		}
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		// A corrupt entry is worse than a miss; drop it.
		client.Del(ctx, key)
		observability.RecordCacheLookup(entity, "error")
		return false
	}
	observability.RecordCacheLookup(entity, "hit")
	return true
}

// Set stores a JSON-encoded value with a TTL. Failures are swallowed; the
// cache is an optimization, not a source of truth.
func Set(ctx context.Context, key string, value any, ttl time.Duration) {
	if client == nil {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	client.Set(ctx, key, raw, ttl)
}

// GetOrLoad implements the read path of cache-aside: try the cache, fall
// back to the loader, then populate the cache with the loaded value.
func GetOrLoad[T any](ctx context.Context, entity, key string, ttl time.Duration, load func(context.Context) (T, error)) (T, error) {
	var cached T
	if Get(ctx, entity, key, &cached) {
		return cached, nil
	}

	loaded, err := load(ctx)
	if err != nil {
		return loaded, err
	}

	Set(ctx, key, loaded, ttl)
	return loaded, nil
}
