package relay

import (
	"context"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// TransformCache memoizes transform results with TTL-based eviction.  It is
// an explicit, policy-bearing component: go-cache owns expiration and
// locking, so cached entries cannot accumulate without bound the way an
// ad-hoc map inside a decorator would.
type TransformCache struct {
	cache *gocache.Cache
}

// NewTransformCache creates a cache whose entries expire after ttl and are
// swept every cleanupInterval.
func NewTransformCache(ttl, cleanupInterval time.Duration) *TransformCache {
	return &TransformCache{cache: gocache.New(ttl, cleanupInterval)}
}

// Flush drops every cached entry.
func (tc *TransformCache) Flush() {
	tc.cache.Flush()
}

// Cached wraps fn so that successful results are memoized per input under
// the given name.  Failures are never cached; a failing input reaches fn
// again on every call.
func Cached[S comparable, T any](tc *TransformCache, name string, fn func(context.Context, S) (T, error)) func(context.Context, S) (T, error) {
	return func(ctx context.Context, in S) (T, error) {
		key := fmt.Sprintf("%s|%v", name, in)
		if hit, ok := tc.cache.Get(key); ok {
			if typed, ok := hit.(T); ok {
				return typed, nil
			}
		}
		out, err := fn(ctx, in)
		if err != nil {
			var zero T
			return zero, err
		}
		tc.cache.SetDefault(key, out)
		return out, nil
	}
}
