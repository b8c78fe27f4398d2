package feeds

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/eko/gocache/lib/v4/cache"
	"github.com/eko/gocache/lib/v4/store"
	redisstore "github.com/eko/gocache/store/redis/v4"
	"github.com/redis/go-redis/v9"
)

// DigestCache remembers the digest of the last payload of every feed so
// unchanged responses are not applied again
type DigestCache struct {
	Cache *cache.Cache[string]
}

func NewDigestCache(client *redis.Client, expiration time.Duration) *DigestCache {
	redisStore := redisstore.NewRedis(client, store.WithExpiration(expiration))

	return &DigestCache{Cache: cache.New[string](redisStore)}
}

func digestKey(feedID string) string {
	return fmt.Sprintf("realtime-feed-digest:%s", feedID)
}

func digestOf(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}

// Changed reports whether body differs from the last remembered payload of
// the feed
func (d *DigestCache) Changed(ctx context.Context, feedID string, body []byte) (bool, error) {
	previous, err := d.Cache.Get(ctx, digestKey(feedID))
	if errors.Is(err, store.NotFound{}) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("reading digest of feed %s: %w", feedID, err)
	}

	return previous != digestOf(body), nil
}

// Remember stores the digest of a payload once it has been published
func (d *DigestCache) Remember(ctx context.Context, feedID string, body []byte) error {
	if err := d.Cache.Set(ctx, digestKey(feedID), digestOf(body)); err != nil {
		return fmt.Errorf("storing digest of feed %s: %w", feedID, err)
	}

	return nil
}
