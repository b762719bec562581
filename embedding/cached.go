package embedding

import (
	"context"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/kbukum/standin/logger"
	"github.com/kbukum/standin/redis"
)

// Cached is a read-through cache in front of another embedder. Cache errors
// are logged and fall through to the wrapped embedder.
type Cached struct {
	next  Embedder
	store *redis.TypedStore[[]float64]
	ttl   time.Duration
	log   *logger.Logger
}

// NewCached wraps next with a cache on client. Keys are namespaced by model.
func NewCached(next Embedder, client *redis.Client, ttl time.Duration) *Cached {
	return &Cached{
		next:  next,
		store: redis.NewTypedStore[[]float64](client, "emb:"+next.Model()),
		ttl:   ttl,
		log:   logger.Get("embedding"),
	}
}

func (c *Cached) Dimensions() int { return c.next.Dimensions() }

func (c *Cached) Model() string { return c.next.Model() }

func (c *Cached) Embed(ctx context.Context, text string) ([]float64, error) {
	key := cacheKey(text)
	if vec, err := c.store.Load(ctx, key); err != nil {
		c.log.Warn("embedding cache read failed", logger.ErrorFields("cache_load", err))
	} else if vec != nil {
		return *vec, nil
	}

	vec, err := c.next.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	if err := c.store.Save(ctx, key, &vec, c.ttl); err != nil {
		c.log.Warn("embedding cache write failed", logger.ErrorFields("cache_save", err))
	}
	return vec, nil
}

func cacheKey(text string) string {
	return strconv.FormatUint(xxhash.Sum64String(NormalizeText(text)), 16)
}
