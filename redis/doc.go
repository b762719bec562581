// Package redis wraps go-redis for the embedding cache.
//
// TypedStore stores JSON values under a key prefix; the cached embedder
// keeps one vector per model and text hash:
//
//	store := redis.NewTypedStore[[]float64](client, "emb:hashing-256")
//	vec, err := store.Load(ctx, key) // nil, nil on a miss
package redis
