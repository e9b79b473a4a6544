package cache

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"tourney/internal/core"
)

type viewEntry[T any] struct {
	gen   uint64
	items []T
}

// Views caches record collections per Key, revalidated by generation.
type Views[T any] struct {
	name   string
	gens   GenerationStore
	lru    *LRUCache[viewEntry[T]]
	hits   atomic.Int64
	misses atomic.Int64
}

// NewViews creates a view cache. ttl bounds how long an unused entry is kept.
func NewViews[T any](name string, gens GenerationStore, maxSize int, ttl time.Duration) *Views[T] {
	return &Views[T]{
		name: name,
		gens: gens,
		lru:  NewLRUCache[viewEntry[T]](maxSize, ttl),
	}
}

// Get returns the cached collection for key, calling fetch when the entry is
// missing or its generation is stale. The generation is read before fetching,
// so a write that lands during the fetch forces the next reader to refetch.
// When generations cannot be read the cache is bypassed.
// Callers get their own copy of the slice.
func (v *Views[T]) Get(ctx context.Context, key Key, fetch func(ctx context.Context) ([]T, error)) ([]T, error) {
	gen, err := v.gens.Current(ctx, key)
	if err != nil {
		slog.WarnContext(ctx, "Generation lookup failed, bypassing cache", "view", v.name, "key", key.String(), "error", err)
		return fetch(ctx)
	}

	if e, ok := v.lru.Get(key.String()); ok && e.gen == gen {
		v.hits.Add(1)
		slog.DebugContext(ctx, "View cache hit", "view", v.name, "key", key.String(), "generation", gen)
		return clone(e.items), nil
	}

	v.misses.Add(1)
	items, err := fetch(ctx)
	if err != nil {
		return nil, err
	}
	v.lru.Set(key.String(), viewEntry[T]{gen: gen, items: clone(items)})
	slog.DebugContext(ctx, "View cached", "view", v.name, "key", key.String(), "generation", gen, "count", len(items))
	return clone(items), nil
}

// Drop removes a local entry without touching the shared generation.
func (v *Views[T]) Drop(key Key) {
	v.lru.Delete(key.String())
}

// CleanExpired implements Cleaner.
func (v *Views[T]) CleanExpired() int {
	return v.lru.CleanExpired()
}

// Stats returns hit and miss counters.
func (v *Views[T]) Stats() (hits, misses int64) {
	return v.hits.Load(), v.misses.Load()
}

func clone[T any](in []T) []T {
	if in == nil {
		return nil
	}
	out := make([]T, len(in))
	copy(out, in)
	return out
}

// Invalidator bumps generations after writes.
type Invalidator struct {
	gens GenerationStore
}

func NewInvalidator(gens GenerationStore) *Invalidator {
	return &Invalidator{gens: gens}
}

// Invalidate marks every view derived from entity within scope as stale.
func (i *Invalidator) Invalidate(ctx context.Context, entity core.EntityType, scope string) error {
	keys := KeysFor(entity, scope)
	if err := i.gens.Bump(ctx, keys...); err != nil {
		slog.ErrorContext(ctx, "Cache invalidation failed", "entity", entity, "scope", scope, "error", err)
		return err
	}
	return nil
}
