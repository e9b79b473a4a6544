package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"tourney/internal/core"
	"tourney/internal/store"
)

// Collection keeps records of one entity type in insertion order.
type Collection[T store.Entity[T]] struct {
	mu     sync.RWMutex
	entity core.EntityType
	items  []T
	index  map[string]int
	now    func() time.Time
}

func NewCollection[T store.Entity[T]](entity core.EntityType) *Collection[T] {
	return &Collection[T]{
		entity: entity,
		index:  make(map[string]int),
		now:    time.Now,
	}
}

var _ store.Collection[core.Room] = (*Collection[core.Room])(nil)

func (c *Collection[T]) Filter(ctx context.Context, f store.Filter) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]T, 0, len(c.items))
	for _, v := range c.items {
		if f.Matches(v) {
			out = append(out, v)
		}
	}
	return out, nil
}

func (c *Collection[T]) Get(ctx context.Context, id string) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	i, ok := c.index[id]
	if !ok {
		return zero, core.NewNotFoundError(c.entity, id)
	}
	return c.items[i], nil
}

// Create stores v, assigning an id when it has none.
func (c *Collection[T]) Create(ctx context.Context, v T) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	if v.RecordID() == "" {
		v = v.WithID(uuid.NewString())
	}
	v = v.Touch(c.now())

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.index[v.RecordID()]; exists {
		return zero, core.NewValidationError("id", "already exists")
	}
	c.items = append(c.items, v)
	c.index[v.RecordID()] = len(c.items) - 1
	return v, nil
}

// Update replaces the record in place, keeping its insertion position.
func (c *Collection[T]) Update(ctx context.Context, v T) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	i, ok := c.index[v.RecordID()]
	if !ok {
		return zero, core.NewNotFoundError(c.entity, v.RecordID())
	}
	v = v.Touch(c.now())
	c.items[i] = v
	return v, nil
}

func (c *Collection[T]) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	i, ok := c.index[id]
	if !ok {
		return core.NewNotFoundError(c.entity, id)
	}
	c.items = append(c.items[:i], c.items[i+1:]...)
	delete(c.index, id)
	for j := i; j < len(c.items); j++ {
		c.index[c.items[j].RecordID()] = j
	}
	return nil
}

// Len returns the number of stored records.
func (c *Collection[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// seed appends records without touching timestamps. Duplicate ids are skipped.
func (c *Collection[T]) seed(vs []T) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	added := 0
	for _, v := range vs {
		if v.RecordID() == "" {
			v = v.WithID(uuid.NewString())
		}
		if _, exists := c.index[v.RecordID()]; exists {
			continue
		}
		c.items = append(c.items, v)
		c.index[v.RecordID()] = len(c.items) - 1
		added++
	}
	return added
}
