package dataset

import (
	"context"
	"sync"
)

// Cache wraps a Provider so the reference dataset is fetched once and
// served read-only afterwards. A failed load is not cached; the next
// request retries.
type Cache struct {
	next Provider

	mu  sync.Mutex
	ref *Reference
}

// NewCache wraps next.
func NewCache(next Provider) *Cache {
	return &Cache{next: next}
}

// Reference implements Provider.
func (c *Cache) Reference(ctx context.Context) (*Reference, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ref != nil {
		return c.ref, nil
	}
	ref, err := c.next.Reference(ctx)
	if err != nil {
		return nil, err
	}
	c.ref = ref
	return ref, nil
}

// Warm loads the dataset eagerly, typically at server start.
func (c *Cache) Warm(ctx context.Context) error {
	_, err := c.Reference(ctx)
	return err
}
