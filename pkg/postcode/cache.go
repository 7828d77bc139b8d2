package postcode

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Cached wraps a Lookup with a session-scoped memoizing cache keyed by the
// raw trimmed postcode string. Non-matches are cached too, so a postcode
// never triggers more than one backend call per process.
type Cached struct {
	next Lookup

	mu      sync.RWMutex
	entries map[string]*Place // nil value = cached non-match
}

// NewCached wraps next with memoization.
func NewCached(next Lookup) *Cached {
	return &Cached{next: next, entries: make(map[string]*Place)}
}

// Lookup implements Lookup.
func (c *Cached) Lookup(ctx context.Context, postcode string) (*Place, error) {
	key := strings.TrimSpace(postcode)
	if key == "" {
		return nil, nil
	}

	c.mu.RLock()
	place, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		zap.L().Debug("postcode cache hit", zap.String("postcode", key), zap.Bool("matched", place != nil))
		return place, nil
	}

	place, err := c.next.Lookup(ctx, key)
	if err != nil {
		// Backend failures are not cached; the next request may succeed.
		return nil, err
	}

	c.mu.Lock()
	c.entries[key] = place
	c.mu.Unlock()
	return place, nil
}
