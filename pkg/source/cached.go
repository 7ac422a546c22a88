package source

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/mchmarny/menugate/pkg/menu"
)

// Cached keeps the last successful load of a Source for a fixed TTL.
// Concurrent misses share a single underlying load. A failed load is
// returned to every waiter and nothing is cached.
type Cached struct {
	src   Source
	ttl   time.Duration
	now   func() time.Time
	group singleflight.Group

	mu      sync.RWMutex
	menu    *menu.Menu
	expires time.Time
}

// NewCached wraps src with a TTL cache.
func NewCached(src Source, ttl time.Duration) *Cached {
	return &Cached{src: src, ttl: ttl, now: time.Now}
}

func (c *Cached) Load(ctx context.Context) (*menu.Menu, error) {
	if m := c.fresh(); m != nil {
		return m, nil
	}

	// The shared load must not be canceled by the first caller leaving.
	v, err, _ := c.group.Do("menu", func() (any, error) {
		if m := c.fresh(); m != nil {
			return m, nil
		}

		m, err := c.src.Load(context.WithoutCancel(ctx))
		if err != nil {
			c.Invalidate()
			return nil, err
		}

		c.mu.Lock()
		c.menu = m
		c.expires = c.now().Add(c.ttl)
		c.mu.Unlock()

		return m, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(*menu.Menu), nil
}

// Invalidate drops the cached menu so the next Load hits the source.
func (c *Cached) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.menu = nil
	c.expires = time.Time{}
}

// Ready delegates to the wrapped source when it can report readiness and
// otherwise attempts a load.
func (c *Cached) Ready(ctx context.Context) error {
	if rc, ok := c.src.(interface{ Ready(context.Context) error }); ok {
		return rc.Ready(ctx)
	}
	_, err := c.Load(ctx)
	return err
}

func (c *Cached) fresh() *menu.Menu {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.menu == nil || !c.now().Before(c.expires) {
		return nil
	}
	return c.menu
}
