package authorizer

import (
	"context"
	"sync"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwk"
)

// jwksCache keeps fetched key sets across warm invocations.
type jwksCache struct {
	mu    sync.RWMutex
	sets  map[string]cachedJWKS
	fetch func(ctx context.Context, url string) (jwk.Set, error)
	now   func() time.Time
}

type cachedJWKS struct {
	set     jwk.Set
	fetched time.Time
	expires time.Time
}

func newJWKSCache() *jwksCache {
	return &jwksCache{
		fetch: func(ctx context.Context, url string) (jwk.Set, error) {
			return jwk.Fetch(ctx, url)
		},
		now: time.Now,
	}
}

func (c *jwksCache) get(ctx context.Context, url string, ttl time.Duration) (jwk.Set, error) {
	c.mu.RLock()
	if e, ok := c.sets[url]; ok && c.now().Before(e.expires) {
		c.mu.RUnlock()
		return e.set, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sets == nil {
		c.sets = map[string]cachedJWKS{}
	}
	if e, ok := c.sets[url]; ok && c.now().Before(e.expires) {
		return e.set, nil
	}
	return c.load(ctx, url, ttl)
}

// refresh refetches a cached set unless it was fetched less than minAge ago,
// in which case the cached set is returned as is.
func (c *jwksCache) refresh(ctx context.Context, url string, ttl, minAge time.Duration) (jwk.Set, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sets == nil {
		c.sets = map[string]cachedJWKS{}
	}
	if e, ok := c.sets[url]; ok && c.now().Sub(e.fetched) < minAge {
		return e.set, nil
	}
	return c.load(ctx, url, ttl)
}

// load fetches and stores a set. c.mu must be held.
func (c *jwksCache) load(ctx context.Context, url string, ttl time.Duration) (jwk.Set, error) {
	set, err := c.fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	now := c.now()
	c.sets[url] = cachedJWKS{set: set, fetched: now, expires: now.Add(ttl)}
	return set, nil
}
