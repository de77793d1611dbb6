// Package entitlement answers "does this user have premium" for the
// features it gates: reminders, follow-up checks, and unlimited snooze.
// Premium is only granted when the provider confirms it; any failure
// counts as not premium.
package entitlement

import (
	"context"
	"sync"
	"time"
)

type Checker interface {
	IsPremium(ctx context.Context) (bool, error)
}

// Static is a fixed entitlement answer, used for configuration overrides
// and tests.
type Static bool

func (s Static) IsPremium(context.Context) (bool, error) {
	return bool(s), nil
}

// Func adapts a plain function to a Checker.
type Func func(ctx context.Context) (bool, error)

func (f Func) IsPremium(ctx context.Context) (bool, error) {
	return f(ctx)
}

// DefaultTTL matches how long a confirmed entitlement answer stays fresh.
const DefaultTTL = 5 * time.Minute

// Cached wraps a Checker with a TTL cache. Provider errors are returned
// alongside false so callers degrade to the free tier without retry storms.
type Cached struct {
	mu      sync.Mutex
	inner   Checker
	ttl     time.Duration
	now     func() time.Time
	value   bool
	expires time.Time
}

func NewCached(inner Checker, ttl time.Duration) *Cached {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cached{inner: inner, ttl: ttl, now: time.Now}
}

// WithClock overrides the cache's time source.
func (c *Cached) WithClock(now func() time.Time) *Cached {
	c.now = now
	return c
}

func (c *Cached) IsPremium(ctx context.Context) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	if now.Before(c.expires) {
		return c.value, nil
	}
	value, err := c.inner.IsPremium(ctx)
	if err != nil {
		return false, err
	}
	c.value = value
	c.expires = now.Add(c.ttl)
	return value, nil
}

// Invalidate drops the cached answer, forcing the next check through to
// the provider. Called when the billing status is known to have changed.
func (c *Cached) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.expires = time.Time{}
}
