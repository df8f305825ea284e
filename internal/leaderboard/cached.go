package leaderboard

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/park285/Cheese-Cricket-bot/internal/cricket"
	"golang.org/x/sync/singleflight"
)

const sharedReadTimeout = 5 * time.Second

// Cached fronts a leaderboard with a short-lived TopN cache. Concurrent misses share one backend read
// and every recorded win drops the cache.
type Cached struct {
	inner cricket.Leaderboard
	ttl   time.Duration
	now   func() time.Time
	group singleflight.Group

	mu      sync.Mutex
	gen     uint64
	rows    []cricket.Standing
	size    int
	expires time.Time
}

// NewCached wraps inner. A non-positive ttl returns inner unchanged.
func NewCached(inner cricket.Leaderboard, ttl time.Duration) cricket.Leaderboard {
	if ttl <= 0 || inner == nil {
		return inner
	}
	return &Cached{inner: inner, ttl: ttl, now: time.Now}
}

func (c *Cached) IncrementWin(ctx context.Context, participantID, name string) error {
	err := c.inner.IncrementWin(ctx, participantID, name)
	c.invalidate()
	return err
}

func (c *Cached) TopN(ctx context.Context, n int) ([]cricket.Standing, error) {
	c.mu.Lock()
	if rows, ok := c.lookup(n); ok {
		c.mu.Unlock()
		return rows, nil
	}
	gen := c.gen
	c.mu.Unlock()

	ch := c.group.DoChan("top:"+strconv.Itoa(n), func() (any, error) {
		// every waiter shares this read; it outlives the caller that started it
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedReadTimeout)
		defer cancel()
		rows, err := c.inner.TopN(fctx, n)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		if c.gen == gen {
			c.rows, c.size, c.expires = rows, n, c.now().Add(c.ttl)
		}
		c.mu.Unlock()
		return rows, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return copyRows(res.Val.([]cricket.Standing)), nil
	}
}

// lookup serves n rows from a fresh cached window that covers them. Caller holds mu.
func (c *Cached) lookup(n int) ([]cricket.Standing, bool) {
	if c.rows == nil || !c.now().Before(c.expires) {
		return nil, false
	}
	// an unbounded window covers any n
	if c.size > 0 && (n <= 0 || n > c.size) {
		return nil, false
	}
	return copyRows(limit(c.rows, n)), true
}

func (c *Cached) invalidate() {
	c.mu.Lock()
	c.gen++
	c.rows = nil
	c.mu.Unlock()
}

func copyRows(rows []cricket.Standing) []cricket.Standing {
	out := make([]cricket.Standing, len(rows))
	copy(out, rows)
	return out
}
