package location

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Cached serves the last fix while it is younger than MaximumAge and bounds
// each lookup by Timeout.
type Cached struct {
	next Locator
	now  func() time.Time

	mu   sync.Mutex
	last *Position
}

func NewCached(next Locator) *Cached {
	return &Cached{next: next, now: time.Now}
}

func (c *Cached) CurrentPosition(ctx context.Context, opts Options) (Position, error) {
	if opts.MaximumAge > 0 {
		c.mu.Lock()
		last := c.last
		c.mu.Unlock()
		if last != nil && c.now().Sub(last.Timestamp) <= opts.MaximumAge {
			return *last, nil
		}
	}

	lookupCtx := ctx
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		lookupCtx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	pos, err := c.next.CurrentPosition(lookupCtx, opts)
	if err != nil {
		// only our own deadline is a geolocation timeout
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return Position{}, ErrTimeout
		}
		return Position{}, err
	}

	if pos.Timestamp.IsZero() {
		pos.Timestamp = c.now().UTC()
	}
	c.mu.Lock()
	c.last = &pos
	c.mu.Unlock()
	return pos, nil
}
