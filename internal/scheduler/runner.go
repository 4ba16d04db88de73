// internal/scheduler/runner.go
package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Clock is the tick source. It only raises a flag; the work itself runs on
// the manager loop through Tick.
type Clock struct {
	mu       sync.Mutex
	interval time.Duration
	reset    chan time.Duration
	raise    func()
}

// NewClock creates a clock calling raise once per interval.
func NewClock(interval time.Duration, raise func()) (*Clock, error) {
	if interval <= 0 {
		return nil, errors.New("scheduler: interval must be > 0")
	}
	if raise == nil {
		return nil, errors.New("scheduler: raise func required")
	}
	return &Clock{
		interval: interval,
		reset:    make(chan time.Duration, 1),
		raise:    raise,
	}, nil
}

// Interval is the current tick period.
func (c *Clock) Interval() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.interval
}

// SetInterval retimes a running clock. It never blocks as long as there is
// a single caller goroutine.
func (c *Clock) SetInterval(d time.Duration) error {
	if d <= 0 {
		return errors.New("scheduler: interval must be > 0")
	}

	c.mu.Lock()
	c.interval = d
	c.mu.Unlock()

	// latest value wins
	select {
	case <-c.reset:
	default:
	}
	c.reset <- d
	return nil
}

// Run starts the ticker loop. One goroutine per clock. No overlap.
func (c *Clock) Run(ctx context.Context) {
	ticker := time.NewTicker(c.Interval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case d := <-c.reset:
			ticker.Reset(d)
		case <-ticker.C:
			c.raise()
		}
	}
}
