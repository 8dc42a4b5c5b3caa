// Package clock provides the periodic time source that drives countdowns.
package clock

import (
	"sync"
	"time"
)

const DefaultInterval = time.Second

// Clock emits the current time once per interval until stopped.
type Clock struct {
	interval time.Duration
	now      func() time.Time

	mu      sync.RWMutex
	current time.Time

	ticks     chan time.Time
	stop      chan struct{}
	done      chan struct{}
	startOnce sync.Once
	stopOnce  sync.Once
}

type Option func(*Clock)

// WithNow replaces the time source.
func WithNow(now func() time.Time) Option {
	return func(c *Clock) { c.now = now }
}

func New(interval time.Duration, opts ...Option) *Clock {
	if interval <= 0 {
		interval = DefaultInterval
	}
	c := &Clock{
		interval: interval,
		now:      time.Now,
		ticks:    make(chan time.Time, 1),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.current = c.now()
	return c
}

// Start begins the schedule. Calling it more than once has no effect, and
// calling it after Stop does nothing.
func (c *Clock) Start() {
	c.startOnce.Do(func() {
		select {
		case <-c.stop:
			close(c.done)
			return
		default:
		}
		go c.run()
	})
}

func (c *Clock) run() {
	defer close(c.done)
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			now := c.now()
			c.mu.Lock()
			c.current = now
			c.mu.Unlock()
			// Drop the pending value if the consumer is behind; only the
			// latest time matters.
			select {
			case <-c.ticks:
			default:
			}
			select {
			case c.ticks <- now:
			case <-c.stop:
				return
			}
		}
	}
}

// Now returns the timestamp of the latest tick, or the creation time before
// the first tick.
func (c *Clock) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

// Ticks is closed once Stop has returned.
func (c *Clock) Ticks() <-chan time.Time {
	return c.ticks
}

func (c *Clock) Interval() time.Duration {
	return c.interval
}

// Stop cancels the schedule and waits for the emitter to exit. It is safe to
// call more than once and before Start.
func (c *Clock) Stop() {
	c.stopOnce.Do(func() {
		close(c.stop)
		c.startOnce.Do(func() { close(c.done) })
		<-c.done
		close(c.ticks)
	})
}
