package app

import (
	"sync"
	"time"
)

// CountdownState is the countdown machine's current state.
type CountdownState string

const (
	CountdownRunning CountdownState = "running"
	CountdownExpired CountdownState = "expired"
	CountdownStopped CountdownState = "stopped"
)

// Countdown drives the attempt clock: a fixed-period tick recomputes the time
// left until an absolute expiry and fires the expiry callback exactly once
// when it reaches zero. The ticking goroutine is owned by the Countdown and
// released by Stop; no tick callback runs after Stop returns.
type Countdown struct {
	expiry   time.Time
	interval time.Duration
	now      func() time.Time
	onTick   func(remaining time.Duration)
	onExpire func()

	stopOnce sync.Once
	done     chan struct{}

	mu    sync.Mutex
	state CountdownState
}

// NewCountdown builds a countdown against the wall clock.
func NewCountdown(expiry time.Time, interval time.Duration, onTick func(time.Duration), onExpire func()) *Countdown {
	return NewCountdownWithClock(expiry, interval, time.Now, onTick, onExpire)
}

// NewCountdownWithClock allows a deterministic clock in tests.
func NewCountdownWithClock(expiry time.Time, interval time.Duration, now func() time.Time, onTick func(time.Duration), onExpire func()) *Countdown {
	if interval <= 0 {
		interval = time.Second
	}
	return &Countdown{
		expiry:   expiry,
		interval: interval,
		now:      now,
		onTick:   onTick,
		onExpire: onExpire,
		done:     make(chan struct{}),
		state:    CountdownRunning,
	}
}

// Start launches the ticking goroutine. An immediate first tick reports the
// initial remaining time; an expiry already in the past fires right away,
// which is how a reconnect after the deadline auto-submits.
func (c *Countdown) Start() {
	go c.run()
}

func (c *Countdown) run() {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	if c.fire() {
		return
	}
	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			if c.fire() {
				return
			}
		}
	}
}

// fire runs one tick and reports whether ticking should cease.
func (c *Countdown) fire() bool {
	c.mu.Lock()
	if c.state != CountdownRunning {
		c.mu.Unlock()
		return true
	}
	remaining := c.expiry.Sub(c.now())
	if remaining > 0 {
		c.mu.Unlock()
		c.onTick(remaining)
		return false
	}
	c.state = CountdownExpired
	c.mu.Unlock()

	c.onTick(0)
	c.onExpire()
	return true
}

// Stop ceases ticking. Idempotent; safe from any goroutine and on every exit
// path (result committed, watcher detach, server shutdown).
func (c *Countdown) Stop() {
	c.stopOnce.Do(func() {
		c.mu.Lock()
		if c.state == CountdownRunning {
			c.state = CountdownStopped
		}
		c.mu.Unlock()
		close(c.done)
	})
}

// State reports the countdown's current state.
func (c *Countdown) State() CountdownState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Remaining computes time left without waiting for the next tick.
func (c *Countdown) Remaining() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	remaining := c.expiry.Sub(c.now())
	if remaining < 0 {
		return 0
	}
	return remaining
}
