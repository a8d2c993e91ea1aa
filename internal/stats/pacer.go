package stats

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// Pacer spaces repeated exchanges so that at most rate of them start per
// second. It never bursts: a slow exchange does not let the following ones
// catch up faster than the rate.
//
// A nil *Pacer does not wait at all. Pacer is safe for concurrent use.
type Pacer struct {
	clock    clock.Clock
	interval time.Duration

	mu   sync.Mutex
	next time.Time

	waits int64
	slept time.Duration
}

// NewPacer returns a pacer for rate exchanges per second, or nil when rate
// is not positive. A nil clock means the wall clock.
func NewPacer(rate float64, c clock.Clock) *Pacer {
	if rate <= 0 {
		return nil
	}
	if c == nil {
		c = clock.New()
	}
	return &Pacer{
		clock:    c,
		interval: time.Duration(float64(time.Second) / rate),
	}
}

// Interval returns the time between two consecutive starts.
func (p *Pacer) Interval() time.Duration {
	if p == nil {
		return 0
	}
	return p.interval
}

// Wait blocks until the next exchange may start, or until ctx is done.
func (p *Pacer) Wait(ctx context.Context) error {
	if p == nil {
		return ctx.Err()
	}

	p.mu.Lock()
	now := p.clock.Now()
	if p.next.Before(now) {
		p.next = now
	}
	at := p.next
	p.next = at.Add(p.interval)
	delay := at.Sub(now)
	if delay > 0 {
		p.waits++
		p.slept += delay
	}
	p.mu.Unlock()

	if delay <= 0 {
		return ctx.Err()
	}

	timer := p.clock.Timer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Delayed returns how many waits had to sleep and for how long in total.
func (p *Pacer) Delayed() (int64, time.Duration) {
	if p == nil {
		return 0, 0
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.waits, p.slept
}
