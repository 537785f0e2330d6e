package timeline

import (
	"context"
	"time"
)

// A Clock abstracts wall-clock access so that the merge loop can be driven
// by virtual time in tests.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// Sleep blocks for d, returning early with the context error if the
	// context is cancelled first.
	Sleep(ctx context.Context, d time.Duration) error
}

type wallClock struct{}

// NewWallClock returns the real-time Clock.
func NewWallClock() Clock {
	return wallClock{}
}

func (wallClock) Now() time.Time {
	return time.Now()
}

func (wallClock) Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// A VirtualClock is a Clock whose time only moves when slept on or advanced
// explicitly. It makes timing tests deterministic and instantaneous.
type VirtualClock struct {
	now time.Time
}

// NewVirtualClock creates a VirtualClock starting at the Unix epoch.
func NewVirtualClock() *VirtualClock {
	return &VirtualClock{now: time.Unix(0, 0)}
}

// Now returns the current virtual time.
func (c *VirtualClock) Now() time.Time {
	return c.now
}

// Sleep advances the virtual time by d without blocking.
func (c *VirtualClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.now = c.now.Add(d)
	return nil
}

// Advance moves the virtual time forward by d.
func (c *VirtualClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}
