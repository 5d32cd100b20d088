package input

import (
	"context"

	"golang.org/x/time/rate"
)

// rateLimitedDriver paces event emission through a token bucket. Every
// event counts, including each step of a cursor glide.
type rateLimitedDriver struct {
	inner   Driver
	limiter *rate.Limiter
}

// RateLimited wraps a driver so emitted events respect a global
// events-per-second ceiling. A non-positive limit returns the driver
// unwrapped.
func RateLimited(d Driver, eventsPerSecond float64) Driver {
	if eventsPerSecond <= 0 {
		return d
	}
	return &rateLimitedDriver{
		inner:   d,
		limiter: rate.NewLimiter(rate.Limit(eventsPerSecond), 1),
	}
}

func (d *rateLimitedDriver) KeyDown(ctx context.Context, key Key) error {
	if err := d.limiter.Wait(ctx); err != nil {
		return err
	}
	return d.inner.KeyDown(ctx, key)
}

func (d *rateLimitedDriver) KeyUp(ctx context.Context, key Key) error {
	if err := d.limiter.Wait(ctx); err != nil {
		return err
	}
	return d.inner.KeyUp(ctx, key)
}

func (d *rateLimitedDriver) ButtonDown(ctx context.Context, button string) error {
	if err := d.limiter.Wait(ctx); err != nil {
		return err
	}
	return d.inner.ButtonDown(ctx, button)
}

func (d *rateLimitedDriver) ButtonUp(ctx context.Context, button string) error {
	if err := d.limiter.Wait(ctx); err != nil {
		return err
	}
	return d.inner.ButtonUp(ctx, button)
}

func (d *rateLimitedDriver) MoveTo(ctx context.Context, x, y int) error {
	if err := d.limiter.Wait(ctx); err != nil {
		return err
	}
	return d.inner.MoveTo(ctx, x, y)
}

// Position is a query, not an event; it passes through unpaced.
func (d *rateLimitedDriver) Position() (int, int) {
	return d.inner.Position()
}
