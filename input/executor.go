package input

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/teranos/cadence/errors"
	"github.com/teranos/cadence/logger"
	"github.com/teranos/cadence/sequence"
)

// Executor dispatches sequence actions as input events, applying the
// humanizing jitter and probabilistic gating each action describes.
// A diagnostic executor logs intent instead of emitting events or
// sleeping, and downgrades unknown action errors to log lines so whole
// documents can be checked in one pass.
type Executor struct {
	driver     Driver
	jitter     *Jitter
	diagnostic bool
	log        *zap.SugaredLogger
	sleep      func(ctx context.Context, d time.Duration) error
}

// Option configures an Executor.
type Option func(*Executor)

// WithDiagnostic makes the executor log actions instead of performing
// them. The driver may be nil in this mode.
func WithDiagnostic() Option {
	return func(e *Executor) { e.diagnostic = true }
}

// WithSleep replaces the pacing clock. Tests inject a fake so timing
// assertions run without real delays.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(e *Executor) { e.sleep = sleep }
}

// NewExecutor creates an action executor emitting through driver.
func NewExecutor(driver Driver, jitter *Jitter, opts ...Option) *Executor {
	e := &Executor{
		driver: driver,
		jitter: jitter,
		log:    logger.AddInputSymbol(logger.Base()),
		sleep:  sleepCtx,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// sleepCtx sleeps for d unless ctx is cancelled first. Every pause in
// a run goes through here, making each one a cancellation point.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// Execute performs one action. held accumulates keys and buttons
// pressed without a matching release so the run's owner can restore
// input state on cancellation; it may be nil when the caller does not
// track held input.
func (e *Executor) Execute(ctx context.Context, a sequence.Action, held *HeldSet) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	// Probabilistic gate. A skipped action skips its trailing delay
	// too.
	if !e.shouldRun(a.Chance) {
		e.log.Debugw("Skipping action on chance",
			logger.FieldActionType, a.Kind(),
			"chance", *a.Chance)
		return nil
	}

	var err error
	switch a.Kind() {
	case sequence.KindWait:
		err = e.wait(ctx, a)
	case sequence.KindSuperWait:
		err = e.superWait(ctx, a)
	case sequence.KindKey:
		err = e.key(ctx, a, held)
	case sequence.KindMouse:
		err = e.mouse(ctx, a, held)
	case sequence.KindRepeat:
		err = e.repeat(ctx, a, held)
	default:
		if e.diagnostic {
			e.log.Warnw("Unknown action type",
				logger.FieldActionType, a.Kind())
			return nil
		}
		return errors.Wrapf(errors.ErrUnsupportedAction, "action type %q", a.Kind())
	}
	if err != nil {
		return err
	}

	// Trailing delay jitters upward only; the nominal value is the
	// floor.
	if a.Delay > 0 {
		return e.pause(ctx, seconds(e.jitter.Scale(a.Delay, 1.0, 1.1)), "post-action delay")
	}
	return nil
}

// shouldRun applies the chance gate: absent means always, otherwise a
// draw from U{1..100} must come in at or under the value.
func (e *Executor) shouldRun(chance *int) bool {
	if chance == nil {
		return true
	}
	c := *chance
	if c <= 0 {
		return false
	}
	if c >= 100 {
		return true
	}
	return e.jitter.IntBetween(1, 100) <= c
}

// pause sleeps through the injected clock; diagnostic runs log the
// intended duration instead.
func (e *Executor) pause(ctx context.Context, d time.Duration, reason string) error {
	if e.diagnostic {
		e.log.Infow("Would sleep",
			"reason", reason,
			logger.FieldDurationMS, d.Milliseconds())
		return ctx.Err()
	}
	return e.sleep(ctx, d)
}

func (e *Executor) wait(ctx context.Context, a sequence.Action) error {
	return e.pause(ctx, seconds(e.jitter.Scale(a.Seconds, 0.9, 1.1)), "wait")
}

// superWait sleeps the exact number of seconds, no jitter. Long
// strategic pauses stay predictable.
func (e *Executor) superWait(ctx context.Context, a sequence.Action) error {
	return e.pause(ctx, seconds(a.Seconds), "superwait")
}

func (e *Executor) key(ctx context.Context, a sequence.Action, held *HeldSet) error {
	key := ParseKey(a.Key)
	if !key.Known {
		e.log.Debugw("Key not in codec table, passing through",
			logger.FieldKey, a.Key)
	}

	// Human reaction pre-delay before any key dispatch.
	if err := e.pause(ctx, e.jitter.Seconds(0.05, 0.09), "key pre-delay"); err != nil {
		return err
	}

	verb := a.SubAction()
	switch verb {
	case sequence.VerbPress:
		if err := e.keyDown(ctx, key, held); err != nil {
			return err
		}
		hold := e.jitter.Seconds(0.01, 0.03)
		if a.Duration != nil {
			hold = seconds(*a.Duration)
		}
		if err := e.pause(ctx, hold, "key press hold"); err != nil {
			return err
		}
		return e.keyUp(ctx, key, held)

	case sequence.VerbDown:
		return e.keyDown(ctx, key, held)

	case sequence.VerbUp:
		return e.keyUp(ctx, key, held)

	case sequence.VerbHold:
		if err := e.keyDown(ctx, key, held); err != nil {
			return err
		}
		// Absent duration falls back to zero, an immediate release.
		var hold time.Duration
		if a.Duration != nil {
			hold = seconds(*a.Duration)
		}
		if err := e.pause(ctx, hold, "key hold"); err != nil {
			return err
		}
		return e.keyUp(ctx, key, held)

	default:
		if e.diagnostic {
			e.log.Warnw("Unknown key sub-action",
				logger.FieldActionVerb, verb,
				logger.FieldKey, a.Key)
			return nil
		}
		return errors.Wrapf(errors.ErrUnknownSubAction, "key action %q", verb)
	}
}

func (e *Executor) mouse(ctx context.Context, a sequence.Action, held *HeldSet) error {
	button := ParseButton(a.Button)

	// Movement phase only runs when both coordinates are present.
	if a.HasTarget() {
		if err := e.moveToTarget(ctx, a); err != nil {
			return err
		}
	}

	verb := a.SubAction()
	switch verb {
	case sequence.VerbClick:
		clicks := a.ClickCount()
		for i := 0; i < clicks; i++ {
			if err := e.buttonDown(ctx, button, held); err != nil {
				return err
			}
			hold := e.jitter.Seconds(0.01, 0.03)
			if a.Duration != nil {
				hold = seconds(*a.Duration)
			}
			if err := e.pause(ctx, hold, "button hold"); err != nil {
				return err
			}
			if err := e.buttonUp(ctx, button, held); err != nil {
				return err
			}
			if i < clicks-1 {
				gap := e.jitter.Seconds(0.05, 0.09)
				if a.Interval > 0 {
					gap = seconds(e.jitter.Scale(a.Interval, 0.9, 1.1))
				}
				if err := e.pause(ctx, gap, "between clicks"); err != nil {
					return err
				}
			}
		}
		return nil

	case sequence.VerbDown:
		return e.buttonDown(ctx, button, held)

	case sequence.VerbUp:
		return e.buttonUp(ctx, button, held)

	case sequence.VerbHold:
		if err := e.buttonDown(ctx, button, held); err != nil {
			return err
		}
		var hold time.Duration
		if a.Duration != nil {
			hold = seconds(*a.Duration)
		}
		if err := e.pause(ctx, hold, "button hold"); err != nil {
			return err
		}
		return e.buttonUp(ctx, button, held)

	default:
		if e.diagnostic {
			e.log.Warnw("Unknown mouse sub-action",
				logger.FieldActionVerb, verb,
				logger.FieldButton, a.Button)
			return nil
		}
		return errors.Wrapf(errors.ErrUnknownSubAction, "mouse action %q", verb)
	}
}

// moveToTarget glides the cursor near the action's coordinates. A ±2px
// offset lands each repetition on a slightly different pixel; when the
// offset target equals the current position the whole movement phase
// is skipped, settle included.
func (e *Executor) moveToTarget(ctx context.Context, a sequence.Action) error {
	targetX := *a.X + e.jitter.IntBetween(-2, 2)
	targetY := *a.Y + e.jitter.IntBetween(-2, 2)

	if e.diagnostic {
		e.log.Infow("Would move cursor",
			"x", targetX,
			"y", targetY)
		return nil
	}

	fromX, fromY := e.driver.Position()
	if fromX == targetX && fromY == targetY {
		return nil
	}

	if err := e.glide(ctx, fromX, fromY, targetX, targetY); err != nil {
		return err
	}
	return e.pause(ctx, e.jitter.Seconds(0.02, 0.05), "post-move settle")
}

// glide interpolates a quadratic Bézier curve to the target through a
// randomly displaced midpoint, one step per ~10px of distance with a
// floor of 10 steps.
func (e *Executor) glide(ctx context.Context, fromX, fromY, toX, toY int) error {
	distance := math.Hypot(float64(toX-fromX), float64(toY-fromY))
	steps := int(distance / 10)
	if steps < 10 {
		steps = 10
	}

	midX := float64((fromX+toX)/2 + e.jitter.IntBetween(-20, 20))
	midY := float64((fromY+toY)/2 + e.jitter.IntBetween(-20, 20))

	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		u := 1 - t
		x := int(u*u*float64(fromX) + 2*u*t*midX + t*t*float64(toX))
		y := int(u*u*float64(fromY) + 2*u*t*midY + t*t*float64(toY))
		if err := e.driver.MoveTo(ctx, x, y); err != nil {
			return err
		}
		if i < steps {
			if err := e.sleep(ctx, e.jitter.Seconds(0.001, 0.003)); err != nil {
				return err
			}
		}
	}
	return nil
}

// repeat runs the nested action list count times, or indefinitely when
// count is absent. A non-positive every collapses the repeat to a
// single pass regardless of count; otherwise iterations are spaced by
// the jittered interval.
func (e *Executor) repeat(ctx context.Context, a sequence.Action, held *HeldSet) error {
	if a.Every <= 0 {
		for _, inner := range a.Actions {
			if err := e.Execute(ctx, inner, held); err != nil {
				return err
			}
		}
		return nil
	}
	for i := 0; a.Count == nil || i < *a.Count; i++ {
		for _, inner := range a.Actions {
			if err := e.Execute(ctx, inner, held); err != nil {
				return err
			}
		}
		if a.Count != nil && i == *a.Count-1 {
			break
		}
		if err := e.pause(ctx, seconds(e.jitter.Scale(a.Every, 0.9, 1.1)), "repeat interval"); err != nil {
			return err
		}
	}
	return nil
}

func (e *Executor) keyDown(ctx context.Context, key Key, held *HeldSet) error {
	if e.diagnostic {
		e.log.Infow("Would press key", logger.FieldKey, key.Name)
		return nil
	}
	if err := e.driver.KeyDown(ctx, key); err != nil {
		return err
	}
	if held != nil {
		held.keyDown(key)
	}
	return nil
}

func (e *Executor) keyUp(ctx context.Context, key Key, held *HeldSet) error {
	if e.diagnostic {
		e.log.Infow("Would release key", logger.FieldKey, key.Name)
		return nil
	}
	if err := e.driver.KeyUp(ctx, key); err != nil {
		return err
	}
	if held != nil {
		held.keyUp(key)
	}
	return nil
}

func (e *Executor) buttonDown(ctx context.Context, button string, held *HeldSet) error {
	if e.diagnostic {
		e.log.Infow("Would press button", logger.FieldButton, button)
		return nil
	}
	if err := e.driver.ButtonDown(ctx, button); err != nil {
		return err
	}
	if held != nil {
		held.buttonDown(button)
	}
	return nil
}

func (e *Executor) buttonUp(ctx context.Context, button string, held *HeldSet) error {
	if e.diagnostic {
		e.log.Infow("Would release button", logger.FieldButton, button)
		return nil
	}
	if err := e.driver.ButtonUp(ctx, button); err != nil {
		return err
	}
	if held != nil {
		held.buttonUp(button)
	}
	return nil
}

// Release releases every held key and button on a fresh context, so a
// cancelled run cannot strand pressed input. Failures are logged and
// skipped; there is nothing better to do with them at teardown.
func (e *Executor) Release(held *HeldSet) {
	if held == nil || e.diagnostic || held.Empty() {
		return
	}

	ctx := context.Background()
	for name, key := range held.keys {
		if err := e.driver.KeyUp(ctx, key); err != nil {
			e.log.Warnw("Failed to release held key",
				logger.FieldKey, name,
				logger.FieldError, err)
		}
	}
	for button := range held.buttons {
		if err := e.driver.ButtonUp(ctx, button); err != nil {
			e.log.Warnw("Failed to release held button",
				logger.FieldButton, button,
				logger.FieldError, err)
		}
	}
	held.keys = make(map[string]Key)
	held.buttons = make(map[string]struct{})
}
