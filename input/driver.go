package input

import "context"

// Driver emits low-level input events. The executor serializes calls
// within a run, so implementations need not be safe for concurrent
// use. The context is honored by decorators that pace emission; the
// underlying event calls themselves are not cancellable.
type Driver interface {
	KeyDown(ctx context.Context, key Key) error
	KeyUp(ctx context.Context, key Key) error
	ButtonDown(ctx context.Context, button string) error
	ButtonUp(ctx context.Context, button string) error
	MoveTo(ctx context.Context, x, y int) error
	Position() (x, y int)
}
