package input

import (
	"context"

	"github.com/go-vgo/robotgo"

	"github.com/teranos/cadence/errors"
)

// RobotgoDriver emits real OS input events through robotgo.
type RobotgoDriver struct{}

// NewRobotgoDriver creates the real input driver.
func NewRobotgoDriver() *RobotgoDriver {
	return &RobotgoDriver{}
}

func (*RobotgoDriver) KeyDown(_ context.Context, key Key) error {
	if err := robotgo.KeyToggle(key.Name, "down"); err != nil {
		return errors.Wrapf(err, "failed to press key %q", key.Name)
	}
	return nil
}

func (*RobotgoDriver) KeyUp(_ context.Context, key Key) error {
	if err := robotgo.KeyToggle(key.Name, "up"); err != nil {
		return errors.Wrapf(err, "failed to release key %q", key.Name)
	}
	return nil
}

func (*RobotgoDriver) ButtonDown(_ context.Context, button string) error {
	if err := robotgo.Toggle(button, "down"); err != nil {
		return errors.Wrapf(err, "failed to press button %q", button)
	}
	return nil
}

func (*RobotgoDriver) ButtonUp(_ context.Context, button string) error {
	if err := robotgo.Toggle(button, "up"); err != nil {
		return errors.Wrapf(err, "failed to release button %q", button)
	}
	return nil
}

func (*RobotgoDriver) MoveTo(_ context.Context, x, y int) error {
	robotgo.Move(x, y)
	return nil
}

func (*RobotgoDriver) Position() (int, int) {
	return robotgo.Location()
}
