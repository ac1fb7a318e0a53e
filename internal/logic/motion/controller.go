package motion

import (
	"fmt"

	"github.com/cjeanneret/ScanGo/internal/debug"
	"github.com/cjeanneret/ScanGo/internal/hw/stepper"
)

// Positioner moves an axis to an absolute angle.
type Positioner interface {
	SetAngle(deg int) error
}

// Controller drives the base turntable stepper and the tilt servo.
// Every call blocks until the axis reached its target.
type Controller struct {
	base *stepper.Stepper
	tilt Positioner
}

func NewController(base *stepper.Stepper, tilt Positioner) *Controller {
	return &Controller{
		base: base,
		tilt: tilt,
	}
}

// MoveBase turns the base by a signed number of steps along a trapezoidal ramp.
func (c *Controller) MoveBase(steps int) error {
	if err := c.base.MoveSteps(steps); err != nil {
		return fmt.Errorf("move base %d steps: %w", steps, err)
	}
	return nil
}

// SetTilt positions the sensor. There is no ramp on this axis.
func (c *Controller) SetTilt(angle int) error {
	if err := c.tilt.SetAngle(angle); err != nil {
		return fmt.Errorf("tilt to %d: %w", angle, err)
	}
	return nil
}

// SelfTest runs one base move at boot so a wiring fault shows before a scan.
// Non-positive steps skip the test.
func (c *Controller) SelfTest(steps int) error {
	if steps <= 0 {
		debug.Verbose("Self-test disabled")
		return nil
	}
	debug.Info("Self-test: base %d steps (%v)", steps, c.base.Profile(steps).Duration())
	return c.MoveBase(steps)
}

// EnableMotors energizes the base driver so the turntable holds position.
func (c *Controller) EnableMotors() error {
	return c.base.Enable()
}

// DisableMotors releases the base driver.
func (c *Controller) DisableMotors() error {
	return c.base.Disable()
}
