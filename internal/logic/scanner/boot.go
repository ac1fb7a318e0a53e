package scanner

import (
	"fmt"

	"github.com/cjeanneret/ScanGo/internal/debug"
)

// Sensor is the distance source attached at boot.
type Sensor interface {
	DistanceReader
	Name() string
}

// SensorInit opens the range sensor.
type SensorInit func() (Sensor, error)

// Boot announces the controller, brings up the sensor and runs the base
// self-test. name is used in the status line when init fails. Failures are
// reported to the host and never abort the boot.
func (c *Controller) Boot(name string, initSensor SensorInit, selfTest func() error) {
	debug.Summary("ScanGo boot")

	if err := c.mover.SetTilt(0); err != nil {
		debug.Error(fmt.Errorf("park tilt: %w", err))
	}
	c.reply(c.out.Send(ReplyReady))

	sensor, err := initSensor()
	if err != nil {
		debug.Error(err)
		c.reply(c.out.Send(fmt.Sprintf("STATUS %s unavailable: %v", name, err)))
	} else {
		c.ranger = sensor
		c.reply(c.out.Send(fmt.Sprintf("STATUS %s detected. Starting measurements", sensor.Name())))
	}

	if selfTest != nil {
		if err := selfTest(); err != nil {
			debug.Error(err)
			c.reply(c.out.Error(fmt.Errorf("self-test failed: %w", err)))
		}
	}
	debug.Info("Boot complete, %s", c.state)
}
