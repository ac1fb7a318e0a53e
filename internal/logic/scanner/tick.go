package scanner

import (
	"fmt"

	"github.com/cjeanneret/ScanGo/internal/debug"
	"go.uber.org/multierr"
)

// Tick advances the raster sweep by one step when scanning. The base moves
// first; on a full revolution the tilt advances, and once the tilt wraps the
// scan ends with the sensor back at 0. Every tick ends with a POSX sample.
//
// A failed base move stops the scan with the state untouched. A failed tilt
// move is reported and the sweep continues. Errors are also written to the
// host as ERROR lines.
func (c *Controller) Tick() (err error) {
	if !c.state.Scanning {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			err = multierr.Append(err, fmt.Errorf("internal error: %v", r))
			c.halt()
		}
		if err != nil {
			debug.Error(err)
			c.reply(c.out.Error(err))
		}
	}()

	if err := c.mover.MoveBase(c.limits.BaseIncrement); err != nil {
		c.halt()
		return err
	}

	complete := false
	base := c.state.BaseAngle + c.limits.BaseIncrement
	if base >= c.limits.BaseRange {
		base = 0
		tilt := c.state.TiltAngle + c.limits.TiltIncrement
		if tilt >= c.limits.TiltRange {
			tilt = 0
			complete = true
		}
		c.state.TiltAngle = tilt
		err = multierr.Append(err, c.mover.SetTilt(tilt))
		debug.Live("Tilt row %d", tilt)
	}
	c.state.BaseAngle = base
	if complete {
		c.state.Scanning = false
	}

	sample := Sample{Base: c.state.BaseAngle, Tilt: c.state.TiltAngle, Distance: c.distance()}
	err = multierr.Append(err, c.out.Send(fmt.Sprintf("POSX %d %d %d", sample.Base, sample.Tilt, sample.Distance)))
	c.notify(EventSample, sample)

	if complete {
		debug.Info("Scan complete")
		err = multierr.Append(err, c.out.Send(ReplyComplete))
		c.notify(EventScanComplete, Sample{})
	}
	return err
}
