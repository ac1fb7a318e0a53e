package scanner

import (
	"errors"
	"fmt"

	"github.com/cjeanneret/ScanGo/internal/debug"
	"github.com/cjeanneret/ScanGo/internal/hw/rangefinder"
	"github.com/cjeanneret/ScanGo/internal/logic/protocol"
	"go.uber.org/multierr"
)

// ErrScanning rejects manual moves while a scan runs.
var ErrScanning = errors.New("Can't move manually while scanning")

// ErrInvalidArgs is the reply to a move with a missing, malformed or
// out-of-range angle.
var ErrInvalidArgs = protocol.ErrInvalidArgs

// Wire lines that are not errors.
const (
	ReplyOK       = "OK"
	ReplyStarted  = "started"
	ReplyReady    = "3D Scanner Controller Ready"
	ReplyComplete = "STATUS Scan complete"
)

// Mover drives the two axes. Calls block until the motion ends.
type Mover interface {
	MoveBase(steps int) error
	SetTilt(angle int) error
}

// DistanceReader returns a calibrated distance in millimetres.
type DistanceReader interface {
	ReadDistance() (int, error)
}

// Controller owns the axis state. All methods must be called from the loop
// goroutine.
type Controller struct {
	state     State
	limits    Limits
	mover     Mover
	ranger    DistanceReader
	out       *Responder
	lines     protocol.LineBuffer
	observers []Observer
}

// New returns an idle controller at (0, 0). Until Boot attaches a sensor,
// every distance reads as a fault.
func New(mover Mover, out *Responder, limits Limits) *Controller {
	return &Controller{
		limits: limits,
		mover:  mover,
		ranger: missingSensor{},
		out:    out,
	}
}

// State returns a copy of the axis state.
func (c *Controller) State() State {
	return c.state
}

// Limits returns the sweep limits.
func (c *Controller) Limits() Limits {
	return c.limits
}

// AddObserver registers o for state, sample and scan lifecycle events.
func (c *Controller) AddObserver(o Observer) {
	c.observers = append(c.observers, o)
}

func (c *Controller) notify(kind EventKind, sample Sample) {
	e := Event{Kind: kind, State: c.state, Sample: sample}
	for _, o := range c.observers {
		o.Observe(e)
	}
}

// Feed passes link bytes through the line buffer and dispatches every
// complete line in order.
func (c *Controller) Feed(p []byte) {
	lines, err := c.lines.Feed(p)
	errs := multierr.Errors(err)
	// Lines returned with an encoding error follow the stale bytes it
	// reports, so the ERROR goes out first.
	if len(lines) > 0 && len(errs) > 0 && errors.Is(errs[0], protocol.ErrInvalidEncoding) {
		c.feedError(errs[0])
		errs = errs[1:]
	}
	for _, line := range lines {
		c.HandleLine(line)
	}
	for _, e := range errs {
		c.feedError(e)
	}
}

func (c *Controller) feedError(err error) {
	debug.Error(err)
	c.reply(c.out.Error(err))
}

// HandleLine dispatches one line and writes its response. It never panics:
// any failure, including a recovered panic, becomes one ERROR line.
func (c *Controller) HandleLine(line string) {
	debug.Command(line)
	before := c.state

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("internal error: %v", r)
			debug.Error(err)
			c.reply(c.out.Error(err))
		}
		if c.state != before {
			c.notify(EventState, Sample{})
		}
	}()

	if err := c.dispatch(line); err != nil {
		c.reply(c.out.Error(err))
	}
}

// reply logs a failed write to the link. The loop keeps running; a dead
// link shows up on the next read.
func (c *Controller) reply(err error) {
	if err != nil {
		debug.Error(fmt.Errorf("write reply: %w", err))
	}
}

func (c *Controller) dispatch(line string) error {
	cmd, err := protocol.Parse(line)
	if errors.Is(err, protocol.ErrEmptyLine) {
		return nil
	}
	if cmd.Kind.IsManualMove() && c.state.Scanning {
		return ErrScanning
	}
	if err != nil {
		return err
	}

	switch cmd.Kind {
	case protocol.KindStatus:
		return c.status()
	case protocol.KindMoveBase:
		return c.moveBase(cmd.Angle)
	case protocol.KindMoveSensor:
		return c.moveSensor(cmd.Angle)
	case protocol.KindMoveAll:
		return c.moveAll(cmd.Angle)
	case protocol.KindScan:
		return c.startScan()
	case protocol.KindPause, protocol.KindEStop:
		return c.stopScan()
	case protocol.KindReset:
		return c.reset()
	case protocol.KindStart, protocol.KindECancel:
		debug.Verbose("%s is reserved, ignored", cmd.Name)
		return nil
	}
	return &protocol.UnknownCommandError{Name: cmd.Name}
}

func (c *Controller) status() error {
	d := c.distance()
	return c.out.Send(fmt.Sprintf("POS %d %d %d", c.state.BaseAngle, c.state.TiltAngle, d))
}

// moveBase only records the position; the turntable is not driven.
func (c *Controller) moveBase(angle int) error {
	if angle < 0 || angle >= c.limits.BaseRange {
		return ErrInvalidArgs
	}
	c.state.BaseAngle = angle
	return c.out.Send(ReplyOK)
}

func (c *Controller) moveSensor(angle int) error {
	if angle < 0 || angle >= c.limits.TiltRange {
		return ErrInvalidArgs
	}
	if err := c.mover.SetTilt(angle); err != nil {
		return err
	}
	c.state.TiltAngle = angle
	return c.out.Send(ReplyOK)
}

// moveAll records the same angle on both axes without driving either.
func (c *Controller) moveAll(angle int) error {
	if angle < 0 || angle >= min(c.limits.BaseRange, c.limits.TiltRange) {
		return ErrInvalidArgs
	}
	c.state.BaseAngle = angle
	c.state.TiltAngle = angle
	return c.out.Send(ReplyOK)
}

func (c *Controller) startScan() error {
	if !c.state.Scanning {
		c.state.Scanning = true
		debug.Info("Scan started at %s", c.state)
		c.notify(EventScanStarted, Sample{})
	}
	if err := c.out.Send(ReplyStarted); err != nil {
		return err
	}
	return c.out.Send(ReplyOK)
}

func (c *Controller) stopScan() error {
	c.halt()
	return c.out.Send(ReplyOK)
}

func (c *Controller) halt() {
	if c.state.Scanning {
		c.state.Scanning = false
		debug.Info("Scan stopped at %s", c.state)
		c.notify(EventScanStopped, Sample{})
	}
}

// reset always leaves (0, 0, idle), even if the servo fails.
func (c *Controller) reset() error {
	c.halt()
	c.state.BaseAngle = 0
	c.state.TiltAngle = 0
	if err := c.mover.SetTilt(0); err != nil {
		return err
	}
	return c.out.Send(ReplyOK)
}

// distance samples the sensor. A fault is logged and reported as -1.
func (c *Controller) distance() int {
	d, err := c.ranger.ReadDistance()
	if err != nil {
		debug.Error(err)
		return rangefinder.FaultDistance
	}
	return d
}

type missingSensor struct{}

func (missingSensor) ReadDistance() (int, error) {
	return rangefinder.FaultDistance, fmt.Errorf("%w: no sensor attached", rangefinder.ErrSensorFault)
}
