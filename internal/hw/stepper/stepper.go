package stepper

import (
	"time"

	"github.com/cjeanneret/ScanGo/internal/debug"
	"github.com/cjeanneret/ScanGo/internal/hw/gpio"
)

// Config holds the hardware configuration for a stepper motor.
type Config struct {
	StepPin      int
	DirPin       int
	EnablePin    int // A4988 ENABLE pin (BCM). 0 = not used. Active LOW (LOW=enabled).
	StepsPerRev  int
	MinDelay     time.Duration // half-period at cruise speed
	MaxDelay     time.Duration // half-period at the start and end of a ramp
	RampFraction float64       // share of each move spent on each ramp
	Clock        Clock         // nil = RealClock
}

// Stepper drives a step/direction motor driver with trapezoidal moves.
type Stepper struct {
	gpio  gpio.Driver
	cfg   Config
	clock Clock
}

// NewStepper sets up the pins and enables the driver.
// Zero delays default to 5ms cruise and 20ms ramp ends.
func NewStepper(g gpio.Driver, cfg Config) *Stepper {
	_ = g.SetupPin(cfg.StepPin, gpio.Output)
	_ = g.SetupPin(cfg.DirPin, gpio.Output)

	if cfg.MinDelay <= 0 {
		cfg.MinDelay = 5 * time.Millisecond
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = 20 * time.Millisecond
	}
	clock := cfg.Clock
	if clock == nil {
		clock = RealClock{}
	}

	s := &Stepper{
		gpio:  g,
		cfg:   cfg,
		clock: clock,
	}

	// A4988 ENABLE: active LOW. LOW = enabled, HIGH = disabled.
	if cfg.EnablePin > 0 {
		_ = g.SetupPin(cfg.EnablePin, gpio.Output)
		_ = g.WritePin(cfg.EnablePin, gpio.Low)
	}

	return s
}

// Profile returns the ramp MoveSteps would run for steps.
func (s *Stepper) Profile(steps int) Profile {
	return NewProfile(steps, s.cfg.MinDelay, s.cfg.MaxDelay, s.cfg.RampFraction)
}

// MoveSteps moves the motor by a signed number of steps and returns once
// the last pulse completed. Zero steps touches no pin.
func (s *Stepper) MoveSteps(steps int) error {
	return s.Run(s.Profile(steps))
}

// Run plays a profile on the STEP/DIR pins.
func (s *Stepper) Run(p Profile) error {
	if p.TotalSteps == 0 {
		return nil
	}

	dirLevel := gpio.High
	if p.Direction == Reverse {
		dirLevel = gpio.Low
	}

	debug.Move("base", p.TotalSteps, p.Direction.String())
	debug.Verbose("Stepper: ramp %d / cruise %d / ramp %d on pin %d",
		p.RampSteps, p.CruiseSteps, p.RampSteps, s.cfg.StepPin)

	if err := s.gpio.WritePin(s.cfg.DirPin, dirLevel); err != nil {
		return err
	}

	last := Phase(-1)
	for pulse := range p.Pulses() {
		if pulse.Phase != last && debug.IsEnabled(debug.LevelTrace) {
			debug.Trace("Stepper: %s from step %d (delay %v)", pulse.Phase, pulse.Index, pulse.Delay)
			last = pulse.Phase
		}
		if err := s.stepPulse(pulse.Delay); err != nil {
			return err
		}
	}
	return nil
}

func (s *Stepper) stepPulse(delay time.Duration) error {
	if err := s.gpio.WritePin(s.cfg.StepPin, gpio.High); err != nil {
		return err
	}
	s.clock.Sleep(delay)
	if err := s.gpio.WritePin(s.cfg.StepPin, gpio.Low); err != nil {
		return err
	}
	s.clock.Sleep(delay)
	return nil
}

// Enable turns on the motor driver (A4988 ENABLE=LOW). The motor holds position.
func (s *Stepper) Enable() error {
	if s.cfg.EnablePin <= 0 {
		return nil
	}
	return s.gpio.WritePin(s.cfg.EnablePin, gpio.Low)
}

// Disable turns off the motor driver (A4988 ENABLE=HIGH). The turntable freewheels.
func (s *Stepper) Disable() error {
	if s.cfg.EnablePin <= 0 {
		return nil
	}
	return s.gpio.WritePin(s.cfg.EnablePin, gpio.High)
}
