// Package servo positions a hobby servo from a hardware PWM pin.
package servo

import (
	"errors"
	"fmt"
	"time"

	"github.com/cjeanneret/ScanGo/internal/debug"
	"github.com/cjeanneret/ScanGo/internal/hw/gpio"
)

// ErrAngleOutOfRange is returned when an angle falls outside the actuation range.
var ErrAngleOutOfRange = errors.New("servo angle out of range")

// Config describes the PWM signal of a servo.
type Config struct {
	Pin            int
	FrequencyHz    int           // 50 Hz for hobby servos
	MinPulse       time.Duration // pulse width at 0°
	MaxPulse       time.Duration // pulse width at ActuationRange
	ActuationRange int           // degrees
}

// Servo sets absolute angles. The PWM period is split into one tick per
// microsecond so duty cycles are pulse widths in µs.
type Servo struct {
	gpio  gpio.Driver
	cfg   Config
	cycle uint32
	angle int
}

// New configures the PWM pin. The servo is not moved until SetAngle.
func New(g gpio.Driver, cfg Config) (*Servo, error) {
	if cfg.FrequencyHz <= 0 {
		cfg.FrequencyHz = 50
	}
	if cfg.ActuationRange <= 0 {
		cfg.ActuationRange = 180
	}
	if cfg.MinPulse <= 0 || cfg.MaxPulse <= cfg.MinPulse {
		return nil, fmt.Errorf("servo pulse range %v-%v is invalid", cfg.MinPulse, cfg.MaxPulse)
	}
	cycle := uint32(time.Second / time.Duration(cfg.FrequencyHz) / time.Microsecond)
	if uint32(cfg.MaxPulse/time.Microsecond) >= cycle {
		return nil, fmt.Errorf("servo max pulse %v does not fit a %d Hz period", cfg.MaxPulse, cfg.FrequencyHz)
	}
	if err := g.SetupPWM(cfg.Pin, cfg.FrequencyHz, cycle); err != nil {
		return nil, fmt.Errorf("setup servo PWM: %w", err)
	}

	debug.Verbose("Servo: pin %d, %d Hz, %v-%v over %d°",
		cfg.Pin, cfg.FrequencyHz, cfg.MinPulse, cfg.MaxPulse, cfg.ActuationRange)

	return &Servo{gpio: g, cfg: cfg, cycle: cycle}, nil
}

// Pulse returns the pulse width for angle.
func (s *Servo) Pulse(angle int) time.Duration {
	span := s.cfg.MaxPulse - s.cfg.MinPulse
	return s.cfg.MinPulse + span*time.Duration(angle)/time.Duration(s.cfg.ActuationRange)
}

// SetAngle drives the servo to an absolute angle in degrees.
func (s *Servo) SetAngle(angle int) error {
	if angle < 0 || angle > s.cfg.ActuationRange {
		return fmt.Errorf("%w: %d not in [0,%d]", ErrAngleOutOfRange, angle, s.cfg.ActuationRange)
	}
	duty := uint32(s.Pulse(angle) / time.Microsecond)
	debug.Move("tilt", angle, "absolute")
	if err := s.gpio.SetDutyCycle(s.cfg.Pin, duty, s.cycle); err != nil {
		return fmt.Errorf("set servo angle %d: %w", angle, err)
	}
	s.angle = angle
	return nil
}

// Angle returns the last angle commanded.
func (s *Servo) Angle() int {
	return s.angle
}
