package stepper

import (
	"errors"
	"testing"
	"time"

	"github.com/cjeanneret/ScanGo/internal/hw/gpio"
)

// recordingDriver records GPIO calls for verification.
type recordingDriver struct {
	calls   []gpioCall
	failPin int // WritePin on this pin fails when > 0
}

type gpioCall struct {
	op    string // "setup", "write"
	pin   int
	level gpio.Level
}

func (d *recordingDriver) SetupPin(pin int, mode gpio.PinMode) error {
	d.calls = append(d.calls, gpioCall{op: "setup", pin: pin})
	return nil
}

func (d *recordingDriver) WritePin(pin int, level gpio.Level) error {
	if d.failPin > 0 && pin == d.failPin {
		return errors.New("pin stuck")
	}
	d.calls = append(d.calls, gpioCall{op: "write", pin: pin, level: level})
	return nil
}

func (d *recordingDriver) ReadPin(pin int) (gpio.Level, error) {
	return gpio.Low, nil
}

func (d *recordingDriver) SetupPWM(pin int, freqHz int, cycle uint32) error { return nil }

func (d *recordingDriver) SetDutyCycle(pin int, duty, cycle uint32) error { return nil }

func (d *recordingDriver) Close() error {
	return nil
}

func (d *recordingDriver) writeCalls() []gpioCall {
	var result []gpioCall
	for _, c := range d.calls {
		if c.op == "write" {
			result = append(result, c)
		}
	}
	return result
}

func (d *recordingDriver) writeCallsForPin(pin int) []gpioCall {
	var result []gpioCall
	for _, c := range d.calls {
		if c.op == "write" && c.pin == pin {
			result = append(result, c)
		}
	}
	return result
}

func testConfig(clock Clock) Config {
	return Config{
		StepPin:      17,
		DirPin:       27,
		EnablePin:    5,
		StepsPerRev:  200,
		MinDelay:     5 * time.Millisecond,
		MaxDelay:     20 * time.Millisecond,
		RampFraction: 0.2,
		Clock:        clock,
	}
}

func countPulses(writes []gpioCall, stepPin int) int {
	n := 0
	for _, c := range writes {
		if c.pin == stepPin && c.level == gpio.High {
			n++
		}
	}
	return n
}

func TestStepper_MoveStepsForward(t *testing.T) {
	drv := &recordingDriver{}
	cfg := testConfig(&VirtualClock{})
	s := NewStepper(drv, cfg)
	drv.calls = nil // reset after init

	if err := s.MoveSteps(10); err != nil {
		t.Fatalf("MoveSteps: %v", err)
	}

	// First call should set direction HIGH (forward)
	writes := drv.writeCalls()
	if len(writes) == 0 {
		t.Fatal("expected GPIO write calls")
	}
	if writes[0].pin != 27 || writes[0].level != gpio.High {
		t.Errorf("first write should set dir pin HIGH, got pin=%d level=%v", writes[0].pin, writes[0].level)
	}
	if n := countPulses(writes, cfg.StepPin); n != 10 {
		t.Errorf("expected 10 step pulses, got %d", n)
	}
}

func TestStepper_MoveStepsBackward(t *testing.T) {
	drv := &recordingDriver{}
	cfg := testConfig(&VirtualClock{})
	s := NewStepper(drv, cfg)
	drv.calls = nil

	if err := s.MoveSteps(-5); err != nil {
		t.Fatalf("MoveSteps: %v", err)
	}

	writes := drv.writeCalls()
	if len(writes) == 0 {
		t.Fatal("expected GPIO write calls")
	}
	if writes[0].pin != 27 || writes[0].level != gpio.Low {
		t.Errorf("first write should set dir pin LOW, got pin=%d level=%v", writes[0].pin, writes[0].level)
	}
	if n := countPulses(writes, cfg.StepPin); n != 5 {
		t.Errorf("expected 5 step pulses, got %d", n)
	}
}

func TestStepper_MoveStepsZero(t *testing.T) {
	drv := &recordingDriver{}
	clock := &VirtualClock{}
	s := NewStepper(drv, testConfig(clock))
	drv.calls = nil

	if err := s.MoveSteps(0); err != nil {
		t.Fatalf("MoveSteps: %v", err)
	}
	if len(drv.calls) != 0 {
		t.Errorf("zero steps should produce no GPIO calls, got %d", len(drv.calls))
	}
	if clock.Elapsed != 0 || clock.Sleeps != 0 {
		t.Errorf("zero steps should not sleep, got %v over %d sleeps", clock.Elapsed, clock.Sleeps)
	}
}

func TestStepper_MoveStepsTiming(t *testing.T) {
	drv := &recordingDriver{}
	clock := &VirtualClock{}
	s := NewStepper(drv, testConfig(clock))

	if err := s.MoveSteps(5); err != nil {
		t.Fatalf("MoveSteps: %v", err)
	}
	// 5 steps at 0.2: one ramp pulse each side, three cruise pulses.
	// up: 20ms, cruise: 3*5ms, down: 5ms, each held twice.
	want := 2 * (20*time.Millisecond + 15*time.Millisecond + 5*time.Millisecond)
	if clock.Elapsed != want {
		t.Errorf("elapsed = %v, want %v", clock.Elapsed, want)
	}
	if clock.Sleeps != 10 {
		t.Errorf("sleeps = %d, want 10", clock.Sleeps)
	}
	if got := s.Profile(5).Duration(); got != want {
		t.Errorf("Profile(5).Duration() = %v, want %v", got, want)
	}
}

func TestStepper_WriteErrorStopsMove(t *testing.T) {
	drv := &recordingDriver{failPin: 17}
	clock := &VirtualClock{}
	s := NewStepper(drv, testConfig(clock))

	if err := s.MoveSteps(10); err == nil {
		t.Fatal("expected error from failing step pin")
	}
	if clock.Sleeps != 0 {
		t.Errorf("failed move should stop before sleeping, got %d sleeps", clock.Sleeps)
	}
}

func TestStepper_EnableDisable(t *testing.T) {
	drv := &recordingDriver{}
	s := NewStepper(drv, testConfig(&VirtualClock{}))
	drv.calls = nil

	if err := s.Enable(); err != nil {
		t.Fatalf("Enable: %v", err)
	}
	enableCalls := drv.writeCallsForPin(5)
	if len(enableCalls) != 1 || enableCalls[0].level != gpio.Low {
		t.Errorf("Enable should write LOW to enable pin, got %v", enableCalls)
	}

	drv.calls = nil
	if err := s.Disable(); err != nil {
		t.Fatalf("Disable: %v", err)
	}
	disableCalls := drv.writeCallsForPin(5)
	if len(disableCalls) != 1 || disableCalls[0].level != gpio.High {
		t.Errorf("Disable should write HIGH to enable pin, got %v", disableCalls)
	}
}

func TestStepper_EnableDisable_NoEnablePin(t *testing.T) {
	drv := &recordingDriver{}
	cfg := testConfig(&VirtualClock{})
	cfg.EnablePin = 0
	s := NewStepper(drv, cfg)
	drv.calls = nil

	if err := s.Enable(); err != nil {
		t.Fatalf("Enable: %v", err)
	}
	if err := s.Disable(); err != nil {
		t.Fatalf("Disable: %v", err)
	}
	if len(drv.calls) != 0 {
		t.Errorf("with EnablePin=0, Enable/Disable should produce no GPIO calls, got %d", len(drv.calls))
	}
}

func TestStepper_Defaults(t *testing.T) {
	drv := &recordingDriver{}
	s := NewStepper(drv, Config{StepPin: 17, DirPin: 27})
	if s.cfg.MinDelay != 5*time.Millisecond {
		t.Errorf("default min delay = %v, want 5ms", s.cfg.MinDelay)
	}
	if s.cfg.MaxDelay != 20*time.Millisecond {
		t.Errorf("default max delay = %v, want 20ms", s.cfg.MaxDelay)
	}
	if _, ok := s.clock.(RealClock); !ok {
		t.Errorf("default clock = %T, want RealClock", s.clock)
	}
}

func TestStepper_StepPulsePattern(t *testing.T) {
	drv := &recordingDriver{}
	s := NewStepper(drv, testConfig(&VirtualClock{}))
	drv.calls = nil

	if err := s.MoveSteps(1); err != nil {
		t.Fatalf("MoveSteps: %v", err)
	}

	stepCalls := drv.writeCallsForPin(17)
	if len(stepCalls) != 2 {
		t.Fatalf("single step should produce 2 writes on step pin, got %d", len(stepCalls))
	}
	if stepCalls[0].level != gpio.High {
		t.Error("first edge should be HIGH")
	}
	if stepCalls[1].level != gpio.Low {
		t.Error("second edge should be LOW")
	}
}
