package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// MaxConfigFileBytes bounds the size of a configuration file.
const MaxConfigFileBytes = 64 * 1024

// Supported range sensor types.
const (
	SensorVL53L1X = "vl53l1x"
	SensorMock    = "mock"
)

// pwmPins lists the Raspberry Pi BCM pins with hardware PWM.
var pwmPins = map[int]bool{12: true, 13: true, 18: true, 19: true}

// StepperConfig holds the base turntable stepper configuration.
type StepperConfig struct {
	StepPin       int     `yaml:"step_pin"`
	DirPin        int     `yaml:"dir_pin"`
	EnablePin     int     `yaml:"enable_pin"`      // A4988 ENABLE pin (BCM). 0 = not used. Active LOW.
	StepsPerRev   int     `yaml:"steps_per_rev"`   // full steps per turntable revolution
	MinDelayUs    int     `yaml:"min_delay_us"`    // half-period at cruise speed
	MaxDelayUs    int     `yaml:"max_delay_us"`    // half-period at ramp start/end
	RampFraction  float64 `yaml:"ramp_fraction"`   // share of a move spent on each ramp (0-0.5)
	SelfTestSteps int     `yaml:"self_test_steps"` // steps moved once at boot; 0 = default, <0 = disabled
}

// ServoConfig holds the sensor-tilt servo configuration.
type ServoConfig struct {
	Pin            int `yaml:"pin"`             // hardware PWM pin (BCM 12, 13, 18 or 19)
	FrequencyHz    int `yaml:"frequency_hz"`    // PWM frequency, 50 Hz for hobby servos
	MinPulseUs     int `yaml:"min_pulse_us"`    // pulse width at 0°
	MaxPulseUs     int `yaml:"max_pulse_us"`    // pulse width at ActuationRange
	ActuationRange int `yaml:"actuation_range"` // mechanical range in degrees
}

// RangeSensorConfig describes the time-of-flight range sensor.
type RangeSensorConfig struct {
	Type           string `yaml:"type"`             // "vl53l1x" or "mock"
	Bus            string `yaml:"bus"`              // periph I2C bus name, "" = first bus
	Address        int    `yaml:"address"`          // I2C address
	OffsetMm       int    `yaml:"offset_mm"`        // mechanical standoff subtracted from each reading
	TimingBudgetUs int    `yaml:"timing_budget_us"` // measurement timing budget
	TimeoutMs      int    `yaml:"timeout_ms"`       // blocking read timeout
	MockDistanceMm int    `yaml:"mock_distance_mm"` // constant raw reading for the mock sensor
}

// SerialConfig describes the host serial link.
type SerialConfig struct {
	Device   string `yaml:"device"` // e.g. /dev/ttyGS0, or "stdio"
	BaudRate int    `yaml:"baud_rate"`
	DataBits int    `yaml:"data_bits"`
	StopBits int    `yaml:"stop_bits"`
	Parity   string `yaml:"parity"`
	PollMs   int    `yaml:"poll_ms"` // read timeout used as the main loop poll interval
}

// ScanConfig describes the raster sweep.
type ScanConfig struct {
	BaseIncrement int `yaml:"base_increment"` // base units advanced per tick
	TiltIncrement int `yaml:"tilt_increment"` // degrees advanced per base revolution
	BaseRange     int `yaml:"base_range"`     // base units per revolution (wraparound bound)
	TiltRange     int `yaml:"tilt_range"`     // tilt wraparound bound in degrees
}

// DefaultsConfig contains generic parameters.
type DefaultsConfig struct {
	DebugLevel int  `yaml:"debug_level"` // debug level 0-4 (0=off, 1=info, 2=live, 3=verbose, 4=trace)
	MockGPIO   bool `yaml:"mock_gpio"`   // use mock GPIO and servo (true=dev/test, false=real Raspberry Pi)
}

// Config aggregates all application configuration.
type Config struct {
	BaseStepper StepperConfig     `yaml:"base_stepper"`
	TiltServo   ServoConfig       `yaml:"tilt_servo"`
	RangeSensor RangeSensorConfig `yaml:"range_sensor"`
	Serial      SerialConfig      `yaml:"serial"`
	Scan        ScanConfig        `yaml:"scan"`
	Defaults    DefaultsConfig    `yaml:"defaults"`
}

// ValidateConfigPath checks that path names a .yaml file directly inside a
// configs/ directory and does not climb out of it.
func ValidateConfigPath(path string) error {
	if path == "" {
		return fmt.Errorf("config path is empty")
	}
	for _, part := range strings.FieldsFunc(path, func(r rune) bool { return r == '/' || r == filepath.Separator }) {
		if part == ".." {
			return fmt.Errorf("config path %q must not contain '..'", path)
		}
	}
	clean := filepath.Clean(path)
	if filepath.Ext(clean) != ".yaml" {
		return fmt.Errorf("config path %q must have a .yaml extension", path)
	}
	if filepath.Base(filepath.Dir(clean)) != "configs" {
		return fmt.Errorf("config path %q must be inside a configs/ directory", path)
	}
	return nil
}

// Load reads a YAML file and returns the configuration with defaults applied.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, MaxConfigFileBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	if len(data) > MaxConfigFileBytes {
		return nil, fmt.Errorf("config file exceeds %d bytes", MaxConfigFileBytes)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal yaml: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns a configuration with every default applied, suitable for
// development with mock hardware.
func Default() *Config {
	cfg := &Config{Defaults: DefaultsConfig{MockGPIO: true}}
	cfg.RangeSensor.Type = SensorMock
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	s := &c.BaseStepper
	if s.StepPin == 0 {
		s.StepPin = 17
	}
	if s.DirPin == 0 {
		s.DirPin = 27
	}
	if s.StepsPerRev <= 0 {
		s.StepsPerRev = 200
	}
	if s.MinDelayUs <= 0 {
		s.MinDelayUs = 5000
	}
	if s.MaxDelayUs <= 0 {
		s.MaxDelayUs = 20000
	}
	if s.RampFraction == 0 {
		s.RampFraction = 0.2
	}
	if s.SelfTestSteps == 0 {
		s.SelfTestSteps = s.StepsPerRev
	}

	v := &c.TiltServo
	if v.Pin == 0 {
		v.Pin = 18
	}
	if v.FrequencyHz <= 0 {
		v.FrequencyHz = 50
	}
	if v.MinPulseUs <= 0 {
		v.MinPulseUs = 750
	}
	if v.MaxPulseUs <= 0 {
		v.MaxPulseUs = 2250
	}
	if v.ActuationRange <= 0 {
		v.ActuationRange = 180
	}

	r := &c.RangeSensor
	if r.Type == "" {
		r.Type = SensorVL53L1X
	}
	if r.Address == 0 {
		r.Address = 0x29
	}
	if r.OffsetMm == 0 {
		r.OffsetMm = 20
	}
	if r.TimingBudgetUs <= 0 {
		r.TimingBudgetUs = 200000
	}
	if r.TimeoutMs <= 0 {
		r.TimeoutMs = 500
	}
	if r.MockDistanceMm <= 0 {
		r.MockDistanceMm = 150
	}

	l := &c.Serial
	if l.Device == "" {
		l.Device = "/dev/ttyGS0"
	}
	if l.BaudRate <= 0 {
		l.BaudRate = 115200
	}
	if l.PollMs <= 0 {
		l.PollMs = 10
	}

	sc := &c.Scan
	if sc.BaseIncrement <= 0 {
		sc.BaseIncrement = 5
	}
	if sc.TiltIncrement <= 0 {
		sc.TiltIncrement = 5
	}
	if sc.BaseRange <= 0 {
		sc.BaseRange = 200
	}
	if sc.TiltRange <= 0 {
		sc.TiltRange = 180
	}
}

// Validate checks ranges once defaults are applied.
func (c *Config) Validate() error {
	s := c.BaseStepper
	if s.RampFraction < 0 || s.RampFraction > 0.5 {
		return fmt.Errorf("base_stepper.ramp_fraction must be between 0 and 0.5, got %.2f", s.RampFraction)
	}
	if s.MinDelayUs > s.MaxDelayUs {
		return fmt.Errorf("base_stepper.min_delay_us (%d) must be <= max_delay_us (%d)", s.MinDelayUs, s.MaxDelayUs)
	}

	v := c.TiltServo
	if !c.Defaults.MockGPIO && !pwmPins[v.Pin] {
		return fmt.Errorf("tilt_servo.pin %d has no hardware PWM (use 12, 13, 18 or 19)", v.Pin)
	}
	if v.MinPulseUs >= v.MaxPulseUs {
		return fmt.Errorf("tilt_servo.min_pulse_us (%d) must be < max_pulse_us (%d)", v.MinPulseUs, v.MaxPulseUs)
	}
	if period := 1000000 / v.FrequencyHz; v.MaxPulseUs >= period {
		return fmt.Errorf("tilt_servo.max_pulse_us (%d) must be shorter than the PWM period (%d us)", v.MaxPulseUs, period)
	}

	switch c.RangeSensor.Type {
	case SensorVL53L1X, SensorMock:
	default:
		return fmt.Errorf("unsupported range_sensor.type: %s", c.RangeSensor.Type)
	}
	if c.RangeSensor.Address < 0x08 || c.RangeSensor.Address > 0x77 {
		return fmt.Errorf("range_sensor.address 0x%02x is not a 7-bit I2C address", c.RangeSensor.Address)
	}

	sc := c.Scan
	if sc.BaseIncrement >= sc.BaseRange {
		return fmt.Errorf("scan.base_increment (%d) must be < base_range (%d)", sc.BaseIncrement, sc.BaseRange)
	}
	if sc.TiltIncrement >= sc.TiltRange {
		return fmt.Errorf("scan.tilt_increment (%d) must be < tilt_range (%d)", sc.TiltIncrement, sc.TiltRange)
	}
	if sc.TiltRange > v.ActuationRange {
		return fmt.Errorf("scan.tilt_range (%d) exceeds tilt_servo.actuation_range (%d)", sc.TiltRange, v.ActuationRange)
	}
	return nil
}

// MinDelay returns the stepper half-period at cruise speed.
func (c *Config) MinDelay() time.Duration {
	return time.Duration(c.BaseStepper.MinDelayUs) * time.Microsecond
}

// MaxDelay returns the stepper half-period at the ends of a ramp.
func (c *Config) MaxDelay() time.Duration {
	return time.Duration(c.BaseStepper.MaxDelayUs) * time.Microsecond
}

// PollInterval returns how long one link poll may wait for bytes.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Serial.PollMs) * time.Millisecond
}

// SensorTimeout returns the blocking range read timeout.
func (c *Config) SensorTimeout() time.Duration {
	return time.Duration(c.RangeSensor.TimeoutMs) * time.Millisecond
}

// MinPulse returns the servo pulse width at 0°.
func (c *Config) MinPulse() time.Duration {
	return time.Duration(c.TiltServo.MinPulseUs) * time.Microsecond
}

// MaxPulse returns the servo pulse width at the end of its range.
func (c *Config) MaxPulse() time.Duration {
	return time.Duration(c.TiltServo.MaxPulseUs) * time.Microsecond
}
