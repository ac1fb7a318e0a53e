package rangefinder

import (
	"fmt"
	"time"

	"github.com/cjeanneret/ScanGo/internal/debug"
	"go.uber.org/multierr"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
	"tinygo.org/x/drivers"
	"tinygo.org/x/drivers/vl53l1x"
)

// VL53L1XConfig selects the bus and ranging parameters.
type VL53L1XConfig struct {
	Bus          string // periph bus name, "" = first bus
	Address      uint16
	TimingBudget time.Duration
	Timeout      time.Duration
}

// VL53L1X is a sensor in continuous ranging mode.
type VL53L1X struct {
	dev vl53l1x.Device
	bus i2c.BusCloser
}

// Name is used in boot status lines.
func (s *VL53L1X) Name() string { return "VL53L1X" }

// OpenVL53L1X opens the I2C bus through periph and starts continuous ranging.
func OpenVL53L1X(cfg VL53L1XConfig) (*VL53L1X, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("init periph host: %w", err)
	}
	bus, err := i2creg.Open(cfg.Bus)
	if err != nil {
		return nil, fmt.Errorf("open I2C bus %q: %w", cfg.Bus, err)
	}
	debug.Verbose("I2C bus %v opened", bus)

	s, err := startVL53L1X(bus, cfg)
	if err != nil {
		return nil, multierr.Append(err, bus.Close())
	}
	s.bus = bus
	return s, nil
}

func startVL53L1X(bus drivers.I2C, cfg VL53L1XConfig) (*VL53L1X, error) {
	s := &VL53L1X{dev: vl53l1x.New(bus)}
	if cfg.Address != 0 {
		s.dev.Address = cfg.Address
	}
	if cfg.Timeout > 0 {
		s.dev.SetTimeout(uint32(cfg.Timeout / time.Millisecond))
	}

	if !s.dev.Configure(true) {
		return nil, fmt.Errorf("%w: no VL53L1X at 0x%02x", ErrSensorFault, s.dev.Address)
	}
	budget := cfg.TimingBudget
	if budget <= 0 {
		budget = 200 * time.Millisecond
	}
	if !s.dev.SetMeasurementTimingBudget(uint32(budget / time.Microsecond)) {
		return nil, fmt.Errorf("%w: timing budget %v rejected", ErrSensorFault, budget)
	}
	// The inter-measurement period cannot be shorter than the budget.
	s.dev.StartContinuous(uint32(budget / time.Millisecond))

	debug.Info("VL53L1X ranging at 0x%02x, budget %v", s.dev.Address, budget)
	return s, nil
}

// Range blocks until a measurement is ready or the driver times out.
func (s *VL53L1X) Range() (int, error) {
	mm := s.dev.Read(true)
	switch st := s.dev.Status(); st {
	case vl53l1x.RangeValid, vl53l1x.RangeValidMinRangeClipped, vl53l1x.RangeValidNoWrapCheckFail:
		return int(mm), nil
	case vl53l1x.None:
		return 0, fmt.Errorf("%w: read timed out", ErrSensorFault)
	default:
		return 0, fmt.Errorf("%w: range status %d", ErrSensorFault, st)
	}
}

// Close stops ranging and releases the bus.
func (s *VL53L1X) Close() error {
	s.dev.StopContinuous()
	if s.bus == nil {
		return nil
	}
	return s.bus.Close()
}
