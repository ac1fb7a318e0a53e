// Package rangefinder reads calibrated distances from a time-of-flight sensor.
package rangefinder

import (
	"errors"
	"fmt"

	"github.com/cjeanneret/ScanGo/internal/debug"
)

// ErrSensorFault wraps every failed range read.
var ErrSensorFault = errors.New("sensor fault")

// FaultDistance is reported on the wire when a reading failed.
const FaultDistance = -1

// Ranger returns raw range readings in millimetres.
type Ranger interface {
	Range() (int, error)
}

// Adapter subtracts the mechanical standoff of the sensor from each raw
// reading so distances are measured from the rotation axis.
type Adapter struct {
	ranger Ranger
	offset int
}

// NewAdapter wraps a ranger with a fixed offset in millimetres.
func NewAdapter(r Ranger, offsetMm int) *Adapter {
	return &Adapter{ranger: r, offset: offsetMm}
}

// Name returns the sensor model when the ranger reports one.
func (a *Adapter) Name() string {
	if n, ok := a.ranger.(interface{ Name() string }); ok {
		return n.Name()
	}
	return "Sensor"
}

// ReadDistance returns raw - offset. Failures are not retried and always
// match ErrSensorFault.
func (a *Adapter) ReadDistance() (int, error) {
	raw, err := a.ranger.Range()
	if err != nil {
		if !errors.Is(err, ErrSensorFault) {
			err = fmt.Errorf("%w: %w", ErrSensorFault, err)
		}
		return FaultDistance, err
	}
	debug.Trace("Range: raw %d mm, offset %d mm", raw, a.offset)
	return raw - a.offset, nil
}

// Mock returns a fixed raw reading, or Err when set.
type Mock struct {
	DistanceMm int
	Err        error
}

func (m *Mock) Name() string { return "Mock sensor" }

func (m *Mock) Range() (int, error) {
	if m.Err != nil {
		return 0, m.Err
	}
	return m.DistanceMm, nil
}
