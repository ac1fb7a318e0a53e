// Package scanner runs the line protocol and the raster sweep of the scanner.
package scanner

import "fmt"

// State is the axis state owned by a Controller.
type State struct {
	BaseAngle int  `json:"base"` // base units in [0, BaseRange)
	TiltAngle int  `json:"tilt"` // degrees in [0, TiltRange)
	Scanning  bool `json:"scanning"`
}

func (s State) String() string {
	return fmt.Sprintf("base=%d tilt=%d scanning=%t", s.BaseAngle, s.TiltAngle, s.Scanning)
}

// Limits sets the sweep increments and the wraparound bounds of both axes.
type Limits struct {
	BaseIncrement int // base units advanced per tick, one base unit = one motor step
	TiltIncrement int // degrees advanced per base revolution
	BaseRange     int
	TiltRange     int
}

// DefaultLimits is a 200-step turntable and a 180° tilt, both stepped by 5.
func DefaultLimits() Limits {
	return Limits{BaseIncrement: 5, TiltIncrement: 5, BaseRange: 200, TiltRange: 180}
}

// TicksPerScan is the number of ticks a full sweep from (0, 0) takes.
func (l Limits) TicksPerScan() int {
	perRev := (l.BaseRange + l.BaseIncrement - 1) / l.BaseIncrement
	revs := (l.TiltRange + l.TiltIncrement - 1) / l.TiltIncrement
	return perRev * revs
}

// Sample is one distance reading tagged with the axis position it was taken at.
type Sample struct {
	Base     int `json:"base"`
	Tilt     int `json:"tilt"`
	Distance int `json:"distance"` // mm, -1 when the sensor faulted
}

// Valid reports whether the sensor returned a reading.
func (s Sample) Valid() bool {
	return s.Distance >= 0
}
