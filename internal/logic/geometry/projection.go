package geometry

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Projection turns axis positions and distances into points around the
// turntable centre. The Z axis is the turntable axis, tilt 0 looks straight
// up it and tilt 90 looks horizontally at the object.
type Projection struct {
	degreesPerUnit float64
}

// NewProjection takes the number of base units in one turntable revolution.
func NewProjection(baseUnitsPerRev int) Projection {
	if baseUnitsPerRev <= 0 {
		baseUnitsPerRev = 200
	}
	return Projection{degreesPerUnit: 360.0 / float64(baseUnitsPerRev)}
}

// AzimuthDegrees converts a base position to degrees of turntable rotation.
func (p Projection) AzimuthDegrees(base int) float64 {
	return float64(base) * p.degreesPerUnit
}

// Point projects a distance in millimetres taken at (base, tilt).
func (p Projection) Point(base, tilt, distanceMm int) r3.Vec {
	phi := p.AzimuthDegrees(base) * math.Pi / 180
	theta := float64(tilt) * math.Pi / 180
	dir := r3.Vec{
		X: math.Sin(theta) * math.Cos(phi),
		Y: math.Sin(theta) * math.Sin(phi),
		Z: math.Cos(theta),
	}
	return r3.Scale(float64(distanceMm), dir)
}
