package stepper

import (
	"fmt"
	"iter"
	"time"
)

// Direction of a move.
type Direction int

const (
	Forward Direction = iota
	Reverse
)

func (d Direction) String() string {
	if d == Reverse {
		return "backward"
	}
	return "forward"
}

// Phase of a trapezoidal move.
type Phase int

const (
	PhaseRampUp Phase = iota
	PhaseCruise
	PhaseRampDown
)

func (p Phase) String() string {
	switch p {
	case PhaseRampUp:
		return "ramp-up"
	case PhaseCruise:
		return "cruise"
	case PhaseRampDown:
		return "ramp-down"
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

// Profile is a trapezoidal pulse train: RampSteps pulses accelerating from
// MaxDelay to MinDelay, CruiseSteps pulses at MinDelay, then RampSteps
// pulses decelerating back. Delays are half-periods of the STEP signal.
type Profile struct {
	TotalSteps  int
	RampSteps   int
	CruiseSteps int
	MinDelay    time.Duration
	MaxDelay    time.Duration
	Direction   Direction
}

// Pulse is one STEP pulse of a profile.
type Pulse struct {
	Index int // position in the whole move
	Phase Phase
	Delay time.Duration // held after each edge
}

// NewProfile builds the ramp for a signed step count. fraction is clamped to
// [0, 0.5] and a MinDelay above MaxDelay is treated as a flat profile.
func NewProfile(steps int, minDelay, maxDelay time.Duration, fraction float64) Profile {
	p := Profile{MinDelay: minDelay, MaxDelay: maxDelay}
	if steps < 0 {
		p.Direction = Reverse
		steps = -steps
	}
	if maxDelay < minDelay {
		p.MaxDelay = minDelay
	}
	fraction = min(max(fraction, 0), 0.5)

	p.TotalSteps = steps
	p.RampSteps = int(float64(steps) * fraction)
	p.CruiseSteps = max(0, steps-2*p.RampSteps)
	return p
}

// Pulses yields every pulse in order.
func (p Profile) Pulses() iter.Seq[Pulse] {
	return func(yield func(Pulse) bool) {
		n := p.RampSteps
		span := p.MaxDelay - p.MinDelay
		idx := 0
		for i := range n {
			if !yield(Pulse{Index: idx, Phase: PhaseRampUp, Delay: p.MaxDelay - span*time.Duration(i)/time.Duration(n)}) {
				return
			}
			idx++
		}
		for range p.CruiseSteps {
			if !yield(Pulse{Index: idx, Phase: PhaseCruise, Delay: p.MinDelay}) {
				return
			}
			idx++
		}
		for i := range n {
			if !yield(Pulse{Index: idx, Phase: PhaseRampDown, Delay: p.MinDelay + span*time.Duration(i)/time.Duration(n)}) {
				return
			}
			idx++
		}
	}
}

// Duration returns the total time the profile takes, both edges included.
func (p Profile) Duration() time.Duration {
	var d time.Duration
	for pulse := range p.Pulses() {
		d += 2 * pulse.Delay
	}
	return d
}

// Clock sleeps between STEP edges.
type Clock interface {
	Sleep(d time.Duration)
}

// RealClock sleeps on the wall clock.
type RealClock struct{}

func (RealClock) Sleep(d time.Duration) { time.Sleep(d) }

// VirtualClock accumulates requested sleeps without blocking.
type VirtualClock struct {
	Elapsed time.Duration
	Sleeps  int
}

func (c *VirtualClock) Sleep(d time.Duration) {
	c.Elapsed += d
	c.Sleeps++
}
