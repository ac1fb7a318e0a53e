package stepper

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func collect(p Profile) []Pulse {
	var out []Pulse
	for pulse := range p.Pulses() {
		out = append(out, pulse)
	}
	return out
}

func TestNewProfile_Split(t *testing.T) {
	cases := []struct {
		name                string
		steps               int
		fraction            float64
		total, ramp, cruise int
		dir                 Direction
	}{
		{"zero", 0, 0.2, 0, 0, 0, Forward},
		{"single step half ramp", 1, 0.5, 1, 0, 1, Forward},
		{"five steps", 5, 0.2, 5, 1, 3, Forward},
		{"self test", 200, 0.2, 200, 40, 120, Forward},
		{"reverse", -10, 0.2, 10, 2, 6, Reverse},
		{"all ramp", 10, 0.5, 10, 5, 0, Forward},
		{"fraction clamped", 10, 0.9, 10, 5, 0, Forward},
		{"negative fraction", 10, -1, 10, 0, 10, Forward},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := NewProfile(tc.steps, 5*time.Millisecond, 20*time.Millisecond, tc.fraction)
			if p.TotalSteps != tc.total || p.RampSteps != tc.ramp || p.CruiseSteps != tc.cruise {
				t.Errorf("split = %d/%d/%d, want %d/%d/%d",
					p.TotalSteps, p.RampSteps, p.CruiseSteps, tc.total, tc.ramp, tc.cruise)
			}
			if p.Direction != tc.dir {
				t.Errorf("direction = %v, want %v", p.Direction, tc.dir)
			}
			if got := len(collect(p)); got != tc.total {
				t.Errorf("yielded %d pulses, want %d", got, tc.total)
			}
		})
	}
}

func TestProfile_Delays(t *testing.T) {
	p := NewProfile(10, 4*time.Millisecond, 12*time.Millisecond, 0.2)
	ms := time.Millisecond
	want := []Pulse{
		{Index: 0, Phase: PhaseRampUp, Delay: 12 * ms},
		{Index: 1, Phase: PhaseRampUp, Delay: 8 * ms},
		{Index: 2, Phase: PhaseCruise, Delay: 4 * ms},
		{Index: 3, Phase: PhaseCruise, Delay: 4 * ms},
		{Index: 4, Phase: PhaseCruise, Delay: 4 * ms},
		{Index: 5, Phase: PhaseCruise, Delay: 4 * ms},
		{Index: 6, Phase: PhaseCruise, Delay: 4 * ms},
		{Index: 7, Phase: PhaseCruise, Delay: 4 * ms},
		{Index: 8, Phase: PhaseRampDown, Delay: 4 * ms},
		{Index: 9, Phase: PhaseRampDown, Delay: 8 * ms},
	}
	if diff := cmp.Diff(want, collect(p)); diff != "" {
		t.Errorf("pulses mismatch (-want +got):\n%s", diff)
	}
}

func TestProfile_RampIsMonotonic(t *testing.T) {
	p := NewProfile(200, 5*time.Millisecond, 20*time.Millisecond, 0.2)
	var prev time.Duration
	for pulse := range p.Pulses() {
		switch pulse.Phase {
		case PhaseRampUp:
			if pulse.Index > 0 && pulse.Delay > prev {
				t.Fatalf("ramp-up delay grew at %d: %v > %v", pulse.Index, pulse.Delay, prev)
			}
		case PhaseRampDown:
			if pulse.Delay < prev {
				t.Fatalf("ramp-down delay shrank at %d: %v < %v", pulse.Index, pulse.Delay, prev)
			}
		case PhaseCruise:
			if pulse.Delay != 5*time.Millisecond {
				t.Fatalf("cruise delay at %d = %v, want 5ms", pulse.Index, pulse.Delay)
			}
		}
		if pulse.Delay < 5*time.Millisecond || pulse.Delay > 20*time.Millisecond {
			t.Fatalf("delay %v at %d outside [min,max]", pulse.Delay, pulse.Index)
		}
		prev = pulse.Delay
	}
}

func TestProfile_EarlyBreak(t *testing.T) {
	p := NewProfile(100, time.Millisecond, 2*time.Millisecond, 0.2)
	n := 0
	for range p.Pulses() {
		n++
		if n == 3 {
			break
		}
	}
	if n != 3 {
		t.Errorf("iterated %d pulses after break, want 3", n)
	}
}

func TestNewProfile_InvertedDelays(t *testing.T) {
	p := NewProfile(4, 10*time.Millisecond, 2*time.Millisecond, 0.25)
	for pulse := range p.Pulses() {
		if pulse.Delay != 10*time.Millisecond {
			t.Errorf("pulse %d delay = %v, want flat 10ms", pulse.Index, pulse.Delay)
		}
	}
}

func TestVirtualClock(t *testing.T) {
	c := &VirtualClock{}
	c.Sleep(3 * time.Millisecond)
	c.Sleep(2 * time.Millisecond)
	if c.Elapsed != 5*time.Millisecond || c.Sleeps != 2 {
		t.Errorf("clock = %+v, want 5ms over 2 sleeps", *c)
	}
}
