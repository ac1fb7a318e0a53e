package scanner

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/cjeanneret/ScanGo/internal/hw/rangefinder"
)

// fakeMover records axis commands.
type fakeMover struct {
	baseSteps []int
	tilts     []int
	baseErr   error
	tiltErr   error
	panicOn   int // MoveBase panics on this call number when > 0
}

func (m *fakeMover) MoveBase(steps int) error {
	m.baseSteps = append(m.baseSteps, steps)
	if m.panicOn > 0 && len(m.baseSteps) == m.panicOn {
		panic("stepper exploded")
	}
	return m.baseErr
}

func (m *fakeMover) SetTilt(angle int) error {
	if m.tiltErr != nil {
		return m.tiltErr
	}
	m.tilts = append(m.tilts, angle)
	return nil
}

// fakeSensor returns a fixed distance or an error.
type fakeSensor struct {
	distance int
	err      error
	reads    int
}

func (s *fakeSensor) Name() string { return "Fake" }

func (s *fakeSensor) ReadDistance() (int, error) {
	s.reads++
	if s.err != nil {
		return rangefinder.FaultDistance, s.err
	}
	return s.distance, nil
}

// recorder collects observer events.
type recorder struct {
	events []Event
}

func (r *recorder) Observe(e Event) { r.events = append(r.events, e) }

func (r *recorder) kinds() []EventKind {
	var out []EventKind
	for _, e := range r.events {
		out = append(out, e.Kind)
	}
	return out
}

type harness struct {
	ctrl   *Controller
	mover  *fakeMover
	sensor *fakeSensor
	out    *bytes.Buffer
	events *recorder
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		mover:  &fakeMover{},
		sensor: &fakeSensor{distance: 130},
		out:    &bytes.Buffer{},
		events: &recorder{},
	}
	h.ctrl = New(h.mover, NewResponder(h.out), DefaultLimits())
	h.ctrl.ranger = h.sensor
	h.ctrl.AddObserver(h.events)
	return h
}

// send dispatches line and returns the lines written in response.
func (h *harness) send(line string) []string {
	h.out.Reset()
	h.ctrl.HandleLine(line)
	return h.lines()
}

func (h *harness) lines() []string {
	s := strings.TrimSuffix(h.out.String(), "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

func (h *harness) tick(n int) {
	for range n {
		_ = h.ctrl.Tick()
	}
}

var errBoom = errors.New("boom")
