package geometry

import (
	"testing"
	"time"

	"github.com/cjeanneret/ScanGo/internal/logic/scanner"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func sampleEvent(base, tilt, dist int) scanner.Event {
	return scanner.Event{Kind: scanner.EventSample, Sample: scanner.Sample{Base: base, Tilt: tilt, Distance: dist}}
}

func newTestCloud() *Cloud {
	c := NewCloud(scanner.DefaultLimits())
	t0 := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	c.now = func() time.Time { return t0 }
	return c
}

func TestCloud_NoSessionBeforeScan(t *testing.T) {
	c := newTestCloud()
	c.Observe(sampleEvent(5, 0, 100))

	_, ok := c.Snapshot()
	assert.False(t, ok)
}

func TestCloud_CollectsValidSamples(t *testing.T) {
	c := newTestCloud()
	c.Observe(scanner.Event{Kind: scanner.EventScanStarted})
	c.Observe(sampleEvent(50, 90, 100))
	c.Observe(sampleEvent(55, 90, -1))
	c.Observe(sampleEvent(60, 90, 80))

	s, ok := c.Snapshot()
	require.True(t, ok)
	assert.NotEqual(t, uuid.Nil, s.ID)
	assert.True(t, s.Running())
	assert.Equal(t, 3, s.Samples)
	assert.Equal(t, 1, s.Faults)
	require.Len(t, s.Points, 2)
	assert.InDelta(t, 100, s.Points[0].Pos.Y, 1e-9)
	assert.Equal(t, 60, s.Points[1].Base)
}

func TestCloud_SessionLifecycle(t *testing.T) {
	c := newTestCloud()
	c.Observe(scanner.Event{Kind: scanner.EventScanStarted})
	c.Observe(sampleEvent(5, 0, 100))
	c.Observe(scanner.Event{Kind: scanner.EventScanComplete})
	first, _ := c.Snapshot()
	assert.False(t, first.Running())
	assert.True(t, first.Complete)

	// Samples after the end are ignored.
	c.Observe(sampleEvent(10, 0, 100))
	again, _ := c.Snapshot()
	assert.Len(t, again.Points, 1)

	c.Observe(scanner.Event{Kind: scanner.EventScanStarted})
	second, _ := c.Snapshot()
	assert.NotEqual(t, first.ID, second.ID)
	assert.Empty(t, second.Points)

	c.Observe(scanner.Event{Kind: scanner.EventScanStopped})
	stopped, _ := c.Snapshot()
	assert.False(t, stopped.Complete)
	assert.False(t, stopped.Running())
}

func TestCloud_SnapshotIsCopy(t *testing.T) {
	c := newTestCloud()
	c.Observe(scanner.Event{Kind: scanner.EventScanStarted})
	c.Observe(sampleEvent(5, 90, 100))

	s, _ := c.Snapshot()
	s.Points[0].Distance = 999
	again, _ := c.Snapshot()
	assert.Equal(t, 100, again.Points[0].Distance)
}

func TestCloud_FromController(t *testing.T) {
	c := newTestCloud()
	ctrl := scanner.New(nopMover{}, scanner.NewResponder(discard{}), scanner.DefaultLimits())
	ctrl.AddObserver(c)

	ctrl.HandleLine("scan")
	for range 1440 {
		_ = ctrl.Tick()
	}
	s, ok := c.Snapshot()
	require.True(t, ok)
	assert.True(t, s.Complete)
	assert.Equal(t, 1440, s.Samples)
	// No sensor attached: every sample is a fault.
	assert.Equal(t, 1440, s.Faults)
}

func TestSession_Bounds(t *testing.T) {
	assert.Equal(t, r3.Box{}, Session{}.Bounds())

	c := newTestCloud()
	c.Observe(scanner.Event{Kind: scanner.EventScanStarted})
	c.Observe(sampleEvent(0, 90, 100))  // +X
	c.Observe(sampleEvent(100, 90, 50)) // -X
	c.Observe(sampleEvent(0, 0, 30))    // +Z
	s, _ := c.Snapshot()

	b := s.Bounds()
	assert.InDelta(t, -50, b.Min.X, 1e-9)
	assert.InDelta(t, 100, b.Max.X, 1e-9)
	assert.InDelta(t, 30, b.Max.Z, 1e-9)
}

type nopMover struct{}

func (nopMover) MoveBase(int) error { return nil }
func (nopMover) SetTilt(int) error  { return nil }

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }
