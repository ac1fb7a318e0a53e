package geometry

import (
	"math"
	"sync"
	"time"

	"github.com/cjeanneret/ScanGo/internal/debug"
	"github.com/cjeanneret/ScanGo/internal/logic/scanner"
	"github.com/google/uuid"
	"gonum.org/v1/gonum/spatial/r3"
)

// Point is a projected sample.
type Point struct {
	scanner.Sample
	Pos r3.Vec
}

// Session is one scan from "scan" to completion or interruption.
type Session struct {
	ID       uuid.UUID
	Started  time.Time
	Ended    time.Time // zero while running
	Complete bool
	Samples  int // POSX lines seen, faults included
	Faults   int
	Points   []Point
}

// Running reports whether the session is still collecting samples.
func (s Session) Running() bool {
	return s.Ended.IsZero()
}

// Bounds returns the box enclosing every point. It is the zero Box when
// there are no points.
func (s Session) Bounds() r3.Box {
	if len(s.Points) == 0 {
		return r3.Box{}
	}
	lo := r3.Vec{X: math.Inf(1), Y: math.Inf(1), Z: math.Inf(1)}
	hi := r3.Vec{X: math.Inf(-1), Y: math.Inf(-1), Z: math.Inf(-1)}
	for _, p := range s.Points {
		lo = r3.Vec{X: math.Min(lo.X, p.Pos.X), Y: math.Min(lo.Y, p.Pos.Y), Z: math.Min(lo.Z, p.Pos.Z)}
		hi = r3.Vec{X: math.Max(hi.X, p.Pos.X), Y: math.Max(hi.Y, p.Pos.Y), Z: math.Max(hi.Z, p.Pos.Z)}
	}
	return r3.Box{Min: lo, Max: hi}
}

// Cloud collects the points of the current scan session. It observes a
// scanner.Controller and is safe to read from other goroutines.
type Cloud struct {
	p   Projection
	now func() time.Time

	mu      sync.RWMutex
	session *Session
}

// NewCloud projects samples with the base range of limits.
func NewCloud(limits scanner.Limits) *Cloud {
	return &Cloud{
		p:   NewProjection(limits.BaseRange),
		now: time.Now,
	}
}

// Observe implements scanner.Observer.
func (c *Cloud) Observe(e scanner.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch e.Kind {
	case scanner.EventScanStarted:
		c.session = &Session{ID: uuid.New(), Started: c.now()}
		debug.Info("Point cloud: session %s", c.session.ID)
	case scanner.EventSample:
		if c.session == nil || !c.session.Running() {
			return
		}
		c.session.Samples++
		if !e.Sample.Valid() {
			c.session.Faults++
			return
		}
		c.session.Points = append(c.session.Points, Point{
			Sample: e.Sample,
			Pos:    c.p.Point(e.Sample.Base, e.Sample.Tilt, e.Sample.Distance),
		})
	case scanner.EventScanStopped, scanner.EventScanComplete:
		if c.session == nil || !c.session.Running() {
			return
		}
		c.session.Ended = c.now()
		c.session.Complete = e.Kind == scanner.EventScanComplete
		debug.Info("Point cloud: session %s ended with %d points (%d faults)",
			c.session.ID, len(c.session.Points), c.session.Faults)
	}
}

// Snapshot returns a copy of the latest session. ok is false before the
// first scan.
func (c *Cloud) Snapshot() (s Session, ok bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.session == nil {
		return Session{}, false
	}
	s = *c.session
	s.Points = append([]Point(nil), c.session.Points...)
	return s, true
}
