package web

import (
	"sync"
	"time"

	"github.com/cjeanneret/ScanGo/internal/logic/scanner"
)

// Telemetry keeps the latest controller state for GET /status. It observes
// the controller on the loop goroutine and is read by HTTP handlers.
type Telemetry struct {
	now func() time.Time

	mu      sync.RWMutex
	state   scanner.State
	last    *scanner.Sample
	scans   int
	updated time.Time
}

// TelemetrySnapshot is the JSON body of GET /status.
type TelemetrySnapshot struct {
	State   scanner.State   `json:"state"`
	Last    *scanner.Sample `json:"last_sample,omitempty"`
	Scans   int             `json:"scans"`
	Updated time.Time       `json:"updated"`
	Session *SessionSummary `json:"session,omitempty"`
}

// SessionSummary describes the latest point cloud session.
type SessionSummary struct {
	ID       string `json:"id"`
	Running  bool   `json:"running"`
	Complete bool   `json:"complete"`
	Samples  int    `json:"samples"`
	Faults   int    `json:"faults"`
	Points   int    `json:"points"`
}

func NewTelemetry() *Telemetry {
	return &Telemetry{now: time.Now}
}

// Observe implements scanner.Observer.
func (t *Telemetry) Observe(e scanner.Event) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.state = e.State
	t.updated = t.now()
	switch e.Kind {
	case scanner.EventSample:
		s := e.Sample
		t.last = &s
	case scanner.EventScanStarted:
		t.scans++
		t.last = nil
	}
}

// Snapshot returns the latest values. Session is left nil.
func (t *Telemetry) Snapshot() TelemetrySnapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()

	snap := TelemetrySnapshot{State: t.state, Scans: t.scans, Updated: t.updated}
	if t.last != nil {
		s := *t.last
		snap.Last = &s
	}
	return snap
}
