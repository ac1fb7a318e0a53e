package scanner

// EventKind tells observers what happened.
type EventKind int

const (
	EventState        EventKind = iota // axis state changed
	EventScanStarted                   // idle to scanning
	EventSample                        // a tick produced a POSX sample
	EventScanStopped                   // pause, e_stop or reset interrupted a scan
	EventScanComplete                  // the tilt sweep wrapped
)

func (k EventKind) String() string {
	switch k {
	case EventState:
		return "state"
	case EventScanStarted:
		return "scan_started"
	case EventSample:
		return "sample"
	case EventScanStopped:
		return "scan_stopped"
	case EventScanComplete:
		return "scan_complete"
	}
	return "unknown"
}

// Event carries the state after the change. Sample is set for EventSample only.
type Event struct {
	Kind   EventKind
	State  State
	Sample Sample
}

// Observer receives events on the loop goroutine. Implementations must not
// block and must copy what they keep.
type Observer interface {
	Observe(Event)
}
