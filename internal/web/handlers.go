package web

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"log"
	"net/http"
	"time"

	"github.com/cjeanneret/ScanGo/internal/logic/geometry"
)

// CloudSource provides the latest scan session.
type CloudSource interface {
	Snapshot() (geometry.Session, bool)
}

// Handlers holds dependencies for HTTP handlers. Every route is read-only:
// commands reach the controller through the serial link only.
type Handlers struct {
	Broadcaster *StatusBroadcaster
	Telemetry   *Telemetry
	Cloud       CloudSource
	staticFS    fs.FS
}

func NewHandlers(broadcaster *StatusBroadcaster, telemetry *Telemetry, cloud CloudSource, staticFS fs.FS) *Handlers {
	return &Handlers{
		Broadcaster: broadcaster,
		Telemetry:   telemetry,
		Cloud:       cloud,
		staticFS:    staticFS,
	}
}

// ServeIndex serves the main HTML page (root path only).
func (h *Handlers) ServeIndex(w http.ResponseWriter, r *http.Request) {
	data, err := fs.ReadFile(h.staticFS, "index.html")
	if err != nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(data)
}

// HandleStatus returns the latest telemetry as JSON.
func (h *Handlers) HandleStatus(w http.ResponseWriter, r *http.Request) {
	snap := h.Telemetry.Snapshot()
	if s, ok := h.Cloud.Snapshot(); ok {
		snap.Session = &SessionSummary{
			ID:       s.ID.String(),
			Running:  s.Running(),
			Complete: s.Complete,
			Samples:  s.Samples,
			Faults:   s.Faults,
			Points:   len(s.Points),
		}
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(snap); err != nil {
		log.Printf("web: encode status: %v", err)
	}
}

// HandlePoints exports the latest session as XYZ (default) or PLY.
func (h *Handlers) HandlePoints(w http.ResponseWriter, r *http.Request) {
	s, ok := h.Cloud.Snapshot()
	if !ok {
		http.Error(w, "no scan yet", http.StatusNotFound)
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		format = "xyz"
	}
	var write func() error
	switch format {
	case "xyz":
		write = func() error { return geometry.WriteXYZ(w, s.Points) }
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	case "ply":
		write = func() error { return geometry.WritePLY(w, s) }
		w.Header().Set("Content-Type", "application/octet-stream")
	default:
		http.Error(w, fmt.Sprintf("unsupported format %q (use xyz or ply)", format), http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"scan-%s.%s\"", s.ID, format))
	if err := write(); err != nil {
		log.Printf("web: export %s: %v", format, err)
	}
}

// HandlePointsChart renders the latest session as a top-view scatter chart.
func (h *Handlers) HandlePointsChart(w http.ResponseWriter, r *http.Request) {
	s, ok := h.Cloud.Snapshot()
	if !ok {
		http.Error(w, "no scan yet", http.StatusNotFound)
		return
	}
	page, err := renderPointsChart(s)
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to render chart: %v", err), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(page)
}

// HandleStatusStream handles GET /status/stream for SSE.
func (h *Handlers) HandleStatusStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // nginx

	ch, unsub := h.Broadcaster.Subscribe()
	defer unsub()

	// Send initial comment to establish connection
	w.Write([]byte(": connected\n\n"))
	flusher.Flush()

	// Heartbeat while idle
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return
			}
			w.Write([]byte("data: " + msg + "\n\n"))
			flusher.Flush()

		case <-ticker.C:
			w.Write([]byte(": heartbeat\n\n"))
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}
