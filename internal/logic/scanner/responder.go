package scanner

import (
	"io"
	"sync"

	"github.com/cjeanneret/ScanGo/internal/debug"
)

// Responder writes newline-terminated lines to the host and copies each line
// to its tees.
type Responder struct {
	mu   sync.Mutex
	w    io.Writer
	tees []func(line string)
}

func NewResponder(w io.Writer) *Responder {
	return &Responder{w: w}
}

// Tee registers fn to see every line sent. fn runs with the responder locked.
func (r *Responder) Tee(fn func(line string)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tees = append(r.tees, fn)
}

// Send writes line followed by "\n".
func (r *Responder) Send(line string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	debug.Reply(line)
	for _, fn := range r.tees {
		fn(line)
	}
	_, err := io.WriteString(r.w, line+"\n")
	return err
}

// Error sends "ERROR <err>".
func (r *Responder) Error(err error) error {
	return r.Send("ERROR " + err.Error())
}
