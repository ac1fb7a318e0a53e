package scanner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/cjeanneret/ScanGo/internal/debug"
)

// ErrLinkClosed ends Run when the link reports io.EOF.
var ErrLinkClosed = errors.New("link closed")

// Loop is the single-threaded main loop: drain the link, dispatch every
// line, then run one scan tick.
type Loop struct {
	link    io.Reader
	ctrl    *Controller
	buf     []byte
	backoff time.Duration
}

// NewLoop reads from link in chunks of up to 256 bytes. backoff is slept
// after a failed read.
func NewLoop(link io.Reader, ctrl *Controller, backoff time.Duration) *Loop {
	return &Loop{
		link:    link,
		ctrl:    ctrl,
		buf:     make([]byte, 256),
		backoff: backoff,
	}
}

// Iterate runs one pass. Reads continue while they fill the buffer, so a
// burst of commands is handled before the next tick.
func (l *Loop) Iterate() error {
	var readErr error
	for {
		n, err := l.link.Read(l.buf)
		if n > 0 {
			l.ctrl.Feed(l.buf[:n])
		}
		if err != nil {
			readErr = err
			break
		}
		if n < len(l.buf) {
			break
		}
	}
	if errors.Is(readErr, io.EOF) {
		return ErrLinkClosed
	}
	if readErr != nil {
		debug.Error(fmt.Errorf("read link: %w", readErr))
		time.Sleep(l.backoff)
	}

	// Tick errors were already sent to the host.
	_ = l.ctrl.Tick()
	return nil
}

// Run iterates until ctx is cancelled or the link closes.
func (l *Loop) Run(ctx context.Context) error {
	debug.Info("Main loop running")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err := l.Iterate(); err != nil {
			return err
		}
	}
}
