// Package link carries the line protocol between the host and the controller.
package link

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/cjeanneret/ScanGo/internal/debug"
	"go.bug.st/serial"
)

// Link is a byte stream polled by the main loop. Read waits at most one poll
// interval and returns 0 bytes with a nil error when nothing arrived.
// io.EOF means the peer is gone for good.
type Link interface {
	io.ReadWriteCloser
}

// SerialLink is a Link over a serial device.
type SerialLink struct {
	port serial.Port
	name string
}

// OpenSerial opens device with the given line parameters. poll bounds how
// long a Read may block.
func OpenSerial(device string, opts PortOptions, poll time.Duration) (*SerialLink, error) {
	mode, err := opts.SerialMode()
	if err != nil {
		return nil, err
	}
	port, err := serial.Open(device, mode)
	if err != nil {
		return nil, fmt.Errorf("open serial %s: %w", device, err)
	}
	if poll <= 0 {
		poll = 10 * time.Millisecond
	}
	if err := port.SetReadTimeout(poll); err != nil {
		port.Close()
		return nil, fmt.Errorf("set read timeout on %s: %w", device, err)
	}
	debug.Info("Serial link %s open (%d baud, poll %v)", device, mode.BaudRate, poll)
	return &SerialLink{port: port, name: device}, nil
}

func (l *SerialLink) Read(p []byte) (int, error) {
	n, err := l.port.Read(p)
	if err != nil {
		var pe *serial.PortError
		if errors.As(err, &pe) && pe.Code() == serial.PortClosed {
			return n, io.EOF
		}
		return n, err
	}
	if n > 0 {
		debug.Trace("serial <- %q", p[:n])
	}
	return n, nil
}

func (l *SerialLink) Write(p []byte) (int, error) {
	debug.Trace("serial -> %q", p)
	return l.port.Write(p)
}

func (l *SerialLink) Close() error {
	return l.port.Close()
}

func (l *SerialLink) String() string {
	return l.name
}

// Ports lists the serial devices present on the system.
func Ports() ([]string, error) {
	return serial.GetPortsList()
}
