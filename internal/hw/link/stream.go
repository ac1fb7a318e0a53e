package link

import (
	"io"
	"sync"
	"time"
)

// StreamLink adapts a blocking reader (stdin, a pipe) to the polling Link
// contract. A goroutine pumps reads into a buffered channel.
type StreamLink struct {
	w      io.Writer
	closer io.Closer
	chunks chan []byte
	wait   time.Duration

	pending []byte
	done    chan struct{}
	once    sync.Once
	mu      sync.Mutex // serializes writes
}

// NewStreamLink starts pumping r. wait bounds how long an idle Read blocks.
// If r is an io.Closer it is closed by Close.
func NewStreamLink(r io.Reader, w io.Writer, wait time.Duration) *StreamLink {
	l := &StreamLink{
		w:      w,
		chunks: make(chan []byte, 64),
		wait:   wait,
		done:   make(chan struct{}),
	}
	if c, ok := r.(io.Closer); ok {
		l.closer = c
	}
	go l.pump(r)
	return l
}

func (l *StreamLink) pump(r io.Reader) {
	defer close(l.chunks)
	buf := make([]byte, 256)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			select {
			case l.chunks <- chunk:
			case <-l.done:
				return
			}
		}
		if err != nil {
			return
		}
	}
}

func (l *StreamLink) Read(p []byte) (int, error) {
	if len(l.pending) == 0 {
		chunk, ok, idle := l.next()
		if idle {
			return 0, nil
		}
		if !ok {
			return 0, io.EOF
		}
		l.pending = chunk
	}
	n := copy(p, l.pending)
	l.pending = l.pending[n:]
	return n, nil
}

// next waits up to l.wait for a chunk. ok is false once the stream ended or
// the link was closed.
func (l *StreamLink) next() (chunk []byte, ok, idle bool) {
	if l.wait <= 0 {
		select {
		case chunk, ok = <-l.chunks:
			return chunk, ok, false
		case <-l.done:
			return nil, false, false
		default:
			return nil, false, true
		}
	}
	t := time.NewTimer(l.wait)
	defer t.Stop()
	select {
	case chunk, ok = <-l.chunks:
		return chunk, ok, false
	case <-l.done:
		return nil, false, false
	case <-t.C:
		return nil, false, true
	}
}

func (l *StreamLink) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

// Close stops the pump. Reads after Close return io.EOF.
func (l *StreamLink) Close() error {
	var err error
	l.once.Do(func() {
		close(l.done)
		if l.closer != nil {
			err = l.closer.Close()
		}
	})
	return err
}
