package scanner

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedLink returns one chunk per Read, then idles (0, nil) or ends.
type scriptedLink struct {
	chunks [][]byte
	eof    bool
	err    error
	reads  int
}

func (l *scriptedLink) Read(p []byte) (int, error) {
	l.reads++
	if l.err != nil {
		err := l.err
		l.err = nil
		return 0, err
	}
	if len(l.chunks) == 0 {
		if l.eof {
			return 0, io.EOF
		}
		return 0, nil
	}
	n := copy(p, l.chunks[0])
	if n == len(l.chunks[0]) {
		l.chunks = l.chunks[1:]
	} else {
		l.chunks[0] = l.chunks[0][n:]
	}
	return n, nil
}

func TestLoop_DrainThenTick(t *testing.T) {
	h := newHarness(t)
	link := &scriptedLink{chunks: [][]byte{[]byte("status\nscan\n")}}
	loop := NewLoop(link, h.ctrl, 0)

	require.NoError(t, loop.Iterate())
	assert.Equal(t, []string{"POS 0 0 130", "started", "OK", "POSX 5 0 130"}, h.lines())
}

func TestLoop_DrainsFullBuffers(t *testing.T) {
	h := newHarness(t)
	// More than one buffer of commands arrives before a tick.
	var burst []byte
	for range 40 {
		burst = append(burst, "m_base 1\n"...)
	}
	burst = append(burst, "scan\n"...)
	link := &scriptedLink{chunks: [][]byte{burst}}
	loop := NewLoop(link, h.ctrl, 0)

	require.NoError(t, loop.Iterate())
	assert.GreaterOrEqual(t, link.reads, 2)
	assert.Equal(t, State{BaseAngle: 6, Scanning: true}, h.ctrl.State())
	assert.Len(t, h.mover.baseSteps, 1, "one tick per iteration")
}

func TestLoop_IdleLinkKeepsTicking(t *testing.T) {
	h := newHarness(t)
	h.send("scan")
	loop := NewLoop(&scriptedLink{}, h.ctrl, 0)

	for range 3 {
		require.NoError(t, loop.Iterate())
	}
	assert.Equal(t, 15, h.ctrl.State().BaseAngle)
}

func TestLoop_ReadErrorIsNotFatal(t *testing.T) {
	h := newHarness(t)
	link := &scriptedLink{err: errors.New("framing error"), chunks: [][]byte{[]byte("status\n")}}
	loop := NewLoop(link, h.ctrl, 0)

	require.NoError(t, loop.Iterate())
	require.NoError(t, loop.Iterate())
	assert.Equal(t, []string{"POS 0 0 130"}, h.lines())
}

func TestLoop_EOFEndsRun(t *testing.T) {
	h := newHarness(t)
	link := &scriptedLink{chunks: [][]byte{[]byte("reset\n")}, eof: true}
	loop := NewLoop(link, h.ctrl, 0)

	err := loop.Run(context.Background())
	assert.ErrorIs(t, err, ErrLinkClosed)
	assert.Equal(t, []string{"OK"}, h.lines())
}

func TestLoop_ContextCancelled(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewLoop(&scriptedLink{}, h.ctrl, 0).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
