package protocol

import (
	"bytes"
	"errors"
	"unicode/utf8"

	"go.uber.org/multierr"
)

// MaxLineBytes bounds an unterminated line. A host that never sends a
// newline cannot grow the buffer past it.
const MaxLineBytes = 1024

var (
	// ErrInvalidEncoding means the link carried bytes that are not UTF-8.
	ErrInvalidEncoding = errors.New("Invalid character encoding")
	// ErrLineTooLong means MaxLineBytes arrived without a terminator.
	ErrLineTooLong = errors.New("Line too long")
)

// LineBuffer accumulates link bytes and splits them into lines.
// The zero value is ready to use.
type LineBuffer struct {
	pending []byte
}

// Feed appends p and returns every complete line, with the "\n" and any
// trailing "\r" removed. Blank lines are dropped. On invalid UTF-8 the whole
// buffer, including the new bytes, is discarded and ErrInvalidEncoding is
// returned with no lines. A rune split across two Feed calls is fine.
//
// A truncated rune left by the previous call that p does not complete is
// stale: the buffered bytes are dropped, p is split as usual and the lines
// come back together with ErrInvalidEncoding. The error then concerns bytes
// received before those lines.
func (b *LineBuffer) Feed(p []byte) ([]string, error) {
	var stale error
	if len(p) > 0 && utf8.RuneStart(p[0]) && !utf8.Valid(b.pending) {
		b.Reset()
		stale = ErrInvalidEncoding
	}
	b.pending = append(b.pending, p...)
	if !validPrefix(b.pending) {
		b.Reset()
		return nil, ErrInvalidEncoding
	}

	var lines []string
	for {
		i := bytes.IndexByte(b.pending, '\n')
		if i < 0 {
			break
		}
		line := bytes.TrimSuffix(b.pending[:i], []byte{'\r'})
		b.pending = b.pending[i+1:]
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		lines = append(lines, string(line))
	}

	if len(b.pending) > MaxLineBytes {
		b.Reset()
		return lines, multierr.Append(stale, ErrLineTooLong)
	}
	if len(b.pending) == 0 {
		b.pending = nil
	}
	return lines, stale
}

// Pending returns the number of buffered bytes not yet terminated.
func (b *LineBuffer) Pending() int {
	return len(b.pending)
}

// Reset drops buffered bytes.
func (b *LineBuffer) Reset() {
	b.pending = nil
}

// validPrefix reports whether p is valid UTF-8 except possibly for an
// incomplete rune at its end.
func validPrefix(p []byte) bool {
	if utf8.Valid(p) {
		return true
	}
	// Look back at most UTFMax-1 bytes for the start of a truncated rune.
	for i := len(p) - 1; i >= 0 && i >= len(p)-(utf8.UTFMax-1); i-- {
		if !utf8.RuneStart(p[i]) {
			continue
		}
		if utf8.FullRune(p[i:]) {
			return false
		}
		return utf8.Valid(p[:i])
	}
	return false
}
