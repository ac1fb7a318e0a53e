// Package protocol turns link bytes into typed commands.
package protocol

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Kind is the closed set of commands the controller understands.
type Kind int

const (
	KindUnknown Kind = iota
	KindStatus
	KindMoveBase
	KindMoveSensor
	KindMoveAll
	KindScan
	KindPause
	KindEStop
	KindReset
	KindStart   // reserved, no effect
	KindECancel // reserved, no effect
)

var kindNames = map[string]Kind{
	"status":   KindStatus,
	"m_base":   KindMoveBase,
	"m_sensor": KindMoveSensor,
	"m_all":    KindMoveAll,
	"scan":     KindScan,
	"pause":    KindPause,
	"e_stop":   KindEStop,
	"reset":    KindReset,
	"start":    KindStart,
	"e_cancel": KindECancel,
}

func (k Kind) String() string {
	for name, kind := range kindNames {
		if kind == k {
			return name
		}
	}
	return "unknown"
}

// IsManualMove reports whether k positions an axis by hand.
func (k Kind) IsManualMove() bool {
	return k == KindMoveBase || k == KindMoveSensor || k == KindMoveAll
}

var (
	// ErrEmptyLine is returned for a line with no tokens.
	ErrEmptyLine = errors.New("empty line")
	// ErrInvalidArgs is returned when a move has a missing or non-integer angle.
	ErrInvalidArgs = errors.New("Invalid arguments for process move base command")
)

// UnknownCommandError names a command that is not in the protocol.
type UnknownCommandError struct {
	Name string
}

func (e *UnknownCommandError) Error() string {
	return fmt.Sprintf("Unknown command '%s'", e.Name)
}

// Command is one parsed line.
type Command struct {
	Kind  Kind
	Name  string   // lower-cased first token
	Args  []string // remaining tokens
	Angle int      // argument of manual moves
}

// Parse tokenizes a line. The command name is case-insensitive.
// For a manual move with a bad angle the returned Command still carries its
// Kind alongside ErrInvalidArgs.
func Parse(line string) (Command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Command{}, ErrEmptyLine
	}
	cmd := Command{Name: strings.ToLower(fields[0]), Args: fields[1:]}

	kind, ok := kindNames[cmd.Name]
	if !ok {
		return cmd, &UnknownCommandError{Name: cmd.Name}
	}
	cmd.Kind = kind

	if kind.IsManualMove() {
		if len(cmd.Args) == 0 {
			return cmd, ErrInvalidArgs
		}
		angle, err := strconv.Atoi(cmd.Args[0])
		if err != nil {
			return cmd, ErrInvalidArgs
		}
		cmd.Angle = angle
	}
	return cmd, nil
}
