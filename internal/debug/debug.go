// Package debug is the leveled logger shared by the controller. Logs go to
// stderr by default because the host link may be stdout.
package debug

import (
	"io"
	"log"
	"os"
)

// Debug levels
const (
	LevelOff     = 0 // No output
	LevelInfo    = 1 // Boot, scan start/end, faults
	LevelLive    = 2 // Commands received, lines sent, axis moves
	LevelVerbose = 3 // Ramp profiles, configuration
	LevelTrace   = 4 // GPIO, I2C, serial bytes
)

var (
	level  int
	output io.Writer = os.Stderr
	logger *log.Logger
)

// Init sets the level (0-4). Level 0 disables every helper.
func Init(debugLevel int) {
	level = debugLevel
	if level > LevelOff {
		logger = log.New(output, "[ScanGo] ", log.LstdFlags|log.Lmicroseconds)
	} else {
		logger = nil
	}
}

// SetOutput redirects debug output, e.g. to tee it to the web monitor.
func SetOutput(w io.Writer) {
	output = w
	if logger != nil {
		logger.SetOutput(w)
	}
}

// Level returns the current debug level.
func Level() int {
	return level
}

// IsEnabled reports whether messages of minLevel are printed.
func IsEnabled(minLevel int) bool {
	return logger != nil && level >= minLevel
}

func logf(minLevel int, format string, args ...interface{}) {
	if IsEnabled(minLevel) {
		logger.Printf(format, args...)
	}
}

// Info prints boot and scan lifecycle messages.
func Info(format string, args ...interface{}) {
	logf(LevelInfo, "[INFO] "+format, args...)
}

// Summary prints a banner.
func Summary(title string) {
	logf(LevelInfo, "═══════════════════════════════════════")
	logf(LevelInfo, "  %s", title)
	logf(LevelInfo, "═══════════════════════════════════════")
}

// Value prints a named value.
func Value(name string, value interface{}) {
	logf(LevelInfo, "[INFO]   %s = %v", name, value)
}

// Error prints an error that was handled, e.g. reported to the host.
func Error(err error) {
	logf(LevelInfo, "[ERROR] %v", err)
}

func Live(format string, args ...interface{}) {
	logf(LevelLive, "[LIVE] "+format, args...)
}

// Move prints an axis movement.
func Move(axis string, amount int, direction string) {
	logf(LevelLive, "[LIVE] Axis %s: %d (%s)", axis, amount, direction)
}

// Command prints a line received from the host.
func Command(line string) {
	logf(LevelLive, "[LIVE] <- %q", line)
}

// Reply prints a line sent to the host.
func Reply(line string) {
	logf(LevelLive, "[LIVE] -> %q", line)
}

func Verbose(format string, args ...interface{}) {
	logf(LevelVerbose, "[VERBOSE] "+format, args...)
}

// PrintStruct prints a struct with field names.
func PrintStruct(name string, v interface{}) {
	logf(LevelVerbose, "[VERBOSE] %s: %+v", name, v)
}

// Section prints a separator.
func Section(name string) {
	logf(LevelVerbose, "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	logf(LevelVerbose, "  %s", name)
	logf(LevelVerbose, "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
}

// Step prints a numbered startup step.
func Step(num int, description string) {
	logf(LevelVerbose, "[VERBOSE] Step %d: %s", num, description)
}

func Trace(format string, args ...interface{}) {
	logf(LevelTrace, "[TRACE] "+format, args...)
}

// GPIO prints a pin operation.
func GPIO(operation string, pin int, value interface{}) {
	logf(LevelTrace, "[GPIO] %s pin=%d value=%v", operation, pin, value)
}
