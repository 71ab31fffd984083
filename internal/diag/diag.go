// Package diag provides the process-wide leveled diagnostics sink used by
// every component of the playback engine. It follows the teacher's habit of
// logging through the standard log package with a component-name prefix
// rather than reaching for a structured logging library the rest of the
// pack does not use for this kind of component.
package diag

import (
	"log"
	"sync/atomic"
)

// Level identifies a diagnostics verbosity level, in the same [0,4] range
// exposed by the verbosity() C-shim entry point.
type Level int32

const (
	Silent  Level = 0
	Error   Level = 1
	Warning Level = 2
	Info    Level = 3
	Debug   Level = 4
)

var level atomic.Int32

func init() {
	level.Store(int32(Warning))
}

// SetVerbosity sets the process-wide level. Values outside [0,4] are
// rejected and the level is left unchanged.
func SetVerbosity(v int) bool {
	if v < 0 || v > int(Debug) {
		return false
	}
	level.Store(int32(v))
	return true
}

// Verbosity returns the current process-wide level.
func Verbosity() Level {
	return Level(level.Load())
}

// Sink emits log lines prefixed with a component name, gated by the
// process-wide level.
type Sink struct {
	component string
}

// New returns a Sink that prefixes every line with component, matching the
// teacher's "notifications: ..." / "ws: ..." convention.
func New(component string) *Sink {
	return &Sink{component: component}
}

func (s *Sink) Errorf(format string, args ...any) {
	if Verbosity() >= Error {
		log.Printf(s.component+": "+format, args...)
	}
}

func (s *Sink) Warnf(format string, args ...any) {
	if Verbosity() >= Warning {
		log.Printf(s.component+": "+format, args...)
	}
}

func (s *Sink) Infof(format string, args ...any) {
	if Verbosity() >= Info {
		log.Printf(s.component+": "+format, args...)
	}
}

func (s *Sink) Debugf(format string, args ...any) {
	if Verbosity() >= Debug {
		log.Printf(s.component+": "+format, args...)
	}
}
