// Package command implements the command bus: it tokenizes a line into
// (verb, argstr), dispatches to a handler registered in a module registry,
// and routes handler output through a stack of response sinks.
package command

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/freyr-engine/freyr/internal/module"
)

// Level is a response severity, mirrored from the original engine's E/W/I/D/T
// taxonomy.
type Level string

const (
	LevelError Level = "E"
	LevelWarn  Level = "W"
	LevelInfo  Level = "I"
	LevelDebug Level = "D"
	LevelTrace Level = "T"
)

// SevereError marks a handler error for LevelError reporting instead of the
// default LevelWarn.
type SevereError struct{ err error }

func (e *SevereError) Error() string { return e.err.Error() }
func (e *SevereError) Unwrap() error { return e.err }

// Severe wraps err so Run reports it at LevelError rather than LevelWarn —
// for handler failures that mean the command named something that plainly
// doesn't exist (an unknown animation, tier, or group), not a transient or
// recoverable condition.
func Severe(err error) error {
	if err == nil {
		return nil
	}
	return &SevereError{err: err}
}

// SinkFunc receives one response line. source identifies the command's
// originating transport ("console", "mqtt:<topic>", ...).
type SinkFunc func(level Level, source, text string)

// Dispatcher looks up a verb's handler; satisfied by *module.Registry.
type Dispatcher interface {
	Lookup(verb string) (*module.Command, bool)
}

// Bus tokenizes and dispatches command lines, maintaining the response-sink
// stack transports push onto before running a command.
type Bus struct {
	dispatcher Dispatcher
	defaultLog func(level Level, source, text string)

	mu    sync.Mutex
	stack []SinkFunc
}

// New creates a command bus dispatching through d. defaultLog is used when
// the sink stack is empty (routes to the process logger).
func New(d Dispatcher, defaultLog func(level Level, source, text string)) *Bus {
	return &Bus{dispatcher: d, defaultLog: defaultLog}
}

// PushSink installs fn as the top of the response-sink stack.
func (b *Bus) PushSink(fn SinkFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stack = append(b.stack, fn)
}

// PopSink removes the top of the response-sink stack, if any.
func (b *Bus) PopSink() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.stack) == 0 {
		return
	}
	b.stack = b.stack[:len(b.stack)-1]
}

// Respond routes text to the top-of-stack sink, or the default logger sink
// if the stack is empty.
func (b *Bus) Respond(level Level, source, text string) {
	b.mu.Lock()
	var sink SinkFunc
	if n := len(b.stack); n > 0 {
		sink = b.stack[n-1]
	}
	b.mu.Unlock()

	if sink != nil {
		sink(level, source, text)
		return
	}
	if b.defaultLog != nil {
		b.defaultLog(level, source, text)
	}
}

// Run tokenizes line as "verb rest...", dispatching rest to verb's handler.
// Blank lines and lines beginning with '#' are ignored. An unknown verb
// responds at LevelError and returns nil (per §7, parse/usage errors are
// reported, not propagated as Go errors, so one bad line never aborts a
// batch of commands).
func (b *Bus) Run(line, source string) error {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return nil
	}

	verb, argstr, _ := strings.Cut(trimmed, " ")
	argstr = strings.TrimSpace(argstr)

	cmd, ok := b.dispatcher.Lookup(verb)
	if !ok {
		b.Respond(LevelError, source, fmt.Sprintf("unknown command %q", verb))
		return nil
	}

	if err := cmd.Handler(argstr, source); err != nil {
		level := LevelWarn
		var severe *SevereError
		if errors.As(err, &severe) {
			level = LevelError
		}
		b.Respond(level, source, err.Error())
	}
	return nil
}
