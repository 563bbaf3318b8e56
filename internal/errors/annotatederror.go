// Package errors extends the standard errors package with structured annotations that end up in the logs.
//
// Wrap records the call site and any [slog.Attr] given to it. [SlogError] collects them from the whole chain so
// that a single log line tells where an error happened and with what inputs.
package errors

import (
	stderrors "errors"
	"fmt"
	"log/slog"
	"runtime"
	"runtime/debug"
)

// Re-exported so that callers only need to import this package.
//
//nolint:gochecknoglobals // aliases of the standard library.
var (
	Is     = stderrors.Is
	As     = stderrors.As
	Unwrap = stderrors.Unwrap
	Join   = stderrors.Join
	New    = stderrors.New
)

type sentinelError struct {
	msg string
}

func (e *sentinelError) Error() string {
	return e.msg
}

// NewSentinel creates an error meant to be compared with [Is]. Every call returns a distinct error.
func NewSentinel(msg string) error {
	return &sentinelError{msg: msg}
}

type annotatedError struct {
	msg   string
	err   error
	attrs []slog.Attr
	pc    uintptr
	stack []byte
}

func (e *annotatedError) Error() string {
	if e.err == nil {
		return e.msg
	}
	return e.msg + ": " + e.err.Error()
}

func (e *annotatedError) Unwrap() error {
	return e.err
}

// Wrap adds context to err. The returned error reports msg followed by the message of err. Wrap returns nil when
// err is nil.
func Wrap(err error, msg string, attrs ...slog.Attr) error {
	if err == nil {
		return nil
	}
	var pcs [1]uintptr
	runtime.Callers(2, pcs[:]) //nolint:mnd // skip runtime.Callers and Wrap
	return &annotatedError{msg: msg, err: err, attrs: attrs, pc: pcs[0], stack: nil}
}

// DecoratePanic turns a recovered value into an error carrying the stack trace of the panic.
func DecoratePanic(recovered any) error {
	if recovered == nil {
		return nil
	}
	e := &annotatedError{msg: "panic", err: nil, attrs: nil, pc: 0, stack: debug.Stack()}
	if err, ok := recovered.(error); ok {
		e.err = err
	} else {
		e.msg = fmt.Sprintf("panic: %v", recovered)
	}
	return e
}

// SlogError renders err as an "error" group with its message, the annotations of every wrapping layer and the
// innermost recorded source location.
func SlogError(err error) slog.Attr {
	if err == nil {
		return slog.Any("error", nil)
	}
	var (
		annotations []any
		source      string
		stack       []byte
	)
	walk(err, func(e *annotatedError) {
		for _, a := range e.attrs {
			annotations = append(annotations, a)
		}
		if e.pc != 0 {
			frame, _ := runtime.CallersFrames([]uintptr{e.pc}).Next()
			source = fmt.Sprintf("%s:%d", frame.File, frame.Line)
		}
		if e.stack != nil {
			stack = e.stack
		}
	})

	attrs := []any{slog.String("message", err.Error())}
	if len(annotations) > 0 {
		attrs = append(attrs, slog.Group("annotations", annotations...))
	}
	if source != "" {
		attrs = append(attrs, slog.String("source", source))
	}
	if stack != nil {
		attrs = append(attrs, slog.String("stack", string(stack)))
	}
	return slog.Group("error", attrs...)
}

// walk visits every annotated error in the tree from the outermost to the innermost.
func walk(err error, visit func(*annotatedError)) {
	for err != nil {
		if e, ok := err.(*annotatedError); ok { //nolint:errorlint // walking the chain manually
			visit(e)
		}
		switch u := err.(type) { //nolint:errorlint // walking the chain manually
		case interface{ Unwrap() []error }:
			for _, inner := range u.Unwrap() {
				walk(inner, visit)
			}
			return
		case interface{ Unwrap() error }:
			err = u.Unwrap()
		default:
			return
		}
	}
}
