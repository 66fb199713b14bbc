package bytecode

import (
	"fmt"

	"github.com/lunet-lang/lunet/compiler"
)

// CompileError reports an unexpected or missing token at compile time.
// All compile errors are fatal; there is no recovery or partial
// program.
type CompileError struct {
	Pos compiler.Position
	Msg string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("compile error at %d:%d: %s", e.Pos.Line, e.Pos.Column, e.Msg)
}

func compileErrorf(tok compiler.Token, format string, args ...interface{}) *CompileError {
	return &CompileError{Pos: tok.Pos, Msg: fmt.Sprintf(format, args...)}
}

// RuntimeError reports a failure during chunk execution: a bad call
// target, a non-string global key, or an out-of-range index (the latter
// indicates a compiler bug, not user input).
type RuntimeError struct {
	Msg string
}

func (e *RuntimeError) Error() string {
	return "runtime error: " + e.Msg
}

func runtimeErrorf(format string, args ...interface{}) *RuntimeError {
	return &RuntimeError{Msg: fmt.Sprintf(format, args...)}
}
