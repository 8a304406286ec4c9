package interp

import "fmt"

// FatalError aborts the invocation: parse errors are reported separately,
// this covers execution limits, timeouts, unbound variables under nounset
// and ${x:?}. Already-buffered output is still returned to the caller.
type FatalError struct {
	Code int
	Msg  string
}

func (e *FatalError) Error() string { return e.Msg }

func fatalf(code int, format string, args ...interface{}) *FatalError {
	return &FatalError{Code: code, Msg: fmt.Sprintf(format, args...)}
}

// Control flow is modeled as tagged results returned up the executor stack:
// loops consume breakFlow/continueFlow, function calls consume returnFlow,
// and exitFlow unwinds to the top of the invocation.

type breakFlow struct{ n int }

type continueFlow struct{ n int }

type returnFlow struct{ code int }

type exitFlow struct{ code int }

func (breakFlow) Error() string    { return "break" }
func (continueFlow) Error() string { return "continue" }
func (returnFlow) Error() string   { return "return" }
func (exitFlow) Error() string     { return "exit" }

// expandError carries a recoverable expansion failure and the status it
// should surface as.
type expandError struct {
	code int
	msg  string
}

func (e *expandError) Error() string { return e.msg }
