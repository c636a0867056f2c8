// Package invariant provides fail-fast contract checks.
//
// A failed check is a bug in the caller or in this module, never bad user
// input, so every check panics. User-facing problems are reported through
// diagnostics instead.
package invariant

import "fmt"

// Violation is the panic value raised by a failed check.
type Violation struct {
	Kind    string
	Message string
}

func (v Violation) Error() string {
	return v.Kind + " violated: " + v.Message
}

func fail(kind, format string, args ...any) {
	panic(Violation{Kind: kind, Message: fmt.Sprintf(format, args...)})
}

// Precondition checks a requirement on the inputs of an operation.
func Precondition(cond bool, format string, args ...any) {
	if !cond {
		fail("precondition", format, args...)
	}
}

// Postcondition checks a guarantee an operation makes about its result.
func Postcondition(cond bool, format string, args ...any) {
	if !cond {
		fail("postcondition", format, args...)
	}
}

// Invariant checks a condition that must hold at a point in the code.
func Invariant(cond bool, format string, args ...any) {
	if !cond {
		fail("invariant", format, args...)
	}
}

// NotNil panics when v is nil.
func NotNil(v any, name string) {
	if v == nil {
		fail("precondition", "%s must not be nil", name)
	}
}

// ExpectNoError panics when err is non-nil. Use only where an error means
// an internal bug, such as writing to an in-memory buffer.
func ExpectNoError(err error, context string) {
	if err != nil {
		fail("invariant", "%s: %v", context, err)
	}
}

// Unreachable marks code that must never run.
func Unreachable(format string, args ...any) {
	fail("unreachable", format, args...)
}
