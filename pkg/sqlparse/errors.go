package sqlparse

import "github.com/pkg/errors"

// Error is an input-side failure: the query could not be turned into an
// AST at all. Like policy.Error, it never ends up inside a Verdict's error
// list — it fails the call before any verdict exists.
type Error struct {
	msg   string
	cause error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.msg + ": " + e.cause.Error()
	}
	return e.msg
}

func (e *Error) Unwrap() error { return e.cause }

func newError(msg string) *Error {
	return &Error{msg: msg}
}

func wrapError(cause error, msg string) *Error {
	return &Error{msg: msg, cause: cause}
}

var errMultiStatement = errors.New("multi-statement input is not allowed")
