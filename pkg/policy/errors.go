package policy

import "github.com/pkg/errors"

// Error is a malformed-policy failure. It carries the offending path (table,
// and column/operation when applicable) so callers can report exactly what
// was wrong without re-deriving it from a generic message.
type Error struct {
	Table     string
	Column    string
	Operation string
	msg       string
}

func (e *Error) Error() string {
	return e.msg
}

func newError(table, column, operation, msg string) *Error {
	return &Error{Table: table, Column: column, Operation: operation, msg: msg}
}

// UnsupportedRestrictionError is raised for a restriction operation outside
// the supported set ({=, <, >, <=, >=, BETWEEN, IN}).
type UnsupportedRestrictionError struct {
	Table     string
	Column    string
	Operation string
}

func (e *UnsupportedRestrictionError) Error() string {
	return errors.Errorf("table %q column %q: unsupported restriction operation %q",
		e.Table, e.Column, e.Operation).Error()
}
