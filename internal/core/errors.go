package core

// errors.go defines the failure taxonomy of an unfold call.
//
// Every failure carries one of the sentinels below so callers can branch
// with errors.Is, and a detail type so they can recover the offending
// column, pivot value or line with errors.As.

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidArgument reports malformed call parameters. Column names and
	// options are checked before the source is opened.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrUnknownColumn reports a column name absent from the source header.
	ErrUnknownColumn = errors.New("unknown column")

	// ErrRowHeaderMismatch reports a data row whose shape does not fit the header.
	ErrRowHeaderMismatch = errors.New("row does not match header")

	// ErrInconsistentConstant reports a constant column holding two different
	// values within one pivot group.
	ErrInconsistentConstant = errors.New("inconsistent constant column")

	// ErrIO reports an open, read, write or close failure on the source or sink.
	ErrIO = errors.New("i/o failure")
)

// ArgumentError describes a rejected parameter.
type ArgumentError struct {
	Param  string
	Reason string
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("invalid argument %s: %s", e.Param, e.Reason)
}

func (e *ArgumentError) Unwrap() error { return ErrInvalidArgument }

// UnknownColumnError names the missing column and echoes the header it was
// looked up in.
type UnknownColumnError struct {
	Role   string // "pivot", "payload", "naming" or "constant"
	Column string
	Header []string
}

func (e *UnknownColumnError) Error() string {
	return fmt.Sprintf("unknown column: %s column %q does not appear in the table header (%s)",
		e.Role, e.Column, strings.Join(e.Header, ", "))
}

func (e *UnknownColumnError) Unwrap() error { return ErrUnknownColumn }

// RowHeaderMismatchError describes a data row that is longer than the header,
// or too short to hold one of the columns the call reads.
type RowHeaderMismatchError struct {
	Line      int // 1-based record number, header is line 1
	Fields    int
	HeaderLen int
	Column    string // set when the row is too short for this column
}

func (e *RowHeaderMismatchError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("row does not match header: line %d has %d fields, too few to hold column %q",
			e.Line, e.Fields, e.Column)
	}
	return fmt.Sprintf("row does not match header: line %d has %d fields, header has %d",
		e.Line, e.Fields, e.HeaderLen)
}

func (e *RowHeaderMismatchError) Unwrap() error { return ErrRowHeaderMismatch }

// InconsistentConstantError reports the first conflicting pair of values seen
// for a constant column within one pivot group.
type InconsistentConstantError struct {
	Column     string
	PivotValue string
	Recorded   string
	Found      string
	Line       int
}

func (e *InconsistentConstantError) Error() string {
	return fmt.Sprintf("inconsistent constant column %q for pivot value %q: %q != %q (line %d)",
		e.Column, e.PivotValue, e.Found, e.Recorded, e.Line)
}

func (e *InconsistentConstantError) Unwrap() error { return ErrInconsistentConstant }

// IOError wraps a failure of the underlying source or sink.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("i/o failure: %s %s: %v", e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("i/o failure: %s: %v", e.Op, e.Err)
}

// Unwrap exposes both the sentinel and the cause, so errors.Is matches
// ErrIO as well as e.g. fs.ErrNotExist.
func (e *IOError) Unwrap() []error { return []error{ErrIO, e.Err} }

func invalidArg(param, format string, args ...any) error {
	return &ArgumentError{Param: param, Reason: fmt.Sprintf(format, args...)}
}

func ioFailure(op, path string, err error) error {
	return &IOError{Op: op, Path: path, Err: err}
}
