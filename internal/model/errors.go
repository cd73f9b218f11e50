package model

import (
	"errors"
	"fmt"
)

// ErrorKind tags a fatal pipeline error.
type ErrorKind string

const (
	KindStructural    ErrorKind = "structural"
	KindParameter     ErrorKind = "parameter"
	KindAllRowsFailed ErrorKind = "all_rows_failed"
)

var (
	ErrEmptyFile = errors.New("empty file")
	ErrEncoding  = errors.New("file is not valid UTF-8 text")
	ErrHeader    = errors.New("invalid header row")
)

// Error is a fatal pipeline failure. No partial result accompanies it.
type Error struct {
	Kind    ErrorKind
	Message string
	Rows    []RowError // populated for KindAllRowsFailed
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Message == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Lines returns the line numbers of the rows that caused the error.
func (e *Error) Lines() []int {
	if len(e.Rows) == 0 {
		return nil
	}
	lines := make([]int, len(e.Rows))
	for i, r := range e.Rows {
		lines[i] = r.Line
	}
	return lines
}

// Structural builds a whole-document error.
func Structural(cause error, format string, args ...any) *Error {
	return &Error{Kind: KindStructural, Message: fmt.Sprintf(format, args...), Err: cause}
}

// Parameter builds a query parameter error.
func Parameter(format string, args ...any) *Error {
	return &Error{Kind: KindParameter, Message: fmt.Sprintf(format, args...)}
}

// AllRowsFailed builds the error returned when no body row parsed.
func AllRowsFailed(rows []RowError) *Error {
	return &Error{
		Kind:    KindAllRowsFailed,
		Message: fmt.Sprintf("none of %d rows could be parsed", len(rows)),
		Rows:    rows,
	}
}

// KindOf returns the kind of a pipeline error, or "" if err is not one.
func KindOf(err error) ErrorKind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ""
}
