package dbf

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a decode failure
type ErrorKind string

const (
	KindHeader             ErrorKind = "header"
	KindUnterminatedHeader ErrorKind = "unterminated_header"
	KindTruncated          ErrorKind = "truncated"
)

// Sentinel errors matched by DecodeError.Is
var (
	ErrHeader             = errors.New("dbf: unreadable header")
	ErrUnterminatedHeader = errors.New("dbf: unterminated field list")
	ErrTruncated          = errors.New("dbf: truncated buffer")
)

// DecodeError is the only error returned by Decode. It aborts the whole
// file and identifies the byte range [Start, End) that could not be read.
type DecodeError struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
	Start   int       `json:"start"`
	End     int       `json:"end"`
}

// Error implements the error interface
func (e *DecodeError) Error() string {
	return fmt.Sprintf("dbf %s: %s (bytes %d-%d)", e.Kind, e.Message, e.Start, e.End)
}

// Is matches the sentinel for the error kind
func (e *DecodeError) Is(target error) bool {
	switch e.Kind {
	case KindHeader:
		return target == ErrHeader
	case KindUnterminatedHeader:
		return target == ErrUnterminatedHeader
	case KindTruncated:
		return target == ErrTruncated
	}
	return false
}

// MissingBytes returns the size of the unreadable range
func (e *DecodeError) MissingBytes() int {
	if e.End < e.Start {
		return 0
	}
	return e.End - e.Start
}
