package extract

import (
	"errors"
	"fmt"
)

var (
	ErrMalformedOutput = errors.New("malformed output")
	ErrOutOfRange      = errors.New("value out of range")
)

// FailureKind is the reason an extraction produced no record.
type FailureKind string

const (
	MalformedOutput FailureKind = "MALFORMED_OUTPUT"
	OutOfRange      FailureKind = "OUT_OF_RANGE"
)

// Failure describes a rejected extraction. It matches ErrMalformedOutput or
// ErrOutOfRange under errors.Is according to its Kind.
type Failure struct {
	Kind    FailureKind
	Schema  string
	Field   string
	Value   float64
	RawText string
}

func (f *Failure) Error() string {
	if f.Kind == OutOfRange {
		return fmt.Sprintf("%s: %s.%s = %g", ErrOutOfRange, f.Schema, f.Field, f.Value)
	}
	return fmt.Sprintf("%s: %s", ErrMalformedOutput, f.Schema)
}

func (f *Failure) Is(target error) bool {
	switch target {
	case ErrMalformedOutput:
		return f.Kind == MalformedOutput
	case ErrOutOfRange:
		return f.Kind == OutOfRange
	}
	return false
}

// errMismatch signals that a candidate did not satisfy the schema and the
// next recovery step should be tried.
var errMismatch = errors.New("candidate does not match schema")
