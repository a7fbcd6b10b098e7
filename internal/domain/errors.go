package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput is matched by every *InvalidInputError.
	ErrInvalidInput = errors.New("invalid input")

	// ErrPathConvention is returned when a hydrograph path does not follow the
	// floodplain/out/key directory convention.
	ErrPathConvention = errors.New("path does not match hydrograph convention")
)

// InvalidInputError describes a sample series that cannot be integrated.
type InvalidInputError struct {
	Index  int // offending sample, -1 when the series as a whole is invalid
	Reason string
}

func (e *InvalidInputError) Error() string {
	if e.Index < 0 {
		return "invalid input: " + e.Reason
	}
	return fmt.Sprintf("invalid input at sample %d: %s", e.Index, e.Reason)
}

func (e *InvalidInputError) Is(target error) bool {
	return target == ErrInvalidInput
}

// ParseError reports a malformed line in a hydrograph file.
type ParseError struct {
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
