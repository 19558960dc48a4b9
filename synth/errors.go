package synth

import (
	"errors"
	"fmt"
)

// Sentinel errors. Every failure returned by the engine is an *Error whose
// chain contains one of these.
var (
	ErrInvalidChordSymbol = errors.New("invalid chord")
	ErrInvalidDuration    = errors.New("invalid duration")
	ErrEncoding           = errors.New("encoding failed")
	ErrEmptyProgression   = errors.New("empty progression")
	ErrProgressionTooLong = errors.New("progression too long")
)

// Error records the engine operation and the offending input.
type Error struct {
	Op    string
	Input string
	Err   error
}

func (e *Error) Error() string {
	if e.Input == "" {
		return fmt.Sprintf("synth: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("synth: %s %q: %v", e.Op, e.Input, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(op, input string, sentinel, cause error) *Error {
	if cause == nil {
		return &Error{Op: op, Input: input, Err: sentinel}
	}
	return &Error{Op: op, Input: input, Err: fmt.Errorf("%w: %w", sentinel, cause)}
}
