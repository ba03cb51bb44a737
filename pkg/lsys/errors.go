package lsys

import "errors"

// ErrStackUnderflow is returned when Pop is called with no saved state.
// It signals unbalanced push/pop symbols in a grammar's replacements.
var ErrStackUnderflow = errors.New("state stack underflow")

// ErrUnbalancedStack is returned when interpretation ends with saved states still on the stack.
var ErrUnbalancedStack = errors.New("unbalanced state stack")

// ErrNegativeIterations is returned when a build is requested with a negative generation count.
var ErrNegativeIterations = errors.New("iterations must be non-negative")

// ErrSequenceTooLong is returned when a generation grows past the WithMaxSymbols bound.
var ErrSequenceTooLong = errors.New("symbol sequence exceeds limit")
