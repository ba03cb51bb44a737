package grammar

import (
	"errors"
	"fmt"
)

// ErrMalformedGrammar is the root of every authoring error. It is only ever
// returned while a grammar is being built, never while it rewrites.
var ErrMalformedGrammar = errors.New("malformed grammar")

// MalformedError describes a rule table that cannot be compiled.
type MalformedError struct {
	Rule   string // rule name, or "axiom"/"sequence"/"alphabet"
	Index  int    // rule or symbol position, -1 when not applicable
	Reason string
}

func (e *MalformedError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("%s: %s", e.Rule, e.Reason)
	}
	return fmt.Sprintf("%s #%d: %s", e.Rule, e.Index, e.Reason)
}

func (e *MalformedError) Unwrap() error {
	return ErrMalformedGrammar
}

// SyntaxError describes rule or sequence text that cannot be parsed.
type SyntaxError struct {
	Input  string
	Pos    int
	Reason string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at %d in %q: %s", e.Pos, e.Input, e.Reason)
}

func (e *SyntaxError) Unwrap() error {
	return ErrMalformedGrammar
}
