package grammar

import (
	"fmt"
	"slices"
	"sort"
	"strconv"
	"strings"
)

// Symbol is a tagged symbol with a fixed-arity numeric payload.
// Symbols are values: rewriting replaces them, it never mutates Params.
type Symbol struct {
	Tag    string    `json:"tag" yaml:"tag"`
	Params []float64 `json:"params,omitempty" yaml:"params,omitempty"`
}

// NewSymbol creates a symbol.
func NewSymbol(tag string, params ...float64) Symbol {
	return Symbol{Tag: tag, Params: params}
}

// Arity returns the number of parameters.
func (s Symbol) Arity() int {
	return len(s.Params)
}

// Param returns the i-th parameter or 0 when out of range.
func (s Symbol) Param(i int) float64 {
	if i < 0 || i >= len(s.Params) {
		return 0
	}
	return s.Params[i]
}

// Equal reports structural equality.
func (s Symbol) Equal(o Symbol) bool {
	return s.Tag == o.Tag && slices.Equal(s.Params, o.Params)
}

func (s Symbol) String() string {
	if len(s.Params) == 0 {
		return s.Tag
	}
	parts := make([]string, len(s.Params))
	for i, p := range s.Params {
		parts[i] = strconv.FormatFloat(p, 'g', -1, 64)
	}
	return s.Tag + "(" + strings.Join(parts, ", ") + ")"
}

// FormatSequence renders symbols separated by spaces, e.g. "A(1) [ F(2) ]".
func FormatSequence(seq []Symbol) string {
	parts := make([]string, len(seq))
	for i, s := range seq {
		parts[i] = s.String()
	}
	return strings.Join(parts, " ")
}

// EqualSequences reports whether two sequences are structurally equal.
func EqualSequences(a, b []Symbol) bool {
	return slices.EqualFunc(a, b, Symbol.Equal)
}

// Alphabet is the closed set of tags a grammar may use, with the arity of each.
type Alphabet map[string]int

// Arity returns the declared arity of tag.
func (a Alphabet) Arity(tag string) (int, bool) {
	n, ok := a[tag]
	return n, ok
}

// Tags returns the declared tags in sorted order.
func (a Alphabet) Tags() []string {
	tags := make([]string, 0, len(a))
	for t := range a {
		tags = append(tags, t)
	}
	sort.Strings(tags)
	return tags
}

// Merge returns a new alphabet with the tags of both. Tags declared in both
// with different arities are reported as an error.
func (a Alphabet) Merge(other Alphabet) (Alphabet, error) {
	out := make(Alphabet, len(a)+len(other))
	for t, n := range a {
		out[t] = n
	}
	for t, n := range other {
		if prev, ok := out[t]; ok && prev != n {
			return nil, &MalformedError{Rule: "alphabet", Index: -1, Reason: fmt.Sprintf("tag %q declared with arity %d and %d", t, prev, n)}
		}
		out[t] = n
	}
	return out, nil
}

// Check verifies that every symbol of seq is declared with the right arity.
func (a Alphabet) Check(seq []Symbol) error {
	for i, s := range seq {
		n, ok := a[s.Tag]
		if !ok {
			return &MalformedError{Rule: "sequence", Index: i, Reason: fmt.Sprintf("unknown tag %q", s.Tag)}
		}
		if n != len(s.Params) {
			return &MalformedError{Rule: "sequence", Index: i, Reason: fmt.Sprintf("%s: tag %q has arity %d", s, s.Tag, n)}
		}
	}
	return nil
}
