package species

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/aretw0/arbor/pkg/grammar"
	"github.com/aretw0/arbor/pkg/turtle"
)

// ErrUnknownSpecies is returned when a premade species name is not registered.
var ErrUnknownSpecies = errors.New("unknown species")

// Species is a complete turtle L-system: a grammar, its axiom and the root
// node the tree grows from. It implements turtle.System.
type Species struct {
	Name string
	Root turtle.Node
	// Iterations is the suggested generation count; callers may override it.
	Iterations int

	grammar *grammar.Grammar
	axiom   []grammar.Symbol
}

var _ turtle.System = (*Species)(nil)

// New assembles a species after checking the axiom against the grammar's alphabet.
func New(name string, g *grammar.Grammar, axiom []grammar.Symbol, root turtle.Node) (*Species, error) {
	if g == nil {
		return nil, fmt.Errorf("species %q: nil grammar", name)
	}
	if err := g.Alphabet().Check(axiom); err != nil {
		return nil, fmt.Errorf("species %q axiom: %w", name, err)
	}
	return &Species{
		Name:    name,
		Root:    root,
		grammar: g,
		axiom:   append([]grammar.Symbol(nil), axiom...),
	}, nil
}

// Axiom returns a copy of the initial sequence.
func (s *Species) Axiom() []grammar.Symbol {
	return append([]grammar.Symbol(nil), s.axiom...)
}

// Rewrite delegates to the species grammar.
func (s *Species) Rewrite(atom grammar.Symbol, left, right []grammar.Symbol) []grammar.Symbol {
	return s.grammar.Rewrite(atom, left, right)
}

// Process interprets one symbol with the turtle.
func (s *Species) Process(ctx *turtle.Context, atom grammar.Symbol) error {
	return turtle.Interpret(ctx, atom)
}

// Grammar returns the compiled rule table.
func (s *Species) Grammar() *grammar.Grammar {
	return s.grammar
}

// Opaque reports whether the grammar holds closures without a source, in
// which case Fingerprint does not identify the species' behaviour.
func (s *Species) Opaque() bool {
	return s.grammar.Opaque()
}

// Fingerprint identifies the species definition: name, alphabet, parameters,
// rule sources, axiom and root. For an Opaque species, undescribed closures
// contribute nothing, so two such species may share a fingerprint.
func (s *Species) Fingerprint() string {
	h := sha256.New()
	fmt.Fprintf(h, "name=%s\n", s.Name)

	alphabet := s.grammar.Alphabet()
	for _, tag := range alphabet.Tags() {
		fmt.Fprintf(h, "tag=%s/%d\n", tag, alphabet[tag])
	}

	params := s.grammar.Params()
	names := make([]string, 0, len(params))
	for n := range params {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		fmt.Fprintf(h, "param=%s=%v\n", n, params[n])
	}

	for _, r := range s.grammar.Rules() {
		writeRule(h, r)
	}

	fmt.Fprintf(h, "axiom=%s\n", grammar.FormatSequence(s.axiom))
	fmt.Fprintf(h, "root=%v/%v\n", s.Root.Position, s.Root.Diameter)

	return hex.EncodeToString(h.Sum(nil))
}

func writeRule(w io.Writer, r grammar.Rule) {
	fmt.Fprintf(w, "rule=%s:", r.Name)
	for _, p := range r.Left {
		fmt.Fprintf(w, "%s%v ", p.Tag, p.Vars)
	}
	fmt.Fprintf(w, "<%s%v>", r.Focus.Tag, r.Focus.Vars)
	for _, p := range r.Right {
		fmt.Fprintf(w, " %s%v", p.Tag, p.Vars)
	}
	fmt.Fprintf(w, ":%s->", r.Guard.Source)
	for _, p := range r.Produce {
		fmt.Fprintf(w, " %s(", p.Tag)
		for _, a := range p.Args {
			fmt.Fprintf(w, "%s,", a.Source)
		}
		fmt.Fprint(w, ")")
	}
	fmt.Fprintln(w)
}
