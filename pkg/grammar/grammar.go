package grammar

import (
	"fmt"
	"maps"
	"strconv"
)

// Grammar is an ordered, validated rule table. It implements lsys.Grammar[Symbol].
//
// For each symbol the rules with a matching focus tag are tried in declaration
// order and the first one whose contexts and guard match produces the
// replacement. Symbols with no matching rule rewrite to themselves.
type Grammar struct {
	alphabet Alphabet
	params   Env
	rules    []Rule
	byTag    map[string][]int
	envSize  []int
	opaque   bool
}

// New validates rules against alphabet and params and compiles the table.
// Every authoring mistake is reported here as a *MalformedError.
func New(alphabet Alphabet, params Env, rules ...Rule) (*Grammar, error) {
	g := &Grammar{
		alphabet: maps.Clone(alphabet),
		params:   params.Clone(),
		rules:    append([]Rule(nil), rules...),
		byTag:    make(map[string][]int),
		envSize:  make([]int, len(rules)),
	}
	if g.params == nil {
		g.params = Env{}
	}

	for i := range g.rules {
		bound, err := g.check(i)
		if err != nil {
			return nil, err
		}
		g.envSize[i] = len(g.params) + bound
		g.byTag[g.rules[i].Focus.Tag] = append(g.byTag[g.rules[i].Focus.Tag], i)
		g.opaque = g.opaque || g.rules[i].Opaque()
	}

	return g, nil
}

// MustNew is like New but panics on a malformed table. It is meant for
// package-level tables whose correctness is a build-time concern.
func MustNew(alphabet Alphabet, params Env, rules ...Rule) *Grammar {
	g, err := New(alphabet, params, rules...)
	if err != nil {
		panic(err)
	}
	return g
}

// Alphabet returns a copy of the declared alphabet.
func (g *Grammar) Alphabet() Alphabet {
	return maps.Clone(g.alphabet)
}

// Params returns a copy of the species parameters.
func (g *Grammar) Params() Env {
	return g.params.Clone()
}

// Opaque reports whether any rule carries an undescribed closure. The text
// of such a table does not identify its behaviour.
func (g *Grammar) Opaque() bool {
	return g.opaque
}

// Rules returns the rules in declaration order.
func (g *Grammar) Rules() []Rule {
	return append([]Rule(nil), g.rules...)
}

// Rewrite returns the replacement for atom given its neighbourhood.
func (g *Grammar) Rewrite(atom Symbol, left, right []Symbol) []Symbol {
	for _, idx := range g.byTag[atom.Tag] {
		r := &g.rules[idx]
		env, ok := g.match(idx, r, atom, left, right)
		if !ok {
			continue
		}
		out := make([]Symbol, len(r.Produce))
		for i, p := range r.Produce {
			var params []float64
			if len(p.Args) > 0 {
				params = make([]float64, len(p.Args))
				for j, arg := range p.Args {
					params[j] = arg.Eval(env)
				}
			}
			out[i] = Symbol{Tag: p.Tag, Params: params}
		}
		return out
	}
	return []Symbol{atom}
}

// match checks the focus and the exact adjacent contexts before binding
// variables and evaluating the guard.
func (g *Grammar) match(idx int, r *Rule, atom Symbol, left, right []Symbol) (Env, bool) {
	if !r.Focus.matches(atom) || len(r.Left) > len(left) || len(r.Right) > len(right) {
		return nil, false
	}
	adjacent := left[len(left)-len(r.Left):]
	for i, p := range r.Left {
		if !p.matches(adjacent[i]) {
			return nil, false
		}
	}
	for i, p := range r.Right {
		if !p.matches(right[i]) {
			return nil, false
		}
	}

	env := make(Env, g.envSize[idx])
	maps.Copy(env, g.params)
	for i, p := range r.Left {
		p.bind(adjacent[i], env)
	}
	r.Focus.bind(atom, env)
	for i, p := range r.Right {
		p.bind(right[i], env)
	}

	if r.Guard.Test != nil && !r.Guard.Test(env) {
		return nil, false
	}
	return env, true
}

// check validates rule i and returns how many variables it binds.
func (g *Grammar) check(i int) (int, error) {
	r := &g.rules[i]
	name := r.Name
	if name == "" {
		name = "rule"
	}
	fail := func(format string, args ...any) (int, error) {
		return 0, &MalformedError{Rule: name, Index: i, Reason: fmt.Sprintf(format, args...)}
	}

	if r.Focus.Tag == "" {
		return fail("missing focus symbol")
	}

	bound := make(map[string]bool)
	patterns := make([]Pattern, 0, len(r.Left)+1+len(r.Right))
	patterns = append(patterns, r.Left...)
	patterns = append(patterns, r.Focus)
	patterns = append(patterns, r.Right...)
	for _, p := range patterns {
		arity, ok := g.alphabet[p.Tag]
		if !ok {
			return fail("unknown tag %q in pattern", p.Tag)
		}
		if arity != len(p.Vars) {
			return fail("pattern %s binds %d values, tag has arity %d", p.Tag, len(p.Vars), arity)
		}
		for _, v := range p.Vars {
			if v == "_" {
				continue
			}
			if bound[v] {
				return fail("variable %q bound twice", v)
			}
			if _, clash := g.params[v]; clash {
				return fail("variable %q shadows a species parameter", v)
			}
			bound[v] = true
		}
	}

	known := func(ref string) bool {
		if bound[ref] {
			return true
		}
		_, ok := g.params[ref]
		return ok
	}

	if r.Guard.Test == nil && len(r.Guard.Refs) > 0 {
		return fail("guard %q has no test", r.Guard.Source)
	}
	for _, ref := range r.Guard.Refs {
		if !known(ref) {
			return fail("guard reads unbound name %q", ref)
		}
	}

	for _, p := range r.Produce {
		arity, ok := g.alphabet[p.Tag]
		if !ok {
			return fail("unknown tag %q in replacement", p.Tag)
		}
		if arity != len(p.Args) {
			return fail("replacement %s has %d arguments, tag has arity %d", p.Tag, len(p.Args), arity)
		}
		for _, arg := range p.Args {
			if arg.Eval == nil {
				return fail("replacement %s has an argument without Eval", p.Tag)
			}
			for _, ref := range arg.Refs {
				if !known(ref) {
					return fail("replacement %s reads unbound name %q", p.Tag, ref)
				}
			}
		}
	}

	// An unguarded rule hides every later rule it matches whenever the later
	// one would: same focus, and contexts that are the adjacent part of the
	// later rule's contexts.
	for j := 0; j < i; j++ {
		prev := &g.rules[j]
		if prev.Guard.Test == nil && covers(prev, r) {
			return fail("unreachable: shadowed by rule #%d", j)
		}
	}

	return len(bound), nil
}

// covers reports whether every neighbourhood matched by r is also matched by
// prev, ignoring guards. Left contexts are compared at their closest end,
// right contexts at their start.
func covers(prev, r *Rule) bool {
	if !prev.Focus.sameShape(r.Focus) ||
		len(prev.Left) > len(r.Left) ||
		len(prev.Right) > len(r.Right) {
		return false
	}
	return sameShapes(prev.Left, r.Left[len(r.Left)-len(prev.Left):]) &&
		sameShapes(prev.Right, r.Right[:len(prev.Right)])
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
