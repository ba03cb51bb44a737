package grammar

import "maps"

// Env binds names to numbers: species parameters plus the variables bound by a match.
type Env map[string]float64

// Clone returns a copy of e.
func (e Env) Clone() Env {
	return maps.Clone(e)
}

// Expr computes a production argument from the match environment.
// Refs lists the names Eval reads so the table can be checked up front.
// Source is the canonical text of the computation; it is empty for closures
// that were never described.
type Expr struct {
	Source string
	Refs   []string
	Eval   func(Env) float64
}

// Guard is an optional condition over the match environment.
// The zero Guard always holds.
type Guard struct {
	Source string
	Refs   []string
	Test   func(Env) bool
}

// Pattern matches one symbol by tag and binds its parameters, in order, to Vars.
// A var named "_" matches without binding.
type Pattern struct {
	Tag  string
	Vars []string
}

// Production builds one replacement symbol.
type Production struct {
	Tag  string
	Args []Expr
}

// Rule is one production of the table:
//
//	Left < Focus > Right : Guard -> Produce
//
// Left and Right may be empty, in which case that side is not inspected.
type Rule struct {
	Name    string
	Left    []Pattern
	Focus   Pattern
	Right   []Pattern
	Guard   Guard
	Produce []Production
}

// Var reads a bound variable or parameter.
func Var(name string) Expr {
	return Expr{
		Source: name,
		Refs:   []string{name},
		Eval:   func(e Env) float64 { return e[name] },
	}
}

// Const is a fixed value.
func Const(v float64) Expr {
	return Expr{
		Source: formatFloat(v),
		Eval:   func(Env) float64 { return v },
	}
}

// Calc wraps an arbitrary computation that reads refs. The result is opaque
// until Describe gives it a source.
func Calc(fn func(Env) float64, refs ...string) Expr {
	return Expr{Refs: refs, Eval: fn}
}

// If wraps a guard condition that reads refs. The result is opaque until
// Describe gives it a source.
func If(fn func(Env) bool, refs ...string) Guard {
	return Guard{Refs: refs, Test: fn}
}

// Describe returns e with source as its canonical text. Expressions with the
// same source over the same parameters must compute the same value.
func (e Expr) Describe(source string) Expr {
	e.Source = source
	return e
}

// Opaque reports whether e has no source identifying its computation.
func (e Expr) Opaque() bool {
	return e.Source == ""
}

// Describe returns g with source as its canonical text.
func (g Guard) Describe(source string) Guard {
	g.Source = source
	return g
}

// Opaque reports whether g has a test but no source identifying it.
func (g Guard) Opaque() bool {
	return g.Test != nil && g.Source == ""
}

// Opaque reports whether any guard or argument of r is an undescribed closure.
// Such rules cannot be told apart by their text alone.
func (r Rule) Opaque() bool {
	if r.Guard.Opaque() {
		return true
	}
	for _, p := range r.Produce {
		for _, arg := range p.Args {
			if arg.Opaque() {
				return true
			}
		}
	}
	return false
}

// Match builds a pattern.
func Match(tag string, vars ...string) Pattern {
	return Pattern{Tag: tag, Vars: vars}
}

// Emit builds a production.
func Emit(tag string, args ...Expr) Production {
	return Production{Tag: tag, Args: args}
}

func (p Pattern) matches(s Symbol) bool {
	return p.Tag == s.Tag && len(p.Vars) == len(s.Params)
}

func (p Pattern) bind(s Symbol, env Env) {
	for i, v := range p.Vars {
		if v != "_" {
			env[v] = s.Params[i]
		}
	}
}

func (p Pattern) sameShape(o Pattern) bool {
	return p.Tag == o.Tag && len(p.Vars) == len(o.Vars)
}

func sameShapes(a, b []Pattern) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].sameShape(b[i]) {
			return false
		}
	}
	return true
}
