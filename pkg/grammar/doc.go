/*
Package grammar provides a data-driven rule table over tagged symbols.

A Grammar is built once from an Alphabet (the closed set of tags and their
arities), a set of species parameters and an ordered list of Rules. All
authoring mistakes surface from New as a *MalformedError; a built Grammar
never fails while rewriting, because symbols that no rule matches rewrite to
themselves.

Rules can be written as Go values:

	grow := grammar.Rule{
		Focus:   grammar.Match("B", "x", "y"),
		Produce: []grammar.Production{grammar.Emit("A", grammar.Calc(func(e grammar.Env) float64 {
			return e["x"] + e["y"]
		}, "x", "y").Describe("x + y"))},
	}

A Calc or If closure without Describe is opaque: tables holding one report
Opaque and cannot be identified by their text, so callers keying caches on a
grammar must treat them as unique.

or as text, with expressions compiled by expr-lang:

	g, err := grammar.Compile(alphabet, params,
		"A(a) < A(x) > B(b, c) : a + b + c < 10 -> B(a + b, a + c) A(x + a + b + c)",
		"B(x, y) -> A(x + y)",
	)

Contexts are matched exactly: a left pattern must equal the symbols
immediately before the focus, and a right pattern the symbols immediately
after it.
*/
package grammar
