package lsys

// Grammar maps a symbol and its neighbourhood in the previous generation to a
// replacement sequence. Implementations must be pure: the same inputs always
// yield the same output and no state is kept between calls.
//
// left holds every symbol before atom (closest neighbour last) and right every
// symbol after it (closest neighbour first). Both are views into the frozen
// previous generation and must not be modified.
type Grammar[A any] interface {
	Rewrite(atom A, left, right []A) []A
}

// GrammarFunc adapts a plain function to the Grammar interface.
type GrammarFunc[A any] func(atom A, left, right []A) []A

// Rewrite calls f.
func (f GrammarFunc[A]) Rewrite(atom A, left, right []A) []A {
	return f(atom, left, right)
}

// System is a deterministic, two-sided context-sensitive L-system over the
// alphabet A that interprets its output into a tree of N with turtle state S.
//
// S should be a plain value type: Context.Push saves it by copy.
type System[A, N, S any] interface {
	Grammar[A]

	// Axiom returns the initial sequence. It must be finite.
	Axiom() []A

	// Process executes one symbol against the interpretation context.
	// Symbols the system does not interpret should be ignored, not rejected.
	Process(ctx *Context[N, S], atom A) error
}
