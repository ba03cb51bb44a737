package lsys

import "github.com/aretw0/arbor/pkg/tree"

// Context is the interpretation state for one build: the arena under
// construction, the current turtle state, and a LIFO stack of saved states.
type Context[N, S any] struct {
	Tree  *tree.Tree[N]
	State S

	stack    []S
	maxDepth int
}

// NewContext creates a context over t starting from state.
func NewContext[N, S any](t *tree.Tree[N], state S) *Context[N, S] {
	return &Context[N, S]{Tree: t, State: state}
}

// Push saves a copy of the current state.
func (c *Context[N, S]) Push() {
	c.stack = append(c.stack, c.State)
	if len(c.stack) > c.maxDepth {
		c.maxDepth = len(c.stack)
	}
}

// Pop restores and removes the most recently saved state.
func (c *Context[N, S]) Pop() error {
	if len(c.stack) == 0 {
		return ErrStackUnderflow
	}
	last := len(c.stack) - 1
	c.State = c.stack[last]
	var zero S
	c.stack[last] = zero
	c.stack = c.stack[:last]
	return nil
}

// Depth returns the number of saved states.
func (c *Context[N, S]) Depth() int {
	return len(c.stack)
}
