package tree

import (
	"errors"
	"fmt"
	"iter"
	"sync/atomic"
)

// ErrInvalidHandle is returned when a handle was not issued by the arena it is used against.
var ErrInvalidHandle = errors.New("invalid node handle")

var arenaSeq atomic.Uint64

// Handle is an opaque, stable reference to a node inside the Tree that issued it.
// Handles are comparable and are never invalidated or reused.
type Handle struct {
	arena uint64
	index int
}

// Index returns the insertion position of the node. The root is always 0.
func (h Handle) Index() int {
	return h.index
}

func (h Handle) String() string {
	return fmt.Sprintf("#%d", h.index)
}

// Edge is a transient view of a parent/child pair.
type Edge[T any] struct {
	Start T
	End   T
}

type node[T any] struct {
	data     T
	children []Handle
}

// Tree is an append-only arena of payloads with parent->child adjacency.
// It is not safe for concurrent mutation.
type Tree[T any] struct {
	id    uint64
	nodes []node[T]
}

// New creates an empty arena.
func New[T any]() *Tree[T] {
	return &Tree[T]{id: arenaSeq.Add(1)}
}

// AddNode appends a payload and returns its handle.
func (t *Tree[T]) AddNode(data T) Handle {
	t.nodes = append(t.nodes, node[T]{data: data})
	return Handle{arena: t.id, index: len(t.nodes) - 1}
}

// AddEdge records child as the next child of parent.
func (t *Tree[T]) AddEdge(parent, child Handle) error {
	if !t.owns(parent) {
		return fmt.Errorf("parent %s: %w", parent, ErrInvalidHandle)
	}
	if !t.owns(child) {
		return fmt.Errorf("child %s: %w", child, ErrInvalidHandle)
	}
	t.nodes[parent.index].children = append(t.nodes[parent.index].children, child)
	return nil
}

// Get returns the payload stored under h.
func (t *Tree[T]) Get(h Handle) (T, error) {
	if !t.owns(h) {
		var zero T
		return zero, fmt.Errorf("get %s: %w", h, ErrInvalidHandle)
	}
	return t.nodes[h.index].data, nil
}

// Children returns a copy of the child handles of h in insertion order.
func (t *Tree[T]) Children(h Handle) ([]Handle, error) {
	if !t.owns(h) {
		return nil, fmt.Errorf("children %s: %w", h, ErrInvalidHandle)
	}
	children := t.nodes[h.index].children
	out := make([]Handle, len(children))
	copy(out, children)
	return out, nil
}

// Root returns the handle of the first node. ok is false for an empty tree.
func (t *Tree[T]) Root() (h Handle, ok bool) {
	if len(t.nodes) == 0 {
		return Handle{}, false
	}
	return Handle{arena: t.id, index: 0}, true
}

// Len returns the number of nodes.
func (t *Tree[T]) Len() int {
	return len(t.nodes)
}

// EdgeCount returns the number of parent->child edges.
func (t *Tree[T]) EdgeCount() int {
	n := 0
	for i := range t.nodes {
		n += len(t.nodes[i].children)
	}
	return n
}

// Nodes yields every handle and payload in insertion order.
func (t *Tree[T]) Nodes() iter.Seq2[Handle, T] {
	return func(yield func(Handle, T) bool) {
		for i := range t.nodes {
			if !yield(Handle{arena: t.id, index: i}, t.nodes[i].data) {
				return
			}
		}
	}
}

// Edges yields (start, end) payload pairs, walking nodes in insertion order and
// each node's children in insertion order. The sequence can be ranged over
// repeatedly and always yields the same pairs for the same arena contents.
func (t *Tree[T]) Edges() iter.Seq[Edge[T]] {
	return func(yield func(Edge[T]) bool) {
		for i := range t.nodes {
			for _, child := range t.nodes[i].children {
				if !yield(Edge[T]{Start: t.nodes[i].data, End: t.nodes[child.index].data}) {
					return
				}
			}
		}
	}
}

func (t *Tree[T]) owns(h Handle) bool {
	return h.arena == t.id && h.index >= 0 && h.index < len(t.nodes)
}
