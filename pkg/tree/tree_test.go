package tree_test

import (
	"testing"

	"github.com/aretw0/arbor/pkg/tree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type simpleNode int

func TestTree_AddNode(t *testing.T) {
	tr := tree.New[simpleNode]()

	h := tr.AddNode(10)
	got, err := tr.Get(h)
	require.NoError(t, err)
	assert.Equal(t, simpleNode(10), got)
	assert.Equal(t, 0, h.Index())
	assert.Equal(t, 1, tr.Len())

	root, ok := tr.Root()
	require.True(t, ok)
	assert.Equal(t, h, root)
}

func TestTree_AddEdge(t *testing.T) {
	tr := tree.New[simpleNode]()
	a := tr.AddNode(10)
	b := tr.AddNode(20)

	require.NoError(t, tr.AddEdge(a, b))

	var edges []tree.Edge[simpleNode]
	for e := range tr.Edges() {
		edges = append(edges, e)
	}
	require.Len(t, edges, 1)
	assert.Equal(t, simpleNode(10), edges[0].Start)
	assert.Equal(t, simpleNode(20), edges[0].End)

	children, err := tr.Children(a)
	require.NoError(t, err)
	assert.Equal(t, []tree.Handle{b}, children)
}

func TestTree_EdgeOrder(t *testing.T) {
	tr := tree.New[simpleNode]()
	root := tr.AddNode(0)
	left := tr.AddNode(1)
	right := tr.AddNode(2)
	leaf := tr.AddNode(3)

	require.NoError(t, tr.AddEdge(root, left))
	require.NoError(t, tr.AddEdge(left, leaf))
	require.NoError(t, tr.AddEdge(root, right))

	want := []tree.Edge[simpleNode]{
		{Start: 0, End: 1},
		{Start: 0, End: 2},
		{Start: 1, End: 3},
	}

	// Edges is restartable: two walks yield the same sequence.
	for range 2 {
		var got []tree.Edge[simpleNode]
		for e := range tr.Edges() {
			got = append(got, e)
		}
		assert.Equal(t, want, got)
	}
	assert.Equal(t, 3, tr.EdgeCount())
}

func TestTree_EdgesEarlyStop(t *testing.T) {
	tr := tree.New[simpleNode]()
	root := tr.AddNode(0)
	for i := 1; i <= 5; i++ {
		require.NoError(t, tr.AddEdge(root, tr.AddNode(simpleNode(i))))
	}

	n := 0
	for range tr.Edges() {
		n++
		if n == 2 {
			break
		}
	}
	assert.Equal(t, 2, n)
}

func TestTree_InvalidHandle(t *testing.T) {
	tr := tree.New[simpleNode]()
	a := tr.AddNode(1)

	other := tree.New[simpleNode]()
	foreign := other.AddNode(2)
	_ = other.AddNode(3)

	tests := []struct {
		name string
		run  func() error
	}{
		{"get zero handle", func() error { _, err := tr.Get(tree.Handle{}); return err }},
		{"get foreign handle", func() error { _, err := tr.Get(foreign); return err }},
		{"edge foreign parent", func() error { return tr.AddEdge(foreign, a) }},
		{"edge foreign child", func() error { return tr.AddEdge(a, foreign) }},
		{"children foreign", func() error { _, err := tr.Children(foreign); return err }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.run(), tree.ErrInvalidHandle)
		})
	}

	// Failed edge insertion leaves the arena untouched.
	assert.Equal(t, 0, tr.EdgeCount())
}

func TestTree_Nodes(t *testing.T) {
	tr := tree.New[simpleNode]()
	var handles []tree.Handle
	for i := range 3 {
		handles = append(handles, tr.AddNode(simpleNode(i*10)))
	}

	i := 0
	for h, data := range tr.Nodes() {
		assert.Equal(t, handles[i], h)
		assert.Equal(t, simpleNode(i*10), data)
		i++
	}
	assert.Equal(t, 3, i)

	_, ok := tree.New[simpleNode]().Root()
	assert.False(t, ok)
}
