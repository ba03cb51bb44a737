package dto

import (
	"fmt"

	"github.com/aretw0/arbor/pkg/tree"
	"github.com/aretw0/arbor/pkg/turtle"
	"github.com/go-gl/mathgl/mgl64"
)

// Node is the wire form of a skeleton node. Children are indexes into Tree.Nodes.
type Node struct {
	ID       int        `json:"id" yaml:"id"`
	Position [3]float64 `json:"position" yaml:"position"`
	Diameter float64    `json:"diameter" yaml:"diameter"`
	Children []int      `json:"children,omitempty" yaml:"children,omitempty"`
}

// Edge is the wire form of a parent/child pair.
type Edge struct {
	Start int `json:"start" yaml:"start"`
	End   int `json:"end" yaml:"end"`
}

// Tree is a built tree in insertion order. Node 0 is the root.
type Tree struct {
	Nodes []Node `json:"nodes" yaml:"nodes"`
	Edges []Edge `json:"edges" yaml:"edges"`
}

// FromTree flattens an arena.
func FromTree(t *tree.Tree[turtle.Node]) (Tree, error) {
	out := Tree{
		Nodes: make([]Node, 0, t.Len()),
		Edges: make([]Edge, 0, t.EdgeCount()),
	}
	for h, n := range t.Nodes() {
		children, err := t.Children(h)
		if err != nil {
			return Tree{}, err
		}
		node := Node{
			ID:       h.Index(),
			Position: [3]float64(n.Position),
			Diameter: n.Diameter,
		}
		for _, c := range children {
			node.Children = append(node.Children, c.Index())
			out.Edges = append(out.Edges, Edge{Start: h.Index(), End: c.Index()})
		}
		out.Nodes = append(out.Nodes, node)
	}
	return out, nil
}

// ToTree rebuilds an arena. Node ids must be dense and in order.
func ToTree(d Tree) (*tree.Tree[turtle.Node], error) {
	t := tree.New[turtle.Node]()
	handles := make([]tree.Handle, len(d.Nodes))
	for i, n := range d.Nodes {
		if n.ID != i {
			return nil, fmt.Errorf("node %d has id %d", i, n.ID)
		}
		handles[i] = t.AddNode(turtle.Node{
			Position: mgl64.Vec3(n.Position),
			Diameter: n.Diameter,
		})
	}
	for _, n := range d.Nodes {
		for _, c := range n.Children {
			if c < 0 || c >= len(handles) {
				return nil, fmt.Errorf("node %d: child %d out of range", n.ID, c)
			}
			if err := t.AddEdge(handles[n.ID], handles[c]); err != nil {
				return nil, err
			}
		}
	}
	return t, nil
}
