/*
Package tree provides an append-only arena for rooted trees.

Nodes are addressed by opaque Handles issued by the arena. A handle is only
meaningful against the Tree that issued it: using it against another Tree, or
using the zero Handle, fails with ErrInvalidHandle.

	t := tree.New[string]()
	root := t.AddNode("trunk")
	leaf := t.AddNode("leaf")
	_ = t.AddEdge(root, leaf)

	for e := range t.Edges() {
		fmt.Println(e.Start, "->", e.End)
	}
*/
package tree
