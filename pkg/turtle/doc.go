// Package turtle interprets grammar symbols as 3D turtle commands and grows
// a tree.Tree of Nodes.
package turtle
