package turtle

import (
	"fmt"

	"github.com/aretw0/arbor/pkg/grammar"
	"github.com/aretw0/arbor/pkg/lsys"
	"github.com/aretw0/arbor/pkg/tree"
	"github.com/go-gl/mathgl/mgl64"
)

// Tags interpreted by Interpret. Any other tag is ignored.
const (
	TagForward  = "F" // F(length)
	TagDiameter = "W" // W(diameter)
	TagRotate   = "R" // R(x, y, z) in degrees
	TagPush     = "["
	TagPop      = "]"
)

// Alphabet declares the interpreted tags with their arities. Species merge it
// with their own growth symbols.
var Alphabet = grammar.Alphabet{
	TagForward:  1,
	TagDiameter: 1,
	TagRotate:   3,
	TagPush:     0,
	TagPop:      0,
}

// Node is a point of the tree skeleton.
type Node struct {
	Position mgl64.Vec3
	Diameter float64
}

// State is the turtle: the node the next segment grows from, the diameter of
// the next node and the current heading. It is a plain value and is saved by
// copy on push.
type State struct {
	Last     tree.Handle
	Diameter float64
	Heading  mgl64.Quat
}

// Context is the interpretation context of a turtle build.
type Context = lsys.Context[Node, State]

// Up is the local axis segments grow along.
var Up = mgl64.Vec3{0, 1, 0}

// Seed returns the initial-state function for root: identity heading and the
// root's own diameter.
func Seed(root Node) func(tree.Handle) State {
	return func(h tree.Handle) State {
		return State{
			Last:     h,
			Diameter: root.Diameter,
			Heading:  mgl64.QuatIdent(),
		}
	}
}

// Forward grows a segment of the given length along the heading's local up
// axis and moves the turtle to the new node.
func Forward(ctx *Context, length float64) error {
	start, err := ctx.Tree.Get(ctx.State.Last)
	if err != nil {
		return fmt.Errorf("forward: %w", err)
	}

	delta := ctx.State.Heading.Rotate(Up).Mul(length)
	next := ctx.Tree.AddNode(Node{
		Position: start.Position.Add(delta),
		Diameter: ctx.State.Diameter,
	})
	if err := ctx.Tree.AddEdge(ctx.State.Last, next); err != nil {
		return fmt.Errorf("forward: %w", err)
	}

	ctx.State.Last = next
	return nil
}

// SetDiameter sets the diameter of the nodes created by later Forward calls.
func SetDiameter(ctx *Context, diameter float64) {
	ctx.State.Diameter = diameter
}

// Rotate turns the heading by Euler angles in degrees, applied about the
// local x, then y, then z axes.
func Rotate(ctx *Context, x, y, z float64) {
	ctx.State.Heading = ctx.State.Heading.Mul(Euler(x, y, z)).Normalize()
}

// Euler builds the rotation Rx(x)·Ry(y)·Rz(z) from angles in degrees.
func Euler(x, y, z float64) mgl64.Quat {
	rx := mgl64.QuatRotate(mgl64.DegToRad(x), mgl64.Vec3{1, 0, 0})
	ry := mgl64.QuatRotate(mgl64.DegToRad(y), mgl64.Vec3{0, 1, 0})
	rz := mgl64.QuatRotate(mgl64.DegToRad(z), mgl64.Vec3{0, 0, 1})
	return rx.Mul(ry).Mul(rz)
}

// Interpret executes one symbol with the fixed tag mapping
//
//	F(l) forward, W(d) diameter, R(x,y,z) rotate, [ push, ] pop
//
// Unknown tags are ignored so species can carry growth symbols that only
// matter to the grammar.
func Interpret(ctx *Context, s grammar.Symbol) error {
	switch s.Tag {
	case TagForward:
		return Forward(ctx, s.Param(0))
	case TagDiameter:
		SetDiameter(ctx, s.Param(0))
	case TagRotate:
		Rotate(ctx, s.Param(0), s.Param(1), s.Param(2))
	case TagPush:
		ctx.Push()
	case TagPop:
		return ctx.Pop()
	}
	return nil
}

// System is an L-system over grammar symbols interpreted by the turtle.
type System = lsys.System[grammar.Symbol, Node, State]

// Construct builds a tree from sys, seeding the turtle from root.
func Construct(sys System, root Node, iterations int, opts ...lsys.Option) (*tree.Tree[Node], error) {
	return lsys.Construct(sys, root, iterations, Seed(root), opts...)
}
