package lsys_test

import (
	"fmt"

	"github.com/aretw0/arbor/pkg/lsys"
	"github.com/aretw0/arbor/pkg/tree"
)

type kind int

const (
	kindA kind = iota
	kindB
	kindF
	kindPush
	kindPop
)

// sym is a tiny closed alphabet: A(x), B(x, y), F, [ and ].
type sym struct {
	k    kind
	x, y int
}

func A(x int) sym    { return sym{k: kindA, x: x} }
func B(x, y int) sym { return sym{k: kindB, x: x, y: y} }

var (
	F    = sym{k: kindF}
	push = sym{k: kindPush}
	pop  = sym{k: kindPop}
)

func (s sym) String() string {
	switch s.k {
	case kindA:
		return fmt.Sprintf("A(%d)", s.x)
	case kindB:
		return fmt.Sprintf("B(%d,%d)", s.x, s.y)
	case kindF:
		return "F"
	case kindPush:
		return "["
	default:
		return "]"
	}
}

// simpleRules encodes
//
//	A(a) < A(x) > B(b,c) : a+b+c < 10 -> B(a+b, a+c) A(x+a+b+c)
//	B(x,y) -> A(x+y)
func simpleRules(atom sym, left, right []sym) []sym {
	if atom.k == kindA && len(left) > 0 && len(right) > 0 {
		l, r := left[len(left)-1], right[0]
		if l.k == kindA && r.k == kindB {
			a, b, c := l.x, r.x, r.y
			if a+b+c < 10 {
				return []sym{B(a+b, a+c), A(atom.x + a + b + c)}
			}
		}
	}
	if atom.k == kindB {
		return []sym{A(atom.x + atom.y)}
	}
	return []sym{atom}
}

type nodeData int

type state struct {
	last  tree.Handle
	value int
}

type simpleSystem struct {
	axiom []sym
}

func (s simpleSystem) Axiom() []sym { return s.axiom }

func (s simpleSystem) Rewrite(atom sym, left, right []sym) []sym {
	return simpleRules(atom, left, right)
}

func (s simpleSystem) Process(ctx *lsys.Context[nodeData, state], atom sym) error {
	switch atom.k {
	case kindA:
		ctx.State.value += atom.x
	case kindF:
		h := ctx.Tree.AddNode(nodeData(ctx.State.value))
		if err := ctx.Tree.AddEdge(ctx.State.last, h); err != nil {
			return err
		}
		ctx.State.last = h
	case kindPush:
		ctx.Push()
	case kindPop:
		return ctx.Pop()
	}
	return nil
}

func seed(h tree.Handle) state {
	return state{last: h}
}
