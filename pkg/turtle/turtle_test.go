package turtle_test

import (
	"testing"

	"github.com/aretw0/arbor/pkg/grammar"
	"github.com/aretw0/arbor/pkg/lsys"
	"github.com/aretw0/arbor/pkg/tree"
	"github.com/aretw0/arbor/pkg/turtle"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const eps = 1e-9

type testSystem struct {
	*grammar.Grammar
	axiom []grammar.Symbol
}

func (s testSystem) Axiom() []grammar.Symbol { return s.axiom }

func (s testSystem) Process(ctx *turtle.Context, atom grammar.Symbol) error {
	return turtle.Interpret(ctx, atom)
}

func newContext(root turtle.Node) *turtle.Context {
	t := tree.New[turtle.Node]()
	h := t.AddNode(root)
	return lsys.NewContext(t, turtle.Seed(root)(h))
}

func run(t *testing.T, ctx *turtle.Context, program string) {
	t.Helper()
	symbols, err := grammar.ParseSequence(turtle.Alphabet, nil, program)
	require.NoError(t, err)
	for _, s := range symbols {
		require.NoError(t, turtle.Interpret(ctx, s))
	}
}

func lastNode(t *testing.T, ctx *turtle.Context) turtle.Node {
	t.Helper()
	n, err := ctx.Tree.Get(ctx.State.Last)
	require.NoError(t, err)
	return n
}

func assertVec(t *testing.T, want, got mgl64.Vec3) {
	t.Helper()
	assert.True(t, want.ApproxEqualThreshold(got, 1e-6), "want %v, got %v", want, got)
}

func TestForward(t *testing.T) {
	ctx := newContext(turtle.Node{Diameter: 10})

	require.NoError(t, turtle.Forward(ctx, 2.5))

	n := lastNode(t, ctx)
	assertVec(t, mgl64.Vec3{0, 2.5, 0}, n.Position)
	assert.Equal(t, 10.0, n.Diameter)
	assert.Equal(t, 2, ctx.Tree.Len())
	assert.Equal(t, 1, ctx.Tree.EdgeCount())
}

func TestForward_LinearChain(t *testing.T) {
	const n = 6
	ctx := newContext(turtle.Node{Diameter: 1})
	for range n {
		require.NoError(t, turtle.Forward(ctx, 1))
	}

	assert.Equal(t, n+1, ctx.Tree.Len())

	var prev *tree.Edge[turtle.Node]
	count := 0
	for e := range ctx.Tree.Edges() {
		if prev != nil {
			assert.Equal(t, prev.End, e.Start)
		}
		assert.InDelta(t, 1, e.End.Position.Sub(e.Start.Position).Len(), eps)
		prev = &e
		count++
	}
	assert.Equal(t, n, count)
	assertVec(t, mgl64.Vec3{0, n, 0}, lastNode(t, ctx).Position)
}

func TestSetDiameter_NotRetroactive(t *testing.T) {
	ctx := newContext(turtle.Node{Diameter: 10})
	run(t, ctx, "F(1) W(3) F(1)")

	var diameters []float64
	for _, n := range ctx.Tree.Nodes() {
		diameters = append(diameters, n.Diameter)
	}
	assert.Equal(t, []float64{10, 10, 3}, diameters)
}

func TestRotate(t *testing.T) {
	tests := []struct {
		name    string
		program string
		want    mgl64.Vec3
	}{
		{"about z", "R(0, 0, 90) F(1)", mgl64.Vec3{-1, 0, 0}},
		{"about x", "R(90, 0, 0) F(1)", mgl64.Vec3{0, 0, 1}},
		{"about y keeps up", "R(0, 45, 0) F(2)", mgl64.Vec3{0, 2, 0}},
		// Rx·Rz: z applies first to the up axis, then x.
		{"axis order", "R(90, 0, 90) F(1)", mgl64.Vec3{-1, 0, 0}},
		{"composes", "R(0, 0, 45) R(0, 0, 45) F(1)", mgl64.Vec3{-1, 0, 0}},
		{"full turn", "R(0, 0, 360) F(1)", mgl64.Vec3{0, 1, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := newContext(turtle.Node{})
			run(t, ctx, tt.program)
			assertVec(t, tt.want, lastNode(t, ctx).Position)
		})
	}
}

func TestPushPop_RestoresState(t *testing.T) {
	ctx := newContext(turtle.Node{Diameter: 4})
	run(t, ctx, "F(1) R(10, 20, 30)")
	before := ctx.State

	run(t, ctx, "[ W(1) F(3) R(0, 0, 45) [ F(1) ] F(2) ]")

	assert.Equal(t, before.Last, ctx.State.Last)
	assert.Equal(t, before.Diameter, ctx.State.Diameter)
	assert.True(t, before.Heading.ApproxEqualThreshold(ctx.State.Heading, eps))
	assert.Equal(t, 0, ctx.Depth())
}

func TestInterpret_Errors(t *testing.T) {
	ctx := newContext(turtle.Node{})
	err := turtle.Interpret(ctx, grammar.NewSymbol(turtle.TagPop))
	assert.ErrorIs(t, err, lsys.ErrStackUnderflow)

	foreign := tree.New[turtle.Node]()
	ctx.State.Last = foreign.AddNode(turtle.Node{})
	err = turtle.Interpret(ctx, grammar.NewSymbol(turtle.TagForward, 1))
	assert.ErrorIs(t, err, tree.ErrInvalidHandle)
}

func TestInterpret_IgnoresUnknownTags(t *testing.T) {
	ctx := newContext(turtle.Node{Diameter: 2})
	before := ctx.State

	for _, s := range []grammar.Symbol{
		grammar.NewSymbol("A", 100, 10),
		grammar.NewSymbol("X"),
		grammar.NewSymbol("+", 1),
	} {
		require.NoError(t, turtle.Interpret(ctx, s))
	}

	assert.Equal(t, before, ctx.State)
	assert.Equal(t, 1, ctx.Tree.Len())
}

func TestConstruct_TwoBranches(t *testing.T) {
	alphabet, err := turtle.Alphabet.Merge(grammar.Alphabet{"A": 2})
	require.NoError(t, err)

	params := grammar.Env{
		"yaw1": 30, "yaw2": -45,
		"len1": 0.6, "len2": 0.85,
		"dia1": 0.5, "dia2": 0.7,
	}
	g, err := grammar.Compile(alphabet, params,
		"A(s, w) -> [ R(0, 0, yaw1) W(w * dia1) F(s * len1) ] [ R(0, 0, yaw2) W(w * dia2) F(s * len2) ]",
	)
	require.NoError(t, err)

	sys := testSystem{Grammar: g, axiom: []grammar.Symbol{grammar.NewSymbol("A", 100, 10)}}
	res, err := turtle.Construct(sys, turtle.Node{Diameter: 10}, 1)
	require.NoError(t, err)

	require.Equal(t, 3, res.Len())
	root, _ := res.Root()
	children, err := res.Children(root)
	require.NoError(t, err)
	require.Len(t, children, 2)

	left, err := res.Get(children[0])
	require.NoError(t, err)
	right, err := res.Get(children[1])
	require.NoError(t, err)

	assertVec(t, mgl64.Rotate3DZ(mgl64.DegToRad(30)).Mul3x1(mgl64.Vec3{0, 60, 0}), left.Position)
	assertVec(t, mgl64.Rotate3DZ(mgl64.DegToRad(-45)).Mul3x1(mgl64.Vec3{0, 85, 0}), right.Position)
	assert.InDelta(t, 5, left.Diameter, eps)
	assert.InDelta(t, 7, right.Diameter, eps)

	for _, c := range children {
		grandchildren, err := res.Children(c)
		require.NoError(t, err)
		assert.Empty(t, grandchildren)
	}
}

func TestConstruct_ZeroIterationsInterpretsAxiom(t *testing.T) {
	g, err := grammar.New(turtle.Alphabet, nil)
	require.NoError(t, err)

	axiom, err := grammar.ParseSequence(turtle.Alphabet, nil, "F(1) F(2) F(3)")
	require.NoError(t, err)

	res, err := turtle.Construct(testSystem{Grammar: g, axiom: axiom}, turtle.Node{}, 0)
	require.NoError(t, err)
	assert.Equal(t, 4, res.Len())
	assert.Equal(t, 3, res.EdgeCount())
}

func TestConstruct_Unbalanced(t *testing.T) {
	g, err := grammar.New(turtle.Alphabet, nil)
	require.NoError(t, err)

	for _, program := range []string{"F(1) ]", "[ F(1)"} {
		axiom, err := grammar.ParseSequence(turtle.Alphabet, nil, program)
		require.NoError(t, err)

		res, err := turtle.Construct(testSystem{Grammar: g, axiom: axiom}, turtle.Node{}, 0)
		assert.Error(t, err, program)
		assert.Nil(t, res)
	}
}
