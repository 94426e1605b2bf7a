package cfg

import (
	"go/token"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildGraph(t *testing.T) *Graph {
	t.Helper()
	g := New()
	require.NoError(t, g.AddFunction(&Function{Name: "main", Declarations: []string{"x"}}))
	require.NoError(t, g.AddFunction(&Function{Name: "abort", Stub: true}))

	nodes := []*Node{
		{ID: 1, Kind: FunctionEntry, Function: "main", Pos: token.Position{Filename: "b.c", Line: 1, Column: 1}},
		{ID: 2, Function: "main", Pos: token.Position{Filename: "b.c", Line: 2, Column: 3}},
		{ID: 3, Function: "main", LoopHead: true, Pos: token.Position{Filename: "a.c", Line: 3, Column: 3}},
		{ID: 4, Kind: FunctionReturn, Function: "main", Pos: token.Position{Filename: "b.c", Line: 5, Column: 1}},
		{ID: 5, Function: "abort", Pos: token.Position{Filename: "a.c", Line: 9, Column: 3}},
	}
	for _, n := range nodes {
		require.NoError(t, g.AddNode(n))
	}
	require.NoError(t, g.AddEdge(1, 2))
	require.NoError(t, g.AddEdge(2, 3))
	require.NoError(t, g.AddEdge(3, 2))
	require.NoError(t, g.AddEdge(3, 4))
	return g
}

func TestGraphConstruction(t *testing.T) {
	t.Parallel()
	g := buildGraph(t)

	ids := []int{}
	for _, n := range g.Nodes() {
		ids = append(ids, n.ID)
	}
	assert.Equal(t, []int{1, 2, 3, 4, 5}, ids)

	n3, ok := g.Node(3)
	require.True(t, ok)
	succs := g.Successors(n3)
	require.Len(t, succs, 2)
	assert.Equal(t, 2, succs[0].ID)
	assert.Equal(t, 4, succs[1].ID)

	assert.Equal(t, []string{"a.c", "b.c"}, g.Files())
}

func TestGraphRejectsBadInput(t *testing.T) {
	t.Parallel()
	g := buildGraph(t)

	assert.Error(t, g.AddFunction(&Function{Name: "main"}))
	assert.Error(t, g.AddNode(&Node{ID: 1, Function: "main"}))
	assert.Error(t, g.AddNode(&Node{ID: 9, Function: "missing"}))
	assert.Error(t, g.AddEdge(1, 42))
	assert.Error(t, g.AddEdge(2, 5), "edges must not cross functions")
}

func TestClassification(t *testing.T) {
	t.Parallel()
	g := buildGraph(t)

	entry, _ := g.Node(1)
	body, _ := g.Node(2)
	ret, _ := g.Node(4)
	stub, _ := g.Node(5)

	assert.False(t, entry.IsStatement())
	assert.True(t, body.IsStatement())
	assert.False(t, ret.IsStatement())
	assert.True(t, g.IsStub(stub))
	assert.False(t, g.IsStub(body))

	main, ok := g.Function("main")
	require.True(t, ok)
	assert.True(t, main.Declares("x"))
	assert.False(t, main.Declares("y"))
}

func TestParseKind(t *testing.T) {
	t.Parallel()
	for _, k := range []Kind{Statement, FunctionEntry, FunctionReturn} {
		got, err := ParseKind(k.String())
		assert.NoError(t, err)
		assert.Equal(t, k, got)
	}
	_, err := ParseKind("loop")
	assert.Error(t, err)
}
