package snapshot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnolang/witness/internal/analysis"
	"github.com/gnolang/witness/internal/analysis/lattice"
)

func loadProgram(t *testing.T) *Snapshot {
	t.Helper()
	s, err := Load("../../../testdata/program.yml")
	require.NoError(t, err)
	return s
}

func pointAt(t *testing.T, s *Snapshot, node int, ctx analysis.Context) analysis.Point {
	t.Helper()
	for _, p := range s.Points() {
		if p.Node.ID == node && p.Context == ctx {
			return p
		}
	}
	t.Fatalf("no point %d@%s", node, ctx)
	return analysis.Point{}
}

func TestLoad(t *testing.T) {
	t.Parallel()
	s := loadProgram(t)

	assert.Len(t, s.Points(), 19)
	assert.Len(t, s.Graph().Nodes(), 14)
	assert.Equal(t, []string{"g"}, s.Globals())
	assert.Equal(t, []string{"program.c"}, s.Graph().Files())

	abort, ok := s.Graph().Function("abort")
	require.True(t, ok)
	assert.True(t, abort.Stub)

	n, ok := s.Graph().Node(9)
	require.True(t, ok)
	assert.True(t, n.Synthetic)
	assert.Equal(t, 6, n.Pos.Line)
}

func TestEntryPointsAndSuccessors(t *testing.T) {
	t.Parallel()
	s := loadProgram(t)

	entries := s.EntryPoints("f")
	require.Len(t, entries, 3)
	assert.Equal(t, analysis.Context("f1"), entries[0].Context)
	assert.Equal(t, analysis.Context("f3"), entries[2].Context)

	succs := s.Successors(pointAt(t, s, 4, "main"))
	require.Len(t, succs, 2)
	assert.Equal(t, 5, succs[0].Node.ID)
	assert.Equal(t, 6, succs[1].Node.ID)

	// node 12 has no point in context f3
	assert.Empty(t, s.Successors(pointAt(t, s, 11, "f3")))
}

func TestFact(t *testing.T) {
	t.Parallel()
	s := loadProgram(t)

	p := pointAt(t, s, 4, "main")
	f, ok := s.Fact(p, nil)
	require.True(t, ok)
	assert.Equal(t, "g == 0 && 0 <= i && i <= 10 && n == 10", f.String())

	f, ok = s.Fact(p, analysis.NewLvalSet("i"))
	require.True(t, ok)
	assert.Equal(t, "0 <= i && i <= 10", f.String())

	conj := f.Conjuncts()
	require.Len(t, conj, 2)
	assert.Equal(t, "0 <= i", conj[0].String())
	assert.Equal(t, "i <= 10", conj[1].String())

	dead, ok := s.Fact(pointAt(t, s, 10, "f3"), nil)
	require.True(t, ok)
	assert.True(t, dead.IsBottom())
	assert.Equal(t, "0", dead.String())

	top, ok := s.Fact(pointAt(t, s, 13, "abort"), nil)
	require.True(t, ok)
	assert.True(t, top.IsTop())
	assert.Equal(t, "1", top.String())

	require.Len(t, s.GlobalFacts(), 1)
	assert.Equal(t, "0 <= g && g <= 10", s.GlobalFacts()[0].String())
}

func TestFactOr(t *testing.T) {
	t.Parallel()

	a := NewFact(lattice.AbstractState{"x": lattice.Const(1), "y": lattice.Const(2)})
	b := NewFact(lattice.AbstractState{"x": lattice.Const(4)})
	assert.Equal(t, "1 <= x && x <= 4", a.Or(b).String())

	bottom := NewFact(nil)
	assert.Equal(t, a.String(), bottom.Or(a).String())
	assert.True(t, a.Or(NewFact(lattice.AbstractState{})).IsTop())
}

func TestEval(t *testing.T) {
	t.Parallel()
	s := loadProgram(t)
	parser := s.Parser()

	fn, _ := s.Graph().Function("main")
	u, err := parser.Parse("i <= n")
	require.NoError(t, err)
	e, err := parser.Bind(u, fn)
	require.NoError(t, err)

	assert.Equal(t, analysis.True, s.Eval(pointAt(t, s, 4, "main"), e))

	f, _ := s.Graph().Function("f")
	u, err = parser.Parse("x == 10 && g == 0")
	require.NoError(t, err)
	e, err = parser.Bind(u, f)
	require.NoError(t, err)

	assert.Equal(t, analysis.True, s.Eval(pointAt(t, s, 10, "f1"), e))
	assert.Equal(t, analysis.False, s.Eval(pointAt(t, s, 10, "f2"), e))
	assert.Equal(t, analysis.Unreachable, s.Eval(pointAt(t, s, 10, "f3"), e))
}

func TestParseErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data string
		msg  string
	}{
		{
			name: "empty",
			data: "",
			msg:  "empty snapshot",
		},
		{
			name: "unknown field",
			data: "funcs: []",
			msg:  "field funcs not found",
		},
		{
			name: "unknown function",
			data: "nodes: [{id: 1, function: g}]",
			msg:  `unknown function "g"`,
		},
		{
			name: "unknown kind",
			data: "functions: [{name: f}]\nnodes: [{id: 1, function: f, kind: loop}]",
			msg:  `unknown node kind "loop"`,
		},
		{
			name: "unknown successor",
			data: "functions: [{name: f}]\nnodes: [{id: 1, function: f, location: {file: p.c, line: 1, column: 1}, successors: [2]}]",
			msg:  "unknown node 2",
		},
		{
			name: "unknown point node",
			data: "points: [{node: 3, context: c}]",
			msg:  "unknown node 3",
		},
		{
			name: "duplicate point",
			data: "functions: [{name: f}]\nnodes: [{id: 1, function: f, location: {file: p.c, line: 1, column: 1}}]\npoints: [{node: 1, context: c}, {node: 1, context: c}]",
			msg:  "duplicate point 1@c",
		},
		{
			name: "undeclared variable",
			data: "functions: [{name: f}]\nnodes: [{id: 1, function: f, location: {file: p.c, line: 1, column: 1}}]\npoints: [{node: 1, context: c, state: {y: 1}}]",
			msg:  `"y" is not declared in f`,
		},
		{
			name: "dead with state",
			data: "functions: [{name: f, declarations: [y]}]\nnodes: [{id: 1, function: f, location: {file: p.c, line: 1, column: 1}}]\npoints: [{node: 1, context: c, dead: true, state: {y: 1}}]",
			msg:  "dead point carries a state",
		},
		{
			name: "empty interval",
			data: "functions: [{name: f, declarations: [y]}]\nnodes: [{id: 1, function: f, location: {file: p.c, line: 1, column: 1}}]\npoints: [{node: 1, context: c, state: {y: {min: 3, max: 1}}}]",
			msg:  "empty interval",
		},
		{
			name: "missing column",
			data: "functions: [{name: f}]\nnodes: [{id: 1, function: f, location: {file: p.c, line: 2}}]",
			msg:  "node 1: location needs a line and column starting at 1",
		},
		{
			name: "missing line",
			data: "functions: [{name: f}]\nnodes: [{id: 1, function: f, location: {file: p.c, column: 4}}]",
			msg:  "node 1: location needs a line and column starting at 1",
		},
		{
			name: "minimum int as value",
			data: "functions: [{name: f, declarations: [i]}]\nnodes: [{id: 1, function: f, location: {file: p.c, line: 1, column: 1}}]\npoints: [{node: 1, context: c, state: {i: -9223372036854775808}}]",
			msg:  "bound -9223372036854775808 is out of range",
		},
		{
			name: "maximum int as bound",
			data: "functions: [{name: f, declarations: [i]}]\nnodes: [{id: 1, function: f, location: {file: p.c, line: 1, column: 1}}]\npoints: [{node: 1, context: c, state: {i: {min: 0, max: 9223372036854775807}}}]",
			msg:  "bound 9223372036854775807 is out of range",
		},
		{
			name: "global invariant on local",
			data: "global_invariants: [{y: 1}]",
			msg:  `"y" is not a global`,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Parse([]byte(tt.data))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestLoadMissing(t *testing.T) {
	t.Parallel()
	_, err := Load("../../../testdata/missing.yml")
	assert.ErrorContains(t, err, "failed to open snapshot")
}
