package locindex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnolang/witness/internal/analysis/snapshot"
)

const program = `
functions:
  - {name: main, declarations: [i]}
  - {name: stub, stub: true}
nodes:
  - {id: 1, function: main, kind: entry, location: {file: a.c, line: 1, column: 1}}
  - {id: 2, function: main, location: {file: a.c, line: 2, column: 3}}
  - {id: 3, function: main, location: {file: a.c, line: 3, column: 3}, loop_head: true}
  - {id: 4, function: main, location: {file: a.c, line: 3, column: 3}, synthetic: true}
  - {id: 5, function: main, location: {file: a.c, line: 2, column: 3}}
  - {id: 6, function: main, kind: return, location: {file: a.c, line: 4, column: 1}}
  - {id: 7, function: stub, location: {file: a.c, line: 8, column: 3}, loop_head: true}
points:
  - {node: 3, context: c1}
  - {node: 1, context: c1}
  - {node: 2, context: c1}
  - {node: 4, context: c1}
  - {node: 5, context: c1}
  - {node: 2, context: c2}
  - {node: 6, context: c1}
  - {node: 7, context: c1}
  - {node: 3, context: c2}
`

func TestBuildInvariantEligible(t *testing.T) {
	t.Parallel()

	s, err := snapshot.Parse([]byte(program))
	require.NoError(t, err)

	idx := Build(s, InvariantEligible)
	require.Equal(t, 2, idx.Len())

	buckets := idx.Buckets()
	assert.Equal(t, Location{File: "a.c", Line: 3, Column: 3}, buckets[0].Location)
	assert.Equal(t, Location{File: "a.c", Line: 2, Column: 3}, buckets[1].Location)
	assert.Equal(t, "main", buckets[0].Function)

	// the synthetic node 4 shares line 3 but is excluded
	require.Len(t, buckets[0].Points, 2)
	for _, p := range buckets[0].Points {
		assert.Equal(t, 3, p.Node.ID)
	}

	b, ok := idx.Lookup(Location{File: "a.c", Line: 2, Column: 3})
	require.True(t, ok)
	ids := make([]int, 0, len(b.Points))
	for _, p := range b.Points {
		ids = append(ids, p.Node.ID)
	}
	assert.Equal(t, []int{2, 5, 2}, ids)

	_, ok = idx.Lookup(Location{File: "a.c", Line: 1, Column: 1})
	assert.False(t, ok, "function entry must not be indexed")
	_, ok = idx.Lookup(Location{File: "a.c", Line: 4, Column: 1})
	assert.False(t, ok, "function return must not be indexed")
	_, ok = idx.Lookup(Location{File: "a.c", Line: 8, Column: 3})
	assert.False(t, ok, "stub function must not be indexed")
}

func TestBuildLoopHeadEligible(t *testing.T) {
	t.Parallel()

	s, err := snapshot.Parse([]byte(program))
	require.NoError(t, err)

	idx := Build(s, LoopHeadEligible)
	require.Equal(t, 1, idx.Len())
	assert.Len(t, idx.Buckets()[0].Points, 2)
}

func TestIndices(t *testing.T) {
	t.Parallel()

	s, err := snapshot.Parse([]byte(program))
	require.NoError(t, err)

	on := NewIndices(s, true)
	assert.Equal(t, 1, on.LoopHead.Get().Len())
	assert.Same(t, on.Invariant.Get(), on.Invariant.Get())

	off := NewIndices(s, false)
	assert.Equal(t, 0, off.LoopHead.Get().Len())
	assert.Equal(t, 2, off.Invariant.Get().Len())
}

func TestLocationString(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "a.c:3:7", Location{File: "a.c", Line: 3, Column: 7}.String())
}
