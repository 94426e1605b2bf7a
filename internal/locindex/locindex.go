// Package locindex groups analysis program points by source location.
package locindex

import (
	"fmt"
	"go/token"
	"sync"

	"github.com/gnolang/witness/internal/analysis"
	"github.com/gnolang/witness/internal/analysis/cfg"
)

// Location is a source position. Columns are 1-based.
type Location struct {
	File   string
	Line   int
	Column int
}

func LocationOf(pos token.Position) Location {
	return Location{File: pos.Filename, Line: pos.Line, Column: pos.Column}
}

func (l Location) String() string {
	return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
}

// Bucket holds the points sharing one location, in discovery order.
type Bucket struct {
	Location Location
	// Function encloses the first point of the bucket.
	Function string
	Points   []analysis.Point
}

// Predicate selects the points an Index keeps.
type Predicate func(g *cfg.Graph, p analysis.Point) bool

// InvariantEligible keeps statement points at real locations of non-stub functions.
func InvariantEligible(g *cfg.Graph, p analysis.Point) bool {
	return p.Node.IsStatement() && !p.Node.Synthetic && !g.IsStub(p.Node)
}

// LoopHeadEligible keeps loop heads of non-stub functions.
func LoopHeadEligible(g *cfg.Graph, p analysis.Point) bool {
	return p.Node.LoopHead && !g.IsStub(p.Node)
}

// Index maps locations to buckets of program points.
type Index struct {
	buckets []*Bucket
	byLoc   map[Location]*Bucket
}

// Build scans every point of r and keeps those accepted by eligible.
func Build(r analysis.Result, eligible Predicate) *Index {
	idx := &Index{byLoc: make(map[Location]*Bucket)}
	g := r.Graph()
	for _, p := range r.Points() {
		if !eligible(g, p) {
			continue
		}
		loc := LocationOf(p.Node.Pos)
		b, ok := idx.byLoc[loc]
		if !ok {
			b = &Bucket{Location: loc, Function: p.Node.Function}
			idx.byLoc[loc] = b
			idx.buckets = append(idx.buckets, b)
		}
		b.Points = append(b.Points, p)
	}
	return idx
}

// Empty returns an index without buckets.
func Empty() *Index {
	return &Index{byLoc: make(map[Location]*Bucket)}
}

// Lookup returns the bucket at loc.
func (idx *Index) Lookup(loc Location) (*Bucket, bool) {
	b, ok := idx.byLoc[loc]
	return b, ok
}

// Buckets returns the buckets in discovery order.
func (idx *Index) Buckets() []*Bucket {
	return idx.buckets
}

func (idx *Index) Len() int {
	return len(idx.buckets)
}

// Lazy builds an index on first use and memoizes it.
type Lazy struct {
	once  sync.Once
	build func() *Index
	idx   *Index
}

func NewLazy(r analysis.Result, eligible Predicate) *Lazy {
	return &Lazy{build: func() *Index { return Build(r, eligible) }}
}

// Get returns the index, building it on the first call.
func (l *Lazy) Get() *Index {
	l.once.Do(func() { l.idx = l.build() })
	return l.idx
}

// Indices holds the two indices of one generation or validation run.
type Indices struct {
	Invariant *Lazy
	LoopHead  *Lazy
}

// NewIndices prepares the indices for r. With loopHead off the loop-head
// index is always empty.
func NewIndices(r analysis.Result, loopHead bool) *Indices {
	loop := &Lazy{build: Empty}
	if loopHead {
		loop = NewLazy(r, LoopHeadEligible)
	}
	return &Indices{
		Invariant: NewLazy(r, InvariantEligible),
		LoopHead:  loop,
	}
}
