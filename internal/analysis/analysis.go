// Package analysis defines the query surface of a converged fixed-point
// analysis result. Witness generation and validation only ever talk to the
// analysis through these interfaces.
package analysis

import (
	"fmt"
	"sort"

	"github.com/gnolang/witness/internal/analysis/cfg"
)

// Context identifies a calling context of the analysis.
type Context string

// Point is a control flow node analyzed under one calling context.
type Point struct {
	Node    *cfg.Node
	Context Context
}

func (p Point) String() string {
	return fmt.Sprintf("%d@%s", p.Node.ID, p.Context)
}

// Truth is the outcome of evaluating a boolean expression against a fact.
type Truth int

const (
	Unknown Truth = iota
	True
	False
	// Unreachable means the point carries the bottom state.
	Unreachable
)

func (t Truth) String() string {
	switch t {
	case True:
		return "true"
	case False:
		return "false"
	case Unreachable:
		return "unreachable"
	default:
		return "unknown"
	}
}

// Invariant is a fact from the analysis's own lattice.
type Invariant interface {
	IsBottom() bool
	IsTop() bool
	// Or joins two facts of the same lattice.
	Or(other Invariant) Invariant
	// Conjuncts splits the fact into independent clauses, in a stable order.
	Conjuncts() []Invariant
	// String renders the fact as an expression of the analyzed language.
	String() string
}

// Unbound is parsed invariant text that has not been checked against any
// function's declarations yet.
type Unbound interface {
	String() string
}

// Expr is an expression bound to one function's declarations.
type Expr interface {
	String() string
}

// Parser turns invariant text into expressions the Result can evaluate.
type Parser interface {
	Parse(text string) (Unbound, error)
	Bind(u Unbound, fn *cfg.Function) (Expr, error)
}

// Result is a read-only, already converged analysis result.
type Result interface {
	Graph() *cfg.Graph
	// Points enumerates every analyzed point in a stable order.
	Points() []Point
	// EntryPoints returns the function entry point of fn for every context.
	EntryPoints(fn string) []Point
	// Successors returns the analyzed immediate successors of p in p's context.
	Successors(p Point) []Point
	// Accessed returns the lvalues read and written at p.
	Accessed(p Point) (reads, writes LvalSet)
	// Fact returns the fact at p. A non-nil restrict limits the fact to those lvalues.
	Fact(p Point, restrict LvalSet) (Invariant, bool)
	// GlobalFacts returns the flow-insensitive facts about globals.
	GlobalFacts() []Invariant
	// Eval evaluates a bound expression in the state at p.
	Eval(p Point, e Expr) Truth
}

// LvalSet is a set of memory locations, named by variable.
type LvalSet map[string]struct{}

// NewLvalSet returns a set holding names.
func NewLvalSet(names ...string) LvalSet {
	s := make(LvalSet, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}
	return s
}

// Has reports whether name is in s.
func (s LvalSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Union adds every element of other to s.
func (s LvalSet) Union(other LvalSet) {
	for n := range other {
		s[n] = struct{}{}
	}
}

// Sorted returns the elements of s in lexical order.
func (s LvalSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for n := range s {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
