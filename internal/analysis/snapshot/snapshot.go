// Package snapshot loads a converged analysis result from YAML and serves it
// through the analysis.Result query surface.
package snapshot

import (
	"bytes"
	"errors"
	"fmt"
	"go/token"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/gnolang/witness/internal/analysis"
	"github.com/gnolang/witness/internal/analysis/cfg"
	"github.com/gnolang/witness/internal/analysis/expr"
	"github.com/gnolang/witness/internal/analysis/lattice"
)

type file struct {
	Globals          []string              `yaml:"globals"`
	GlobalInvariants []map[string]interval `yaml:"global_invariants"`
	Functions        []function            `yaml:"functions"`
	Nodes            []node                `yaml:"nodes"`
	Points           []point               `yaml:"points"`
}

type function struct {
	Name         string   `yaml:"name"`
	Stub         bool     `yaml:"stub"`
	Declarations []string `yaml:"declarations"`
}

type location struct {
	File   string `yaml:"file"`
	Line   int    `yaml:"line"`
	Column int    `yaml:"column"`
}

type node struct {
	ID         int      `yaml:"id"`
	Function   string   `yaml:"function"`
	Kind       string   `yaml:"kind"`
	Location   location `yaml:"location"`
	Synthetic  bool     `yaml:"synthetic"`
	LoopHead   bool     `yaml:"loop_head"`
	Successors []int    `yaml:"successors"`
	Reads      []string `yaml:"reads"`
	Writes     []string `yaml:"writes"`
}

type point struct {
	Node    int                 `yaml:"node"`
	Context string              `yaml:"context"`
	Dead    bool                `yaml:"dead"`
	State   map[string]interval `yaml:"state"`
}

// interval is written either as a plain integer or as {min, max} with
// either bound omitted for infinity.
type interval lattice.Interval

func (v *interval) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind == yaml.ScalarNode {
		var c int64
		if err := n.Decode(&c); err != nil {
			return fmt.Errorf("line %d: %w", n.Line, err)
		}
		if err := finite(n, c); err != nil {
			return err
		}
		*v = interval(lattice.Const(c))
		return nil
	}
	var bounds struct {
		Min *int64 `yaml:"min"`
		Max *int64 `yaml:"max"`
	}
	if err := n.Decode(&bounds); err != nil {
		return fmt.Errorf("line %d: %w", n.Line, err)
	}
	out := lattice.Top()
	if bounds.Min != nil {
		if err := finite(n, *bounds.Min); err != nil {
			return err
		}
		out.Lo = *bounds.Min
	}
	if bounds.Max != nil {
		if err := finite(n, *bounds.Max); err != nil {
			return err
		}
		out.Hi = *bounds.Max
	}
	if out.IsEmpty() {
		return fmt.Errorf("line %d: empty interval [%d, %d]", n.Line, out.Lo, out.Hi)
	}
	*v = interval(out)
	return nil
}

// finite rejects the values reserved for the infinite bounds.
func finite(n *yaml.Node, c int64) error {
	if c == lattice.NegInf || c == lattice.PosInf {
		return fmt.Errorf("line %d: bound %d is out of range, omit it for infinity", n.Line, c)
	}
	return nil
}

type pointKey struct {
	node int
	ctx  analysis.Context
}

// Snapshot is an immutable analysis result.
type Snapshot struct {
	graph       *cfg.Graph
	points      []analysis.Point
	states      map[pointKey]lattice.AbstractState
	reads       map[int]analysis.LvalSet
	writes      map[int]analysis.LvalSet
	globals     []string
	globalFacts []analysis.Invariant
}

var _ analysis.Result = (*Snapshot)(nil)

// Load reads and validates the snapshot at path.
func Load(path string) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer f.Close()

	s, err := decode(f)
	if err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", path, err)
	}
	return s, nil
}

// Parse builds a snapshot from YAML bytes.
func Parse(data []byte) (*Snapshot, error) {
	return decode(bytes.NewReader(data))
}

func decode(r io.Reader) (*Snapshot, error) {
	var raw file
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty snapshot")
		}
		return nil, err
	}
	return build(&raw)
}

func build(raw *file) (*Snapshot, error) {
	s := &Snapshot{
		graph:   cfg.New(),
		states:  make(map[pointKey]lattice.AbstractState),
		reads:   make(map[int]analysis.LvalSet),
		writes:  make(map[int]analysis.LvalSet),
		globals: raw.Globals,
	}

	isGlobal := make(map[string]bool, len(raw.Globals))
	for _, g := range raw.Globals {
		isGlobal[g] = true
	}

	for _, fn := range raw.Functions {
		if fn.Name == "" {
			return nil, errors.New("function without name")
		}
		err := s.graph.AddFunction(&cfg.Function{
			Name:         fn.Name,
			Stub:         fn.Stub,
			Declarations: fn.Declarations,
		})
		if err != nil {
			return nil, err
		}
	}

	for _, n := range raw.Nodes {
		kind, err := cfg.ParseKind(n.Kind)
		if err != nil {
			return nil, fmt.Errorf("node %d: %w", n.ID, err)
		}
		err = s.graph.AddNode(&cfg.Node{
			ID:       n.ID,
			Kind:     kind,
			Function: n.Function,
			Pos: token.Position{
				Filename: n.Location.File,
				Line:     n.Location.Line,
				Column:   n.Location.Column,
			},
			Synthetic: n.Synthetic,
			LoopHead:  n.LoopHead,
		})
		if err != nil {
			return nil, err
		}
		if n.Location.Line < 1 || n.Location.Column < 1 {
			return nil, fmt.Errorf("node %d: location needs a line and column starting at 1", n.ID)
		}
		s.reads[n.ID] = analysis.NewLvalSet(n.Reads...)
		s.writes[n.ID] = analysis.NewLvalSet(n.Writes...)
	}
	for _, n := range raw.Nodes {
		for _, succ := range n.Successors {
			if err := s.graph.AddEdge(n.ID, succ); err != nil {
				return nil, err
			}
		}
	}

	for i, p := range raw.Points {
		n, ok := s.graph.Node(p.Node)
		if !ok {
			return nil, fmt.Errorf("point %d: unknown node %d", i, p.Node)
		}
		key := pointKey{node: p.Node, ctx: analysis.Context(p.Context)}
		if _, dup := s.states[key]; dup {
			return nil, fmt.Errorf("point %d: duplicate point %d@%s", i, p.Node, p.Context)
		}
		if p.Dead && len(p.State) > 0 {
			return nil, fmt.Errorf("point %d: dead point carries a state", i)
		}

		var state lattice.AbstractState
		if !p.Dead {
			fn, _ := s.graph.Function(n.Function)
			state = make(lattice.AbstractState, len(p.State))
			for name, v := range p.State {
				if !isGlobal[name] && !fn.Declares(name) {
					return nil, fmt.Errorf("point %d: %q is not declared in %s", i, name, fn.Name)
				}
				lattice.SetValue(state, name, lattice.Interval(v))
			}
		}
		s.states[key] = state
		s.points = append(s.points, analysis.Point{Node: n, Context: key.ctx})
	}

	for i, inv := range raw.GlobalInvariants {
		state := make(lattice.AbstractState, len(inv))
		for name, v := range inv {
			if !isGlobal[name] {
				return nil, fmt.Errorf("global invariant %d: %q is not a global", i, name)
			}
			lattice.SetValue(state, name, lattice.Interval(v))
		}
		s.globalFacts = append(s.globalFacts, NewFact(state))
	}

	return s, nil
}

// Globals returns the names of the program's global variables.
func (s *Snapshot) Globals() []string { return s.globals }

// Parser returns an expression parser with the snapshot's globals in scope.
func (s *Snapshot) Parser() *expr.Parser { return expr.NewParser(s.globals...) }

func (s *Snapshot) Graph() *cfg.Graph { return s.graph }

func (s *Snapshot) Points() []analysis.Point { return s.points }

func (s *Snapshot) EntryPoints(fn string) []analysis.Point {
	var out []analysis.Point
	for _, p := range s.points {
		if p.Node.Kind == cfg.FunctionEntry && p.Node.Function == fn {
			out = append(out, p)
		}
	}
	return out
}

func (s *Snapshot) Successors(p analysis.Point) []analysis.Point {
	var out []analysis.Point
	for _, n := range s.graph.Successors(p.Node) {
		if _, ok := s.states[pointKey{node: n.ID, ctx: p.Context}]; ok {
			out = append(out, analysis.Point{Node: n, Context: p.Context})
		}
	}
	return out
}

func (s *Snapshot) Accessed(p analysis.Point) (reads, writes analysis.LvalSet) {
	return s.reads[p.Node.ID], s.writes[p.Node.ID]
}

func (s *Snapshot) Fact(p analysis.Point, restrict analysis.LvalSet) (analysis.Invariant, bool) {
	state, ok := s.states[pointKey{node: p.Node.ID, ctx: p.Context}]
	if !ok {
		return nil, false
	}
	if restrict != nil {
		state = lattice.Project(state, restrict.Has)
	}
	return NewFact(state), true
}

func (s *Snapshot) GlobalFacts() []analysis.Invariant { return s.globalFacts }

func (s *Snapshot) Eval(p analysis.Point, e analysis.Expr) analysis.Truth {
	ex, ok := e.(*expr.Expr)
	if !ok {
		return analysis.Unknown
	}
	state, ok := s.states[pointKey{node: p.Node.ID, ctx: p.Context}]
	if !ok {
		return analysis.Unknown
	}
	return ex.Eval(state)
}
