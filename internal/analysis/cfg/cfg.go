package cfg

import (
	"fmt"
	"go/token"
	"sort"
)

// Kind classifies a control flow node.
type Kind int

const (
	Statement Kind = iota
	FunctionEntry
	FunctionReturn
)

func (k Kind) String() string {
	switch k {
	case Statement:
		return "statement"
	case FunctionEntry:
		return "entry"
	case FunctionReturn:
		return "return"
	default:
		return "unknown"
	}
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "statement", "":
		return Statement, nil
	case "entry":
		return FunctionEntry, nil
	case "return":
		return FunctionReturn, nil
	default:
		return 0, fmt.Errorf("unknown node kind %q", s)
	}
}

// Node is a single control flow location.
type Node struct {
	ID       int
	Kind     Kind
	Function string
	// Pos uses 1-based lines and columns.
	Pos       token.Position
	Synthetic bool
	LoopHead  bool
}

// IsStatement reports whether the node lies inside a function body.
func (n *Node) IsStatement() bool {
	return n.Kind == Statement
}

func (n *Node) String() string {
	return fmt.Sprintf("node %d (%s) in %s at %s", n.ID, n.Kind, n.Function, n.Pos)
}

// Function describes a function the graph has nodes for.
type Function struct {
	Name string
	// Stub functions carry a summary instead of a real body.
	Stub bool
	// Declarations lists the formals and locals visible in the body.
	Declarations []string
}

// Declares reports whether name is a formal or local of f.
func (f *Function) Declares(name string) bool {
	for _, d := range f.Declarations {
		if d == name {
			return true
		}
	}
	return false
}

// Graph is the control flow graph of a whole program.
type Graph struct {
	functions map[string]*Function
	funcOrder []string
	nodes     map[int]*Node
	nodeOrder []int
	succs     map[int][]int
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{
		functions: make(map[string]*Function),
		nodes:     make(map[int]*Node),
		succs:     make(map[int][]int),
	}
}

// AddFunction registers a function. Names must be unique.
func (g *Graph) AddFunction(f *Function) error {
	if _, ok := g.functions[f.Name]; ok {
		return fmt.Errorf("duplicate function %q", f.Name)
	}
	g.functions[f.Name] = f
	g.funcOrder = append(g.funcOrder, f.Name)
	return nil
}

// AddNode registers a node. Its function must already be known.
func (g *Graph) AddNode(n *Node) error {
	if _, ok := g.nodes[n.ID]; ok {
		return fmt.Errorf("duplicate node %d", n.ID)
	}
	if _, ok := g.functions[n.Function]; !ok {
		return fmt.Errorf("node %d: unknown function %q", n.ID, n.Function)
	}
	g.nodes[n.ID] = n
	g.nodeOrder = append(g.nodeOrder, n.ID)
	return nil
}

// AddEdge adds an intra-procedural edge between two known nodes.
func (g *Graph) AddEdge(from, to int) error {
	src, ok := g.nodes[from]
	if !ok {
		return fmt.Errorf("edge %d -> %d: unknown node %d", from, to, from)
	}
	dst, ok := g.nodes[to]
	if !ok {
		return fmt.Errorf("edge %d -> %d: unknown node %d", from, to, to)
	}
	if src.Function != dst.Function {
		return fmt.Errorf("edge %d -> %d crosses functions %s and %s", from, to, src.Function, dst.Function)
	}
	g.succs[from] = append(g.succs[from], to)
	return nil
}

// Node returns the node with the given id.
func (g *Graph) Node(id int) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Nodes returns all nodes in insertion order.
func (g *Graph) Nodes() []*Node {
	out := make([]*Node, 0, len(g.nodeOrder))
	for _, id := range g.nodeOrder {
		out = append(out, g.nodes[id])
	}
	return out
}

// Successors returns the immediate successors of n.
func (g *Graph) Successors(n *Node) []*Node {
	ids := g.succs[n.ID]
	out := make([]*Node, 0, len(ids))
	for _, id := range ids {
		out = append(out, g.nodes[id])
	}
	return out
}

// Function returns the function with the given name.
func (g *Graph) Function(name string) (*Function, bool) {
	f, ok := g.functions[name]
	return f, ok
}

// Functions returns all functions in insertion order.
func (g *Graph) Functions() []*Function {
	out := make([]*Function, 0, len(g.funcOrder))
	for _, name := range g.funcOrder {
		out = append(out, g.functions[name])
	}
	return out
}

// IsStub reports whether n belongs to a stub function.
func (g *Graph) IsStub(n *Node) bool {
	f, ok := g.functions[n.Function]
	return ok && f.Stub
}

// Files returns the sorted set of source files the nodes refer to.
func (g *Graph) Files() []string {
	seen := make(map[string]struct{})
	for _, n := range g.nodes {
		if n.Pos.Filename != "" {
			seen[n.Pos.Filename] = struct{}{}
		}
	}
	files := make([]string, 0, len(seen))
	for f := range seen {
		files = append(files, f)
	}
	sort.Strings(files)
	return files
}
