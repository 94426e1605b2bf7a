// Package generate synthesizes witness entries from a converged analysis result.
package generate

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/gnolang/witness/internal/analysis"
	"github.com/gnolang/witness/internal/analysis/cfg"
	"github.com/gnolang/witness/internal/locindex"
	"github.com/gnolang/witness/internal/schema"
)

// ErrInconsistentAnalysis is returned when the analysis contradicts itself
// while computing precondition contexts.
var ErrInconsistentAnalysis = errors.New("inconsistent analysis result")

// Hasher computes the content hash of a source file.
type Hasher interface {
	Hash(path string) (string, error)
}

// Config selects what a Generator emits.
type Config struct {
	EntryTypes     schema.KindSet
	InvariantTypes schema.KindSet
	// Accessed restricts facts to the lvalues touched around each point.
	Accessed bool
	LoopHead bool
	Producer schema.Producer
	Task     *schema.Task
}

// Summary counts the generated entries per kind.
type Summary map[schema.Kind]int

// Generator turns one analysis result into witness entries.
type Generator struct {
	cfg     Config
	result  analysis.Result
	parser  analysis.Parser
	hasher  Hasher
	logger  *zap.Logger
	indices *locindex.Indices
	hashes  map[string]string
	entries []schema.Entry
	summary Summary
}

// New creates a generator. A nil logger discards all output.
func New(r analysis.Result, p analysis.Parser, h Hasher, cfg Config, logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{
		cfg:    cfg,
		result: r,
		parser: p,
		hasher: h,
		logger: logger,
	}
}

// Run generates every enabled kind and returns the entries, last discovered first.
func (g *Generator) Run() ([]schema.Entry, Summary, error) {
	g.indices = locindex.NewIndices(g.result, g.cfg.LoopHead)
	g.hashes = make(map[string]string)
	g.entries = nil
	g.summary = make(Summary)

	enabled := g.cfg.EntryTypes
	if enabled.Has(schema.KindLocationInvariant) {
		g.bucketInvariants(g.indices.Invariant.Get(), func(loc schema.Location, inv analysis.Invariant) {
			g.emit(schema.NewLocationInvariant(g.meta(schema.KindLocationInvariant), loc, schema.Assertion(inv.String())))
		})
	}
	if enabled.Has(schema.KindLoopInvariant) {
		g.bucketInvariants(g.indices.LoopHead.Get(), func(loc schema.Location, inv analysis.Invariant) {
			g.emit(schema.NewLoopInvariant(g.meta(schema.KindLoopInvariant), loc, schema.Assertion(inv.String())))
		})
	}
	if enabled.Has(schema.KindFlowInsensitiveInvariant) {
		g.flowInsensitive()
	}
	if enabled.Has(schema.KindPreconditionLoopInvariant) {
		if err := g.preconditions(); err != nil {
			return nil, nil, err
		}
	}
	if enabled.Has(schema.KindInvariantSet) {
		g.invariantSet()
	}

	out := make([]schema.Entry, len(g.entries))
	for i, e := range g.entries {
		out[len(g.entries)-1-i] = e
	}

	fields := make([]zap.Field, 0, len(g.summary))
	for _, k := range schema.Kinds {
		if n, ok := g.summary[k]; ok {
			fields = append(fields, zap.Int(string(k), n))
		}
	}
	g.logger.Info("generated witness", append(fields, zap.Int("total", len(out)))...)

	return out, g.summary, nil
}

func (g *Generator) emit(e schema.Entry) {
	g.entries = append(g.entries, e)
	g.summary[e.Kind()]++
}

func (g *Generator) meta(k schema.Kind) schema.Metadata {
	return schema.NewMetadata(k, g.cfg.Producer, g.cfg.Task)
}

func (g *Generator) fileHash(path string) string {
	if h, ok := g.hashes[path]; ok {
		return h
	}
	h, err := g.hasher.Hash(path)
	if err != nil {
		g.logger.Warn("cannot hash source file", zap.String("file", path), zap.Error(err))
	}
	g.hashes[path] = h
	return h
}

func (g *Generator) location(b *locindex.Bucket) schema.Location {
	return schema.Location{
		File:     b.Location.File,
		FileHash: g.fileHash(b.Location.File),
		Line:     b.Location.Line,
		Column:   b.Location.Column,
		Function: b.Function,
	}
}

// touched returns the lvalues written or read at p and read at its
// successors, or nil when facts are not restricted.
func (g *Generator) touched(p analysis.Point) analysis.LvalSet {
	if !g.cfg.Accessed {
		return nil
	}
	reads, writes := g.result.Accessed(p)
	set := analysis.NewLvalSet()
	set.Union(writes)
	set.Union(reads)
	for _, s := range g.result.Successors(p) {
		r, _ := g.result.Accessed(s)
		set.Union(r)
	}
	return set
}

// disjoin joins the facts of points, each restricted to restrict(p). It
// reports false if any point has no fact.
func (g *Generator) disjoin(points []analysis.Point, restrict func(analysis.Point) analysis.LvalSet) (analysis.Invariant, bool) {
	var combined analysis.Invariant
	for _, p := range points {
		f, ok := g.result.Fact(p, restrict(p))
		if !ok {
			g.logger.Debug("no fact at point", zap.Stringer("point", p))
			return nil, false
		}
		if combined == nil {
			combined = f
		} else {
			combined = combined.Or(f)
		}
	}
	return combined, combined != nil
}

func informative(inv analysis.Invariant) bool {
	return !inv.IsBottom() && !inv.IsTop()
}

func (g *Generator) bucketInvariants(idx *locindex.Index, emit func(schema.Location, analysis.Invariant)) {
	for _, b := range idx.Buckets() {
		combined, ok := g.disjoin(b.Points, g.touched)
		if !ok || !informative(combined) {
			continue
		}
		loc := g.location(b)
		for _, c := range combined.Conjuncts() {
			g.logger.Debug("invariant", zap.Stringer("location", b.Location), zap.String("invariant", c.String()))
			emit(loc, c)
		}
	}
}

func (g *Generator) flowInsensitive() {
	for _, f := range g.result.GlobalFacts() {
		if !informative(f) {
			continue
		}
		for _, c := range f.Conjuncts() {
			g.emit(schema.NewFlowInsensitiveInvariant(g.meta(schema.KindFlowInsensitiveInvariant), schema.Assertion(c.String())))
		}
	}
}

func (g *Generator) invariantSet() {
	var content []schema.SetInvariant
	collect := func(kind schema.Kind, idx *locindex.Index) {
		if !g.cfg.InvariantTypes.Has(kind) {
			return
		}
		g.bucketInvariants(idx, func(loc schema.Location, inv analysis.Invariant) {
			content = append(content, schema.SetInvariant{
				Type:     kind,
				Location: loc,
				Value:    inv.String(),
				Format:   schema.FormatCExpr,
			})
		})
	}
	collect(schema.KindLocationInvariant, g.indices.Invariant.Get())
	collect(schema.KindLoopInvariant, g.indices.LoopHead.Get())

	g.emit(schema.NewInvariantSet(g.meta(schema.KindInvariantSet), content))
}

type entryContext struct {
	ctx   analysis.Context
	point analysis.Point
	fact  analysis.Invariant
}

type funcContext struct {
	fn  string
	ctx analysis.Context
}

func (g *Generator) preconditions() error {
	graph := g.result.Graph()

	entries := make(map[funcContext]entryContext)
	weaker := make(map[funcContext][]analysis.Context)

	for _, fn := range graph.Functions() {
		var contexts []entryContext
		for _, ep := range g.result.EntryPoints(fn.Name) {
			f, ok := g.result.Fact(ep, nil)
			if !ok || f.IsBottom() {
				continue
			}
			ec := entryContext{ctx: ep.Context, point: ep, fact: f}
			contexts = append(contexts, ec)
			entries[funcContext{fn.Name, ep.Context}] = ec
		}

		for _, c := range contexts {
			ws, err := g.weakerContexts(fn, c, contexts)
			if err != nil {
				return err
			}
			weaker[funcContext{fn.Name, c.ctx}] = ws
		}
	}

	for _, b := range g.indices.Invariant.Get().Buckets() {
		for _, p := range b.Points {
			key := funcContext{p.Node.Function, p.Context}
			ec, ok := entries[key]
			if !ok {
				continue
			}
			restrict := g.touched(p)
			points := make([]analysis.Point, 0, len(weaker[key]))
			for _, c := range weaker[key] {
				points = append(points, analysis.Point{Node: p.Node, Context: c})
			}
			combined, ok := g.disjoin(points, func(analysis.Point) analysis.LvalSet { return restrict })
			if !ok || !informative(combined) {
				continue
			}
			loc := g.location(b)
			pre := schema.Assertion(ec.fact.String())
			for _, c := range combined.Conjuncts() {
				g.emit(schema.NewPreconditionLoopInvariant(
					g.meta(schema.KindPreconditionLoopInvariant), loc, schema.Assertion(c.String()), pre))
			}
		}
	}
	return nil
}

// weakerContexts returns the contexts whose start state is not provably
// excluded by the entry fact of c.
func (g *Generator) weakerContexts(fn *cfg.Function, c entryContext, all []entryContext) ([]analysis.Context, error) {
	var e analysis.Expr
	u, err := g.parser.Parse(c.fact.String())
	if err == nil {
		e, err = g.parser.Bind(u, fn)
	}
	if err != nil {
		g.logger.Debug("entry fact not evaluable, keeping every context",
			zap.String("function", fn.Name), zap.String("context", string(c.ctx)), zap.Error(err))
	}

	var out []analysis.Context
	for _, other := range all {
		if e == nil {
			out = append(out, other.ctx)
			continue
		}
		switch g.result.Eval(other.point, e) {
		case analysis.Unreachable:
			return nil, fmt.Errorf("%w: entry of %s in context %s is unreachable under %q",
				ErrInconsistentAnalysis, fn.Name, other.ctx, c.fact.String())
		case analysis.False:
		default:
			out = append(out, other.ctx)
		}
	}
	return out, nil
}
