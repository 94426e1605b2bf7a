// Package validate re-checks witness entries against an analysis result and
// produces certificates for decided invariants.
package validate

import (
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/gnolang/witness/internal/analysis"
	"github.com/gnolang/witness/internal/locindex"
	"github.com/gnolang/witness/internal/schema"
)

// Hasher computes the content hash of a source file.
type Hasher interface {
	Hash(path string) (string, error)
}

// Config selects which entries are checked and which certificates are produced.
type Config struct {
	EntryTypes     schema.KindSet
	InvariantTypes schema.KindSet
	LoopHead       bool
	Producer       schema.Producer
	Task           *schema.Task
}

// Report is the outcome of one validation run.
type Report struct {
	Stats Stats
	// Records holds every input record in order, each followed by its
	// certificate when one was produced.
	Records []*yaml.Node
}

// Validator checks witness records against one analysis result.
type Validator struct {
	cfg    Config
	result analysis.Result
	parser analysis.Parser
	hasher Hasher
	logger *zap.Logger

	// OnRecord, if set, is called after each record.
	OnRecord func(done, total int)

	indices *locindex.Indices
	hashes  map[string]string
	stats   *Stats
}

// New creates a validator. A nil logger discards all output.
func New(r analysis.Result, p analysis.Parser, h Hasher, cfg Config, logger *zap.Logger) *Validator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Validator{
		cfg:    cfg,
		result: r,
		parser: p,
		hasher: h,
		logger: logger,
	}
}

// Run validates records in order. Every call starts from fresh statistics
// and fresh location indices.
func (v *Validator) Run(records []*yaml.Node) *Report {
	report := &Report{Records: make([]*yaml.Node, 0, len(records))}
	v.stats = &report.Stats
	v.indices = locindex.NewIndices(v.result, v.cfg.LoopHead)
	v.hashes = make(map[string]string)

	for i, rec := range records {
		report.Records = append(report.Records, rec)
		if cert := v.check(i, rec); cert != nil {
			report.Records = append(report.Records, cert.Encode())
		}
		if v.OnRecord != nil {
			v.OnRecord(i+1, len(records))
		}
	}

	s := report.Stats
	v.logger.Info("validated witness",
		zap.Int("confirmed", s.Confirmed),
		zap.Int("unconfirmed", s.Unconfirmed),
		zap.Int("refuted", s.Refuted),
		zap.Int("parse_error", s.ParseError),
		zap.Int("unchecked", s.Unchecked),
		zap.Int("unsupported", s.Unsupported),
		zap.Int("disabled", s.Disabled),
	)
	return report
}

func (v *Validator) check(i int, rec *yaml.Node) schema.Entry {
	entry, err := schema.Decode(rec)
	if err != nil {
		v.stats.ParseError++
		v.logger.Warn("cannot decode witness record", zap.Int("record", i), zap.Error(err))
		return nil
	}
	log := v.logger.With(zap.Int("record", i), zap.String("uuid", entry.Meta().UUID))

	if !v.cfg.EntryTypes.Has(entry.Kind()) {
		v.stats.Disabled++
		log.Debug("entry type disabled", zap.Stringer("entry_type", entry.Kind()))
		return nil
	}

	switch e := entry.(type) {
	case *schema.LocationInvariant:
		return v.checkInvariant(log, e, v.indices.Invariant.Get(), e.Location, e.Invariant.Text, schema.KindLoopInvariantCertificate)
	case *schema.LoopInvariant:
		return v.checkInvariant(log, e, v.indices.LoopHead.Get(), e.Location, e.Invariant.Text, schema.KindLoopInvariantCertificate)
	case *schema.PreconditionLoopInvariant:
		return v.checkPrecondition(log, e)
	case *schema.InvariantSet:
		v.checkSet(log, e)
		return nil
	default:
		v.stats.Unsupported++
		log.Debug("entry type not supported", zap.Stringer("entry_type", entry.Kind()))
		return nil
	}
}

func (v *Validator) bucket(log *zap.Logger, idx *locindex.Index, loc schema.Location) (*locindex.Bucket, bool) {
	b, ok := idx.Lookup(locindex.Location{File: loc.File, Line: loc.Line, Column: loc.Column})
	if !ok {
		v.stats.ParseError++
		log.Warn("location not found",
			zap.String("file", loc.File), zap.Int("line", loc.Line), zap.Int("column", loc.Column))
	}
	return b, ok
}

// verdict checks text at the points of b whose context passes keep. A nil
// keep accepts every context. It reports false if the text does not parse.
func (v *Validator) verdict(log *zap.Logger, b *locindex.Bucket, text string, keep func(analysis.Context) bool) (Verdict, bool) {
	u, err := v.parser.Parse(text)
	if err != nil {
		v.stats.ParseError++
		log.Warn("cannot parse invariant", zap.String("invariant", text), zap.Error(err))
		return ParseError, false
	}

	graph := v.result.Graph()
	verdicts := make([]Verdict, 0, len(b.Points))
	for _, p := range b.Points {
		if keep != nil && !keep(p.Context) {
			continue
		}
		fn, _ := graph.Function(p.Node.Function)
		e, err := v.parser.Bind(u, fn)
		if err != nil {
			log.Debug("cannot bind invariant", zap.Stringer("point", p), zap.Error(err))
			verdicts = append(verdicts, ParseError)
			continue
		}
		switch v.result.Eval(p, e) {
		case analysis.True, analysis.Unreachable:
			verdicts = append(verdicts, Confirmed)
		case analysis.False:
			verdicts = append(verdicts, Refuted)
		default:
			verdicts = append(verdicts, Unconfirmed)
		}
	}
	return JoinAll(verdicts...), true
}

func (v *Validator) checkInvariant(log *zap.Logger, e schema.Entry, idx *locindex.Index, loc schema.Location, text string, certKind schema.Kind) schema.Entry {
	b, ok := v.bucket(log, idx, loc)
	if !ok {
		return nil
	}
	verdict, ok := v.verdict(log, b, text, nil)
	if !ok {
		return nil
	}
	v.stats.record(verdict)
	log.Debug("invariant checked", zap.String("invariant", text), zap.Stringer("verdict", verdict))
	return v.certificate(e, loc, verdict, certKind)
}

func (v *Validator) checkPrecondition(log *zap.Logger, e *schema.PreconditionLoopInvariant) schema.Entry {
	b, ok := v.bucket(log, v.indices.Invariant.Get(), e.Location)
	if !ok {
		return nil
	}
	u, err := v.parser.Parse(e.Precondition.Text)
	if err != nil {
		v.stats.ParseError++
		log.Warn("cannot parse precondition", zap.String("precondition", e.Precondition.Text), zap.Error(err))
		return nil
	}

	kept := v.preconditionContexts(log, b, u)
	if len(kept) == 0 {
		v.stats.Unchecked++
		log.Info("precondition never definitely holds", zap.String("precondition", e.Precondition.Text))
		return nil
	}

	verdict, ok := v.verdict(log, b, e.LoopInvariant.Text, func(c analysis.Context) bool { return kept[c] })
	if !ok {
		return nil
	}
	v.stats.record(verdict)
	log.Debug("precondition invariant checked",
		zap.String("invariant", e.LoopInvariant.Text), zap.Stringer("verdict", verdict))
	return v.certificate(e, e.Location, verdict, schema.KindPreconditionLoopInvariantCertificate)
}

// preconditionContexts returns the contexts of b whose start state satisfies
// the precondition for sure, or is unreachable.
func (v *Validator) preconditionContexts(log *zap.Logger, b *locindex.Bucket, u analysis.Unbound) map[analysis.Context]bool {
	graph := v.result.Graph()
	kept := make(map[analysis.Context]bool)
	seen := make(map[string]map[analysis.Context]bool)

	for _, p := range b.Points {
		fnName := p.Node.Function
		if seen[fnName] == nil {
			seen[fnName] = make(map[analysis.Context]bool)
		}
		if seen[fnName][p.Context] {
			continue
		}
		seen[fnName][p.Context] = true

		fn, _ := graph.Function(fnName)
		e, err := v.parser.Bind(u, fn)
		if err != nil {
			log.Warn("cannot bind precondition", zap.String("function", fnName), zap.Error(err))
			continue
		}
		for _, ep := range v.result.EntryPoints(fnName) {
			if ep.Context != p.Context {
				continue
			}
			switch v.result.Eval(ep, e) {
			case analysis.True, analysis.Unreachable:
				kept[p.Context] = true
			}
		}
	}
	return kept
}

func (v *Validator) checkSet(log *zap.Logger, e *schema.InvariantSet) {
	for i, inv := range e.Content {
		if !v.cfg.InvariantTypes.Has(inv.Type) {
			v.stats.Disabled++
			continue
		}
		idx := v.indices.Invariant.Get()
		if inv.Type == schema.KindLoopInvariant {
			idx = v.indices.LoopHead.Get()
		}
		sub := log.With(zap.Int("invariant", i))
		b, ok := v.bucket(sub, idx, inv.Location)
		if !ok {
			continue
		}
		verdict, ok := v.verdict(sub, b, inv.Value, nil)
		if !ok {
			continue
		}
		v.stats.record(verdict)
	}
}

func (v *Validator) certificate(e schema.Entry, loc schema.Location, verdict Verdict, kind schema.Kind) schema.Entry {
	if verdict != Confirmed && verdict != Refuted {
		return nil
	}
	if !v.cfg.EntryTypes.Has(kind) {
		return nil
	}
	target := schema.Target{
		UUID:     e.Meta().UUID,
		Type:     e.Kind(),
		FileHash: v.fileHash(loc),
	}
	cert := schema.Certification{Confirmed: verdict == Confirmed}
	meta := schema.NewMetadata(kind, v.cfg.Producer, v.cfg.Task)
	if kind == schema.KindPreconditionLoopInvariantCertificate {
		return schema.NewPreconditionLoopInvariantCertificate(meta, target, cert)
	}
	return schema.NewLoopInvariantCertificate(meta, target, cert)
}

func (v *Validator) fileHash(loc schema.Location) string {
	h, ok := v.hashes[loc.File]
	if !ok {
		var err error
		h, err = v.hasher.Hash(loc.File)
		if err != nil {
			v.logger.Debug("cannot hash source file", zap.String("file", loc.File), zap.Error(err))
			h = ""
		}
		v.hashes[loc.File] = h
	}
	if h == "" {
		return loc.FileHash
	}
	return h
}
