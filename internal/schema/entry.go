package schema

import (
	"sort"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Entry is one witness record.
type Entry interface {
	Kind() Kind
	Meta() *Metadata
	// Encode converts the entry to a YAML mapping node.
	Encode() *yaml.Node
}

type LocationInvariant struct {
	Metadata  Metadata
	Location  Location
	Invariant Invariant
}

func NewLocationInvariant(m Metadata, loc Location, inv Invariant) *LocationInvariant {
	return &LocationInvariant{Metadata: m, Location: loc, Invariant: inv}
}

func (e *LocationInvariant) Kind() Kind      { return KindLocationInvariant }
func (e *LocationInvariant) Meta() *Metadata { return &e.Metadata }

func (e *LocationInvariant) Encode() *yaml.Node {
	return entryNode(e,
		str("location"), encodeLocation(e.Location),
		str(string(KindLocationInvariant)), encodeInvariant(e.Invariant),
	)
}

type LoopInvariant struct {
	Metadata  Metadata
	Location  Location
	Invariant Invariant
}

func NewLoopInvariant(m Metadata, loc Location, inv Invariant) *LoopInvariant {
	return &LoopInvariant{Metadata: m, Location: loc, Invariant: inv}
}

func (e *LoopInvariant) Kind() Kind      { return KindLoopInvariant }
func (e *LoopInvariant) Meta() *Metadata { return &e.Metadata }

func (e *LoopInvariant) Encode() *yaml.Node {
	return entryNode(e,
		str("location"), encodeLocation(e.Location),
		str(string(KindLoopInvariant)), encodeInvariant(e.Invariant),
	)
}

type FlowInsensitiveInvariant struct {
	Metadata  Metadata
	Invariant Invariant
}

func NewFlowInsensitiveInvariant(m Metadata, inv Invariant) *FlowInsensitiveInvariant {
	return &FlowInsensitiveInvariant{Metadata: m, Invariant: inv}
}

func (e *FlowInsensitiveInvariant) Kind() Kind      { return KindFlowInsensitiveInvariant }
func (e *FlowInsensitiveInvariant) Meta() *Metadata { return &e.Metadata }

func (e *FlowInsensitiveInvariant) Encode() *yaml.Node {
	return entryNode(e,
		str(string(KindFlowInsensitiveInvariant)), encodeInvariant(e.Invariant),
	)
}

// PreconditionLoopInvariant holds at Location whenever the function was
// entered in a state satisfying Precondition.
type PreconditionLoopInvariant struct {
	Metadata      Metadata
	Location      Location
	LoopInvariant Invariant
	Precondition  Invariant
}

func NewPreconditionLoopInvariant(m Metadata, loc Location, inv, pre Invariant) *PreconditionLoopInvariant {
	return &PreconditionLoopInvariant{Metadata: m, Location: loc, LoopInvariant: inv, Precondition: pre}
}

func (e *PreconditionLoopInvariant) Kind() Kind      { return KindPreconditionLoopInvariant }
func (e *PreconditionLoopInvariant) Meta() *Metadata { return &e.Metadata }

func (e *PreconditionLoopInvariant) Encode() *yaml.Node {
	return entryNode(e,
		str("location"), encodeLocation(e.Location),
		str(string(KindLoopInvariant)), encodeInvariant(e.LoopInvariant),
		str("precondition"), encodeInvariant(e.Precondition),
	)
}

// SetInvariant is one member of an invariant set. Type is either
// location_invariant or loop_invariant.
type SetInvariant struct {
	Type     Kind
	Location Location
	Value    string
	Format   string
}

type InvariantSet struct {
	Metadata Metadata
	Content  []SetInvariant
}

func NewInvariantSet(m Metadata, content []SetInvariant) *InvariantSet {
	return &InvariantSet{Metadata: m, Content: content}
}

func (e *InvariantSet) Kind() Kind      { return KindInvariantSet }
func (e *InvariantSet) Meta() *Metadata { return &e.Metadata }

func (e *InvariantSet) Encode() *yaml.Node {
	content := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
	for _, inv := range e.Content {
		content.Content = append(content.Content, mapping(
			str("invariant"), mapping(
				str("type"), str(string(inv.Type)),
				str("location"), encodeLocation(inv.Location),
				str("value"), str(inv.Value),
				str("format"), str(inv.Format),
			),
		))
	}
	return entryNode(e, str("content"), content)
}

type LoopInvariantCertificate struct {
	Metadata      Metadata
	Target        Target
	Certification Certification
}

func NewLoopInvariantCertificate(m Metadata, target Target, cert Certification) *LoopInvariantCertificate {
	return &LoopInvariantCertificate{Metadata: m, Target: target, Certification: cert}
}

func (e *LoopInvariantCertificate) Kind() Kind      { return KindLoopInvariantCertificate }
func (e *LoopInvariantCertificate) Meta() *Metadata { return &e.Metadata }

func (e *LoopInvariantCertificate) Encode() *yaml.Node {
	return entryNode(e,
		str("target"), encodeTarget(e.Target),
		str("certification"), encodeCertification(e.Certification),
	)
}

type PreconditionLoopInvariantCertificate struct {
	Metadata      Metadata
	Target        Target
	Certification Certification
}

func NewPreconditionLoopInvariantCertificate(m Metadata, target Target, cert Certification) *PreconditionLoopInvariantCertificate {
	return &PreconditionLoopInvariantCertificate{Metadata: m, Target: target, Certification: cert}
}

func (e *PreconditionLoopInvariantCertificate) Kind() Kind {
	return KindPreconditionLoopInvariantCertificate
}
func (e *PreconditionLoopInvariantCertificate) Meta() *Metadata { return &e.Metadata }

func (e *PreconditionLoopInvariantCertificate) Encode() *yaml.Node {
	return entryNode(e,
		str("target"), encodeTarget(e.Target),
		str("certification"), encodeCertification(e.Certification),
	)
}

// Nodes encodes entries in order.
func Nodes(entries []Entry) []*yaml.Node {
	out := make([]*yaml.Node, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Encode())
	}
	return out
}

func str(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
}

func integer(i int) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.Itoa(i)}
}

func mapping(kv ...*yaml.Node) *yaml.Node {
	return &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map", Content: kv}
}

func entryNode(e Entry, body ...*yaml.Node) *yaml.Node {
	kv := []*yaml.Node{
		str("entry_type"), str(string(e.Kind())),
		str("metadata"), encodeMetadata(e.Meta()),
	}
	return mapping(append(kv, body...)...)
}

func encodeMetadata(m *Metadata) *yaml.Node {
	n := mapping(
		str("format_version"), str(m.FormatVersion),
		str("uuid"), str(m.UUID),
		str("creation_time"), str(m.CreationTime.UTC().Format(TimeLayout)),
		str("producer"), encodeProducer(m.Producer),
	)
	if m.Task != nil {
		n.Content = append(n.Content, str("task"), encodeTask(m.Task))
	}
	return n
}

func encodeProducer(p Producer) *yaml.Node {
	n := mapping(
		str("name"), str(p.Name),
		str("version"), str(p.Version),
	)
	if p.CommandLine != "" {
		n.Content = append(n.Content, str("command_line"), str(p.CommandLine))
	}
	return n
}

func encodeTask(t *Task) *yaml.Node {
	files := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
	hashes := mapping()
	for _, f := range t.InputFiles {
		files.Content = append(files.Content, str(f))
	}
	names := make([]string, 0, len(t.InputFileHashes))
	for f := range t.InputFileHashes {
		names = append(names, f)
	}
	sort.Strings(names)
	for _, f := range names {
		hashes.Content = append(hashes.Content, str(f), str(t.InputFileHashes[f]))
	}
	n := mapping(
		str("input_files"), files,
		str("input_file_hashes"), hashes,
		str("data_model"), str(t.DataModel),
		str("language"), str(t.Language),
	)
	if t.Specification != "" {
		n.Content = append(n.Content, str("specification"), str(t.Specification))
	}
	return n
}

func encodeLocation(l Location) *yaml.Node {
	return mapping(
		str("file_name"), str(l.File),
		str("file_hash"), str(l.FileHash),
		str("line"), integer(l.Line),
		str("column"), integer(ColumnToWitness(l.Column)),
		str("function"), str(l.Function),
	)
}

func encodeInvariant(inv Invariant) *yaml.Node {
	return mapping(
		str("string"), str(inv.Text),
		str("type"), str(inv.Type),
		str("format"), str(inv.Format),
	)
}

func encodeTarget(t Target) *yaml.Node {
	return mapping(
		str("uuid"), str(t.UUID),
		str("type"), str(string(t.Type)),
		str("file_hash"), str(t.FileHash),
	)
}

func encodeCertification(c Certification) *yaml.Node {
	return mapping(
		str("string"), str(c.tag()),
		str("type"), str("verdict"),
		str("format"), str(c.tag()),
	)
}
