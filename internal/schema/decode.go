package schema

import (
	"fmt"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DecodeError reports a structurally malformed witness record.
type DecodeError struct {
	// Path is the dotted YAML path of the offending node.
	Path string
	Line int
	Msg  string
}

func (e *DecodeError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
	}
	return fmt.Sprintf("line %d: %s: %s", e.Line, e.Path, e.Msg)
}

func errorf(n *yaml.Node, path, format string, args ...any) *DecodeError {
	return &DecodeError{Path: path, Line: n.Line, Msg: fmt.Sprintf(format, args...)}
}

func join(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}

// Decode converts one YAML record into an entry. On error no entry is returned.
func Decode(n *yaml.Node) (Entry, error) {
	if n.Kind == yaml.DocumentNode && len(n.Content) == 1 {
		n = n.Content[0]
	}
	if n.Kind != yaml.MappingNode {
		return nil, errorf(n, "", "record is not a mapping")
	}

	tag, err := stringField(n, "", "entry_type")
	if err != nil {
		return nil, err
	}
	kind, err := ParseKind(tag)
	if err != nil {
		return nil, errorf(n, "entry_type", "%v", err)
	}
	meta, err := decodeMetadata(n, "metadata")
	if err != nil {
		return nil, err
	}

	switch kind {
	case KindLocationInvariant, KindLoopInvariant:
		loc, err := decodeLocation(n, "location")
		if err != nil {
			return nil, err
		}
		inv, err := decodeInvariant(n, string(kind))
		if err != nil {
			return nil, err
		}
		if kind == KindLocationInvariant {
			return NewLocationInvariant(meta, loc, inv), nil
		}
		return NewLoopInvariant(meta, loc, inv), nil

	case KindFlowInsensitiveInvariant:
		inv, err := decodeInvariant(n, string(kind))
		if err != nil {
			return nil, err
		}
		return NewFlowInsensitiveInvariant(meta, inv), nil

	case KindPreconditionLoopInvariant:
		loc, err := decodeLocation(n, "location")
		if err != nil {
			return nil, err
		}
		inv, err := decodeInvariant(n, string(KindLoopInvariant))
		if err != nil {
			return nil, err
		}
		pre, err := decodeInvariant(n, "precondition")
		if err != nil {
			return nil, err
		}
		return NewPreconditionLoopInvariant(meta, loc, inv, pre), nil

	case KindInvariantSet:
		content, err := decodeSetContent(n, "content")
		if err != nil {
			return nil, err
		}
		return NewInvariantSet(meta, content), nil

	case KindLoopInvariantCertificate, KindPreconditionLoopInvariantCertificate:
		target, err := decodeTarget(n, "target")
		if err != nil {
			return nil, err
		}
		cert, err := decodeCertification(n, "certification")
		if err != nil {
			return nil, err
		}
		if kind == KindLoopInvariantCertificate {
			return NewLoopInvariantCertificate(meta, target, cert), nil
		}
		return NewPreconditionLoopInvariantCertificate(meta, target, cert), nil
	}
	return nil, errorf(n, "entry_type", "unhandled entry type %q", kind)
}

func lookup(m *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return m.Content[i+1]
		}
	}
	return nil
}

func field(m *yaml.Node, path, key string) (*yaml.Node, error) {
	v := lookup(m, key)
	if v == nil {
		return nil, errorf(m, path, "missing field %q", key)
	}
	return v, nil
}

func mappingField(m *yaml.Node, path, key string) (*yaml.Node, error) {
	v, err := field(m, path, key)
	if err != nil {
		return nil, err
	}
	if v.Kind != yaml.MappingNode {
		return nil, errorf(v, join(path, key), "expected a mapping")
	}
	return v, nil
}

func stringField(m *yaml.Node, path, key string) (string, error) {
	v, err := field(m, path, key)
	if err != nil {
		return "", err
	}
	if v.Kind != yaml.ScalarNode {
		return "", errorf(v, join(path, key), "expected a scalar")
	}
	return v.Value, nil
}

func optionalString(m *yaml.Node, path, key string) (string, error) {
	if lookup(m, key) == nil {
		return "", nil
	}
	return stringField(m, path, key)
}

func intField(m *yaml.Node, path, key string) (int, error) {
	s, err := stringField(m, path, key)
	if err != nil {
		return 0, err
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0, errorf(lookup(m, key), join(path, key), "expected an integer, got %q", s)
	}
	return i, nil
}

func decodeMetadata(parent *yaml.Node, path string) (Metadata, error) {
	var m Metadata
	n, err := mappingField(parent, "", path)
	if err != nil {
		return m, err
	}
	if m.FormatVersion, err = stringField(n, path, "format_version"); err != nil {
		return m, err
	}
	if m.UUID, err = stringField(n, path, "uuid"); err != nil {
		return m, err
	}
	created, err := stringField(n, path, "creation_time")
	if err != nil {
		return m, err
	}
	if m.CreationTime, err = time.Parse(time.RFC3339, created); err != nil {
		return m, errorf(lookup(n, "creation_time"), join(path, "creation_time"), "invalid timestamp %q", created)
	}
	m.CreationTime = m.CreationTime.UTC()

	p, err := mappingField(n, path, "producer")
	if err != nil {
		return m, err
	}
	pp := join(path, "producer")
	if m.Producer.Name, err = stringField(p, pp, "name"); err != nil {
		return m, err
	}
	if m.Producer.Version, err = stringField(p, pp, "version"); err != nil {
		return m, err
	}
	if m.Producer.CommandLine, err = optionalString(p, pp, "command_line"); err != nil {
		return m, err
	}

	if lookup(n, "task") != nil {
		task, err := decodeTask(n, path)
		if err != nil {
			return m, err
		}
		m.Task = task
	}
	return m, nil
}

func decodeTask(parent *yaml.Node, path string) (*Task, error) {
	n, err := mappingField(parent, path, "task")
	if err != nil {
		return nil, err
	}
	path = join(path, "task")
	t := &Task{InputFileHashes: make(map[string]string)}

	files, err := field(n, path, "input_files")
	if err != nil {
		return nil, err
	}
	if files.Kind != yaml.SequenceNode {
		return nil, errorf(files, join(path, "input_files"), "expected a sequence")
	}
	for _, f := range files.Content {
		if f.Kind != yaml.ScalarNode {
			return nil, errorf(f, join(path, "input_files"), "expected a scalar")
		}
		t.InputFiles = append(t.InputFiles, f.Value)
	}

	hashes, err := mappingField(n, path, "input_file_hashes")
	if err != nil {
		return nil, err
	}
	for i := 0; i+1 < len(hashes.Content); i += 2 {
		k, v := hashes.Content[i], hashes.Content[i+1]
		if v.Kind != yaml.ScalarNode {
			return nil, errorf(v, join(path, "input_file_hashes"), "expected a scalar")
		}
		t.InputFileHashes[k.Value] = v.Value
	}

	if t.DataModel, err = stringField(n, path, "data_model"); err != nil {
		return nil, err
	}
	if t.Language, err = stringField(n, path, "language"); err != nil {
		return nil, err
	}
	if t.Specification, err = optionalString(n, path, "specification"); err != nil {
		return nil, err
	}
	return t, nil
}

func decodeLocationNode(n *yaml.Node, path string) (Location, error) {
	var (
		l   Location
		err error
	)
	if l.File, err = stringField(n, path, "file_name"); err != nil {
		return l, err
	}
	if l.FileHash, err = stringField(n, path, "file_hash"); err != nil {
		return l, err
	}
	if l.Line, err = intField(n, path, "line"); err != nil {
		return l, err
	}
	col, err := intField(n, path, "column")
	if err != nil {
		return l, err
	}
	if col < 0 {
		return l, errorf(lookup(n, "column"), join(path, "column"), "negative column %d", col)
	}
	l.Column = ColumnFromWitness(col)
	if l.Function, err = stringField(n, path, "function"); err != nil {
		return l, err
	}
	return l, nil
}

func decodeLocation(parent *yaml.Node, key string) (Location, error) {
	n, err := mappingField(parent, "", key)
	if err != nil {
		return Location{}, err
	}
	return decodeLocationNode(n, key)
}

func decodeInvariant(parent *yaml.Node, key string) (Invariant, error) {
	var inv Invariant
	n, err := mappingField(parent, "", key)
	if err != nil {
		return inv, err
	}
	if inv.Text, err = stringField(n, key, "string"); err != nil {
		return inv, err
	}
	if inv.Type, err = stringField(n, key, "type"); err != nil {
		return inv, err
	}
	if inv.Format, err = stringField(n, key, "format"); err != nil {
		return inv, err
	}
	return inv, nil
}

func decodeSetContent(parent *yaml.Node, key string) ([]SetInvariant, error) {
	n, err := field(parent, "", key)
	if err != nil {
		return nil, err
	}
	if n.Kind != yaml.SequenceNode {
		return nil, errorf(n, key, "expected a sequence")
	}
	out := make([]SetInvariant, 0, len(n.Content))
	for i, item := range n.Content {
		path := fmt.Sprintf("%s[%d]", key, i)
		if item.Kind != yaml.MappingNode {
			return nil, errorf(item, path, "expected a mapping")
		}
		inv, err := mappingField(item, path, "invariant")
		if err != nil {
			return nil, err
		}
		path = join(path, "invariant")

		var si SetInvariant
		tag, err := stringField(inv, path, "type")
		if err != nil {
			return nil, err
		}
		si.Type = Kind(tag)
		if si.Type != KindLocationInvariant && si.Type != KindLoopInvariant {
			return nil, errorf(lookup(inv, "type"), join(path, "type"), "unsupported invariant type %q", tag)
		}
		loc, err := mappingField(inv, path, "location")
		if err != nil {
			return nil, err
		}
		if si.Location, err = decodeLocationNode(loc, join(path, "location")); err != nil {
			return nil, err
		}
		if si.Value, err = stringField(inv, path, "value"); err != nil {
			return nil, err
		}
		if si.Format, err = stringField(inv, path, "format"); err != nil {
			return nil, err
		}
		out = append(out, si)
	}
	return out, nil
}

func decodeTarget(parent *yaml.Node, key string) (Target, error) {
	var t Target
	n, err := mappingField(parent, "", key)
	if err != nil {
		return t, err
	}
	if t.UUID, err = stringField(n, key, "uuid"); err != nil {
		return t, err
	}
	tag, err := stringField(n, key, "type")
	if err != nil {
		return t, err
	}
	if t.Type, err = ParseKind(tag); err != nil {
		return t, errorf(lookup(n, "type"), join(key, "type"), "%v", err)
	}
	if t.FileHash, err = stringField(n, key, "file_hash"); err != nil {
		return t, err
	}
	return t, nil
}

func decodeCertification(parent *yaml.Node, key string) (Certification, error) {
	n, err := mappingField(parent, "", key)
	if err != nil {
		return Certification{}, err
	}
	s, err := stringField(n, key, "string")
	if err != nil {
		return Certification{}, err
	}
	switch s {
	case "confirmed":
		return Certification{Confirmed: true}, nil
	case "rejected":
		return Certification{Confirmed: false}, nil
	default:
		return Certification{}, errorf(lookup(n, "string"), join(key, "string"), "unknown certification %q", s)
	}
}
