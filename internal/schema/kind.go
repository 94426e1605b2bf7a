package schema

import (
	"fmt"
	"sort"
	"strings"
)

// Kind is the canonical tag of a witness entry, written as entry_type.
type Kind string

const (
	KindLocationInvariant                    Kind = "location_invariant"
	KindLoopInvariant                        Kind = "loop_invariant"
	KindFlowInsensitiveInvariant             Kind = "flow_insensitive_invariant"
	KindPreconditionLoopInvariant            Kind = "precondition_loop_invariant"
	KindInvariantSet                         Kind = "invariant_set"
	KindLoopInvariantCertificate             Kind = "loop_invariant_certificate"
	KindPreconditionLoopInvariantCertificate Kind = "precondition_loop_invariant_certificate"
)

// Kinds lists every known kind in generation order.
var Kinds = []Kind{
	KindLocationInvariant,
	KindLoopInvariant,
	KindFlowInsensitiveInvariant,
	KindPreconditionLoopInvariant,
	KindInvariantSet,
	KindLoopInvariantCertificate,
	KindPreconditionLoopInvariantCertificate,
}

func (k Kind) String() string { return string(k) }

// ParseKind returns the kind with tag s.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown entry type %q", s)
}

// KindSet is a set of enabled kinds.
type KindSet map[Kind]bool

// NewKindSet returns a set holding kinds.
func NewKindSet(kinds ...Kind) KindSet {
	s := make(KindSet, len(kinds))
	for _, k := range kinds {
		s[k] = true
	}
	return s
}

// ParseKinds builds a set from configured tags. Unknown tags are an error.
func ParseKinds(tags []string) (KindSet, error) {
	s := make(KindSet, len(tags))
	for _, tag := range tags {
		k, err := ParseKind(strings.TrimSpace(tag))
		if err != nil {
			return nil, err
		}
		s[k] = true
	}
	return s, nil
}

func (s KindSet) Has(k Kind) bool { return s[k] }

func (s KindSet) String() string {
	tags := make([]string, 0, len(s))
	for k, ok := range s {
		if ok {
			tags = append(tags, string(k))
		}
	}
	sort.Strings(tags)
	return strings.Join(tags, ",")
}
