package snapshot

import (
	"strconv"
	"strings"

	"github.com/gnolang/witness/internal/analysis"
	"github.com/gnolang/witness/internal/analysis/lattice"
)

// Fact is an interval state used as an analysis.Invariant.
type Fact struct {
	state lattice.AbstractState
}

// NewFact wraps state. A nil state is bottom.
func NewFact(state lattice.AbstractState) *Fact {
	return &Fact{state: state}
}

// State returns the underlying abstract state.
func (f *Fact) State() lattice.AbstractState { return f.state }

func (f *Fact) IsBottom() bool { return f.state == nil }

func (f *Fact) IsTop() bool { return f.state != nil && len(f.state) == 0 }

// Or joins f with other. Facts from another domain yield top.
func (f *Fact) Or(other analysis.Invariant) analysis.Invariant {
	o, ok := other.(*Fact)
	if !ok {
		return &Fact{state: lattice.AbstractState{}}
	}
	return &Fact{state: lattice.JoinStates(f.state, o.state)}
}

// Conjuncts returns one fact per bound, ordered by variable name.
func (f *Fact) Conjuncts() []analysis.Invariant {
	if f.IsBottom() || f.IsTop() {
		return []analysis.Invariant{f}
	}
	var out []analysis.Invariant
	for _, name := range sortedVars(f.state) {
		v := f.state[name]
		if v.IsSingleton() {
			out = append(out, &Fact{state: lattice.AbstractState{name: v}})
			continue
		}
		if v.Lo != lattice.NegInf {
			out = append(out, &Fact{state: lattice.AbstractState{name: lattice.Range(v.Lo, lattice.PosInf)}})
		}
		if v.Hi != lattice.PosInf {
			out = append(out, &Fact{state: lattice.AbstractState{name: lattice.Range(lattice.NegInf, v.Hi)}})
		}
	}
	return out
}

// String renders f as a C expression.
func (f *Fact) String() string {
	switch {
	case f.IsBottom():
		return "0"
	case f.IsTop():
		return "1"
	}
	var parts []string
	for _, name := range sortedVars(f.state) {
		v := f.state[name]
		if v.IsSingleton() {
			parts = append(parts, name+" == "+strconv.FormatInt(v.Lo, 10))
			continue
		}
		if v.Lo != lattice.NegInf {
			parts = append(parts, strconv.FormatInt(v.Lo, 10)+" <= "+name)
		}
		if v.Hi != lattice.PosInf {
			parts = append(parts, name+" <= "+strconv.FormatInt(v.Hi, 10))
		}
	}
	return strings.Join(parts, " && ")
}

func sortedVars(state lattice.AbstractState) []string {
	set := make(analysis.LvalSet, len(state))
	for name := range state {
		set[name] = struct{}{}
	}
	return set.Sorted()
}
