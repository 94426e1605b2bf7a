package lattice

import (
	"math"
	"strconv"
)

// Sentinel bounds. Finite bounds lie strictly between them.
const (
	NegInf int64 = math.MinInt64
	PosInf int64 = math.MaxInt64
)

// Interval models the integer interval lattice. Lo > Hi is the empty interval (bottom).
type Interval struct {
	Lo int64
	Hi int64
}

// Top is the interval of all integers.
func Top() Interval {
	return Interval{Lo: NegInf, Hi: PosInf}
}

// Empty is the bottom interval.
func Empty() Interval {
	return Interval{Lo: PosInf, Hi: NegInf}
}

// Const returns the singleton interval holding c.
func Const(c int64) Interval {
	return Interval{Lo: c, Hi: c}
}

// Range returns [lo, hi].
func Range(lo, hi int64) Interval {
	return Interval{Lo: lo, Hi: hi}
}

func (v Interval) IsEmpty() bool {
	return v.Lo > v.Hi
}

func (v Interval) IsTop() bool {
	return v.Lo == NegInf && v.Hi == PosInf
}

func (v Interval) IsSingleton() bool {
	return !v.IsEmpty() && v.Lo == v.Hi && v.Lo != NegInf && v.Lo != PosInf
}

// Contains reports whether c lies in v.
func (v Interval) Contains(c int64) bool {
	return v.Lo <= c && c <= v.Hi
}

func (v Interval) String() string {
	if v.IsEmpty() {
		return "Bottom"
	}
	return "[" + boundString(v.Lo) + ", " + boundString(v.Hi) + "]"
}

func boundString(b int64) string {
	switch b {
	case NegInf:
		return "-inf"
	case PosInf:
		return "+inf"
	default:
		return strconv.FormatInt(b, 10)
	}
}

// Join returns the least upper bound in the lattice.
func Join(a, b Interval) Interval {
	if a.IsEmpty() {
		return b
	}
	if b.IsEmpty() {
		return a
	}
	return Interval{Lo: min(a.Lo, b.Lo), Hi: max(a.Hi, b.Hi)}
}

// Meet returns the greatest lower bound in the lattice.
func Meet(a, b Interval) Interval {
	if a.IsEmpty() || b.IsEmpty() {
		return Empty()
	}
	out := Interval{Lo: max(a.Lo, b.Lo), Hi: min(a.Hi, b.Hi)}
	if out.IsEmpty() {
		return Empty()
	}
	return out
}

// Leq reports whether a is included in b.
func Leq(a, b Interval) bool {
	if a.IsEmpty() {
		return true
	}
	if b.IsEmpty() {
		return false
	}
	return b.Lo <= a.Lo && a.Hi <= b.Hi
}

// AbstractState maps variable names to their intervals.
// Missing entries are interpreted as Top.
type AbstractState map[string]Interval

// GetValue returns the stored value or Top when absent.
// A nil state represents Bottom (unreachable).
func GetValue(state AbstractState, name string) Interval {
	if state == nil {
		return Empty()
	}
	if val, ok := state[name]; ok {
		return val
	}
	return Top()
}

// SetValue sets the entry or removes it when value is Top.
func SetValue(state AbstractState, name string, value Interval) {
	if state == nil {
		return
	}
	if value.IsTop() {
		delete(state, name)
		return
	}
	state[name] = value
}

// CloneState returns a shallow copy of the abstract state.
func CloneState(state AbstractState) AbstractState {
	if state == nil {
		return nil
	}
	out := make(AbstractState, len(state))
	for k, v := range state {
		out[k] = v
	}
	return out
}

// JoinStates merges two abstract states using Join on each variable.
// Variables missing on either side are Top and drop out of the result.
func JoinStates(a, b AbstractState) AbstractState {
	if a == nil {
		return CloneState(b)
	}
	if b == nil {
		return CloneState(a)
	}
	out := make(AbstractState)
	for name := range a {
		if _, ok := b[name]; !ok {
			continue
		}
		SetValue(out, name, Join(GetValue(a, name), GetValue(b, name)))
	}
	return out
}

// Project keeps only the variables in keep.
func Project(state AbstractState, keep func(name string) bool) AbstractState {
	if state == nil {
		return nil
	}
	out := make(AbstractState)
	for k, v := range state {
		if keep(k) {
			out[k] = v
		}
	}
	return out
}

// StateEqual reports whether two abstract states are identical.
func StateEqual(a, b AbstractState) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if b[k] != v {
			return false
		}
	}
	return true
}
