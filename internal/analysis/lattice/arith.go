package lattice

// Truth values are intervals over {0, 1}, as in C.
var (
	False = Const(0)
	True  = Const(1)
	Maybe = Range(0, 1)
)

func boolInterval(b bool) Interval {
	if b {
		return True
	}
	return False
}

// Truthiness returns the C truth value of v as an interval over {0, 1}.
func Truthiness(v Interval) Interval {
	switch {
	case v.IsEmpty():
		return Empty()
	case v == False:
		return False
	case !v.Contains(0):
		return True
	default:
		return Maybe
	}
}

func Neg(a Interval) Interval {
	if a.IsEmpty() {
		return a
	}
	return Interval{Lo: negBound(a.Hi), Hi: negBound(a.Lo)}
}

func negBound(b int64) int64 {
	switch b {
	case NegInf:
		return PosInf
	case PosInf:
		return NegInf
	default:
		return -b
	}
}

// Add returns a + b. Overflowing finite bounds widen to Top.
func Add(a, b Interval) Interval {
	if a.IsEmpty() || b.IsEmpty() {
		return Empty()
	}
	lo, okLo := addBound(a.Lo, b.Lo)
	hi, okHi := addBound(a.Hi, b.Hi)
	if !okLo || !okHi {
		return Top()
	}
	return Interval{Lo: lo, Hi: hi}
}

func Sub(a, b Interval) Interval {
	return Add(a, Neg(b))
}

func addBound(x, y int64) (int64, bool) {
	xInf := x == NegInf || x == PosInf
	yInf := y == NegInf || y == PosInf
	switch {
	case xInf && yInf && x != y:
		return 0, false
	case xInf:
		return x, true
	case yInf:
		return y, true
	}
	s := x + y
	if (s > x) != (y > 0) || s == NegInf || s == PosInf {
		return 0, false
	}
	return s, true
}

// Mul returns a * b. Overflowing finite bounds widen to Top.
func Mul(a, b Interval) Interval {
	if a.IsEmpty() || b.IsEmpty() {
		return Empty()
	}
	out := Empty()
	for _, x := range []int64{a.Lo, a.Hi} {
		for _, y := range []int64{b.Lo, b.Hi} {
			p, ok := mulBound(x, y)
			if !ok {
				return Top()
			}
			out = Join(out, Const(p))
		}
	}
	return out
}

func mulBound(x, y int64) (int64, bool) {
	if x == 0 || y == 0 {
		return 0, true
	}
	xInf := x == NegInf || x == PosInf
	yInf := y == NegInf || y == PosInf
	if xInf || yInf {
		if (x > 0) == (y > 0) {
			return PosInf, true
		}
		return NegInf, true
	}
	p := x * y
	if p/y != x || p == NegInf || p == PosInf {
		return 0, false
	}
	return p, true
}

// Div is exact on non-zero singletons and Top otherwise.
func Div(a, b Interval) Interval {
	if a.IsEmpty() || b.IsEmpty() {
		return Empty()
	}
	if a.IsSingleton() && b.IsSingleton() && b.Lo != 0 {
		return Const(a.Lo / b.Lo)
	}
	return Top()
}

// Rem is exact on non-zero singletons and Top otherwise.
func Rem(a, b Interval) Interval {
	if a.IsEmpty() || b.IsEmpty() {
		return Empty()
	}
	if a.IsSingleton() && b.IsSingleton() && b.Lo != 0 {
		return Const(a.Lo % b.Lo)
	}
	return Top()
}

// Lt compares a < b.
func Lt(a, b Interval) Interval {
	if a.IsEmpty() || b.IsEmpty() {
		return Empty()
	}
	switch {
	case a.Hi < b.Lo:
		return True
	case a.Lo >= b.Hi:
		return False
	default:
		return Maybe
	}
}

// Le compares a <= b.
func Le(a, b Interval) Interval {
	if a.IsEmpty() || b.IsEmpty() {
		return Empty()
	}
	switch {
	case a.Hi <= b.Lo:
		return True
	case a.Lo > b.Hi:
		return False
	default:
		return Maybe
	}
}

// Eq compares a == b.
func Eq(a, b Interval) Interval {
	if a.IsEmpty() || b.IsEmpty() {
		return Empty()
	}
	switch {
	case a.IsSingleton() && b.IsSingleton():
		return boolInterval(a.Lo == b.Lo)
	case a.Hi < b.Lo || b.Hi < a.Lo:
		return False
	default:
		return Maybe
	}
}

// Not negates a truth value.
func Not(a Interval) Interval {
	switch Truthiness(a) {
	case True:
		return False
	case False:
		return True
	case Maybe:
		return Maybe
	default:
		return Empty()
	}
}

// And is three-valued conjunction.
func And(a, b Interval) Interval {
	ta, tb := Truthiness(a), Truthiness(b)
	switch {
	case ta.IsEmpty() || tb.IsEmpty():
		return Empty()
	case ta == False || tb == False:
		return False
	case ta == True && tb == True:
		return True
	default:
		return Maybe
	}
}

// Or is three-valued disjunction.
func Or(a, b Interval) Interval {
	ta, tb := Truthiness(a), Truthiness(b)
	switch {
	case ta.IsEmpty() || tb.IsEmpty():
		return Empty()
	case ta == True || tb == True:
		return True
	case ta == False && tb == False:
		return False
	default:
		return Maybe
	}
}
