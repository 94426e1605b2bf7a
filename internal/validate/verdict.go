package validate

// Verdict is the outcome of checking one invariant. Verdicts form a chain
// ordered by declaration; combining verdicts takes the greatest.
type Verdict int

const (
	Confirmed Verdict = iota
	Unconfirmed
	Refuted
	ParseError
)

func (v Verdict) String() string {
	switch v {
	case Confirmed:
		return "confirmed"
	case Unconfirmed:
		return "unconfirmed"
	case Refuted:
		return "refuted"
	case ParseError:
		return "parse error"
	default:
		return "unknown"
	}
}

// Join returns the greater of a and b.
func Join(a, b Verdict) Verdict {
	return max(a, b)
}

// JoinAll joins vs. The join of no verdicts is Confirmed.
func JoinAll(vs ...Verdict) Verdict {
	out := Confirmed
	for _, v := range vs {
		out = Join(out, v)
	}
	return out
}

// Stats counts the outcomes of one validation run.
type Stats struct {
	Confirmed   int
	Unconfirmed int
	Refuted     int
	ParseError  int
	Unchecked   int
	Unsupported int
	Disabled    int
}

func (s *Stats) record(v Verdict) {
	switch v {
	case Confirmed:
		s.Confirmed++
	case Unconfirmed:
		s.Unconfirmed++
	case Refuted:
		s.Refuted++
	case ParseError:
		s.ParseError++
	}
}

// Total returns the number of counted outcomes.
func (s Stats) Total() int {
	return s.Confirmed + s.Unconfirmed + s.Refuted + s.ParseError + s.Unchecked + s.Unsupported + s.Disabled
}
