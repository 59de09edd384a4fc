package gosl

import (
	"strings"
)

// Formula is a goal: an ordered list of top-level conjuncts, implicitly
// conjoined, together with the flags of the pipeline that produced it.
type Formula struct {
	tb        *TermBuilder
	conjuncts []TermID
	present   map[TermID]bool

	ProofsEnabled    bool
	ModelsEnabled    bool
	UnsatCoreEnabled bool

	// Inconsistent is set when false was asserted.
	Inconsistent bool
	DecidedUnsat bool
	DecidedSat   bool

	// Depth counts the refinement steps applied to the goal.
	Depth uint
}

func NewFormula(tb *TermBuilder) *Formula {
	return &Formula{
		tb:        tb,
		conjuncts: make([]TermID, 0),
		present:   map[TermID]bool{},
	}
}

func (f *Formula) Builder() *TermBuilder {
	return f.tb
}

// Assert appends e to the conjuncts. True is skipped, false makes the
// formula inconsistent and duplicates are dropped.
func (f *Formula) Assert(e TermID) {
	if f.tb.IsTrue(e) {
		return
	}
	if f.tb.IsFalse(e) {
		f.Inconsistent = true
	}
	if f.present[e] {
		return
	}
	f.present[e] = true
	f.conjuncts = append(f.conjuncts, e)
}

func (f *Formula) Size() int {
	return len(f.conjuncts)
}

func (f *Formula) Form(i int) TermID {
	return f.conjuncts[i]
}

func (f *Formula) Conjuncts() []TermID {
	return append([]TermID{}, f.conjuncts...)
}

// Copy returns a formula with the same flags. Conjuncts are copied only when
// withForms is set.
func (f *Formula) Copy(withForms bool) *Formula {
	res := NewFormula(f.tb)
	res.ProofsEnabled = f.ProofsEnabled
	res.ModelsEnabled = f.ModelsEnabled
	res.UnsatCoreEnabled = f.UnsatCoreEnabled
	res.Depth = f.Depth
	if withForms {
		for _, e := range f.conjuncts {
			res.Assert(e)
		}
		res.Inconsistent = f.Inconsistent
		res.DecidedUnsat = f.DecidedUnsat
		res.DecidedSat = f.DecidedSat
	}
	return res
}

// AsTerm returns the conjunction of all conjuncts.
func (f *Formula) AsTerm() TermID {
	res, err := f.tb.BoolAnd(f.conjuncts...)
	if err != nil {
		violation("ill-sorted conjunct: %s", err)
	}
	return res
}

// IsWellSorted checks that every conjunct is Boolean. Sorts of subterms are
// checked by the builder at construction.
func (f *Formula) IsWellSorted() bool {
	for _, e := range f.conjuncts {
		if !f.tb.Sort(e).IsBool() {
			return false
		}
	}
	return true
}

func (f *Formula) String() string {
	b := strings.Builder{}
	b.WriteString("(goal")
	for _, e := range f.conjuncts {
		b.WriteString("\n  ")
		b.WriteString(f.tb.String(e))
	}
	if f.Inconsistent {
		b.WriteString("\n  :inconsistent")
	}
	if f.DecidedUnsat {
		b.WriteString("\n  :decided-unsat")
	}
	b.WriteString(")")
	return b.String()
}
