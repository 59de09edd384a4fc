package gosl

import (
	"github.com/go-air/gini"
	"github.com/go-air/gini/logic"
	"github.com/go-air/gini/z"
)

// SkeletonOracle decides the propositional skeleton of a reduced formula:
// theory atoms become free literals. An unsat skeleton proves the formula
// unsat. A sat skeleton only decides formulas without theory atoms; for the
// others the answer is unknown.
type SkeletonOracle struct{}

func NewSkeletonOracle() *SkeletonOracle {
	return &SkeletonOracle{}
}

type skeleton struct {
	tb    *TermBuilder
	c     *logic.C
	lits  map[TermID]z.Lit
	syms  map[TermID]z.Lit
	atoms int
}

func (s *skeleton) build(e TermID) z.Lit {
	if l, ok := s.lits[e]; ok {
		return l
	}

	tb := s.tb
	var res z.Lit
	switch tb.Kind(e) {
	case TY_BOOL_CONST:
		if tb.IsTrue(e) {
			res = s.c.T
		} else {
			res = s.c.F
		}
	case TY_BOOL_SYM:
		res = s.c.Lit()
		s.syms[e] = res
	case TY_BOOL_NOT:
		res = s.build(tb.Child(e, 0)).Not()
	case TY_BOOL_AND, TY_BOOL_OR:
		lits := make([]z.Lit, 0, tb.NumChildren(e))
		for _, ch := range tb.Children(e) {
			lits = append(lits, s.build(ch))
		}
		if tb.Kind(e) == TY_BOOL_AND {
			res = s.c.Ands(lits...)
		} else {
			res = s.c.Ors(lits...)
		}
	case TY_BOOL_IFF:
		a := s.build(tb.Child(e, 0))
		b := s.build(tb.Child(e, 1))
		res = s.c.Ands(s.c.Ors(a.Not(), b), s.c.Ors(a, b.Not()))
	default:
		// theory atom
		res = s.c.Lit()
		s.atoms++
	}

	s.lits[e] = res
	return res
}

func (o *SkeletonOracle) Decide(f *Formula) (Decision, error) {
	tb := f.Builder()
	for _, e := range f.conjuncts {
		if err := checkReduced(tb, e); err != nil {
			return Decision{Result: RESULT_ERROR}, err
		}
	}

	s := &skeleton{
		tb:   tb,
		c:    logic.NewC(),
		lits: make(map[TermID]z.Lit),
		syms: make(map[TermID]z.Lit),
	}
	roots := make([]z.Lit, 0, f.Size())
	for _, e := range f.conjuncts {
		roots = append(roots, s.build(e))
	}
	root := s.c.Ands(roots...)

	g := gini.New()
	s.c.ToCnf(g)
	g.Assume(root)
	switch g.Solve() {
	case -1:
		return Decision{Result: RESULT_UNSAT}, nil
	case 1:
		if s.atoms > 0 {
			return Decision{Result: RESULT_UNKNOWN}, nil
		}
		m := NewAssignment()
		for sym, l := range s.syms {
			m.Bools[tb.Name(sym)] = g.Value(l)
		}
		return Decision{Result: RESULT_SAT, Model: m}, nil
	}
	return Decision{Result: RESULT_UNKNOWN}, nil
}
